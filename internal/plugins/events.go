package plugins

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/kstream"
	"concierge-backend/internal/model"
)

// PublishFunc sends a conversion event. Injectable for tests.
type PublishFunc func(ctx context.Context, evt kstream.ConversionEvent) error

// ConversionEvents publishes a conversion event the first time a search
// returns products for a WhatsApp contact. Deduplication is per contact URN,
// so a shared long-lived instance emits one event per contact rather than one
// per process.
type ConversionEvents struct {
	concierge.NopPlugin

	publish PublishFunc
	log     *zap.Logger

	mu    sync.Mutex
	fired map[string]bool
}

func NewConversionEvents(publish PublishFunc, logger *zap.Logger) *ConversionEvents {
	if publish == nil {
		publish = kstream.PublishConversion
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionEvents{
		publish: publish,
		log:     logger,
		fired:   make(map[string]bool),
	}
}

func (e *ConversionEvents) FinalizeResult(ctx context.Context, result concierge.Result, sc *concierge.SearchContext) concierge.Result {
	count := productCount(result)
	if count == 0 {
		return result
	}

	urn := sc.ContactString("urn")
	if !strings.HasPrefix(urn, "whatsapp:") {
		return result
	}

	e.mu.Lock()
	if e.fired[urn] {
		e.mu.Unlock()
		return result
	}
	e.fired[urn] = true
	e.mu.Unlock()

	evt := kstream.ConversionEvent{
		ID:           uuid.New(),
		Type:         "product_search",
		ContactURN:   urn,
		ChannelUUID:  sc.ContactString("channel_uuid"),
		Query:        sc.ProductName,
		ProductCount: count,
		OccurredAt:   time.Now().UTC(),
	}
	if err := e.publish(ctx, evt); err != nil {
		e.log.Warn("conversion event publish failed", zap.Error(err))
	}
	return result
}

func productCount(result concierge.Result) int {
	n := 0
	for _, v := range result {
		if _, ok := v.(*model.Product); ok {
			n++
		}
	}
	return n
}
