// Package orders wraps the OMS order endpoints with the response shaping the
// conversational layer expects: monetary fields converted from cents and
// timestamps rendered in Brazilian local time.
package orders

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

const brazilTimeLayout = "02/01/2006 15:04:05"

// priceKeyFragments marks map keys whose numeric values are denominated in
// cents upstream.
var priceKeyFragments = []string{"price", "value", "total"}

// OrderFetcher is the slice of the vtex client the orders concierge needs.
type OrderFetcher interface {
	OrdersByDocument(ctx context.Context, document string, includeIncomplete bool) (map[string]any, error)
	OrderByID(ctx context.Context, orderID string) (map[string]any, error)
}

// Concierge shapes OMS order payloads for presentation.
type Concierge struct {
	fetcher OrderFetcher
	log     *zap.Logger
}

func New(fetcher OrderFetcher, logger *zap.Logger) *Concierge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Concierge{fetcher: fetcher, log: logger}
}

// SearchOrders lists a customer's orders by document number, with monetary
// values converted to currency units and dates localized.
func (c *Concierge) SearchOrders(ctx context.Context, document string, includeIncomplete bool) (map[string]any, error) {
	if document == "" {
		return nil, fmt.Errorf("document is required")
	}
	raw, err := c.fetcher.OrdersByDocument(ctx, document, includeIncomplete)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	shaped, _ := shapeValue(raw, "").(map[string]any)
	return shaped, nil
}

// OrderDetails returns one order by id with the same shaping.
func (c *Concierge) OrderDetails(ctx context.Context, orderID string) (map[string]any, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	raw, err := c.fetcher.OrderByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order details: %w", err)
	}
	shaped, _ := shapeValue(raw, "").(map[string]any)
	return shaped, nil
}

// shapeValue walks the payload converting cents on price-like keys and
// localizing date-like string values.
func shapeValue(v any, key string) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = shapeValue(inner, k)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = shapeValue(inner, key)
		}
		return out
	case float64:
		if isPriceKey(key) {
			return convertCents(val)
		}
		return val
	case string:
		if isDateKey(key) {
			if localized, ok := brazilTime(val); ok {
				return localized
			}
		}
		return val
	default:
		return val
	}
}

func isPriceKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range priceKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func isDateKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "date")
}

// convertCents turns an integer cent amount into currency units rounded to
// two decimals.
func convertCents(v float64) float64 {
	return math.Round(v) / 100
}

// brazilTime renders an RFC 3339 timestamp in America/Sao_Paulo local time.
func brazilTime(value string) (string, bool) {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return "", false
	}
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		return "", false
	}
	return t.In(loc).Format(brazilTimeLayout), true
}
