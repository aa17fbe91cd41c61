package plugins

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/kstream"
	"concierge-backend/internal/model"
)

func whatsappContext() *concierge.SearchContext {
	sc := newContext("", "")
	sc.ProductName = "drill"
	sc.ContactInfo = map[string]any{
		"urn":          "whatsapp:5511999999999",
		"channel_uuid": "chan-123",
	}
	return sc
}

func resultWithProducts(n int) concierge.Result {
	result := concierge.Result{"region_message": "ignored"}
	for i := 0; i < n; i++ {
		result["Product "+string(rune('A'+i))] = &model.Product{}
	}
	return result
}

func TestConversionEventsPublishesOnce(t *testing.T) {
	var published []kstream.ConversionEvent
	plugin := NewConversionEvents(func(_ context.Context, evt kstream.ConversionEvent) error {
		published = append(published, evt)
		return nil
	}, nil)

	sc := whatsappContext()
	plugin.FinalizeResult(context.Background(), resultWithProducts(2), sc)
	plugin.FinalizeResult(context.Background(), resultWithProducts(2), sc)

	require.Len(t, published, 1)
	evt := published[0]
	assert.Equal(t, "product_search", evt.Type)
	assert.Equal(t, "whatsapp:5511999999999", evt.ContactURN)
	assert.Equal(t, "chan-123", evt.ChannelUUID)
	assert.Equal(t, "drill", evt.Query)
	assert.Equal(t, 2, evt.ProductCount)
	assert.NotZero(t, evt.ID)
}

func TestConversionEventsOnePerContact(t *testing.T) {
	var published []kstream.ConversionEvent
	plugin := NewConversionEvents(func(_ context.Context, evt kstream.ConversionEvent) error {
		published = append(published, evt)
		return nil
	}, nil)

	first := whatsappContext()
	second := whatsappContext()
	second.ContactInfo["urn"] = "whatsapp:5511888888888"

	// Same long-lived plugin instance serving different contacts.
	plugin.FinalizeResult(context.Background(), resultWithProducts(1), first)
	plugin.FinalizeResult(context.Background(), resultWithProducts(1), second)
	plugin.FinalizeResult(context.Background(), resultWithProducts(1), second)

	require.Len(t, published, 2)
	assert.Equal(t, "whatsapp:5511999999999", published[0].ContactURN)
	assert.Equal(t, "whatsapp:5511888888888", published[1].ContactURN)
}

func TestConversionEventsNoProductsNoEvent(t *testing.T) {
	published := 0
	plugin := NewConversionEvents(func(_ context.Context, _ kstream.ConversionEvent) error {
		published++
		return nil
	}, nil)

	plugin.FinalizeResult(context.Background(), resultWithProducts(0), whatsappContext())

	assert.Zero(t, published)
}

func TestConversionEventsNonWhatsAppContact(t *testing.T) {
	published := 0
	plugin := NewConversionEvents(func(_ context.Context, _ kstream.ConversionEvent) error {
		published++
		return nil
	}, nil)

	sc := whatsappContext()
	sc.ContactInfo["urn"] = "tel:+5511999999999"
	plugin.FinalizeResult(context.Background(), resultWithProducts(1), sc)

	assert.Zero(t, published)
}

func TestConversionEventsResultPassesThrough(t *testing.T) {
	plugin := NewConversionEvents(func(_ context.Context, _ kstream.ConversionEvent) error {
		return nil
	}, nil)

	in := resultWithProducts(1)
	out := plugin.FinalizeResult(context.Background(), in, whatsappContext())

	assert.Equal(t, in, out)
}
