package concierge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"concierge-backend/internal/model"
)

func bulkySet(n int) *model.ProductSet {
	set := model.NewProductSet()
	for i := 0; i < n; i++ {
		name := "Product " + string(rune('A'+i))
		set.Add(name, &model.Product{
			Description: strings.Repeat("x", 2048),
			Variations:  []model.Variation{{SKUID: name}},
		})
	}
	return set
}

func TestLimitPayloadSizeTrimsTail(t *testing.T) {
	set := bulkySet(10)

	LimitPayloadSize(set, 5)

	assert.Less(t, set.Len(), 10)
	assert.Greater(t, set.Len(), 0)
	assert.LessOrEqual(t, serializedSize(set), 5*1024)

	// Remaining products are the highest-priority prefix in order.
	names := set.Names()
	for i, name := range names {
		assert.Equal(t, "Product "+string(rune('A'+i)), name)
	}
}

func TestLimitPayloadSizeNoTrimWhenUnderBudget(t *testing.T) {
	set := bulkySet(2)

	LimitPayloadSize(set, 100)

	assert.Equal(t, 2, set.Len())
}

func TestLimitPayloadSizeOversizedSingleProduct(t *testing.T) {
	set := model.NewProductSet()
	set.Add("Giant", &model.Product{Description: strings.Repeat("x", 64*1024)})

	LimitPayloadSize(set, 1)

	assert.Equal(t, 0, set.Len(), "a single product over budget leaves an empty set")
}

func TestLimitPayloadSizeNilSet(t *testing.T) {
	assert.Nil(t, LimitPayloadSize(nil, 10))
}
