package concierge

import (
	"encoding/json"

	"concierge-backend/internal/model"
)

type namedProduct struct {
	ProductName string         `json:"product_name"`
	ProductData *model.Product `json:"product_data"`
}

// LimitPayloadSize greedily trims the lowest-priority (last-ordered) products
// until the serialized set fits the KB budget. Order is the caller's priority
// signal; the limiter never reorders. Returns the same set, mutated.
func LimitPayloadSize(products *model.ProductSet, maxKB int) *model.ProductSet {
	if products == nil || maxKB <= 0 {
		return products
	}

	budget := maxKB * 1024
	for products.Len() > 0 && serializedSize(products) > budget {
		products.RemoveLast()
	}
	return products
}

func serializedSize(products *model.ProductSet) int {
	list := make([]namedProduct, 0, products.Len())
	for _, name := range products.Names() {
		p, _ := products.Get(name)
		list = append(list, namedProduct{ProductName: name, ProductData: p})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return 0
	}
	return len(data)
}
