// Package stock resolves which SKUs of a shaped product set can actually be
// fulfilled, by flattening products into SKU records, issuing one cart
// simulation (simple or seller-batch), reconciling the response, and
// filtering the product set down to in-stock variations.
package stock

import (
	"context"
	"strings"

	"concierge-backend/internal/model"
)

// Default caps for seller-batch simulation quantities.
const (
	DefaultMaxPerSellerQuantity = 8000
	DefaultMaxTotalQuantity     = 24000
)

// fallbackSeller is used for SKUs whose shaped variation carries no seller
// hint on the simple simulation path.
const fallbackSeller = "1"

// Simulator issues cart simulations. Satisfied by the vtex client.
type Simulator interface {
	SimulateCart(ctx context.Context, req model.SimulationRequest) (*model.Simulation, error)
}

// Query carries the per-search inputs the engine needs. The orchestrator
// builds it from the search context so the engine stays free of pipeline
// state.
type Query struct {
	Quantity     int
	CountryCode  string
	PostalCode   string
	SalesChannel int

	// Sellers is the resolved region seller list; empty selects the simple
	// simulation path.
	Sellers []string

	// PriorityCategories force a minimum request quantity of 1 for SKUs in
	// the named category paths.
	PriorityCategories []string
}

// Engine is a stateless availability resolver.
type Engine struct {
	MaxPerSellerQuantity int
	MaxTotalQuantity     int
}

func NewEngine() *Engine {
	return &Engine{
		MaxPerSellerQuantity: DefaultMaxPerSellerQuantity,
		MaxTotalQuantity:     DefaultMaxTotalQuantity,
	}
}

// Flatten converts the structured product set into one record per SKU,
// carrying the product-level fields the final result needs.
func (e *Engine) Flatten(products *model.ProductSet) []model.SKURecord {
	var records []model.SKURecord
	for _, name := range products.Names() {
		p, _ := products.Get(name)
		for _, v := range p.Variations {
			records = append(records, model.SKURecord{
				SKUID:           v.SKUID,
				SKUName:         v.SKUName,
				Variations:      v.Variations,
				SellerID:        v.SellerID,
				Description:     p.Description,
				Brand:           p.Brand,
				Categories:      p.Categories,
				ImageURL:        v.ImageURL,
				Price:           v.Price,
				SpotPrice:       v.SpotPrice,
				ListPrice:       v.ListPrice,
				PixPrice:        v.PixPrice,
				CreditCardPrice: v.CreditCardPrice,
			})
		}
	}
	return records
}

// CheckSimple resolves availability with a single plain simulation: one item
// per SKU at the requested quantity against the SKU's hinted seller. Used
// when no region sellers were resolved.
func (e *Engine) CheckSimple(ctx context.Context, sim Simulator, products *model.ProductSet, q Query) []model.SKURecord {
	records := e.Flatten(products)
	if len(records) == 0 {
		return nil
	}

	items := make([]model.SimulationRequestItem, 0, len(records))
	for _, r := range records {
		seller := r.SellerID
		if seller == "" {
			seller = fallbackSeller
		}
		items = append(items, model.SimulationRequestItem{
			ID:       r.SKUID,
			Quantity: q.Quantity,
			Seller:   seller,
		})
	}

	result, err := sim.SimulateCart(ctx, model.SimulationRequest{
		Items:        items,
		Country:      q.CountryCode,
		SalesChannel: q.SalesChannel,
	})
	if err != nil || result == nil {
		return nil
	}

	available := make(map[string]bool)
	for _, item := range result.Items {
		if strings.EqualFold(item.Availability, "available") {
			available[item.ID] = true
		}
	}

	var inStock []model.SKURecord
	for _, r := range records {
		if available[r.SKUID] {
			inStock = append(inStock, r)
		}
	}
	return inStock
}

// CheckWithSellers resolves availability against the resolved region sellers
// with one batch simulation covering the full SKU x seller cross-product.
// Falls back to the simple path when no sellers were resolved.
func (e *Engine) CheckWithSellers(ctx context.Context, sim Simulator, products *model.ProductSet, q Query) []model.SKURecord {
	if len(q.Sellers) == 0 {
		return e.CheckSimple(ctx, sim, products, q)
	}

	records := e.Flatten(products)
	if len(records) == 0 {
		return nil
	}

	items := e.buildBatchItems(records, q)
	result, err := sim.SimulateCart(ctx, model.SimulationRequest{
		Items:        items,
		Country:      q.CountryCode,
		PostalCode:   q.PostalCode,
		SalesChannel: q.SalesChannel,
	})
	if err != nil || result == nil {
		return nil
	}

	return e.reconcile(records, result)
}

// buildBatchItems shapes the batch request: every SKU is paired with every
// resolved seller, at an identical per-seller quantity derived from the SKU's
// effective request quantity and the configured caps.
func (e *Engine) buildBatchItems(records []model.SKURecord, q Query) []model.SimulationRequestItem {
	items := make([]model.SimulationRequestItem, 0, len(records)*len(q.Sellers))
	for _, r := range records {
		quantity := q.Quantity
		if isPriorityCategory(r.Categories, q.PriorityCategories) && quantity < 1 {
			quantity = 1
		}
		perSeller := e.perSellerQuantity(quantity, len(q.Sellers))
		for _, seller := range q.Sellers {
			items = append(items, model.SimulationRequestItem{
				ID:       r.SKUID,
				Quantity: perSeller,
				Seller:   seller,
			})
		}
	}
	return items
}

// perSellerQuantity distributes a requested quantity across k sellers:
// total = min(quantity*k, maxTotal), perSeller = min(total/k, maxPerSeller)
// with integer division.
func (e *Engine) perSellerQuantity(quantity, sellerCount int) int {
	if sellerCount <= 0 {
		return 0
	}
	total := quantity * sellerCount
	if total > e.MaxTotalQuantity {
		total = e.MaxTotalQuantity
	}
	perSeller := total / sellerCount
	if perSeller > e.MaxPerSellerQuantity {
		perSeller = e.MaxPerSellerQuantity
	}
	return perSeller
}

// reconcile merges simulation results back into SKU records. Each SKU takes
// its best matching item (highest fulfilled quantity); SKUs with no match in
// the response are omitted entirely rather than recorded as unavailable.
func (e *Engine) reconcile(records []model.SKURecord, result *model.Simulation) []model.SKURecord {
	var inStock []model.SKURecord
	for _, r := range records {
		item, ok := bestSimulationItem(result, r.SKUID)
		if !ok || !strings.EqualFold(item.Availability, "available") {
			continue
		}
		r.MeasurementUnit = item.MeasurementUnit
		r.UnitMultiplier = item.UnitMultiplier
		r.SellerID = item.Seller
		r.AvailableQuantity = item.Quantity
		inStock = append(inStock, r)
	}
	return inStock
}

// bestSimulationItem returns the matching item with the highest fulfilled
// quantity for a SKU.
func bestSimulationItem(result *model.Simulation, skuID string) (model.SimulatedItem, bool) {
	var best model.SimulatedItem
	found := false
	for _, item := range result.Items {
		if item.ID != skuID {
			continue
		}
		if !found || item.Quantity > best.Quantity {
			best = item
			found = true
		}
	}
	return best, found
}

func isPriorityCategory(categories, priority []string) bool {
	if len(categories) == 0 || len(priority) == 0 {
		return false
	}
	for _, c := range categories {
		for _, p := range priority {
			if c == p {
				return true
			}
		}
	}
	return false
}

// FilterInStock rebuilds the product set keeping only variations whose SKU
// survived reconciliation, merging the stock annotations into each kept
// variation. Products left with no variations are dropped.
func (e *Engine) FilterInStock(products *model.ProductSet, inStock []model.SKURecord) *model.ProductSet {
	filtered := model.NewProductSet()
	if len(inStock) == 0 {
		return filtered
	}

	stockInfo := make(map[string]model.SKURecord, len(inStock))
	for _, r := range inStock {
		stockInfo[r.SKUID] = r
	}

	for _, name := range products.Names() {
		p, _ := products.Get(name)

		var kept []model.Variation
		for _, v := range p.Variations {
			info, ok := stockInfo[v.SKUID]
			if !ok {
				continue
			}
			v.MeasurementUnit = info.MeasurementUnit
			v.UnitMultiplier = info.UnitMultiplier
			v.AvailableQuantity = info.AvailableQuantity
			v.DeliveryType = info.DeliveryType
			v.MinQuantity = info.MinQuantity
			v.WholesalePrice = info.WholesalePrice
			if info.SellerID != "" {
				v.SellerID = info.SellerID
			}
			kept = append(kept, v)
		}

		if len(kept) > 0 {
			clone := *p
			clone.Variations = kept
			filtered.Add(name, &clone)
		}
	}

	return filtered
}
