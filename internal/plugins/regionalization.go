// Package plugins holds the stock pipeline extensions shipped with the
// concierge: regionalization, wholesale pricing and conversion events.
package plugins

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/model"
)

// RegionalizationConfig tunes region and seller resolution.
type RegionalizationConfig struct {
	// DefaultSeller is used when the request carries no postal code.
	DefaultSeller string

	// SellerRules maps delivery types to the sellers allowed to serve them.
	// Rules carried on the search context take precedence over these.
	SellerRules map[string][]string

	// PriorityCategories flag products that must not be offered without a
	// delivery type when RequireDeliveryType is set.
	PriorityCategories []string

	// RequireDeliveryType adds a warning to the result when priority
	// products match a search that did not specify a delivery type.
	RequireDeliveryType bool
}

// Regionalization resolves the buyer's region into a seller list before the
// catalog query, and narrows that list by delivery-type rules.
type Regionalization struct {
	concierge.NopPlugin

	cfg RegionalizationConfig
	log *zap.Logger
}

func NewRegionalization(cfg RegionalizationConfig, logger *zap.Logger) *Regionalization {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Regionalization{cfg: cfg, log: logger}
}

func (r *Regionalization) BeforeSearch(ctx context.Context, sc *concierge.SearchContext, client concierge.CatalogClient) *concierge.SearchContext {
	if sc.PostalCode == "" {
		if r.cfg.DefaultSeller != "" {
			sc.SetRegion("", []string{r.cfg.DefaultSeller})
		}
		return sc
	}

	res, err := client.ResolveRegion(ctx, sc.PostalCode, sc.TradePolicy, sc.CountryCode)
	if err != nil {
		r.log.Warn("region resolution failed",
			zap.String("postal_code", sc.PostalCode), zap.Error(err))
		sc.SetRegionError(fmt.Sprintf("Could not resolve region for postal code %s.", sc.PostalCode))
		return sc
	}
	if res.Message != "" {
		sc.SetRegionError(res.Message)
		return sc
	}

	sc.SetRegion(res.RegionID, res.SellerIDs)
	sc.Sellers = r.applySellerRules(sc)
	return sc
}

// applySellerRules narrows the resolved sellers to the subset allowed for the
// requested delivery type. Context rules win over the plugin's own rules; an
// unknown delivery type leaves the list untouched.
func (r *Regionalization) applySellerRules(sc *concierge.SearchContext) []string {
	if sc.DeliveryType == "" {
		return sc.Sellers
	}

	rules := sc.SellerRules
	if rules == nil {
		rules = r.cfg.SellerRules
	}
	allowed, ok := rules[sc.DeliveryType]
	if !ok {
		return sc.Sellers
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}

	narrowed := []string{}
	for _, s := range sc.Sellers {
		if allowedSet[s] {
			narrowed = append(narrowed, s)
		}
	}
	return narrowed
}

func (r *Regionalization) AfterSearch(_ context.Context, products *model.ProductSet, sc *concierge.SearchContext, _ concierge.CatalogClient) *model.ProductSet {
	if !r.cfg.RequireDeliveryType || sc.DeliveryType != "" {
		return products
	}
	if r.hasPriorityProduct(products) {
		sc.AddToResult("delivery_type_required",
			"Some of these products require a delivery type. Please ask which delivery type the customer prefers.")
	}
	return products
}

func (r *Regionalization) hasPriorityProduct(products *model.ProductSet) bool {
	if len(r.cfg.PriorityCategories) == 0 {
		return false
	}
	priority := make(map[string]bool, len(r.cfg.PriorityCategories))
	for _, c := range r.cfg.PriorityCategories {
		priority[c] = true
	}
	for _, name := range products.Names() {
		p, _ := products.Get(name)
		for _, c := range p.Categories {
			if priority[c] {
				return true
			}
		}
	}
	return false
}
