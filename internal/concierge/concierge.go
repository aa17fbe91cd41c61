// Package concierge orchestrates the product-search pipeline: an ordered set
// of plugin hooks around catalog search, stock resolution, filtering and
// result assembly, all sharing one mutable search context.
package concierge

import (
	"context"

	"go.uber.org/zap"

	"concierge-backend/internal/model"
	"concierge-backend/internal/stock"
	"concierge-backend/internal/vtex"
)

// Defaults for the orchestrator configuration.
const (
	DefaultMaxProducts   = 20
	DefaultMaxVariations = 5
	DefaultMaxPayloadKB  = 20
	DefaultCountryCode   = "BRA"
	DefaultTradePolicy   = 1
)

// StockResolver is the narrow view of the stock engine the orchestrator
// drives.
type StockResolver interface {
	CheckSimple(ctx context.Context, sim stock.Simulator, products *model.ProductSet, q stock.Query) []model.SKURecord
	CheckWithSellers(ctx context.Context, sim stock.Simulator, products *model.ProductSet, q stock.Query) []model.SKURecord
	FilterInStock(products *model.ProductSet, inStock []model.SKURecord) *model.ProductSet
}

// Config bounds and decorates the pipeline output.
type Config struct {
	MaxProducts   int
	MaxVariations int
	MaxPayloadKB  int
	// UTMSource decorates product links when set.
	UTMSource string
	// PriorityCategories get the minimum-quantity stock treatment.
	PriorityCategories []string
	// ExtraProductFields are raw catalog fields copied onto each product.
	ExtraProductFields []vtex.ExtraField
}

func (c Config) withDefaults() Config {
	if c.MaxProducts <= 0 {
		c.MaxProducts = DefaultMaxProducts
	}
	if c.MaxVariations <= 0 {
		c.MaxVariations = DefaultMaxVariations
	}
	if c.MaxPayloadKB <= 0 {
		c.MaxPayloadKB = DefaultMaxPayloadKB
	}
	return c
}

// Concierge runs the search pipeline. It owns the catalog client and the
// stock resolver by composition and never exposes them to callers.
type Concierge struct {
	client  CatalogClient
	stock   StockResolver
	plugins []Plugin
	cfg     Config
	log     *zap.Logger
}

// New assembles a concierge. A nil logger disables logging.
func New(client CatalogClient, resolver StockResolver, plugins []Plugin, cfg Config, logger *zap.Logger) *Concierge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Concierge{
		client:  client,
		stock:   resolver,
		plugins: plugins,
		cfg:     cfg.withDefaults(),
		log:     logger,
	}
}

// SearchRequest carries the caller's inputs for one search invocation.
// Quantity is used verbatim; callers wanting the conventional default should
// pass 1.
type SearchRequest struct {
	ProductName  string
	BrandName    string
	PostalCode   string
	Quantity     int
	DeliveryType string
	CountryCode  string
	TradePolicy  int

	Credentials map[string]any
	ContactInfo map[string]any

	// SellerRules optionally maps delivery types to seller subsets.
	SellerRules map[string][]string

	// Extra seeds the context's result accumulator.
	Extra map[string]any
}

// Search runs the full pipeline and always returns a result map; upstream
// failures surface as a smaller or empty result, never as a panic or error.
func (c *Concierge) Search(ctx context.Context, req SearchRequest) Result {
	sc := c.newContext(req)

	// 1. beforeSearch hooks.
	for _, p := range c.plugins {
		sc = rebind(c.log, "beforeSearch", sc, p.BeforeSearch(ctx, sc, c.client))
	}

	// 2. Catalog search. Transport failures collapse to an empty catalog.
	raw, err := c.client.Search(ctx, vtex.SearchParams{
		Query:    sc.ProductName,
		Brand:    sc.BrandName,
		RegionID: sc.RegionID,
	})
	if err != nil {
		c.log.Warn("catalog search failed", zap.String("query", sc.ProductName), zap.Error(err))
		raw = nil
	}

	// 3. Shape and bound the raw products.
	products := c.client.ProcessProducts(raw, vtex.ShapeOptions{
		MaxProducts:   c.cfg.MaxProducts,
		MaxVariations: c.cfg.MaxVariations,
		UTMSource:     c.cfg.UTMSource,
		ExtraFields:   c.cfg.ExtraProductFields,
	})

	// 4. afterSearch hooks.
	for _, p := range c.plugins {
		products = rebind(c.log, "afterSearch", products, p.AfterSearch(ctx, products, sc, c.client))
	}

	// 5. Stock resolution; the batch path needs resolved sellers.
	q := stock.Query{
		Quantity:           sc.Quantity,
		CountryCode:        sc.CountryCode,
		PostalCode:         sc.PostalCode,
		SalesChannel:       sc.TradePolicy,
		Sellers:            sc.Sellers,
		PriorityCategories: c.cfg.PriorityCategories,
	}
	var withStock []model.SKURecord
	if len(sc.Sellers) > 0 {
		withStock = c.stock.CheckWithSellers(ctx, c.client, products, q)
	} else {
		withStock = c.stock.CheckSimple(ctx, c.client, products, q)
	}

	// 6. afterStockCheck hooks.
	for _, p := range c.plugins {
		withStock = rebind(c.log, "afterStockCheck", withStock, p.AfterStockCheck(ctx, withStock, sc, c.client))
	}

	// 7. Keep only in-stock variations.
	filtered := c.stock.FilterInStock(products, withStock)

	// 8. enrichProducts hooks.
	for _, p := range c.plugins {
		filtered = rebind(c.log, "enrichProducts", filtered, p.EnrichProducts(ctx, filtered, sc, c.client))
	}

	// 9. Cap the payload, assemble, finalize.
	filtered = LimitPayloadSize(filtered, c.cfg.MaxPayloadKB)

	result := assembleResult(filtered, sc)
	for _, p := range c.plugins {
		result = rebind(c.log, "finalizeResult", result, p.FinalizeResult(ctx, result, sc))
	}
	return result
}

func (c *Concierge) newContext(req SearchRequest) *SearchContext {
	country := req.CountryCode
	if country == "" {
		country = DefaultCountryCode
	}
	tradePolicy := req.TradePolicy
	if tradePolicy == 0 {
		tradePolicy = DefaultTradePolicy
	}

	sc := &SearchContext{
		ProductName:  req.ProductName,
		BrandName:    req.BrandName,
		PostalCode:   req.PostalCode,
		Quantity:     req.Quantity,
		CountryCode:  country,
		DeliveryType: req.DeliveryType,
		TradePolicy:  tradePolicy,
		Sellers:      []string{},
		SellerRules:  req.SellerRules,
		Credentials:  req.Credentials,
		ContactInfo:  req.ContactInfo,
	}
	if sc.Credentials == nil {
		sc.Credentials = map[string]any{}
	}
	if sc.ContactInfo == nil {
		sc.ContactInfo = map[string]any{}
	}
	for k, v := range req.Extra {
		sc.AddToResult(k, v)
	}
	return sc
}

// assembleResult builds the result map: context extras first, then the
// region message if any, then the products in their final order.
func assembleResult(products *model.ProductSet, sc *SearchContext) Result {
	result := Result{}
	for k, v := range sc.Extra {
		result[k] = v
	}
	if sc.RegionError != "" {
		result["region_message"] = sc.RegionError
	}
	for _, name := range products.Names() {
		p, _ := products.Get(name)
		result[name] = p
	}
	return result
}

// rebind applies the hook contract: hooks must return a value of the same
// shape, so a nil return keeps the previous value and is logged as a plugin
// bug.
func rebind[T any](log *zap.Logger, hook string, prev, next T) T {
	if isNil(next) {
		log.Warn("plugin hook returned nil, keeping previous value", zap.String("hook", hook))
		return prev
	}
	return next
}

func isNil(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case *SearchContext:
		return val == nil
	case *model.ProductSet:
		return val == nil
	case Result:
		return val == nil
	default:
		return false
	}
}
