package concierge

import (
	"context"

	"concierge-backend/internal/model"
	"concierge-backend/internal/vtex"
)

// Result is the final search payload: product display names mapped to shaped
// products, plus any context extras and an optional region_message.
type Result map[string]any

// CatalogClient is the narrow view of the vtex client the pipeline and its
// plugins consume.
type CatalogClient interface {
	Search(ctx context.Context, p vtex.SearchParams) ([]model.RawProduct, error)
	ProcessProducts(raw []model.RawProduct, opts vtex.ShapeOptions) *model.ProductSet
	SimulateCart(ctx context.Context, req model.SimulationRequest) (*model.Simulation, error)
	ResolveRegion(ctx context.Context, postalCode string, tradePolicy int, countryCode string) (model.RegionResolution, error)
	SKUDetails(ctx context.Context, skuID string) (model.SKUDetails, error)
}

// Plugin is an ordered pipeline extension. Every hook must return a value of
// the shape it received; the orchestrator rebinds to the returned value after
// each plugin. Plugins run strictly in list order and must not assume any
// other plugin ran.
//
// Embed NopPlugin to implement only the hooks a plugin needs.
type Plugin interface {
	// BeforeSearch runs ahead of the catalog query; typically resolves
	// region and sellers or validates input.
	BeforeSearch(ctx context.Context, sc *SearchContext, client CatalogClient) *SearchContext

	// AfterSearch may filter or annotate the shaped product set.
	AfterSearch(ctx context.Context, products *model.ProductSet, sc *SearchContext, client CatalogClient) *model.ProductSet

	// AfterStockCheck may attach pricing or stock side-data to the
	// stock-annotated SKU records.
	AfterStockCheck(ctx context.Context, skus []model.SKURecord, sc *SearchContext, client CatalogClient) []model.SKURecord

	// EnrichProducts may attach externally fetched attributes to the
	// filtered products.
	EnrichProducts(ctx context.Context, products *model.ProductSet, sc *SearchContext, client CatalogClient) *model.ProductSet

	// FinalizeResult may dispatch side-effecting notifications or add
	// summary fields to the assembled result.
	FinalizeResult(ctx context.Context, result Result, sc *SearchContext) Result
}

// NopPlugin is the pass-through base for plugins.
type NopPlugin struct{}

func (NopPlugin) BeforeSearch(_ context.Context, sc *SearchContext, _ CatalogClient) *SearchContext {
	return sc
}

func (NopPlugin) AfterSearch(_ context.Context, products *model.ProductSet, _ *SearchContext, _ CatalogClient) *model.ProductSet {
	return products
}

func (NopPlugin) AfterStockCheck(_ context.Context, skus []model.SKURecord, _ *SearchContext, _ CatalogClient) []model.SKURecord {
	return skus
}

func (NopPlugin) EnrichProducts(_ context.Context, products *model.ProductSet, _ *SearchContext, _ CatalogClient) *model.ProductSet {
	return products
}

func (NopPlugin) FinalizeResult(_ context.Context, result Result, _ *SearchContext) Result {
	return result
}
