package plugins

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/model"
	"concierge-backend/internal/vtex"
)

// stubCatalog implements concierge.CatalogClient for plugin tests.
type stubCatalog struct {
	region    model.RegionResolution
	regionErr error
}

func (s *stubCatalog) Search(_ context.Context, _ vtex.SearchParams) ([]model.RawProduct, error) {
	return nil, nil
}

func (s *stubCatalog) ProcessProducts(_ []model.RawProduct, _ vtex.ShapeOptions) *model.ProductSet {
	return model.NewProductSet()
}

func (s *stubCatalog) SimulateCart(_ context.Context, _ model.SimulationRequest) (*model.Simulation, error) {
	return &model.Simulation{}, nil
}

func (s *stubCatalog) ResolveRegion(_ context.Context, _ string, _ int, _ string) (model.RegionResolution, error) {
	return s.region, s.regionErr
}

func (s *stubCatalog) SKUDetails(_ context.Context, _ string) (model.SKUDetails, error) {
	return model.SKUDetails{}, nil
}

func newContext(postalCode, deliveryType string) *concierge.SearchContext {
	return &concierge.SearchContext{
		PostalCode:   postalCode,
		DeliveryType: deliveryType,
		CountryCode:  "BRA",
		TradePolicy:  1,
		Sellers:      []string{},
	}
}

func TestRegionalizationNoPostalCodeUsesDefaultSeller(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{DefaultSeller: "mainstore"}, nil)

	sc := r.BeforeSearch(context.Background(), newContext("", ""), &stubCatalog{})

	assert.Equal(t, []string{"mainstore"}, sc.Sellers)
	assert.Empty(t, sc.RegionError)
}

func TestRegionalizationNoPostalCodeNoDefault(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{}, nil)

	sc := r.BeforeSearch(context.Background(), newContext("", ""), &stubCatalog{})

	assert.Empty(t, sc.Sellers)
}

func TestRegionalizationResolvesRegion(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{}, nil)
	client := &stubCatalog{region: model.RegionResolution{
		RegionID:  "v2.abc",
		SellerIDs: []string{"storeA", "storeB"},
	}}

	sc := r.BeforeSearch(context.Background(), newContext("01310100", ""), client)

	assert.Equal(t, "v2.abc", sc.RegionID)
	assert.Equal(t, []string{"storeA", "storeB"}, sc.Sellers)
}

func TestRegionalizationUnservedRegion(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{}, nil)
	client := &stubCatalog{region: model.RegionResolution{Message: "We don't serve your region."}}

	sc := r.BeforeSearch(context.Background(), newContext("99999999", ""), client)

	assert.Equal(t, "We don't serve your region.", sc.RegionError)
	assert.Empty(t, sc.RegionID)
	require.NotNil(t, sc.Sellers)
	assert.Empty(t, sc.Sellers, "unserved region must not leave stale sellers")
}

func TestRegionalizationTransportError(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{}, nil)
	client := &stubCatalog{regionErr: errors.New("connection refused")}

	sc := r.BeforeSearch(context.Background(), newContext("01310100", ""), client)

	assert.NotEmpty(t, sc.RegionError)
	assert.Empty(t, sc.Sellers)
}

func TestRegionalizationSellerRules(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{
		SellerRules: map[string][]string{"express": {"storeA"}},
	}, nil)
	client := &stubCatalog{region: model.RegionResolution{
		RegionID:  "v2.abc",
		SellerIDs: []string{"storeA", "storeB"},
	}}

	sc := r.BeforeSearch(context.Background(), newContext("01310100", "express"), client)

	assert.Equal(t, []string{"storeA"}, sc.Sellers)
}

func TestRegionalizationContextRulesWinOverPluginRules(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{
		SellerRules: map[string][]string{"express": {"storeA"}},
	}, nil)
	client := &stubCatalog{region: model.RegionResolution{
		RegionID:  "v2.abc",
		SellerIDs: []string{"storeA", "storeB"},
	}}

	sc := newContext("01310100", "express")
	sc.SellerRules = map[string][]string{"express": {"storeB"}}
	sc = r.BeforeSearch(context.Background(), sc, client)

	assert.Equal(t, []string{"storeB"}, sc.Sellers)
}

func TestRegionalizationUnknownDeliveryTypeKeepsSellers(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{
		SellerRules: map[string][]string{"express": {"storeA"}},
	}, nil)
	client := &stubCatalog{region: model.RegionResolution{
		RegionID:  "v2.abc",
		SellerIDs: []string{"storeA", "storeB"},
	}}

	sc := r.BeforeSearch(context.Background(), newContext("01310100", "pickup"), client)

	assert.Equal(t, []string{"storeA", "storeB"}, sc.Sellers)
}

func TestRegionalizationDeliveryTypeRequiredWarning(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{
		PriorityCategories:  []string{"/construction/cement/"},
		RequireDeliveryType: true,
	}, nil)

	products := model.NewProductSet()
	products.Add("Cement", &model.Product{Categories: []string{"/construction/cement/"}})

	sc := newContext("", "")
	r.AfterSearch(context.Background(), products, sc, &stubCatalog{})

	assert.Contains(t, sc.Extra, "delivery_type_required")
}

func TestRegionalizationNoWarningWithDeliveryType(t *testing.T) {
	r := NewRegionalization(RegionalizationConfig{
		PriorityCategories:  []string{"/construction/cement/"},
		RequireDeliveryType: true,
	}, nil)

	products := model.NewProductSet()
	products.Add("Cement", &model.Product{Categories: []string{"/construction/cement/"}})

	sc := newContext("", "express")
	r.AfterSearch(context.Background(), products, sc, &stubCatalog{})

	assert.NotContains(t, sc.Extra, "delivery_type_required")
}
