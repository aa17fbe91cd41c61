package model

import "encoding/json"

// SearchResponse is the envelope returned by the intelligent-search API.
type SearchResponse struct {
	Products []RawProduct `json:"products"`
}

// RawProduct is a product exactly as the catalog API returns it. Shaping into
// the domain Product happens in the client facade, not here.
type RawProduct struct {
	ProductName         string      `json:"productName"`
	Description         string      `json:"description"`
	Brand               string      `json:"brand"`
	Link                string      `json:"link"`
	Categories          []string    `json:"categories"`
	SpecificationGroups []SpecGroup `json:"specificationGroups"`
	Items               []RawItem   `json:"items"`

	// raw keeps the undecoded payload so extra product fields can be
	// extracted by dotted path without widening the typed surface.
	raw map[string]any
}

func (p *RawProduct) UnmarshalJSON(data []byte) error {
	type alias RawProduct
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*p = RawProduct(a)
	// Best effort: a decode failure here only disables extra-field lookup.
	_ = json.Unmarshal(data, &p.raw)
	return nil
}

// Raw returns the undecoded product payload for dotted-path field extraction.
func (p *RawProduct) Raw() map[string]any { return p.raw }

// RawItem is a purchasable SKU inside a raw product.
type RawItem struct {
	ItemID       string       `json:"itemId"`
	NameComplete string       `json:"nameComplete"`
	Variations   []NameValues `json:"variations"`
	Images       []ItemImage  `json:"images"`
	Sellers      []RawSeller  `json:"sellers"`
}

// NameValues is the catalog's generic name/values pair used for both item
// variations and specification entries.
type NameValues struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type ItemImage struct {
	ImageURL string `json:"imageUrl"`
}

// RawSeller is a merchant offer attached to an item. The commercial offer
// field name carries the upstream API's spelling.
type RawSeller struct {
	SellerID        string          `json:"sellerId"`
	SellerDefault   bool            `json:"sellerDefault"`
	CommercialOffer CommercialOffer `json:"commertialOffer"`
}

type CommercialOffer struct {
	Price             *float64      `json:"Price"`
	SpotPrice         *float64      `json:"spotPrice"`
	ListPrice         *float64      `json:"ListPrice"`
	AvailableQuantity int           `json:"AvailableQuantity"`
	Installments      []Installment `json:"Installments"`
}

type Installment struct {
	PaymentSystemName    string   `json:"PaymentSystemName"`
	NumberOfInstallments int      `json:"NumberOfInstallments"`
	Value                *float64 `json:"Value"`
}

type SpecGroup struct {
	Name           string       `json:"name"`
	Specifications []NameValues `json:"specifications"`
}

// SimulationRequestItem is one (SKU, seller, quantity) entry of a cart
// simulation request.
type SimulationRequestItem struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
	Seller   string `json:"seller"`
}

// SimulationRequest is the orderForms simulation payload.
type SimulationRequest struct {
	Items      []SimulationRequestItem `json:"items"`
	Country    string                  `json:"country"`
	PostalCode string                  `json:"postalCode,omitempty"`

	// SalesChannel is sent as the sc query parameter, not in the body.
	SalesChannel int `json:"-"`
}

// Simulation is the checkout API's simulation response.
type Simulation struct {
	Items []SimulatedItem `json:"items"`
}

// SimulatedItem is the per-(SKU, seller) result of a cart simulation.
type SimulatedItem struct {
	ID              string   `json:"id"`
	Availability    string   `json:"availability"`
	Quantity        int      `json:"quantity"`
	MeasurementUnit string   `json:"measurementUnit"`
	UnitMultiplier  float64  `json:"unitMultiplier"`
	Seller          string   `json:"seller"`
	Price           *float64 `json:"price"`
	ListPrice       *float64 `json:"listPrice"`
}

// Region is one entry of the regions API response.
type Region struct {
	ID      string         `json:"id"`
	Sellers []RegionSeller `json:"sellers"`
}

type RegionSeller struct {
	ID string `json:"id"`
}

// RegionResolution is the outcome of resolving a postal code. Message is set
// when the region is not served; that is a valid state, not an error.
type RegionResolution struct {
	RegionID  string
	SellerIDs []string
	Message   string
}

// SKUDetails carries dimensional metadata for a SKU. All fields are nil when
// credentials are absent or the lookup failed.
type SKUDetails struct {
	PackagedHeight   *float64 `json:"PackagedHeight"`
	PackagedLength   *float64 `json:"PackagedLength"`
	PackagedWidth    *float64 `json:"PackagedWidth"`
	PackagedWeightKg *float64 `json:"PackagedWeightKg"`
	Height           *float64 `json:"Height"`
	Length           *float64 `json:"Length"`
	Width            *float64 `json:"Width"`
	WeightKg         *float64 `json:"WeightKg"`
	CubicWeight      *float64 `json:"CubicWeight"`
}
