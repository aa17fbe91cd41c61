package model

import "encoding/json"

// Variation is a shaped SKU offer. Price fields are nil when the winning
// seller's offer omits them; absence is not zero.
type Variation struct {
	SKUID           string   `json:"sku_id"`
	SKUName         string   `json:"sku_name"`
	Variations      string   `json:"variations"`
	Price           *float64 `json:"price"`
	SpotPrice       *float64 `json:"spotPrice"`
	ListPrice       *float64 `json:"listPrice"`
	PixPrice        *float64 `json:"pixPrice"`
	CreditCardPrice *float64 `json:"creditCardPrice"`
	ImageURL        string   `json:"imageUrl"`
	SellerID        string   `json:"sellerId"`

	// Stock annotations, merged in after availability resolution.
	MeasurementUnit   string   `json:"measurementUnit,omitempty"`
	UnitMultiplier    float64  `json:"unitMultiplier,omitempty"`
	AvailableQuantity int      `json:"available_quantity,omitempty"`
	DeliveryType      string   `json:"deliveryType,omitempty"`
	MinQuantity       *int     `json:"minQuantity,omitempty"`
	WholesalePrice    *float64 `json:"wholesalePrice,omitempty"`
}

// SpecSummary is a compacted specification group.
type SpecSummary struct {
	Name           string `json:"name"`
	Specifications string `json:"specifications"`
}

// Product is a shaped catalog product keyed by display name in a ProductSet.
// A product with zero variations is never kept past shaping.
type Product struct {
	Variations          []Variation   `json:"variations"`
	Description         string        `json:"description"`
	Brand               string        `json:"brand"`
	SpecificationGroups []SpecSummary `json:"specification_groups"`
	ProductLink         string        `json:"productLink"`
	ImageURL            string        `json:"imageUrl"`
	Categories          []string      `json:"categories"`

	// Extra holds caller-requested product fields; they are flattened into
	// the product object on marshal.
	Extra map[string]any `json:"-"`
}

func (p *Product) MarshalJSON() ([]byte, error) {
	type alias Product
	data, err := json.Marshal((*alias)(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return data, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// SKURecord is one flattened SKU carrying the product-level fields needed
// downstream of stock resolution alongside the variation's own fields.
type SKURecord struct {
	SKUID      string
	SKUName    string
	Variations string
	SellerID   string

	Description string
	Brand       string
	Categories  []string

	ImageURL        string
	Price           *float64
	SpotPrice       *float64
	ListPrice       *float64
	PixPrice        *float64
	CreditCardPrice *float64

	MeasurementUnit   string
	UnitMultiplier    float64
	AvailableQuantity int
	DeliveryType      string
	MinQuantity       *int
	WholesalePrice    *float64
}

// ProductSet is an insertion-ordered set of shaped products keyed by display
// name. Go maps do not keep order, and the payload limiter trims by priority
// order, so the order is tracked explicitly.
type ProductSet struct {
	names []string
	items map[string]*Product
}

func NewProductSet() *ProductSet {
	return &ProductSet{items: make(map[string]*Product)}
}

// Add inserts or replaces a product. A replaced product keeps its original
// position in the order.
func (s *ProductSet) Add(name string, p *Product) {
	if _, ok := s.items[name]; !ok {
		s.names = append(s.names, name)
	}
	s.items[name] = p
}

func (s *ProductSet) Get(name string) (*Product, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.items[name]
	return p, ok
}

// Names returns the product names in insertion order.
func (s *ProductSet) Names() []string {
	if s == nil {
		return nil
	}
	return s.names
}

func (s *ProductSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// RemoveLast drops the last-ordered product and reports its name.
func (s *ProductSet) RemoveLast() (string, bool) {
	if s == nil || len(s.names) == 0 {
		return "", false
	}
	name := s.names[len(s.names)-1]
	s.names = s.names[:len(s.names)-1]
	delete(s.items, name)
	return name, true
}
