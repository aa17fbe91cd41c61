package concierge

// SearchContext is the mutable state threaded through one search invocation.
// It is created by the orchestrator, mutated by hooks and pipeline steps, and
// discarded when the call returns.
//
// Invariants: Sellers is never nil (empty means unresolved); RegionError and
// RegionID are mutually exclusive; whichever is set last clears the other.
type SearchContext struct {
	// Input parameters.
	ProductName  string
	BrandName    string
	PostalCode   string
	Quantity     int
	CountryCode  string
	DeliveryType string
	TradePolicy  int

	// Resolved by plugins.
	RegionID    string
	Sellers     []string
	SellerRules map[string][]string
	RegionError string

	// Pass-through maps for plugins.
	Credentials map[string]any
	ContactInfo map[string]any

	// Extra accumulates out-of-band fields merged into the final result
	// ahead of the products.
	Extra map[string]any
}

// AddToResult stores an extra field for the final result map.
func (c *SearchContext) AddToResult(key string, value any) {
	if c.Extra == nil {
		c.Extra = make(map[string]any)
	}
	c.Extra[key] = value
}

// Credential returns a named credential, or nil.
func (c *SearchContext) Credential(key string) any {
	return c.Credentials[key]
}

// CredentialString returns a named credential as a string, or "".
func (c *SearchContext) CredentialString(key string) string {
	s, _ := c.Credentials[key].(string)
	return s
}

// Contact returns a contact-info field, or nil.
func (c *SearchContext) Contact(key string) any {
	return c.ContactInfo[key]
}

// ContactString returns a contact-info field as a string, or "".
func (c *SearchContext) ContactString(key string) string {
	s, _ := c.ContactInfo[key].(string)
	return s
}

// SetRegion records a successful region resolution, clearing any prior
// region error.
func (c *SearchContext) SetRegion(regionID string, sellers []string) {
	c.RegionID = regionID
	c.RegionError = ""
	if sellers == nil {
		sellers = []string{}
	}
	c.Sellers = sellers
}

// SetRegionError records a failed or unserved region resolution. The region
// id is cleared and the seller list emptied so the batch path is skipped.
func (c *SearchContext) SetRegionError(message string) {
	c.RegionID = ""
	c.RegionError = message
	c.Sellers = []string{}
}
