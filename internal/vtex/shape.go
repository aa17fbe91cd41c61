package vtex

import (
	"strconv"
	"strings"

	"concierge-backend/internal/model"
)

const (
	maxDescriptionLength      = 200
	maxSpecGroups             = 3
	maxSpecificationsPerGroup = 5
)

// singlePaymentCardSystems are the installment plans recognized as a
// one-installment credit card price.
var singlePaymentCardSystems = map[string]bool{
	"Visa":             true,
	"Mastercard":       true,
	"American Express": true,
}

// ExtraField requests an additional raw-product field by dotted path, e.g.
// "clusterHighlights" or "items.0.images". Alias names the output key and
// defaults to the last path segment.
type ExtraField struct {
	Path  string
	Alias string
}

// ShapeOptions control how raw products are shaped and bounded.
type ShapeOptions struct {
	MaxProducts   int
	MaxVariations int
	// UTMSource decorates product links with a utm_source parameter when set.
	UTMSource string
	// ExtraFields are caller-requested raw fields copied onto each product.
	ExtraFields []ExtraField
	// RemoveSpecifications drops the named specifications from spec groups.
	RemoveSpecifications []string
}

// ProcessProducts shapes raw catalog products: per-item best-seller selection
// and price extraction, compact attribute strings, bounded counts. Products
// whose items all lack a SKU id are dropped; the returned set never holds a
// product with zero variations.
func (c *Client) ProcessProducts(raw []model.RawProduct, opts ShapeOptions) *model.ProductSet {
	products := model.NewProductSet()

	for i := range raw {
		if products.Len() >= opts.MaxProducts {
			break
		}
		p := &raw[i]
		if len(p.Items) == 0 {
			continue
		}

		variations := extractVariations(p.Items)
		if len(variations) == 0 {
			continue
		}
		if len(variations) > opts.MaxVariations {
			variations = variations[:opts.MaxVariations]
		}

		link := c.storeURL + p.Link
		if opts.UTMSource != "" {
			link += "?utm_source=" + opts.UTMSource
		}

		shaped := &model.Product{
			Variations:          variations,
			Description:         truncateDescription(p.Description),
			Brand:               p.Brand,
			SpecificationGroups: formatSpecifications(p.SpecificationGroups, opts.RemoveSpecifications),
			ProductLink:         link,
			ImageURL:            productImage(p),
			Categories:          p.Categories,
		}

		for _, f := range opts.ExtraFields {
			alias := f.Alias
			if alias == "" {
				parts := strings.Split(f.Path, ".")
				alias = parts[len(parts)-1]
			}
			if shaped.Extra == nil {
				shaped.Extra = make(map[string]any)
			}
			shaped.Extra[alias] = nestedValue(p.Raw(), f.Path)
		}

		products.Add(p.ProductName, shaped)
	}

	return products
}

func extractVariations(items []model.RawItem) []model.Variation {
	var variations []model.Variation
	for _, item := range items {
		if item.ItemID == "" {
			continue
		}

		seller, sellerID := selectBestSeller(item.Sellers)
		v := model.Variation{
			SKUID:      item.ItemID,
			SKUName:    item.NameComplete,
			Variations: formatNameValues(item.Variations),
			ImageURL:   firstImage(item.Images),
			SellerID:   sellerID,
		}
		if seller != nil {
			offer := seller.CommercialOffer
			v.Price = offer.Price
			v.SpotPrice = offer.SpotPrice
			v.ListPrice = offer.ListPrice
			v.PixPrice = pixPrice(offer.Installments)
			v.CreditCardPrice = creditCardPrice(offer.Installments)
		}
		variations = append(variations, v)
	}
	return variations
}

// selectBestSeller picks the offer to surface for an item, in priority order:
// the default seller with stock, then the first seller with stock, then the
// first seller regardless of stock.
func selectBestSeller(sellers []model.RawSeller) (*model.RawSeller, string) {
	if len(sellers) == 0 {
		return nil, ""
	}
	for i := range sellers {
		s := &sellers[i]
		if s.SellerDefault && s.CommercialOffer.AvailableQuantity > 0 {
			return s, s.SellerID
		}
	}
	for i := range sellers {
		s := &sellers[i]
		if s.CommercialOffer.AvailableQuantity > 0 {
			return s, s.SellerID
		}
	}
	return &sellers[0], sellers[0].SellerID
}

// pixPrice returns the first Pix single-payment value, or nil.
func pixPrice(installments []model.Installment) *float64 {
	for _, in := range installments {
		if in.PaymentSystemName == "Pix" {
			return in.Value
		}
	}
	return nil
}

// creditCardPrice returns the first one-installment card value, or nil.
func creditCardPrice(installments []model.Installment) *float64 {
	for _, in := range installments {
		if singlePaymentCardSystems[in.PaymentSystemName] && in.NumberOfInstallments == 1 {
			return in.Value
		}
	}
	return nil
}

// truncateDescription caps the description at maxDescriptionLength characters.
// Counted in runes, not bytes, so accented catalog text is never split inside
// a UTF-8 sequence.
func truncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) > maxDescriptionLength {
		return string(runes[:maxDescriptionLength]) + "..."
	}
	return description
}

// formatNameValues collapses name/values pairs into the compact
// "[Name: Value, ...]" form, taking only the first value per name.
func formatNameValues(pairs []model.NameValues) string {
	var compact []string
	for _, pair := range pairs {
		if pair.Name == "" || len(pair.Values) == 0 {
			continue
		}
		compact = append(compact, pair.Name+": "+pair.Values[0])
	}
	return "[" + strings.Join(compact, ", ") + "]"
}

// formatSpecifications simplifies spec groups. The allSpecifications group
// wins when present; otherwise the first groups are kept with a bounded
// number of specifications each.
func formatSpecifications(groups []model.SpecGroup, remove []string) []model.SpecSummary {
	removeSet := make(map[string]bool, len(remove))
	for _, name := range remove {
		removeSet[name] = true
	}

	filter := func(specs []model.NameValues) []model.NameValues {
		if len(removeSet) == 0 {
			return specs
		}
		var kept []model.NameValues
		for _, s := range specs {
			if !removeSet[s.Name] {
				kept = append(kept, s)
			}
		}
		return kept
	}

	for _, g := range groups {
		if g.Name == "allSpecifications" && len(g.Specifications) > 0 {
			return []model.SpecSummary{{
				Name:           "allSpecifications",
				Specifications: formatNameValues(filter(g.Specifications)),
			}}
		}
	}

	var summaries []model.SpecSummary
	for _, g := range groups {
		if len(summaries) >= maxSpecGroups {
			break
		}
		if len(g.Specifications) == 0 {
			continue
		}
		specs := filter(g.Specifications)
		if len(specs) > maxSpecificationsPerGroup {
			specs = specs[:maxSpecificationsPerGroup]
		}
		summaries = append(summaries, model.SpecSummary{
			Name:           g.Name,
			Specifications: formatNameValues(specs),
		})
	}
	return summaries
}

func firstImage(images []model.ItemImage) string {
	for _, img := range images {
		if img.ImageURL != "" {
			return cleanImageURL(img.ImageURL)
		}
	}
	return ""
}

func productImage(p *model.RawProduct) string {
	if len(p.Items) == 0 {
		return ""
	}
	return firstImage(p.Items[0].Images)
}

// cleanImageURL strips query parameters and fragments from an image URL.
func cleanImageURL(imgURL string) string {
	if i := strings.IndexByte(imgURL, '?'); i >= 0 {
		imgURL = imgURL[:i]
	}
	if i := strings.IndexByte(imgURL, '#'); i >= 0 {
		imgURL = imgURL[:i]
	}
	return imgURL
}

// nestedValue walks a decoded JSON value by dotted path; numeric segments
// index into arrays. Returns nil when any segment is missing.
func nestedValue(data map[string]any, path string) any {
	var current any = data
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case []any:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		case map[string]any:
			current = node[part]
			if current == nil {
				return nil
			}
		default:
			return nil
		}
	}
	return current
}
