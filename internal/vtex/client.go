// Package vtex is the client facade for the VTEX catalog, checkout, regions
// and order APIs. It exposes request/response operations plus response
// shaping; business policy (seller batching, filtering, limits) lives in the
// stock engine and the concierge.
package vtex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"concierge-backend/internal/model"
)

const (
	headerAppKey   = "X-VTEX-API-AppKey"
	headerAppToken = "X-VTEX-API-AppToken"

	// regionNotServedMessage is surfaced to the end user when the regions API
	// has no sellers for a postal code. Not an error.
	regionNotServedMessage = "We don't serve your region. Please visit our stores in person."
)

// Config holds the connection settings for a store.
type Config struct {
	// BaseURL is the VTEX API host, e.g. https://store.vtexcommercestable.com.br.
	BaseURL string
	// StoreURL is the public storefront host used to build product links.
	StoreURL string
	// AppKey/AppToken enable the private catalog and OMS endpoints. Optional.
	AppKey   string
	AppToken string
	// ProxyURL is the retail proxy endpoint for pass-through calls. Optional.
	ProxyURL string
	// Timeout bounds each individual HTTP call. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to the VTEX APIs for one store.
type Client struct {
	httpClient *http.Client
	baseURL    string
	storeURL   string
	appKey     string
	appToken   string
	proxyURL   string
}

// New validates the store URLs and returns a client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	store := strings.TrimSuffix(cfg.StoreURL, "/")
	if base == "" || store == "" {
		return nil, fmt.Errorf("base URL and store URL are required")
	}
	if !strings.HasPrefix(base, "https://") || !strings.HasPrefix(store, "https://") {
		return nil, fmt.Errorf("base URL and store URL must use https")
	}
	if !strings.HasSuffix(base, ".vtexcommercestable.com.br") && !strings.HasSuffix(base, "myvtex.com") {
		return nil, fmt.Errorf("base URL %q is not a VTEX API host", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    base,
		storeURL:   store,
		appKey:     cfg.AppKey,
		appToken:   cfg.AppToken,
		proxyURL:   strings.TrimSuffix(cfg.ProxyURL, "/"),
	}, nil
}

// StoreURL returns the storefront host used for product links.
func (c *Client) StoreURL() string { return c.storeURL }

func (c *Client) hasCredentials() bool {
	return c.appKey != "" && c.appToken != ""
}

func (c *Client) setHeaders(req *http.Request, auth bool) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if auth && c.hasCredentials() {
		req.Header.Set(headerAppKey, c.appKey)
		req.Header.Set(headerAppToken, c.appToken)
	}
}

// doJSON executes one request and decodes the response into out. A status
// >= 400 is returned as an error with the body included for context.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any, auth bool, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vtex request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("vtex status %d: %s", resp.StatusCode, truncateBody(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func truncateBody(b []byte) string {
	const max = 256
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// SearchParams are the inputs of an intelligent-search call.
type SearchParams struct {
	Query string
	Brand string

	// Optional path segments, emitted in trade-policy, region-id,
	// productClusterIds order when set.
	TradePolicyID int
	RegionID      string
	ClusterID     int

	// IncludeUnavailable flips the hideUnavailableItems flag; the zero value
	// hides unavailable products.
	IncludeUnavailable bool
	AllowRedirect      bool
}

// searchURL builds the intelligent-search URL for the given parameters.
func (c *Client) searchURL(p SearchParams) string {
	var segments []string
	if p.TradePolicyID != 0 {
		segments = append(segments, "trade-policy/"+strconv.Itoa(p.TradePolicyID))
	}
	if p.RegionID != "" {
		segments = append(segments, "region-id/"+p.RegionID)
	}
	if p.ClusterID != 0 {
		segments = append(segments, "productClusterIds/"+strconv.Itoa(p.ClusterID))
	}
	path := strings.Join(segments, "/")
	if path != "" {
		path += "/"
	}

	q := url.Values{}
	q.Set("query", strings.TrimSpace(p.Query+" "+p.Brand))
	q.Set("simulationBehavior", "default")
	q.Set("hideUnavailableItems", strconv.FormatBool(!p.IncludeUnavailable))
	q.Set("allowRedirect", strconv.FormatBool(p.AllowRedirect))

	return c.baseURL + "/api/io/_v/api/intelligent-search/product_search/" + path + "?" + q.Encode()
}

// Search runs an intelligent-search query and returns the raw products.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]model.RawProduct, error) {
	var resp model.SearchResponse
	if err := c.doJSON(ctx, http.MethodGet, c.searchURL(p), nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// ProductBySKU looks up a single product by SKU id, or nil when not found.
func (c *Client) ProductBySKU(ctx context.Context, skuID string) (*model.RawProduct, error) {
	if skuID == "" {
		return nil, fmt.Errorf("sku id is required")
	}
	p := SearchParams{Query: "sku.id:" + skuID}
	products, err := c.Search(ctx, p)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// SimulateCart posts one cart simulation covering all items in the request.
func (c *Client) SimulateCart(ctx context.Context, req model.SimulationRequest) (*model.Simulation, error) {
	u := c.baseURL + "/api/checkout/pub/orderForms/simulation"
	if req.SalesChannel != 0 {
		u += "?sc=" + strconv.Itoa(req.SalesChannel)
	}
	var sim model.Simulation
	if err := c.doJSON(ctx, http.MethodPost, u, req, false, &sim); err != nil {
		return nil, err
	}
	return &sim, nil
}

// ResolveRegion maps a postal code to a region id and its seller ids. A
// postal code outside the served area returns a resolution with Message set
// and no error; only transport failures produce an error.
func (c *Client) ResolveRegion(ctx context.Context, postalCode string, tradePolicy int, countryCode string) (model.RegionResolution, error) {
	q := url.Values{}
	q.Set("country", countryCode)
	q.Set("postalCode", postalCode)
	q.Set("sc", strconv.Itoa(tradePolicy))

	var regions []model.Region
	err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/checkout/pub/regions?"+q.Encode(), nil, false, &regions)
	if err != nil {
		return model.RegionResolution{}, err
	}

	if len(regions) == 0 || len(regions[0].Sellers) == 0 {
		return model.RegionResolution{Message: regionNotServedMessage}, nil
	}

	region := regions[0]
	sellerIDs := make([]string, 0, len(region.Sellers))
	for _, s := range region.Sellers {
		sellerIDs = append(sellerIDs, s.ID)
	}
	return model.RegionResolution{RegionID: region.ID, SellerIDs: sellerIDs}, nil
}

// SKUDetails fetches dimensional metadata for a SKU. The private catalog
// endpoint needs app credentials; without them, or when the call fails, the
// all-nil default record is returned.
func (c *Client) SKUDetails(ctx context.Context, skuID string) (model.SKUDetails, error) {
	var details model.SKUDetails
	if !c.hasCredentials() {
		return details, nil
	}
	u := c.baseURL + "/api/catalog/pvt/stockkeepingunit/" + url.PathEscape(skuID)
	if err := c.doJSON(ctx, http.MethodGet, u, nil, true, &details); err != nil {
		return model.SKUDetails{}, err
	}
	return details, nil
}
