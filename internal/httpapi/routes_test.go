package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge-backend/internal/concierge"
)

type fakeSearcher struct {
	lastReq concierge.SearchRequest
	result  concierge.Result
}

func (f *fakeSearcher) Search(_ context.Context, req concierge.SearchRequest) concierge.Result {
	f.lastReq = req
	return f.result
}

type fakeOrders struct {
	orders map[string]any
	err    error
}

func (f *fakeOrders) SearchOrders(_ context.Context, _ string, _ bool) (map[string]any, error) {
	return f.orders, f.err
}

func (f *fakeOrders) OrderDetails(_ context.Context, _ string) (map[string]any, error) {
	return f.orders, f.err
}

func newTestRouter(searcher Searcher, orderSvc OrderService) *mux.Router {
	h := NewHandler(searcher, orderSvc, nil)
	h.publish = func(_ context.Context, _ any) error { return nil }
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &fakeSearcher{result: concierge.Result{"Hammer": "shaped"}}
	r := newTestRouter(searcher, &fakeOrders{})

	body := `{"product_name": "hammer", "postal_code": "01310100", "quantity": 3}`
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hammer", searcher.lastReq.ProductName)
	assert.Equal(t, "01310100", searcher.lastReq.PostalCode)
	assert.Equal(t, 3, searcher.lastReq.Quantity)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "shaped", got["Hammer"])
}

func TestSearchEndpointDefaultQuantity(t *testing.T) {
	searcher := &fakeSearcher{result: concierge.Result{}}
	r := newTestRouter(searcher, &fakeOrders{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"product_name": "hammer"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, searcher.lastReq.Quantity)
}

func TestSearchEndpointValidation(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersEndpointRequiresDocument(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrdersEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{orders: map[string]any{"list": []any{}}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?document=12345678900", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "list")
}

func TestOrdersEndpointUpstreamFailure(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{err: errors.New("oms down")})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?document=12345678900", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestOrderDetailsEndpoint(t *testing.T) {
	r := newTestRouter(&fakeSearcher{}, &fakeOrders{orders: map[string]any{"orderId": "v123"}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/v123", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "v123")
}
