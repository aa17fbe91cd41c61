package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/kstream"
	"concierge-backend/internal/orders"
)

// go-playground/validator/v10: struct validator for request payloads.
var validate = validator.New()

// Searcher runs one product search.
type Searcher interface {
	Search(ctx context.Context, req concierge.SearchRequest) concierge.Result
}

// OrderService answers order lookups.
type OrderService interface {
	SearchOrders(ctx context.Context, document string, includeIncomplete bool) (map[string]any, error)
	OrderDetails(ctx context.Context, orderID string) (map[string]any, error)
}

// Handler bundles the services the routes need.
type Handler struct {
	search  Searcher
	orders  OrderService
	publish func(ctx context.Context, payload any) error
	log     *zap.Logger
}

func NewHandler(search Searcher, orderSvc OrderService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		search:  search,
		orders:  orderSvc,
		publish: kstream.PublishSearchRequest,
		log:     logger,
	}
}

// RegisterRoutes wires HTTP routes.
// gorilla/mux: Router provides method-based routing and URL pattern matching.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/search", h.searchHandler).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.ordersHandler).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id}", h.orderDetailsHandler).Methods(http.MethodGet)
}

func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// searchPayload is the /search request body.
type searchPayload struct {
	ProductName  string         `json:"product_name" validate:"required"`
	BrandName    string         `json:"brand_name"`
	PostalCode   string         `json:"postal_code"`
	Quantity     *int           `json:"quantity"`
	DeliveryType string         `json:"delivery_type"`
	CountryCode  string         `json:"country_code"`
	TradePolicy  int            `json:"trade_policy"`
	Credentials  map[string]any `json:"credentials"`
	ContactInfo  map[string]any `json:"contact_info"`
	Extra        map[string]any `json:"extra"`
}

func (h *Handler) searchHandler(w http.ResponseWriter, r *http.Request) {
	var payload searchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	quantity := 1
	if payload.Quantity != nil {
		quantity = *payload.Quantity
	}

	ctx := r.Context()

	// Fire-and-forget traffic capture for analytics.
	if err := h.publish(ctx, payload); err != nil {
		h.log.Warn("search request publish failed", zap.Error(err))
	}

	result := h.search.Search(ctx, concierge.SearchRequest{
		ProductName:  payload.ProductName,
		BrandName:    payload.BrandName,
		PostalCode:   payload.PostalCode,
		Quantity:     quantity,
		DeliveryType: payload.DeliveryType,
		CountryCode:  payload.CountryCode,
		TradePolicy:  payload.TradePolicy,
		Credentials:  payload.Credentials,
		ContactInfo:  payload.ContactInfo,
		Extra:        payload.Extra,
	})

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ordersHandler(w http.ResponseWriter, r *http.Request) {
	document := r.URL.Query().Get("document")
	if document == "" {
		http.Error(w, "document query parameter is required", http.StatusBadRequest)
		return
	}
	includeIncomplete, _ := strconv.ParseBool(r.URL.Query().Get("include_incomplete"))

	result, err := h.orders.SearchOrders(r.Context(), document, includeIncomplete)
	if err != nil {
		h.log.Warn("order search failed", zap.String("document", document), zap.Error(err))
		http.Error(w, "order search failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) orderDetailsHandler(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["id"]

	result, err := h.orders.OrderDetails(r.Context(), orderID)
	if err != nil {
		h.log.Warn("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
		http.Error(w, "order lookup failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var _ OrderService = (*orders.Concierge)(nil)
