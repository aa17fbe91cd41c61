package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/httpapi"
	"concierge-backend/internal/orders"
	"concierge-backend/internal/plugins"
	"concierge-backend/internal/pricecache"
	"concierge-backend/internal/stock"
	"concierge-backend/internal/vtex"
)

func main() {
	// Local development convenience; production relies on real env vars.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	client, err := vtex.New(vtex.Config{
		BaseURL:  os.Getenv("VTEX_BASE_URL"),
		StoreURL: os.Getenv("VTEX_STORE_URL"),
		AppKey:   os.Getenv("VTEX_APP_KEY"),
		AppToken: os.Getenv("VTEX_APP_TOKEN"),
		ProxyURL: os.Getenv("VTEX_PROXY_URL"),
	})
	if err != nil {
		logger.Fatal("vtex client setup failed", zap.Error(err))
	}

	priorityCategories := splitList(os.Getenv("PRIORITY_CATEGORIES"))

	pipeline := []concierge.Plugin{
		plugins.NewRegionalization(plugins.RegionalizationConfig{
			DefaultSeller:       os.Getenv("DEFAULT_SELLER"),
			PriorityCategories:  priorityCategories,
			RequireDeliveryType: os.Getenv("REQUIRE_DELIVERY_TYPE") == "true",
		}, logger),
	}
	if fixedPriceURL := os.Getenv("FIXED_PRICE_URL"); fixedPriceURL != "" {
		pipeline = append(pipeline, plugins.NewWholesale(plugins.WholesaleConfig{
			FixedPriceURL: fixedPriceURL,
			Cache:         pricecache.NewCache(),
		}, logger))
	}
	pipeline = append(pipeline, plugins.NewConversionEvents(nil, logger))

	searcher := concierge.New(client, stock.NewEngine(), pipeline, concierge.Config{
		UTMSource:          os.Getenv("UTM_SOURCE"),
		PriorityCategories: priorityCategories,
	}, logger)

	orderSvc := orders.New(client, logger)

	r := mux.NewRouter()
	handler := httpapi.NewHandler(searcher, orderSvc, logger)
	handler.RegisterRoutes(r)

	addr := getEnv("CONCIERGE_HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		_ = server.Shutdown(context.Background())
	}()

	logger.Info("concierge API listening", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
