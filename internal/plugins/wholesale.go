package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"concierge-backend/internal/concierge"
	"concierge-backend/internal/model"
	"concierge-backend/internal/pricecache"
)

// WholesaleConfig points at the fixed-price API.
type WholesaleConfig struct {
	// FixedPriceURL is the base endpoint; lookups append /{seller}/{sku}/1.
	FixedPriceURL string

	// Cache is optional; when set, lookups go through Redis first.
	Cache *pricecache.Cache

	Timeout time.Duration
}

// Wholesale annotates in-stock SKUs with their wholesale tier: the minimum
// quantity that unlocks a fixed price, and that price.
type Wholesale struct {
	concierge.NopPlugin

	cfg        WholesaleConfig
	httpClient *http.Client
	log        *zap.Logger
}

func NewWholesale(cfg WholesaleConfig, logger *zap.Logger) *Wholesale {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wholesale{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

func (w *Wholesale) AfterStockCheck(ctx context.Context, skus []model.SKURecord, _ *concierge.SearchContext, _ concierge.CatalogClient) []model.SKURecord {
	if w.cfg.FixedPriceURL == "" {
		return skus
	}

	for i := range skus {
		if skus[i].SellerID == "" || skus[i].SKUID == "" {
			continue
		}
		fp, err := w.fixedPrice(ctx, skus[i].SellerID, skus[i].SKUID)
		if err != nil {
			w.log.Warn("fixed price lookup failed",
				zap.String("sku", skus[i].SKUID),
				zap.String("seller", skus[i].SellerID),
				zap.Error(err))
			continue
		}
		skus[i].MinQuantity = fp.MinQuantity
		skus[i].WholesalePrice = fp.Value
	}
	return skus
}

func (w *Wholesale) fixedPrice(ctx context.Context, sellerID, skuID string) (pricecache.FixedPrice, error) {
	if w.cfg.Cache != nil {
		fp, hit, err := w.cfg.Cache.Get(ctx, sellerID, skuID)
		if err != nil {
			w.log.Warn("price cache read failed", zap.Error(err))
		} else if hit {
			return fp, nil
		}
	}

	fp, err := w.fetchFixedPrice(ctx, sellerID, skuID)
	if err != nil {
		return pricecache.FixedPrice{}, err
	}

	if w.cfg.Cache != nil {
		if err := w.cfg.Cache.Set(ctx, sellerID, skuID, fp); err != nil {
			w.log.Warn("price cache write failed", zap.Error(err))
		}
	}
	return fp, nil
}

func (w *Wholesale) fetchFixedPrice(ctx context.Context, sellerID, skuID string) (pricecache.FixedPrice, error) {
	url := fmt.Sprintf("%s/%s/%s/1", w.cfg.FixedPriceURL, sellerID, skuID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pricecache.FixedPrice{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return pricecache.FixedPrice{}, fmt.Errorf("fixed price request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pricecache.FixedPrice{}, fmt.Errorf("fixed price response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return pricecache.FixedPrice{}, fmt.Errorf("fixed price api status %d", resp.StatusCode)
	}

	var fp pricecache.FixedPrice
	if err := json.Unmarshal(body, &fp); err != nil {
		return pricecache.FixedPrice{}, fmt.Errorf("fixed price decode: %w", err)
	}
	return fp, nil
}
