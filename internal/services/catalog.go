package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/models"
)

// CatalogProvider lists the products of an external shop platform.
type CatalogProvider interface {
	Name() string
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// ProductUpserter stores a mirrored product.
type ProductUpserter interface {
	UpsertProduct(ctx context.Context, product *models.Product) error
}

var catalogClient = &http.Client{Timeout: 20 * time.Second}

// NewCatalogProvider builds the provider named in cfg, or returns nil when no
// provider is configured.
func NewCatalogProvider(cfg *config.Config) (CatalogProvider, error) {
	switch cfg.CatalogProvider {
	case "":
		return nil, nil
	case "shopify":
		return NewShopifyCatalog(cfg.ShopifyShopURL, cfg.ShopifyAccessToken, cfg.ShopifyAPIVersion), nil
	case "woocommerce":
		return NewWooCommerceCatalog(cfg.WooCommerceURL, cfg.WooCommerceKey, cfg.WooCommerceSecret), nil
	}
	return nil, fmt.Errorf("unknown catalog provider %q", cfg.CatalogProvider)
}

// SyncResult summarises one catalog sync.
type SyncResult struct {
	Provider string `json:"provider"`
	Fetched  int    `json:"fetched"`
	Upserted int    `json:"upserted"`
	Failed   int    `json:"failed"`
}

// SyncCatalog pulls every product from provider and upserts it. A failing
// product is logged and counted; it does not abort the sync.
func SyncCatalog(ctx context.Context, provider CatalogProvider, dst ProductUpserter, log *zap.Logger) (SyncResult, error) {
	result := SyncResult{Provider: provider.Name()}

	products, err := provider.ListProducts(ctx)
	if err != nil {
		return result, fmt.Errorf("list %s products: %w", provider.Name(), err)
	}
	result.Fetched = len(products)

	for i := range products {
		if err := dst.UpsertProduct(ctx, &products[i]); err != nil {
			result.Failed++
			log.Warn("product upsert failed",
				zap.String("provider", provider.Name()),
				zap.String("external_id", products[i].ExternalID),
				zap.Error(err))
			continue
		}
		result.Upserted++
	}

	log.Info("catalog synced",
		zap.String("provider", result.Provider),
		zap.Int("fetched", result.Fetched),
		zap.Int("upserted", result.Upserted),
		zap.Int("failed", result.Failed))
	return result, nil
}

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func getJSON(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := catalogClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, body, fmt.Errorf("request %s failed: status %d, body: %.200s", req.URL.Path, resp.StatusCode, string(body))
	}
	return resp, body, nil
}

// fetchPages fetches pages 2..total concurrently, at most four at a time,
// and returns them in page order.
func fetchPages[T any](ctx context.Context, total int, fetch func(ctx context.Context, page int) ([]T, error)) ([][]T, error) {
	if total < 2 {
		return nil, nil
	}
	pages := make([][]T, total-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for page := 2; page <= total; page++ {
		page := page
		g.Go(func() error {
			items, err := fetch(gctx, page)
			if err != nil {
				return err
			}
			pages[page-2] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
