package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/maison/internal/config"
	"github.com/example/maison/internal/models"
)

func TestShopifyCatalog_ListProducts(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2024-07/products.json", r.URL.Path)
		assert.Equal(t, "shpat", r.Header.Get("X-Shopify-Access-Token"))

		if r.URL.Query().Get("page_info") == "" {
			assert.Equal(t, "250", r.URL.Query().Get("limit"))
			w.Header().Set("Link", fmt.Sprintf(`<%s/admin/api/2024-07/products.json?limit=250&page_info=abc>; rel="next"`, srv.URL))
			fmt.Fprint(w, `{"products":[{
				"id": 101, "title": "Silk Dress", "handle": "silk-dress", "status": "active",
				"tags": "women, summer",
				"options": [{"name":"Color","position":1},{"name":"Size","position":2}],
				"variants": [
					{"id": 1, "title": "Black / S", "sku": "SD-S", "price": "120.00", "option1": "Black", "option2": "S", "inventory_quantity": 3},
					{"id": 2, "title": "Black / M", "sku": "SD-M", "price": "110.00", "compare_at_price": "150.00", "option1": "Black", "option2": "M", "inventory_quantity": 0}
				],
				"images": [{"src":"https://img/1.jpg"},{"src":"https://img/2.jpg"}]
			}]}`)
			return
		}
		fmt.Fprint(w, `{"products":[{"id": 102, "title": "Linen Shirt", "status": "draft", "variants": []}]}`)
	}))
	defer srv.Close()

	products, err := NewShopifyCatalog(srv.URL+"/", "shpat", "2024-07").ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	dress := products[0]
	assert.Equal(t, "shopify:101", dress.ExternalID)
	assert.Equal(t, "silk-dress", dress.Slug)
	assert.True(t, dress.IsActive)
	assert.Equal(t, 110.0, dress.Price)
	assert.Equal(t, 150.0, dress.CompareAtPrice)
	assert.Equal(t, "https://img/1.jpg", dress.HeroImage)
	assert.Equal(t, []string{"women", "summer"}, []string(dress.Tags))

	want := []models.ProductVariant{
		{ExternalID: "shopify:1", SKU: "SD-S", Label: "Black / S", Size: "S", Color: "Black", Price: 120, InventoryQuantity: 3, InStock: true},
		{ExternalID: "shopify:2", SKU: "SD-M", Label: "Black / M", Size: "M", Color: "Black", Price: 110},
	}
	if diff := cmp.Diff(want, dress.Variants); diff != "" {
		t.Errorf("variants mismatch (-want +got):\n%s", diff)
	}

	shirt := products[1]
	assert.Equal(t, "linen-shirt-102", shirt.Slug)
	assert.False(t, shirt.IsActive)
}

func TestWooCommerceCatalog_ListProducts(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_1", user)
		assert.Equal(t, "cs_1", pass)
		assert.Equal(t, "/wp-json/wc/v3/products", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))

		page := r.URL.Query().Get("page")
		mu.Lock()
		seen[page] = true
		mu.Unlock()

		n, _ := strconv.Atoi(page)
		w.Header().Set("X-WP-TotalPages", "3")
		fmt.Fprintf(w, `[{"id": %d, "name": "Item %d", "slug": "item-%d", "status": "publish",
			"price": "25.5", "regular_price": "30", "sale_price": "25.5",
			"stock_quantity": 4, "stock_status": "instock",
			"attributes": [{"name": "Size", "options": ["S", "M"]}]}]`, n, n, n)
	}))
	defer srv.Close()

	products, err := NewWooCommerceCatalog(srv.URL, "ck_1", "cs_1").ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	for i, p := range products {
		assert.Equal(t, fmt.Sprintf("woocommerce:%d", i+1), p.ExternalID)
		assert.Equal(t, 25.5, p.Price)
		assert.Equal(t, 30.0, p.CompareAtPrice)
		require.Len(t, p.Variants, 2)
		assert.Equal(t, "S", p.Variants[0].Size)
		assert.True(t, p.Variants[1].InStock)
	}
	assert.Equal(t, map[string]bool{"1": true, "2": true, "3": true}, seen)
}

func TestWooCommerceCatalog_PageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Header().Set("X-WP-TotalPages", "2")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	_, err := NewWooCommerceCatalog(srv.URL, "k", "s").ListProducts(context.Background())
	assert.ErrorContains(t, err, "status 502")
}

type staticProvider struct {
	products []models.Product
	err      error
}

func (p staticProvider) Name() string { return "static" }

func (p staticProvider) ListProducts(context.Context) ([]models.Product, error) {
	return p.products, p.err
}

type upserterFunc func(ctx context.Context, p *models.Product) error

func (f upserterFunc) UpsertProduct(ctx context.Context, p *models.Product) error { return f(ctx, p) }

func TestSyncCatalog(t *testing.T) {
	provider := staticProvider{products: []models.Product{
		{ExternalID: "a"}, {ExternalID: "b"}, {ExternalID: "c"},
	}}

	var stored []string
	dst := upserterFunc(func(_ context.Context, p *models.Product) error {
		if p.ExternalID == "b" {
			return errors.New("constraint")
		}
		stored = append(stored, p.ExternalID)
		return nil
	})

	result, err := SyncCatalog(context.Background(), provider, dst, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, SyncResult{Provider: "static", Fetched: 3, Upserted: 2, Failed: 1}, result)
	assert.Equal(t, []string{"a", "c"}, stored)

	_, err = SyncCatalog(context.Background(), staticProvider{err: errors.New("down")}, dst, zap.NewNop())
	assert.ErrorContains(t, err, "down")
}

func TestNewCatalogProvider(t *testing.T) {
	p, err := NewCatalogProvider(&config.Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewCatalogProvider(&config.Config{CatalogProvider: "shopify"})
	require.NoError(t, err)
	assert.Equal(t, "shopify", p.Name())

	p, err = NewCatalogProvider(&config.Config{CatalogProvider: "woocommerce"})
	require.NoError(t, err)
	assert.Equal(t, "woocommerce", p.Name())

	_, err = NewCatalogProvider(&config.Config{CatalogProvider: "magento"})
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "silk-dress-black", Slugify("  Silk Dress / Black!"))
	assert.Equal(t, "", Slugify("--"))
}
