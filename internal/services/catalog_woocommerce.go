package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/example/maison/internal/models"
)

// WooCommerceCatalog reads products through the WooCommerce REST API (v3).
type WooCommerceCatalog struct {
	siteURL string
	key     string
	secret  string
}

// NewWooCommerceCatalog creates a WooCommerceCatalog for siteURL.
func NewWooCommerceCatalog(siteURL, key, secret string) *WooCommerceCatalog {
	return &WooCommerceCatalog{siteURL: strings.TrimRight(siteURL, "/"), key: key, secret: secret}
}

func (w *WooCommerceCatalog) Name() string { return "woocommerce" }

const wooPerPage = 100

type wooProduct struct {
	ID               int64          `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Status           string         `json:"status"`
	Description      string         `json:"description"`
	ShortDescription string         `json:"short_description"`
	Price            string         `json:"price"`
	RegularPrice     string         `json:"regular_price"`
	SalePrice        string         `json:"sale_price"`
	StockQuantity    *int           `json:"stock_quantity"`
	StockStatus      string         `json:"stock_status"`
	SKU              string         `json:"sku"`
	Images           []wooImage     `json:"images"`
	Tags             []wooTerm      `json:"tags"`
	Attributes       []wooAttribute `json:"attributes"`
}

type wooImage struct {
	Src string `json:"src"`
}

type wooTerm struct {
	Name string `json:"name"`
}

type wooAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// ListProducts reads the first page, learns the page count from
// X-WP-TotalPages and fetches the remaining pages concurrently.
func (w *WooCommerceCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	first, total, err := w.page(ctx, 1)
	if err != nil {
		return nil, err
	}

	rest, err := fetchPages(ctx, total, func(ctx context.Context, page int) ([]wooProduct, error) {
		items, _, err := w.page(ctx, page)
		return items, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Product, 0, len(first)*total)
	for _, p := range first {
		out = append(out, p.toModel())
	}
	for _, page := range rest {
		for _, p := range page {
			out = append(out, p.toModel())
		}
	}
	return out, nil
}

func (w *WooCommerceCatalog) page(ctx context.Context, page int) ([]wooProduct, int, error) {
	url := fmt.Sprintf("%s/wp-json/wc/v3/products?per_page=%d&page=%d", w.siteURL, wooPerPage, page)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create woocommerce request: %w", err)
	}
	req.SetBasicAuth(w.key, w.secret)

	resp, body, err := getJSON(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("woocommerce products page %d: %w", page, err)
	}

	var items []wooProduct
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, 0, fmt.Errorf("unmarshal woocommerce products: %w", err)
	}

	total, _ := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	if total < 1 {
		total = 1
	}
	return items, total, nil
}

func (p wooProduct) toModel() models.Product {
	product := models.Product{
		ExternalID:  fmt.Sprintf("woocommerce:%d", p.ID),
		Source:      "woocommerce",
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.ShortDescription,
		Price:       parsePrice(p.Price),
		IsActive:    p.Status == "" || p.Status == "publish",
		Tags:        pq.StringArray{},
	}
	if product.Slug == "" {
		product.Slug = fmt.Sprintf("%s-%d", Slugify(p.Name), p.ID)
	}
	if product.Description == "" {
		product.Description = p.Description
	}
	if p.SalePrice != "" {
		product.CompareAtPrice = parsePrice(p.RegularPrice)
	}
	for _, img := range p.Images {
		product.Images = append(product.Images, img.Src)
	}
	if len(product.Images) > 0 {
		product.HeroImage = product.Images[0]
	}
	for _, tag := range p.Tags {
		product.Tags = append(product.Tags, tag.Name)
	}

	stock := 0
	if p.StockQuantity != nil {
		stock = *p.StockQuantity
	}
	inStock := p.StockStatus == "" || p.StockStatus == "instock"

	// Simple products expose sizes as an attribute rather than as variations.
	for _, attr := range p.Attributes {
		if !strings.EqualFold(attr.Name, "size") {
			continue
		}
		for _, size := range attr.Options {
			product.Variants = append(product.Variants, models.ProductVariant{
				ExternalID: fmt.Sprintf("woocommerce:%d:%s", p.ID, Slugify(size)),
				SKU:        p.SKU,
				Label:      size,
				Size:       size,
				Price:      product.Price,
				InStock:    inStock,
			})
		}
	}
	if len(product.Variants) == 0 {
		product.Variants = []models.ProductVariant{{
			ExternalID:        fmt.Sprintf("woocommerce:%d", p.ID),
			SKU:               p.SKU,
			Label:             "Default",
			Price:             product.Price,
			InventoryQuantity: stock,
			InStock:           inStock,
		}}
	}
	return product
}
