package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/example/maison/internal/models"
)

// ShopifyCatalog reads products through the Shopify Admin REST API.
type ShopifyCatalog struct {
	shopURL     string
	accessToken string
	apiVersion  string
}

// NewShopifyCatalog creates a ShopifyCatalog for https://{shop}.myshopify.com.
func NewShopifyCatalog(shopURL, accessToken, apiVersion string) *ShopifyCatalog {
	return &ShopifyCatalog{
		shopURL:     strings.TrimRight(shopURL, "/"),
		accessToken: accessToken,
		apiVersion:  apiVersion,
	}
}

func (s *ShopifyCatalog) Name() string { return "shopify" }

type shopifyProductsResponse struct {
	Products []shopifyProduct `json:"products"`
}

type shopifyProduct struct {
	ID          int64            `json:"id"`
	Title       string           `json:"title"`
	Handle      string           `json:"handle"`
	BodyHTML    string           `json:"body_html"`
	Vendor      string           `json:"vendor"`
	ProductType string           `json:"product_type"`
	Status      string           `json:"status"`
	Tags        string           `json:"tags"`
	Options     []shopifyOption  `json:"options"`
	Variants    []shopifyVariant `json:"variants"`
	Images      []shopifyImage   `json:"images"`
}

type shopifyOption struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type shopifyVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compare_at_price"`
	Option1           string `json:"option1"`
	Option2           string `json:"option2"`
	Option3           string `json:"option3"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

var shopifyNextLink = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// ListProducts follows the page_info cursor through every page.
func (s *ShopifyCatalog) ListProducts(ctx context.Context) ([]models.Product, error) {
	next := fmt.Sprintf("%s/admin/api/%s/products.json?limit=250", s.shopURL, s.apiVersion)

	var out []models.Product
	for next != "" {
		req, err := http.NewRequest(http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("create shopify request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", s.accessToken)

		resp, body, err := getJSON(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("shopify products: %w", err)
		}

		var parsed shopifyProductsResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("unmarshal shopify products: %w", err)
		}
		for _, p := range parsed.Products {
			out = append(out, p.toModel())
		}

		next = ""
		if m := shopifyNextLink.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
			if _, err := url.Parse(m[1]); err == nil {
				next = m[1]
			}
		}
	}
	return out, nil
}

func (p shopifyProduct) toModel() models.Product {
	product := models.Product{
		ExternalID:  fmt.Sprintf("shopify:%d", p.ID),
		Source:      "shopify",
		Slug:        p.Handle,
		Name:        p.Title,
		Description: p.BodyHTML,
		IsActive:    p.Status == "" || p.Status == "active",
	}
	if product.Slug == "" {
		product.Slug = fmt.Sprintf("%s-%d", Slugify(p.Title), p.ID)
	}

	for _, img := range p.Images {
		product.Images = append(product.Images, img.Src)
	}
	if len(product.Images) > 0 {
		product.HeroImage = product.Images[0]
	}
	for _, tag := range strings.Split(p.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			product.Tags = append(product.Tags, tag)
		}
	}
	if product.Tags == nil {
		product.Tags = pq.StringArray{}
	}

	sizeOpt, colorOpt := 0, 0
	for _, opt := range p.Options {
		switch strings.ToLower(opt.Name) {
		case "size":
			sizeOpt = opt.Position
		case "color", "colour":
			colorOpt = opt.Position
		}
	}

	for i, v := range p.Variants {
		options := [4]string{"", v.Option1, v.Option2, v.Option3}
		variant := models.ProductVariant{
			ExternalID:        fmt.Sprintf("shopify:%d", v.ID),
			SKU:               v.SKU,
			Label:             v.Title,
			Price:             parsePrice(v.Price),
			InventoryQuantity: v.InventoryQuantity,
			InStock:           v.InventoryQuantity > 0,
		}
		if sizeOpt > 0 && sizeOpt < len(options) {
			variant.Size = options[sizeOpt]
		}
		if colorOpt > 0 && colorOpt < len(options) {
			variant.Color = options[colorOpt]
		}
		product.Variants = append(product.Variants, variant)

		if i == 0 || variant.Price < product.Price {
			product.Price = variant.Price
			product.CompareAtPrice = parsePrice(v.CompareAtPrice)
		}
	}
	return product
}
