package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dteproject/shopscraper/internal/scrape"
)

// productJSON mirrors the product blob Shopify themes embed in
// <script type="application/json"> tags (the /products/<handle>.js
// shape). Prices there are already integer cents.
type productJSON struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle"`
	Description string          `json:"description"`
	Vendor      string          `json:"vendor"`
	Type        string          `json:"type"`
	ProductType string          `json:"product_type"`
	Tags        json.RawMessage `json:"tags"`
	Price       int64           `json:"price"`
	Available   bool            `json:"available"`
	Images      []string        `json:"images"`
	Variants    []variantJSON   `json:"variants"`
}

type variantJSON struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Price     int64  `json:"price"`
	Available bool   `json:"available"`
}

func (p productJSON) looksLikeProduct() bool {
	return p.ID != 0 && p.Title != ""
}

func (p productJSON) fields() scrape.Fields {
	f := scrape.Fields{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title,
		Vendor:      p.Vendor,
		ProductType: firstNonEmpty(p.ProductType, p.Type),
		Description: strings.TrimSpace(stripTags(p.Description)),
		Tags:        decodeTags(p.Tags),
	}
	if p.Price > 0 {
		f.Price = PriceString(p.Price)
	}
	if p.Available {
		f.Availability = "in stock"
	} else {
		f.Availability = "out of stock"
	}
	for _, img := range p.Images {
		f.Images = append(f.Images, AbsoluteImageURL(img))
	}
	if len(p.Variants) > 0 {
		f.SKU = p.Variants[0].SKU
	}
	return f
}

// decodeTags accepts both forms Shopify emits: a JSON array of strings
// or a single comma-separated string.
func decodeTags(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(joined, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// parseShopifyJSON scans embedded application/json scripts for a
// product blob and returns its fields.
func parseShopifyJSON(doc *goquery.Document) (scrape.Fields, bool) {
	var (
		found scrape.Fields
		hit   bool
	)
	doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" || !strings.HasPrefix(raw, "{") {
			return true
		}
		var p productJSON
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return true
		}
		if !p.looksLikeProduct() {
			return true
		}
		found = p.fields()
		hit = true
		return false
	})
	return found, hit
}

// ldProduct is the subset of a JSON-LD Product node the extractor maps.
type ldProduct struct {
	Type        string          `json:"@type"`
	ID          string          `json:"@id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SKU         string          `json:"sku"`
	Brand       json.RawMessage `json:"brand"`
	Image       json.RawMessage `json:"image"`
	Category    string          `json:"category"`
	Offers      json.RawMessage `json:"offers"`
	Graph       []ldProduct     `json:"@graph"`
}

type ldOffer struct {
	Price        json.RawMessage `json:"price"`
	Availability string          `json:"availability"`
}

// parseJSONLD scans ld+json scripts for a Product node.
func parseJSONLD(doc *goquery.Document) (scrape.Fields, bool) {
	var (
		found scrape.Fields
		hit   bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return true
		}
		if node, ok := findLDProduct([]byte(raw)); ok {
			found = node.fields()
			hit = true
			return false
		}
		return true
	})
	return found, hit
}

func findLDProduct(raw []byte) (ldProduct, bool) {
	var single ldProduct
	if err := json.Unmarshal(raw, &single); err == nil {
		if node, ok := pickLDProduct(single); ok {
			return node, true
		}
	}
	var list []ldProduct
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, node := range list {
			if picked, ok := pickLDProduct(node); ok {
				return picked, true
			}
		}
	}
	return ldProduct{}, false
}

func pickLDProduct(node ldProduct) (ldProduct, bool) {
	if strings.EqualFold(node.Type, "Product") {
		return node, true
	}
	for _, child := range node.Graph {
		if strings.EqualFold(child.Type, "Product") {
			return child, true
		}
	}
	return ldProduct{}, false
}

func (p ldProduct) fields() scrape.Fields {
	f := scrape.Fields{
		Title:       p.Name,
		Description: strings.TrimSpace(stripTags(p.Description)),
		SKU:         p.SKU,
		ProductType: p.Category,
	}
	if p.ID != "" {
		// JSON-LD @id is often a gid://shopify/Product/<n> URI.
		parts := strings.Split(strings.TrimSuffix(p.ID, "/"), "/")
		f.ID = parts[len(parts)-1]
	}
	f.Vendor = decodeLDName(p.Brand)
	f.Images = decodeLDImages(p.Image)
	if offer, ok := decodeLDOffer(p.Offers); ok {
		f.Price = decodeLDPrice(offer.Price)
		f.Availability = offer.Availability
	}
	return f
}

func decodeLDName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func decodeLDImages(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil && one != "" {
		return []string{AbsoluteImageURL(one)}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		out := make([]string, 0, len(many))
		for _, img := range many {
			if img != "" {
				out = append(out, AbsoluteImageURL(img))
			}
		}
		return out
	}
	return nil
}

func decodeLDOffer(raw json.RawMessage) (ldOffer, bool) {
	if len(raw) == 0 {
		return ldOffer{}, false
	}
	var one ldOffer
	if err := json.Unmarshal(raw, &one); err == nil && len(one.Price) > 0 {
		return one, true
	}
	var many []ldOffer
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], true
	}
	return ldOffer{}, false
}

func decodeLDPrice(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', 2, 64)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
