package extract

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	require.NoError(t, err)
	return doc
}

func TestParseShopifyJSON(t *testing.T) {
	t.Parallel()

	html := `<html><head>
<script type="application/json">{"view":"theme-settings"}</script>
<script type="application/json">{
  "id": 7890123,
  "title": "Blue Mug",
  "handle": "blue-mug",
  "description": "<p>A <b>blue</b> mug.</p>",
  "vendor": "Example Co",
  "type": "Drinkware",
  "tags": ["ceramic", "blue"],
  "price": 3495,
  "available": true,
  "images": ["//cdn.shopify.com/s/files/mug.jpg"],
  "variants": [{"id": 1, "title": "Default", "sku": "MUG-1", "price": 3495, "available": true}]
}</script>
</head><body></body></html>`

	fields, ok := parseShopifyJSON(docFromHTML(t, html))
	require.True(t, ok)
	require.Equal(t, "7890123", fields.ID)
	require.Equal(t, "Blue Mug", fields.Title)
	require.Equal(t, "Example Co", fields.Vendor)
	require.Equal(t, "Drinkware", fields.ProductType)
	require.Equal(t, "34.95", fields.Price)
	require.Equal(t, "MUG-1", fields.SKU)
	require.Equal(t, "A blue mug.", fields.Description)
	require.Equal(t, []string{"ceramic", "blue"}, fields.Tags)
	require.Equal(t, []string{"https://cdn.shopify.com/s/files/mug.jpg"}, fields.Images)
	require.Equal(t, "in stock", fields.Availability)
}

func TestParseShopifyJSONCommaSeparatedTags(t *testing.T) {
	t.Parallel()

	html := `<script type="application/json">{"id": 1, "title": "Mug", "tags": "ceramic, blue , "}</script>`
	fields, ok := parseShopifyJSON(docFromHTML(t, html))
	require.True(t, ok)
	require.Equal(t, []string{"ceramic", "blue"}, fields.Tags)
}

func TestParseShopifyJSONIgnoresNonProductBlobs(t *testing.T) {
	t.Parallel()

	html := `<script type="application/json">{"cart": {"items": []}}</script>`
	_, ok := parseShopifyJSON(docFromHTML(t, html))
	require.False(t, ok)
}

func TestParseJSONLDProduct(t *testing.T) {
	t.Parallel()

	html := `<script type="application/ld+json">{
  "@context": "https://schema.org",
  "@type": "Product",
  "@id": "gid://shopify/Product/7890123",
  "name": "Blue Mug",
  "description": "A blue mug.",
  "sku": "MUG-1",
  "brand": {"@type": "Brand", "name": "Example Co"},
  "image": ["https://cdn.shopify.com/s/files/mug.jpg"],
  "offers": {"@type": "Offer", "price": "34.95", "availability": "https://schema.org/InStock"}
}</script>`

	fields, ok := parseJSONLD(docFromHTML(t, html))
	require.True(t, ok)
	require.Equal(t, "7890123", fields.ID)
	require.Equal(t, "Blue Mug", fields.Title)
	require.Equal(t, "Example Co", fields.Vendor)
	require.Equal(t, "34.95", fields.Price)
	require.Equal(t, "MUG-1", fields.SKU)
	require.Equal(t, "https://schema.org/InStock", fields.Availability)
	require.Equal(t, []string{"https://cdn.shopify.com/s/files/mug.jpg"}, fields.Images)
}

func TestParseJSONLDGraphAndVariants(t *testing.T) {
	t.Parallel()

	graph := `<script type="application/ld+json">{
  "@graph": [
    {"@type": "WebSite", "name": "Shop"},
    {"@type": "Product", "name": "Mug", "offers": [{"price": 12.5, "availability": "InStock"}]}
  ]
}</script>`
	fields, ok := parseJSONLD(docFromHTML(t, graph))
	require.True(t, ok)
	require.Equal(t, "Mug", fields.Title)
	require.Equal(t, "12.50", fields.Price)

	stringBrand := `<script type="application/ld+json">{"@type": "Product", "name": "Mug", "brand": "Example Co", "image": "https://cdn.shopify.com/x.jpg", "offers": {"price": "9.99"}}</script>`
	fields, ok = parseJSONLD(docFromHTML(t, stringBrand))
	require.True(t, ok)
	require.Equal(t, "Example Co", fields.Vendor)
	require.Equal(t, []string{"https://cdn.shopify.com/x.jpg"}, fields.Images)
	require.Equal(t, "9.99", fields.Price)
}
