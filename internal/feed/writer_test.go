package feed

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/scrape"
)

func sampleProducts() []scrape.Product {
	return []scrape.Product{
		{
			ProductID:    "7890123",
			Name:         "Blue Mug",
			Description:  "A blue mug.",
			Brand:        "Example Co",
			Category:     "Drinkware",
			Tags:         []string{"ceramic"},
			SKU:          "MUG-42",
			URL:          "https://shop.example.com/products/blue-mug",
			ImageURLs:    []string{"https://cdn.shopify.com/s/files/mug.jpg"},
			PriceCents:   3495,
			Availability: scrape.AvailabilityInStock,
			Variants:     []scrape.Variant{scrape.PlaceholderVariant()},
		},
		{
			ProductID:    "7890124",
			Name:         "Red Mug",
			URL:          "https://shop.example.com/products/red-mug",
			PriceCents:   15000,
			Availability: scrape.AvailabilityOutOfStock,
			Variants:     []scrape.Variant{{VariantID: "None", SKU: "RED-1", Options: map[string]string{}}},
		},
	}
}

func TestBuildItemListEnvelope(t *testing.T) {
	t.Parallel()

	doc := BuildItemList(sampleProducts())

	require.Equal(t, "https://schema.org", doc.Context)
	require.Equal(t, "ItemList", doc.Type)
	require.Equal(t, 2, doc.NumberOfItems)
	require.Len(t, doc.ItemListElement, 2)

	first := doc.ItemListElement[0]
	require.Equal(t, "Product", first.Type)
	require.Equal(t, 1, first.Position)
	require.Equal(t, "Blue Mug", first.Item.Name)
	require.Equal(t, "7890123", first.Item.Identifier)
	require.Equal(t, "7890123", first.Item.MPN)
	require.NotNil(t, first.Item.Brand)
	require.Equal(t, "Brand", first.Item.Brand.Type)
	require.Equal(t, "Example Co", first.Item.Brand.Name)
	require.Equal(t, "Offer", first.Item.Offers.Type)
	require.Equal(t, "34.95", first.Item.Offers.Price)
	require.Equal(t, "USD", first.Item.Offers.PriceCurrency)
	require.Equal(t, scrape.AvailabilityInStock, first.Item.Offers.Availability)
	require.Equal(t, "MUG-42", first.Item.SKU, "product sku preferred over placeholder variant")

	second := doc.ItemListElement[1]
	require.Equal(t, 2, second.Position)
	require.Equal(t, "150.00", second.Item.Offers.Price)
	require.Equal(t, "RED-1", second.Item.SKU)
	require.Nil(t, second.Item.Brand)
}

func TestBuildItemListProperties(t *testing.T) {
	t.Parallel()

	doc := BuildItemList(sampleProducts())
	props := doc.ItemListElement[0].Item.AdditionalProperty

	require.Len(t, props, 2)
	require.Equal(t, Property{Type: "PropertyValue", Name: "variant_id", Value: "None"}, props[0])
	require.Equal(t, Property{Type: "PropertyValue", Name: "tag", Value: "ceramic"}, props[1])
}

func TestWriterWriteRoundTrips(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "products.json")
	writer := NewWriter(path, zap.NewNop())

	require.NoError(t, writer.Write(context.Background(), sampleProducts()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc ItemList
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "ItemList", doc.Type)
	require.Len(t, doc.ItemListElement, 2)
}

func TestWriterWriteOverwritesPriorDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.json")
	writer := NewWriter(path, zap.NewNop())

	require.NoError(t, writer.Write(context.Background(), sampleProducts()))
	require.NoError(t, writer.Write(context.Background(), sampleProducts()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc ItemList
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, 1, doc.NumberOfItems)
}

func TestWriterRefusesEmptyProductSet(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "products.json")
	writer := NewWriter(path, zap.NewNop())

	err := writer.Write(context.Background(), nil)
	require.ErrorIs(t, err, ErrNoProducts)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "no file written for an empty run")
}
