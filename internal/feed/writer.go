// Package feed serializes scraped products into the schema.org ItemList
// output document.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/extract"
	"github.com/dteproject/shopscraper/internal/scrape"
)

const schemaContext = "https://schema.org"

// ErrNoProducts is returned when Write is asked to emit an empty list.
var ErrNoProducts = errors.New("no products to write")

// ItemList is the top-level output document.
type ItemList struct {
	Context         string     `json:"@context"`
	Type            string     `json:"@type"`
	NumberOfItems   int        `json:"numberOfItems"`
	ItemListElement []ListItem `json:"itemListElement"`
}

// ListItem positions a product within the list.
type ListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Item     Item   `json:"item"`
}

// Item is the schema.org Product payload.
type Item struct {
	Type               string     `json:"@type"`
	Name               string     `json:"name"`
	Brand              *Brand     `json:"brand,omitempty"`
	Category           string     `json:"category,omitempty"`
	SKU                string     `json:"sku,omitempty"`
	MPN                string     `json:"mpn,omitempty"`
	Identifier         string     `json:"identifier"`
	Description        string     `json:"description,omitempty"`
	URL                string     `json:"url"`
	Image              []string   `json:"image,omitempty"`
	Offers             Offer      `json:"offers"`
	AdditionalProperty []Property `json:"additionalProperty"`
}

// Brand names the manufacturer.
type Brand struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

// Offer carries price and stock status.
type Offer struct {
	Type          string `json:"@type"`
	Price         string `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	Availability  string `json:"availability"`
}

// Property is a schema.org PropertyValue.
type Property struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Writer implements scrape.Sink against a local JSON file. Each Write
// replaces the previous document wholesale.
type Writer struct {
	path   string
	logger *zap.Logger
}

// NewWriter builds a Writer targeting path.
func NewWriter(path string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{path: path, logger: logger}
}

// Write serializes products into the ItemList envelope and overwrites
// the output file. An empty product set is an error so a failed run
// never clobbers a previous good document.
func (w *Writer) Write(ctx context.Context, products []scrape.Product) error {
	if len(products) == 0 {
		return ErrNoProducts
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}

	doc := BuildItemList(products)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(w.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(w.path, data, 0o600); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	w.logger.Info("feed written",
		zap.String("path", w.path),
		zap.Int("products", len(products)),
	)
	return nil
}

// BuildItemList assembles the output document for a product set.
func BuildItemList(products []scrape.Product) ItemList {
	elements := make([]ListItem, 0, len(products))
	for i, p := range products {
		elements = append(elements, ListItem{
			Type:     "Product",
			Position: i + 1,
			Item:     buildItem(p),
		})
	}
	return ItemList{
		Context:         schemaContext,
		Type:            "ItemList",
		NumberOfItems:   len(elements),
		ItemListElement: elements,
	}
}

func buildItem(p scrape.Product) Item {
	item := Item{
		Type:        "Product",
		Name:        p.Name,
		Category:    p.Category,
		MPN:         p.ProductID,
		Identifier:  p.ProductID,
		Description: p.Description,
		URL:         p.URL,
		Image:       p.ImageURLs,
		Offers: Offer{
			Type:          "Offer",
			Price:         extract.PriceString(p.PriceCents),
			PriceCurrency: "USD",
			Availability:  p.Availability,
		},
		AdditionalProperty: buildProperties(p),
	}
	if p.Brand != "" {
		item.Brand = &Brand{Type: "Brand", Name: p.Brand}
	}
	item.SKU = p.SKU
	if item.SKU == "" && len(p.Variants) > 0 {
		item.SKU = p.Variants[0].SKU
	}
	return item
}

func buildProperties(p scrape.Product) []Property {
	props := make([]Property, 0, len(p.Variants)+len(p.Tags))
	for _, v := range p.Variants {
		props = append(props, Property{
			Type:  "PropertyValue",
			Name:  "variant_id",
			Value: v.VariantID,
		})
	}
	for _, tag := range p.Tags {
		props = append(props, Property{
			Type:  "PropertyValue",
			Name:  "tag",
			Value: tag,
		})
	}
	return props
}
