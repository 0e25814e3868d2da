// Package scrape defines core types shared across subsystems.
package scrape

import (
	"net/http"
	"time"
)

// Availability URIs emitted in the normalized output.
const (
	AvailabilityInStock    = "https://schema.org/InStock"
	AvailabilityOutOfStock = "https://schema.org/OutOfStock"
	AvailabilityPreOrder   = "https://schema.org/PreOrder"
)

// Product is the normalized record built for each product page.
type Product struct {
	ProductID    string    `json:"product_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Brand        string    `json:"brand"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	SKU          string    `json:"sku,omitempty"`
	URL          string    `json:"url"`
	ImageURLs    []string  `json:"image_urls"`
	PriceCents   int64     `json:"price_cents"`
	Availability string    `json:"availability"`
	Variants     []Variant `json:"variants"`
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	VariantID    string            `json:"variant_id"`
	Name         string            `json:"name"`
	SKU          string            `json:"sku"`
	PriceCents   int64             `json:"price_cents"`
	Availability string            `json:"availability"`
	ImageURL     string            `json:"image_url"`
	Options      map[string]string `json:"options"`
}

// PlaceholderVariant returns the single dummy variant attached to every
// product while variant extraction is switched off. Callers must never
// emit an empty variant list.
func PlaceholderVariant() Variant {
	return Variant{
		VariantID: "None",
		Options:   map[string]string{},
	}
}

// Page is the raw result of fetching a single product URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	FetchedAt  time.Time
}

// Site returns the page hostname for metric labels, falling back to the
// requested URL when no redirect was recorded.
func (p Page) Site() string {
	return hostOf(firstNonEmpty(p.FinalURL, p.URL))
}

// Fields is the untyped field set shared by the primary extraction path
// and the LLM fallback. Price is kept as the source decimal string so
// both paths run through the same cents normalization.
type Fields struct {
	ID           string
	Title        string
	Vendor       string
	ProductType  string
	Price        string
	SKU          string
	Description  string
	Tags         []string
	Images       []string
	Availability string
}

// Merge fills empty fields of f from other without overwriting values
// the caller already found.
func (f *Fields) Merge(other Fields) {
	if f.ID == "" {
		f.ID = other.ID
	}
	if f.Title == "" {
		f.Title = other.Title
	}
	if f.Vendor == "" {
		f.Vendor = other.Vendor
	}
	if f.ProductType == "" {
		f.ProductType = other.ProductType
	}
	if f.Price == "" {
		f.Price = other.Price
	}
	if f.SKU == "" {
		f.SKU = other.SKU
	}
	if f.Description == "" {
		f.Description = other.Description
	}
	if len(f.Tags) == 0 {
		f.Tags = other.Tags
	}
	if len(f.Images) == 0 {
		f.Images = other.Images
	}
	if f.Availability == "" {
		f.Availability = other.Availability
	}
}

// Missing reports which required fields are still absent. The LLM
// fallback fires iff this list is non-empty after the primary path.
func (f Fields) Missing() []string {
	var missing []string
	if f.ID == "" {
		missing = append(missing, "product_id")
	}
	if f.Title == "" {
		missing = append(missing, "name")
	}
	if f.Price == "" {
		missing = append(missing, "price")
	}
	return missing
}

// Outcome tags a per-URL Result.
type Outcome string

// Result outcomes, from best to worst.
const (
	OutcomeExtracted Outcome = "extracted"
	OutcomePartial   Outcome = "partial"
	OutcomeFailed    Outcome = "failed"
)

// Result is produced by a worker for every URL it attempts. A failed
// fetch carries Err and no Product; a reachable page always carries a
// Product, however sparse.
type Result struct {
	URL     string
	Outcome Outcome
	Product Product
	Missing []string
	UsedLLM bool
	Err     error
}

// Summary aggregates run-level counters for the final report.
type Summary struct {
	RunID        string
	StoreURL     string
	URLsResolved int
	Extracted    int
	Partial      int
	Failed       int
	Written      int
	Duration     time.Duration
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
