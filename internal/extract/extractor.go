// Package extract turns fetched product pages into normalized records.
// The primary path reads the JSON Shopify embeds in the page; theme CSS
// selectors and an LLM call are fallbacks, in that order.
package extract

import (
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/metrics"
	"github.com/dteproject/shopscraper/internal/scrape"
)

// Config tunes extractor behavior.
type Config struct {
	// DefaultVendor fills the brand when no source exposes one.
	DefaultVendor string
}

// VariantExtractor produces the variant list for a product page. Real
// variant extraction is switched off; the default implementation emits
// the single placeholder variant the output contract requires.
type VariantExtractor interface {
	Variants(doc *goquery.Document) []scrape.Variant
}

type placeholderVariants struct{}

func (placeholderVariants) Variants(*goquery.Document) []scrape.Variant {
	return []scrape.Variant{scrape.PlaceholderVariant()}
}

// Extractor implements scrape.Extractor.
type Extractor struct {
	cfg      Config
	fallback scrape.FallbackExtractor
	variants VariantExtractor
	recorder *metrics.Recorder
	logger   *zap.Logger
}

// New builds an Extractor. fallback may be nil to disable the LLM path.
func New(cfg Config, fallback scrape.FallbackExtractor, recorder *metrics.Recorder, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		cfg:      cfg,
		fallback: fallback,
		variants: placeholderVariants{},
		recorder: recorder,
		logger:   logger,
	}
}

// Extract maps a reachable page to a Result. It never returns a failed
// outcome: pages that defeat every path still produce a partial record
// with defaults, keyed by the URL slug.
func (e *Extractor) Extract(ctx context.Context, page scrape.Page) scrape.Result {
	fields := scrape.Fields{}
	usedLLM := false

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if docErr != nil {
		e.logger.Warn("page html unparseable", zap.String("url", page.URL), zap.Error(docErr))
	}

	if doc != nil {
		if shopify, ok := parseShopifyJSON(doc); ok {
			fields.Merge(shopify)
		}
		if ld, ok := parseJSONLD(doc); ok {
			fields.Merge(ld)
		}
		if len(fields.Missing()) > 0 {
			fields.Merge(fieldsFromSelectors(doc))
		}
	}

	if len(fields.Missing()) > 0 && e.fallback != nil {
		usedLLM = true
		text := pageText(doc, page.Body)
		llmFields, err := e.fallback.ExtractFields(ctx, text, page.URL)
		if err != nil {
			e.recorder.LLMFallback("error")
			e.logger.Warn("llm fallback failed",
				zap.String("url", page.URL),
				zap.Error(err),
			)
		} else {
			e.recorder.LLMFallback("success")
			fields.Merge(llmFields)
		}
	}

	if fields.ID == "" {
		fields.ID = scrape.ProductSlug(page.URL)
	}
	if fields.Vendor == "" {
		fields.Vendor = e.cfg.DefaultVendor
	}

	missing := fields.Missing()
	product := e.buildProduct(page, fields, doc)

	outcome := scrape.OutcomeExtracted
	if len(missing) > 0 {
		outcome = scrape.OutcomePartial
	}
	return scrape.Result{
		URL:     page.URL,
		Outcome: outcome,
		Product: product,
		Missing: missing,
		UsedLLM: usedLLM,
	}
}

func (e *Extractor) buildProduct(page scrape.Page, fields scrape.Fields, doc *goquery.Document) scrape.Product {
	priceCents := int64(0)
	if fields.Price != "" {
		cents, err := ParsePriceCents(fields.Price)
		if err != nil {
			e.logger.Debug("unusable price",
				zap.String("url", page.URL),
				zap.String("price", fields.Price),
				zap.Error(err),
			)
		} else {
			priceCents = cents
		}
	}

	tags := fields.Tags
	if tags == nil {
		tags = []string{}
	}
	images := fields.Images
	if images == nil {
		images = []string{}
	}

	return scrape.Product{
		ProductID:    fields.ID,
		Name:         fields.Title,
		Description:  fields.Description,
		Brand:        fields.Vendor,
		Category:     fields.ProductType,
		Tags:         tags,
		SKU:          fields.SKU,
		URL:          page.URL,
		ImageURLs:    images,
		PriceCents:   priceCents,
		Availability: MapAvailability(fields.Availability),
		Variants:     e.variants.Variants(doc),
	}
}

// Theme selectors tried when the embedded JSON is absent or sparse.
var (
	nameSelectors = []string{
		"h1.product-single__title",
		".product__title h1",
		"h1[data-product-title]",
		"h1",
	}
	priceSelectors = []string{
		".price__regular .price-item--regular",
		".product__price .price-item--regular",
		"[data-price]",
		".price",
	}
	imageSelectors = []string{
		".product__media img",
		".product-single__photo img",
		".product__image img",
		"img[data-src]",
		`img[src*="cdn.shopify.com"]`,
	}
	descriptionSelectors = []string{
		".product__description",
		".product-single__description",
		"[data-product-description]",
		".rte",
	}
)

var priceTextRe = regexp.MustCompile(`\$?(\d[\d,]*\.?\d*)`)

func fieldsFromSelectors(doc *goquery.Document) scrape.Fields {
	f := scrape.Fields{}

	for _, sel := range nameSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			f.Title = text
			break
		}
	}

	for _, sel := range priceSelectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if m := priceTextRe.FindStringSubmatch(text); m != nil {
			f.Price = m[1]
			break
		}
	}

	for _, sel := range imageSelectors {
		doc.Find(sel).Each(func(_ int, img *goquery.Selection) {
			src, ok := img.Attr("src")
			if !ok || src == "" {
				src, _ = img.Attr("data-src")
			}
			if src != "" && strings.Contains(src, "cdn.shopify.com") {
				f.Images = append(f.Images, AbsoluteImageURL(src))
			}
		})
		if len(f.Images) > 0 {
			break
		}
	}

	for _, sel := range descriptionSelectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			f.Description = text
			break
		}
	}

	if id, ok := doc.Find("[data-product-id]").First().Attr("data-product-id"); ok && id != "" {
		f.ID = id
	}

	return f
}

// pageText extracts the visible text used for the LLM prompt; when the
// document failed to parse it degrades to the raw bytes.
func pageText(doc *goquery.Document, body []byte) string {
	if doc == nil {
		return string(body)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// stripTags flattens the HTML fragments Shopify stores in description
// fields down to plain text.
func stripTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}
