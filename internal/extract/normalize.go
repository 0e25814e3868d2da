package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dteproject/shopscraper/internal/scrape"
)

var priceRe = regexp.MustCompile(`(\d+)(?:\.(\d+))?`)

// ParsePriceCents converts a decimal currency string to an integer
// count of cents, rounding half-up: "150.00" -> 15000, "34.95" -> 3495.
// Currency symbols and thousands separators are stripped first.
func ParsePriceCents(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty price")
	}
	if strings.Contains(cleaned, "-") {
		return 0, fmt.Errorf("negative price %q", raw)
	}
	m := priceRe.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, fmt.Errorf("no decimal amount in %q", raw)
	}
	dollars, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse dollars in %q: %w", raw, err)
	}
	cents := int64(0)
	frac := m[2]
	switch {
	case frac == "":
	case len(frac) == 1:
		cents = int64(frac[0]-'0') * 10
	default:
		cents, err = strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse cents in %q: %w", raw, err)
		}
		if len(frac) > 2 && frac[2] >= '5' {
			cents++
		}
	}
	if cents >= 100 {
		dollars++
		cents -= 100
	}
	return dollars*100 + cents, nil
}

// PriceString renders cents back to the decimal form used in the
// schema.org offer.
func PriceString(cents int64) string {
	if cents < 0 {
		cents = 0
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// MapAvailability maps free-form stock text to the schema.org URI enum.
// Unknown and empty values default to in-stock, matching the sparse
// signals Shopify themes actually expose.
func MapAvailability(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case lower == "":
		return scrape.AvailabilityInStock
	case strings.HasPrefix(lower, "http") && strings.Contains(lower, "schema.org"):
		return mapSchemaURI(lower)
	case strings.Contains(lower, "out of stock"),
		strings.Contains(lower, "unavailable"),
		strings.Contains(lower, "sold out"):
		return scrape.AvailabilityOutOfStock
	case strings.Contains(lower, "pre-order"), strings.Contains(lower, "preorder"):
		return scrape.AvailabilityPreOrder
	default:
		return scrape.AvailabilityInStock
	}
}

func mapSchemaURI(uri string) string {
	switch {
	case strings.Contains(uri, "outofstock"):
		return scrape.AvailabilityOutOfStock
	case strings.Contains(uri, "preorder"):
		return scrape.AvailabilityPreOrder
	default:
		return scrape.AvailabilityInStock
	}
}

// AbsoluteImageURL fixes protocol-relative and bare CDN references.
func AbsoluteImageURL(src string) string {
	switch {
	case src == "":
		return ""
	case strings.HasPrefix(src, "//"):
		return "https:" + src
	case strings.HasPrefix(src, "http"):
		return src
	default:
		return "https://" + strings.TrimPrefix(src, "/")
	}
}
