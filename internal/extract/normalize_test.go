package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dteproject/shopscraper/internal/scrape"
)

func TestParsePriceCents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{"150.00", 15000},
		{"34.95", 3495},
		{"34.9", 3490},
		{"34", 3400},
		{"$34.95", 3495},
		{"1,299.00", 129900},
		{"0.995", 100},
		{"12.345", 1235},
		{"12.344", 1234},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePriceCents(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParsePriceCentsRejectsBadInput(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "   ", "free", "-10.00"} {
		_, err := ParsePriceCents(bad)
		require.Error(t, err, "input %q", bad)
	}
}

func TestPriceString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "150.00", PriceString(15000))
	require.Equal(t, "34.95", PriceString(3495))
	require.Equal(t, "0.05", PriceString(5))
	require.Equal(t, "0.00", PriceString(-1))
}

func TestMapAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", scrape.AvailabilityInStock},
		{"in stock", scrape.AvailabilityInStock},
		{"In Stock", scrape.AvailabilityInStock},
		{"available", scrape.AvailabilityInStock},
		{"out of stock", scrape.AvailabilityOutOfStock},
		{"Sold Out", scrape.AvailabilityOutOfStock},
		{"currently unavailable", scrape.AvailabilityOutOfStock},
		{"pre-order", scrape.AvailabilityPreOrder},
		{"Preorder now", scrape.AvailabilityPreOrder},
		{"https://schema.org/InStock", scrape.AvailabilityInStock},
		{"http://schema.org/OutOfStock", scrape.AvailabilityOutOfStock},
		{"https://schema.org/PreOrder", scrape.AvailabilityPreOrder},
		{"something else entirely", scrape.AvailabilityInStock},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, MapAvailability(tc.in), "input %q", tc.in)
	}
}

func TestAbsoluteImageURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://cdn.shopify.com/s/x.jpg", AbsoluteImageURL("//cdn.shopify.com/s/x.jpg"))
	require.Equal(t, "https://cdn.shopify.com/s/x.jpg", AbsoluteImageURL("https://cdn.shopify.com/s/x.jpg"))
	require.Equal(t, "https://cdn.shopify.com/s/x.jpg", AbsoluteImageURL("/cdn.shopify.com/s/x.jpg"))
	require.Empty(t, AbsoluteImageURL(""))
}
