// Package sitemap walks a storefront's sitemap tree and collects
// product page URLs.
package sitemap

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/dteproject/shopscraper/internal/scrape"
)

const defaultMaxDepth = 4

// Resolver fetches sitemap.xml, recurses into nested sitemap indices,
// and returns the deduplicated set of product URLs. Missing sitemaps
// and malformed XML are tolerated: the offending node is skipped and
// the walk continues.
type Resolver struct {
	fetcher  scrape.Fetcher
	maxDepth int
	logger   *zap.Logger
}

// Option adjusts Resolver behavior.
type Option func(*Resolver)

// WithMaxDepth caps sitemap index nesting.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// NewResolver builds a Resolver on top of the shared Fetcher.
func NewResolver(fetcher scrape.Fetcher, logger *zap.Logger, opts ...Option) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		fetcher:  fetcher,
		maxDepth: defaultMaxDepth,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns every product URL reachable from <base>/sitemap.xml.
// A missing or unreachable root sitemap yields an empty result, not an
// error; the caller decides whether that is fatal for the run.
func (r *Resolver) Resolve(ctx context.Context, baseURL string) ([]string, error) {
	root, err := scrape.SitemapURL(baseURL)
	if err != nil {
		return nil, err
	}

	walk := &walkState{
		seen:     make(map[string]struct{}),
		products: make(map[string]struct{}),
	}
	r.visit(ctx, root, 0, walk)

	urls := make([]string, 0, len(walk.products))
	for u := range walk.products {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}

type walkState struct {
	seen     map[string]struct{}
	products map[string]struct{}
}

func (r *Resolver) visit(ctx context.Context, sitemapURL string, depth int, walk *walkState) {
	if ctx.Err() != nil {
		return
	}
	if depth > r.maxDepth {
		r.logger.Warn("sitemap nesting too deep, skipping", zap.String("url", sitemapURL))
		return
	}
	if _, ok := walk.seen[sitemapURL]; ok {
		return
	}
	walk.seen[sitemapURL] = struct{}{}

	page, err := r.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		r.logger.Warn("sitemap fetch failed", zap.String("url", sitemapURL), zap.Error(err))
		return
	}

	children, pages, err := parseSitemap(page.Body)
	if err != nil {
		r.logger.Warn("malformed sitemap, skipping", zap.String("url", sitemapURL), zap.Error(err))
		return
	}

	for _, child := range children {
		r.visit(ctx, child, depth+1, walk)
	}
	for _, p := range pages {
		if !scrape.IsProductURL(p) {
			continue
		}
		normalized, err := scrape.NormalizeURL(p)
		if err != nil {
			r.logger.Debug("dropping unparseable url", zap.String("url", p), zap.Error(err))
			continue
		}
		walk.products[normalized] = struct{}{}
	}
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// parseSitemap walks the XML token stream and collects <sitemap><loc>
// child references and <url><loc> page entries. Matching by local name
// keeps it agnostic to the sitemap namespace variants in the wild.
func parseSitemap(body []byte) (children, pages []string, err error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	sawElement := false
	for {
		tok, tokErr := decoder.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			if !sawElement {
				return nil, nil, tokErr
			}
			// Truncated document: keep whatever parsed cleanly.
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "sitemap":
			sawElement = true
			var entry locEntry
			if err := decoder.DecodeElement(&entry, &start); err == nil && entry.Loc != "" {
				children = append(children, entry.Loc)
			}
		case "url":
			sawElement = true
			var entry locEntry
			if err := decoder.DecodeElement(&entry, &start); err == nil && entry.Loc != "" {
				pages = append(pages, entry.Loc)
			}
		}
	}
	return children, pages, nil
}
