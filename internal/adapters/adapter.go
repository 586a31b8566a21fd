// Package adapters maps raw marketplace markup into RawFields. Each
// marketplace is one implementation of the Adapter interface, so adding a
// marketplace never touches the orchestrator.
//
// Marketplace markup drifts constantly and differs between A/B cohorts, so
// every extracted field is driven by an ordered fallback selector chain:
// selectors are tried in priority order and the first non-empty match wins.
// The chains are configuration data on the adapter, not per-call logic.
package adapters

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/marketlens/price-intel-scraper/internal/models"
)

// Adapter translates one marketplace's markup into RawFields.
type Adapter interface {
	// PlatformTag identifies the marketplace in output records.
	PlatformTag() string

	// BuildSearchURL percent-encodes the query into the marketplace's search
	// path. Pure, no I/O.
	BuildSearchURL(query string) string

	// ParseListing extracts zero or more RawFields from search-result markup
	// in document order. Zero matches is an empty slice, not an error.
	ParseListing(markup string) []models.RawField

	// ParseProduct extracts one RawField from a product-detail page, or nil
	// when no name element is found.
	ParseProduct(markup string, pageURL string) *models.RawField
}

// selectorChain is an ordered list of CSS selectors tried until one yields a
// non-empty result.
type selectorChain []string

func (sc selectorChain) text(s *goquery.Selection) string {
	for _, sel := range sc {
		if t := strings.TrimSpace(s.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func (sc selectorChain) attr(s *goquery.Selection, name string) string {
	for _, sel := range sc {
		if v, ok := s.Find(sel).First().Attr(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// firstMatch returns the selection for the first selector that matches at
// least one node.
func firstMatch(doc *goquery.Document, chain selectorChain) *goquery.Selection {
	for _, sel := range chain {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find(chain[len(chain)-1])
}

// resolveURL absolutizes href against the marketplace base URL.
func resolveURL(base, href string) string {
	if href == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// Trim truncates fields to at most limit entries, preserving order. It lives
// here rather than on each adapter so limit policy stays uniform across
// marketplaces.
func Trim(fields []models.RawField, limit int) []models.RawField {
	if limit <= 0 || len(fields) <= limit {
		return fields
	}
	return fields[:limit]
}
