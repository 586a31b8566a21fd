// Package normalize converts raw extracted text into canonical, comparable
// values. Every function is pure and total: unparsable input yields absence,
// never an error and never a coerced zero.
//
// Known limitation: price parsing strips thousands separators (",") after
// taking the first digit run, which cannot distinguish "1,234.56" (US) from
// "1.234,56" (European) or "1,09,900" (Indian lakh grouping) without a locale
// hint. Indian and US groupings parse correctly; European decimal commas do
// not. Locale-aware parsing is a future improvement, not silently applied
// here.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

var (
	nameSanitizer  = regexp.MustCompile(`[^a-z0-9+]+`)
	priceSanitizer = regexp.MustCompile(`[\d,.]+`)
	ratingPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	spaceCollapser = regexp.MustCompile(`\s+`)
)

// Name canonicalizes a display name: lowercase, strip everything but
// letters, digits and "+", collapse whitespace, then title-case. Idempotent.
func Name(raw string) string {
	cleaned := nameSanitizer.ReplaceAllString(strings.ToLower(raw), " ")
	cleaned = strings.TrimSpace(spaceCollapser.ReplaceAllString(cleaned, " "))
	return titleCase(cleaned)
}

// Price extracts a decimal price from free text. Returns nil when no digit
// run is found or the run does not parse.
func Price(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, " ", " ")
	match := priceSanitizer.FindString(cleaned)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &value
}

// Rating extracts the first decimal-number-shaped substring. Returns nil when
// none is found.
func Rating(raw string) *float64 {
	match := ratingPattern.FindString(raw)
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &value
}

// BuildRecord normalizes a RawField into a CanonicalRecord, stamping the
// current UTC time. Returns nil for fields without a name: a record without
// a product name must not exist.
func BuildRecord(raw models.RawField) *models.CanonicalRecord {
	if !raw.HasName() {
		return nil
	}

	return &models.CanonicalRecord{
		ProductName: Name(raw.Name),
		Platform:    raw.Platform,
		Price:       Price(raw.PriceText),
		Rating:      Rating(raw.RatingText),
		URL:         raw.URL,
		Timestamp:   time.Now().UTC(),
	}
}

// titleCase uppercases every letter that follows a non-letter, matching the
// casing of the canonical form ("iphone 15+ pro" -> "Iphone 15+ Pro").
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) && !prevLetter {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
