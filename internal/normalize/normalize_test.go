package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

func TestName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "simple", raw: "apple iphone 15", expected: "Apple Iphone 15"},
		{name: "noisy punctuation", raw: "Apple iPhone 15 (128 GB) - Black!", expected: "Apple Iphone 15 128 Gb Black"},
		{name: "plus preserved", raw: "Samsung Galaxy S24+", expected: "Samsung Galaxy S24+"},
		{name: "whitespace collapsed", raw: "  sony   wh-1000xm5  ", expected: "Sony Wh 1000Xm5"},
		{name: "letter after digit uppercased", raw: "42h playtime", expected: "42H Playtime"},
		{name: "empty", raw: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Name(tt.raw))
		})
	}
}

func TestNameIdempotent(t *testing.T) {
	inputs := []string{
		"Apple iPhone 15 (128 GB)",
		"boAt Airdopes 141, 42H Playtime",
		"SAMSUNG Galaxy S24+",
		"",
	}
	for _, raw := range inputs {
		once := Name(raw)
		assert.Equal(t, once, Name(once), "Name must be idempotent for %q", raw)
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *float64
	}{
		{name: "indian grouping", raw: "₹1,09,900", expected: ptr(109900.0)},
		{name: "us grouping with decimals", raw: "$1,234.56", expected: ptr(1234.56)},
		{name: "plain", raw: "499", expected: ptr(499.0)},
		{name: "nbsp", raw: "₹ 2,999", expected: ptr(2999.0)},
		{name: "no digits", raw: "price unavailable", expected: nil},
		{name: "empty", raw: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(tt.raw)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestPriceNeverNegative(t *testing.T) {
	inputs := []string{"-500", "₹-1,200.50", "abc-9.99"}
	for _, raw := range inputs {
		got := Price(raw)
		if got != nil {
			assert.GreaterOrEqual(t, *got, 0.0, "input %q", raw)
		}
	}
}

func TestRating(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *float64
	}{
		{name: "stars suffix", raw: "4.5 out of 5 stars", expected: ptr(4.5)},
		{name: "bare", raw: "4.2", expected: ptr(4.2)},
		{name: "integer", raw: "4", expected: ptr(4.0)},
		{name: "no rating", raw: "no rating", expected: nil},
		{name: "empty", raw: "", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Rating(tt.raw)
			if tt.expected == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.expected, *got, 0.001)
		})
	}
}

func TestBuildRecord(t *testing.T) {
	raw := models.RawField{
		Name:       "Apple iPhone 15 (128 GB)",
		PriceText:  "₹69,999",
		RatingText: "4.5 out of 5 stars",
		URL:        "https://www.amazon.in/dp/B0CHX1W1XY",
		Platform:   "Amazon",
	}

	before := time.Now().UTC()
	record := BuildRecord(raw)
	require.NotNil(t, record)

	assert.Equal(t, "Apple Iphone 15 128 Gb", record.ProductName)
	assert.Equal(t, "Amazon", record.Platform)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 69999.0, *record.Price, 0.001)
	require.NotNil(t, record.Rating)
	assert.InDelta(t, 4.5, *record.Rating, 0.001)
	assert.Equal(t, raw.URL, record.URL)
	assert.False(t, record.Timestamp.Before(before))
}

func TestBuildRecordAbsentFieldsStayAbsent(t *testing.T) {
	record := BuildRecord(models.RawField{
		Name:     "Some Product",
		URL:      "https://example.com/p/1",
		Platform: "Flipkart",
	})
	require.NotNil(t, record)

	// Absence is a distinct state from zero; unparsable must never become 0.
	assert.Nil(t, record.Price)
	assert.Nil(t, record.Rating)
}

func TestBuildRecordRequiresName(t *testing.T) {
	record := BuildRecord(models.RawField{
		PriceText: "₹999",
		URL:       "https://example.com/p/2",
		Platform:  "Amazon",
	})
	assert.Nil(t, record)
}

func ptr(f float64) *float64 {
	return &f
}
