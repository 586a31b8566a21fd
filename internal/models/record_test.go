package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPayloadFormatsPriceAndRating(t *testing.T) {
	price := 1234.5
	rating := 4.0
	record := CanonicalRecord{
		ProductName: "Sony Wh 1000Xm5",
		Platform:    "Amazon",
		Price:       &price,
		Rating:      &rating,
		URL:         "https://www.amazon.in/dp/B09XS7JWHH",
		Timestamp:   time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC),
	}

	p := record.ToPayload()
	assert.Equal(t, "1234.50", p.Price)
	assert.Equal(t, "4.0", p.Rating)
	assert.Equal(t, "2026-08-30T09:30:00Z", p.Timestamp)
}

func TestMarshalJSONUsesPayloadShape(t *testing.T) {
	rating := 4.1
	record := &CanonicalRecord{
		ProductName: "Boat Airdopes 141",
		Platform:    "Flipkart",
		Rating:      &rating,
		URL:         "https://www.flipkart.com/p/x",
		Timestamp:   time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "Boat Airdopes 141", raw["productName"])
	assert.Equal(t, "Flipkart", raw["platform"])
	assert.Equal(t, "4.1", raw["rating"])
	assert.NotContains(t, raw, "price")
	// Internal field names never leak onto the wire.
	assert.NotContains(t, raw, "ProductName")
}

func TestHasName(t *testing.T) {
	assert.True(t, (&RawField{Name: "x"}).HasName())
	assert.False(t, (&RawField{}).HasName())
	var nilField *RawField
	assert.False(t, nilField.HasName())
}
