package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

const testEndpoint = "http://ingest.test/scrape"

func testRecord() *models.CanonicalRecord {
	price := 69999.0
	rating := 4.5
	return &models.CanonicalRecord{
		ProductName: "Apple Iphone 15 128 Gb",
		Platform:    "Amazon",
		Price:       &price,
		Rating:      &rating,
		URL:         "https://www.amazon.in/dp/B0CHX1W1XY",
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestHTTPSinkSendAccepted(t *testing.T) {
	s := NewHTTPSink(testEndpoint, 5*time.Second)
	httpmock.ActivateNonDefault(s.Client())
	defer httpmock.DeactivateAndReset()

	var got models.Payload
	httpmock.RegisterResponder("POST", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return httpmock.NewStringResponse(400, ""), nil
			}
			return httpmock.NewStringResponse(201, `{"ok":true}`), nil
		})

	err := s.Send(context.Background(), testRecord())
	require.NoError(t, err)

	assert.Equal(t, "Apple Iphone 15 128 Gb", got.ProductName)
	assert.Equal(t, "Amazon", got.Platform)
	assert.Equal(t, "69999.00", got.Price)
	assert.Equal(t, "4.5", got.Rating)
	assert.Equal(t, "2026-08-30T12:00:00Z", got.Timestamp)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestHTTPSinkSendOKStatus(t *testing.T) {
	s := NewHTTPSink(testEndpoint, 5*time.Second)
	httpmock.ActivateNonDefault(s.Client())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(200, "ok"))

	assert.NoError(t, s.Send(context.Background(), testRecord()))
}

func TestHTTPSinkSendRejected(t *testing.T) {
	s := NewHTTPSink(testEndpoint, 5*time.Second)
	httpmock.ActivateNonDefault(s.Client())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("POST", testEndpoint,
		httpmock.NewStringResponder(500, "boom"))

	err := s.Send(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHTTPSinkOmitsAbsentPriceAndRating(t *testing.T) {
	s := NewHTTPSink(testEndpoint, 5*time.Second)
	httpmock.ActivateNonDefault(s.Client())
	defer httpmock.DeactivateAndReset()

	var raw map[string]any
	httpmock.RegisterResponder("POST", testEndpoint,
		func(req *http.Request) (*http.Response, error) {
			if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
				return httpmock.NewStringResponse(400, ""), nil
			}
			return httpmock.NewStringResponse(200, ""), nil
		})

	record := testRecord()
	record.Price = nil
	record.Rating = nil
	require.NoError(t, s.Send(context.Background(), record))

	// Absent values are omitted keys, never "0.00" or empty strings.
	assert.NotContains(t, raw, "price")
	assert.NotContains(t, raw, "rating")
	assert.Contains(t, raw, "productName")
}
