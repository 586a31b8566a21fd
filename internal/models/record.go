package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RawField carries the untyped text an adapter extracted from one listing
// card or product page. It lives only between parse and normalization.
type RawField struct {
	Name       string
	PriceText  string
	RatingText string
	URL        string
	Platform   string
}

// HasName reports whether the field can ever become a record. Cards without
// a name are dropped before normalization.
func (r *RawField) HasName() bool {
	return r != nil && r.Name != ""
}

// CanonicalRecord is the normalized output unit of the pipeline. Price and
// Rating are nil when the source text was absent or unparsable; nil is a
// distinct state from zero and is never coerced.
type CanonicalRecord struct {
	ProductName string
	Platform    string
	Price       *float64
	Rating      *float64
	URL         string
	Timestamp   time.Time
}

// Payload is the wire shape the ingestion endpoint accepts: price with two
// fraction digits, rating with one, both omitted when absent.
type Payload struct {
	ProductName string `json:"productName"`
	Platform    string `json:"platform"`
	Price       string `json:"price,omitempty"`
	Rating      string `json:"rating,omitempty"`
	URL         string `json:"url"`
	Timestamp   string `json:"timestamp"`
}

// ToPayload encodes the record for the sink boundary.
func (c *CanonicalRecord) ToPayload() Payload {
	p := Payload{
		ProductName: c.ProductName,
		Platform:    c.Platform,
		URL:         c.URL,
		Timestamp:   c.Timestamp.Format(time.RFC3339),
	}
	if c.Price != nil {
		p.Price = fmt.Sprintf("%.2f", *c.Price)
	}
	if c.Rating != nil {
		p.Rating = fmt.Sprintf("%.1f", *c.Rating)
	}
	return p
}

// MarshalJSON encodes records in payload form so file dumps and HTTP
// responses share one wire shape.
func (c *CanonicalRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToPayload())
}

// RecordError describes one record that the sink rejected.
type RecordError struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// DeliveryReport summarizes a delivery pass. One record's failure never
// blocks the rest, so Sent+Failed always equals the number of records
// offered.
type DeliveryReport struct {
	Sent   int           `json:"sent"`
	Failed int           `json:"failed"`
	Errors []RecordError `json:"errors,omitempty"`
}

// PlatformFailure records that one platform's whole scrape attempt produced
// nothing usable. It excludes the platform from output without failing the
// run.
type PlatformFailure struct {
	Platform string `json:"platform"`
	Reason   string `json:"reason"`
}

// RunSummary reports what a scrape run accomplished.
type RunSummary struct {
	RunID     string            `json:"run_id"`
	Query     string            `json:"query"`
	Platforms []string          `json:"platforms"`
	Records   int               `json:"records"`
	Failures  []PlatformFailure `json:"failures,omitempty"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
}
