package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name         string
		skipDelivery bool
		records      int
		expected     int
	}{
		{name: "records scraped", skipDelivery: false, records: 3, expected: 0},
		{name: "records scraped despite failed delivery", skipDelivery: false, records: 5, expected: 0},
		{name: "zero records with delivery requested", skipDelivery: false, records: 0, expected: 1},
		{name: "zero records without delivery", skipDelivery: true, records: 0, expected: 0},
		{name: "scrape-only run", skipDelivery: true, records: 2, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCode(tt.skipDelivery, tt.records))
		})
	}
}
