package sink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

func TestDumpRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.json")

	record := testRecord()
	bare := testRecord()
	bare.Price = nil
	bare.Rating = nil

	require.NoError(t, DumpRecords([]*models.CanonicalRecord{record, bare}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var payloads []map[string]any
	require.NoError(t, json.Unmarshal(data, &payloads))
	require.Len(t, payloads, 2)

	assert.Equal(t, "69999.00", payloads[0]["price"])
	assert.Equal(t, "4.5", payloads[0]["rating"])
	assert.NotContains(t, payloads[1], "price")
	assert.NotContains(t, payloads[1], "rating")
}

func TestDumpRecordsEmptyRunWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, DumpRecords(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
