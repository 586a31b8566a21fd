package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRecordLabels(t *testing.T) {
	m := New()

	m.IncFetch("static")
	m.IncFetch("static")
	m.IncFetch("render")
	m.IncFetchError("http_status")
	m.IncRecords("Amazon", 5)
	m.IncDelivery("sent")
	m.IncDelivery("failed")
	m.IncPlatformFailure("Flipkart")
	m.ObserveFetchDuration(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("static")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("render")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrorsTotal.WithLabelValues("http_status")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("Amazon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlatformFailures.WithLabelValues("Flipkart")))
}

func TestRegistryGathersAllCollectors(t *testing.T) {
	m := New()
	m.IncFetch("static")

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncFetch("static")
		m.IncFetchError("network")
		m.ObserveFetchDuration(time.Second)
		m.IncRecords("Amazon", 1)
		m.IncDelivery("sent")
		m.IncPlatformFailure("Amazon")
	})
}
