package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBackendCall("analyze", time.Now(), nil)
	m.ObserveBackendCall("analyze", time.Now(), errors.New("boom"))
	m.ObserveUpload([]string{"application/pdf", "text/plain", "application/pdf"}, []int64{10, 20, 30}, 2)
	m.ObserveExport("mp3")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("analyze", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendCalls.WithLabelValues("analyze", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesAccepted.WithLabelValues("application/pdf")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesRejected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("mp3")))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBackendCall("analyze", time.Now(), nil)
		m.ObserveUpload([]string{"text/plain"}, []int64{1}, 1)
		m.ObserveExport("pdf")
	})
}
