package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	require.Equal(t, Status2xx, ClassifyStatus(200))
	require.Equal(t, Status3xx, ClassifyStatus(301))
	require.Equal(t, Status4xx, ClassifyStatus(404))
	require.Equal(t, Status5xx, ClassifyStatus(503))
	require.Equal(t, StatusOther, ClassifyStatus(0))
}

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	require.NoError(t, err)

	rec.FetchDone("shop.example.com", 200, 0.5)
	rec.FetchDone("shop.example.com", 503, 0.1)
	rec.FetchDone("", 0, 0)
	rec.ExtractionDone("extracted")
	rec.ExtractionDone("partial")
	rec.ExtractionDone("partial")
	rec.LLMFallback("success")
	rec.RunCompleted("success", 3*time.Second)

	require.Equal(t, float64(1), testutil.ToFloat64(rec.fetchRequests.WithLabelValues("shop.example.com", Status2xx)))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.fetchRequests.WithLabelValues("shop.example.com", Status5xx)))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.fetchRequests.WithLabelValues("unknown", StatusOther)))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.extractions.WithLabelValues("extracted")))
	require.Equal(t, float64(2), testutil.ToFloat64(rec.extractions.WithLabelValues("partial")))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.llmFallbacks.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.runsCompleted.WithLabelValues("success")))
}

func TestRecorderDuplicateRegistrationFails(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	require.Error(t, err)
}

func TestNilRecorderIsNoOp(t *testing.T) {
	t.Parallel()

	var rec *Recorder
	rec.FetchDone("site", 200, 0.1)
	rec.ExtractionDone("extracted")
	rec.LLMFallback("error")
	rec.RunCompleted("success", time.Second)
}
