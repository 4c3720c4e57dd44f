package metrics

import (
	"testing"

	"FinSimples/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWith(prometheus.NewRegistry())

	r.RecordPrediction(models.StatusSuccess)
	r.RecordPrediction(models.StatusSuccess)
	r.RecordPrediction(models.StatusNoData)
	r.RecordProviderFetch("yahoo", "ok")
	r.RecordCacheLookup(true)
	r.RecordError("provider")
	r.RecordLatency("infer", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.predictions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.predictions.WithLabelValues("no_data")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerFetch.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cacheLookups.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("provider")))
}
