package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMiddleware)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequestsTotal.WithLabelValues("GET", "/items/{id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestRecordSweep(t *testing.T) {
	completed := resendSweepsTotal.WithLabelValues(SweepCompleted)
	sent := resendEmailsTotal.WithLabelValues("sent")
	failed := resendEmailsTotal.WithLabelValues("failed")
	c0, s0, f0 := testutil.ToFloat64(completed), testutil.ToFloat64(sent), testutil.ToFloat64(failed)

	RecordSweep(4, 1, 0, 2*time.Second)

	assert.Equal(t, c0+1, testutil.ToFloat64(completed))
	assert.Equal(t, s0+4, testutil.ToFloat64(sent))
	assert.Equal(t, f0+1, testutil.ToFloat64(failed))
}

func TestRecordContactSubmission(t *testing.T) {
	yes := contactSubmissionsTotal.WithLabelValues("true")
	no := contactSubmissionsTotal.WithLabelValues("false")
	y0, n0 := testutil.ToFloat64(yes), testutil.ToFloat64(no)

	RecordContactSubmission(true)
	RecordContactSubmission(false)
	RecordContactSubmission(false)

	assert.Equal(t, y0+1, testutil.ToFloat64(yes))
	assert.Equal(t, n0+2, testutil.ToFloat64(no))
}
