package obs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newInstrumentedRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Instrument)
	r.Post("/v1/rfqs/{rfqID}/award-lines", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	return r
}

func TestInstrumentLabelsByRouteTemplate(t *testing.T) {
	h := newInstrumentedRouter()
	route := "/v1/rfqs/{rfqID}/award-lines"
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, route, "409"))

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodPost, "/v1/rfqs/"+id+"/award-lines", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodPost, route, "409"))
	assert.Equal(t, before+2, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}

func TestInstrumentCollapsesUnknownPaths(t *testing.T) {
	h := newInstrumentedRouter()
	// Seed the unmatched series so the count below only measures growth.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/seed", nil))
	series := testutil.CollectAndCount(httpRequestsTotal)
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/scan/%d/.env", i), nil)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, series, testutil.CollectAndCount(httpRequestsTotal))
	assert.Equal(t, before+50, testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")))
}

func TestRouteLabelOutsideRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/rfqs/abc", nil)
	assert.Equal(t, unmatchedRoute, RouteLabel(req))
}

func TestSetReady(t *testing.T) {
	SetReady(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(ready))
	SetReady(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(ready))
}

func TestInitBuildInfo(t *testing.T) {
	InitBuildInfo("1.2.3", "abc123")
	InitBuildInfo("1.2.4", "def456")

	assert.Equal(t, 1, testutil.CollectAndCount(buildInfo))
	assert.Equal(t, float64(1), testutil.ToFloat64(buildInfo.WithLabelValues("1.2.4", "def456", runtime.Version())))
}
