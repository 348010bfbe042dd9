package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	app := echo.New()
	app.Use(Middleware())
	app.GET("/v1/contents/:slug/detail", func(ctx echo.Context) error {
		if ctx.Param("slug") == "missing" {
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		return ctx.String(http.StatusOK, "ok")
	})

	path := "/v1/contents/:slug/detail"
	okBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, path, "200"))
	nfBefore := testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, path, "404"))

	for _, slug := range []string{"aviso", "evento", "missing"} {
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/contents/"+slug+"/detail", nil))
	}

	assert.Equal(t, okBefore+2, testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, path, "200")))
	assert.Equal(t, nfBefore+1, testutil.ToFloat64(HTTPRequests.WithLabelValues(http.MethodGet, path, "404")))
}

func TestObserveJob(t *testing.T) {
	runs := testutil.ToFloat64(JobRuns.WithLabelValues("test-job"))
	errs := testutil.ToFloat64(JobErrors.WithLabelValues("test-job"))

	ObserveJob("test-job", time.Now(), nil)
	ObserveJob("test-job", time.Now(), errors.New("boom"))

	assert.Equal(t, runs+2, testutil.ToFloat64(JobRuns.WithLabelValues("test-job")))
	assert.Equal(t, errs+1, testutil.ToFloat64(JobErrors.WithLabelValues("test-job")))
}
