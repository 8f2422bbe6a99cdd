package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGinMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/loads/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/loads/:id", "200"))
	req := httptest.NewRequest(http.MethodGet, "/loads/42", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/loads/:id", "200"))

	if after-before != 1 {
		t.Fatalf("request counter delta want 1 got %v", after-before)
	}
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	TransitionsTotal.WithLabelValues("load", "priced").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status want 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "freightlane_transitions_total") {
		t.Fatalf("metrics output should contain transitions counter")
	}
}
