package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freightlane/internal/http/handlers/shared"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
)

func TestKeyByActorAndParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/shipments/12/otp/verify", nil)
	c.Request.RemoteAddr = "1.2.3.4:5678"
	c.Params = gin.Params{{Key: "id", Value: "12"}}

	if key := KeyByActorAndParam("id")(c); key != "1.2.3.4" {
		t.Fatalf("anonymous key want 1.2.3.4 got %s", key)
	}

	shared.SetActor(c, service.CarrierActor(9))
	if key := KeyByActorAndParam("id")(c); key != "carrier:9|12" {
		t.Fatalf("key want carrier:9|12 got %s", key)
	}
	if key := KeyByActorAndParam("missing")(c); key != "carrier:9" {
		t.Fatalf("key without param want carrier:9 got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("expected handler response body, got %s", w.Body.String())
	}
}

func TestRateLimitRuleWindow(t *testing.T) {
	cases := []struct {
		rule    RateLimitRule
		enabled bool
	}{
		{rule: RateLimitRule{WindowSeconds: 60, MaxRequests: 5}, enabled: true},
		{rule: RateLimitRule{WindowSeconds: 0, MaxRequests: 5}, enabled: false},
		{rule: RateLimitRule{WindowSeconds: 60, MaxRequests: 0}, enabled: false},
	}
	for _, tc := range cases {
		if got := tc.rule.enabled(); got != tc.enabled {
			t.Fatalf("rule %+v enabled want %v got %v", tc.rule, tc.enabled, got)
		}
	}
	if got := (RateLimitRule{WindowSeconds: 90}).window(); got != 90*time.Second {
		t.Fatalf("window want 90s got %s", got)
	}
}
