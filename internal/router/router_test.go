package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/models"
	"github.com/freightlane/internal/provider"
	"github.com/freightlane/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type apiEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type routerFixture struct {
	engine    *gin.Engine
	container *provider.Container
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:router_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	v := viper.New()
	config.SetDefaults(v)
	v.Set("redis.enabled", false)
	v.Set("queue.enabled", false)
	v.Set("otp.hash_cost", 4)
	cfg, err := config.Decode(v)
	if err != nil {
		t.Fatalf("decode config failed: %v", err)
	}

	container := provider.NewContainer(cfg)
	t.Cleanup(container.Close)
	return &routerFixture{
		engine:    SetupRouter(cfg, container),
		container: container,
	}
}

func (f *routerFixture) do(t *testing.T, actor service.Actor, method, path, body string) apiEnvelope {
	t.Helper()
	token, _, err := f.container.TokenService.IssueToken(actor, time.Hour)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s http status want 200 got %d", method, path, w.Code)
	}
	var resp apiEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v body=%s", err, w.Body.String())
	}
	return resp
}

func TestLoadPricingFlowThroughRouter(t *testing.T) {
	f := newRouterFixture(t)
	shipper := service.ShipperActor(7)
	admin := service.AdminActor(1)

	resp := f.do(t, shipper, http.MethodPost, "/api/v1/loads",
		`{"pickup_location":"Lagos","dropoff_location":"Ibadan","weight_kg":"1200"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("create load status_code want 0 got %d msg=%s", resp.StatusCode, resp.Msg)
	}
	var load models.Load
	if err := json.Unmarshal(resp.Data, &load); err != nil {
		t.Fatalf("decode load failed: %v", err)
	}
	if load.Status != "pending" {
		t.Fatalf("load status want pending got %s", load.Status)
	}

	resp = f.do(t, shipper, http.MethodPost, fmt.Sprintf("/api/v1/admin/loads/%d/price", load.ID), `{"price":"1500"}`)
	if resp.StatusCode != 403 {
		t.Fatalf("shipper pricing status_code want 403 got %d", resp.StatusCode)
	}

	resp = f.do(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/admin/loads/%d/price", load.ID), `{"price":"1500"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("admin pricing status_code want 0 got %d msg=%s", resp.StatusCode, resp.Msg)
	}

	resp = f.do(t, shipper, http.MethodGet, fmt.Sprintf("/api/v1/loads/%d", load.ID), "")
	if err := json.Unmarshal(resp.Data, &load); err != nil {
		t.Fatalf("decode load failed: %v", err)
	}
	if load.Status != "priced" {
		t.Fatalf("load status want priced got %s", load.Status)
	}

	resp = f.do(t, admin, http.MethodPost, fmt.Sprintf("/api/v1/admin/loads/%d/price", load.ID), `{"price":"1600"}`)
	if resp.StatusCode != 409 {
		t.Fatalf("repricing status_code want 409 got %d", resp.StatusCode)
	}
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	f := newRouterFixture(t)
	carrier := service.CarrierActor(5)

	resp := f.do(t, carrier, http.MethodGet, "/api/v1/loads/999", "")
	if resp.StatusCode != 404 {
		t.Fatalf("missing load status_code want 404 got %d", resp.StatusCode)
	}

	resp = f.do(t, carrier, http.MethodGet, "/api/v1/loads/abc", "")
	if resp.StatusCode != 400 {
		t.Fatalf("bad id status_code want 400 got %d", resp.StatusCode)
	}

	resp = f.do(t, carrier, http.MethodPost, "/api/v1/loads",
		`{"pickup_location":"Lagos","dropoff_location":"Ibadan","weight_kg":"1200"}`)
	if resp.StatusCode != 403 {
		t.Fatalf("carrier creating load status_code want 403 got %d", resp.StatusCode)
	}
}

func TestAdminAuthzRoutes(t *testing.T) {
	f := newRouterFixture(t)
	admin := service.AdminActor(1)

	resp := f.do(t, admin, http.MethodGet, "/api/v1/admin/authz/roles", "")
	if resp.StatusCode != 0 {
		t.Fatalf("list roles status_code want 0 got %d", resp.StatusCode)
	}
	var roles []string
	if err := json.Unmarshal(resp.Data, &roles); err != nil {
		t.Fatalf("decode roles failed: %v", err)
	}
	if len(roles) == 0 {
		t.Fatalf("builtin roles should be seeded")
	}

	resp = f.do(t, admin, http.MethodPost, "/api/v1/admin/authz/policies", `{"role":"shipper","object":"/fleet","action":"READ"}`)
	if resp.StatusCode != 0 {
		t.Fatalf("grant policy status_code want 0 got %d msg=%s", resp.StatusCode, resp.Msg)
	}
	allowed, err := f.container.AuthzService.Enforce("shipper", "/fleet", "READ")
	if err != nil || !allowed {
		t.Fatalf("granted policy should be enforced, allowed=%v err=%v", allowed, err)
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health want ok got %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Fatalf("metrics endpoint should expose request counters, got %d", w.Code)
	}
}
