package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-sync/api/controllers"
	"github.com/angelmondragon/storefront-sync/internal/checkout"
	"github.com/angelmondragon/storefront-sync/internal/store"
	"github.com/angelmondragon/storefront-sync/pkg/config"
	"github.com/angelmondragon/storefront-sync/pkg/logger"
	"github.com/angelmondragon/storefront-sync/pkg/metrics"
	"github.com/angelmondragon/storefront-sync/pkg/types"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: config.AppEnvDev}}
}

func newTestRouter(t *testing.T, st *store.Store, ready map[string]controllers.Pinger) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.NewSyncMetrics(reg)
	m.IncSuccess("bootstrap")
	return NewRouter(testConfig(), logger.Nop(), Deps{
		Store:    st,
		Policy:   checkout.DefaultPolicy(),
		Gatherer: reg,
		Ready:    ready,
	})
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body.Data
}

func readyState() store.State {
	state := store.Empty()
	state.Authenticated = true
	state.Cart = []types.CartLine{{CartLineID: "l1", ProductID: "p1", UnitPrice: decimal.NewFromInt(1000), Quantity: 2}}
	state.Addresses = []types.Address{{AddressID: "a1", Street: "1 Main St", City: "Pune", State: "MH", Pincode: "411001", IsDefault: true}}
	state.VendorAvailability = &types.VendorAvailability{VendorAvailable: true, CanPlaceOrder: true}
	return state
}

func TestHealthRoutes(t *testing.T) {
	h := newTestRouter(t, store.New(), map[string]controllers.Pinger{
		"local_store": stubPinger{},
		"push":        nil,
	})

	rec := do(t, h, "/health/live")
	if rec.Code != http.StatusOK {
		t.Fatalf("live: expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Storefront-Env") != config.AppEnvDev {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Storefront-Env"))
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected a request id to be minted")
	}

	rec = do(t, h, "/health/ready")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d", rec.Code)
	}
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	h := newTestRouter(t, store.New(), map[string]controllers.Pinger{
		"local_store": stubPinger{err: errors.New("database is locked")},
	})

	rec := do(t, h, "/health/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DEPENDENCY_ERROR") {
		t.Fatalf("expected dependency error code, got %s", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	rec := do(t, newTestRouter(t, store.New(), nil), "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "storefront_sync_job_success_total") {
		t.Fatalf("expected sync metrics in scrape output")
	}
}

func TestStateSnapshot(t *testing.T) {
	st := store.New(store.WithInitialState(readyState()))
	st.Dispatch(store.AddNotification{Notification: types.Notification{ID: "n1", Title: "Hello"}})
	h := newTestRouter(t, st, nil)

	rec := do(t, h, "/api/v1/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	if data["authenticated"] != true {
		t.Fatalf("expected authenticated snapshot, got %v", data["authenticated"])
	}
	if data["cartCount"] != float64(2) {
		t.Fatalf("expected cartCount 2, got %v", data["cartCount"])
	}
	if data["unreadCount"] != float64(1) {
		t.Fatalf("expected unreadCount 1, got %v", data["unreadCount"])
	}

	version := st.Version()
	rec = do(t, h, "/api/v1/state?after="+strconv.FormatUint(version, 10))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for an up to date caller, got %d", rec.Code)
	}

	rec = do(t, h, "/api/v1/state?after=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad version, got %d", rec.Code)
	}
}

func TestCheckoutQuote(t *testing.T) {
	h := newTestRouter(t, store.New(store.WithInitialState(readyState())), nil)

	rec := do(t, h, "/api/v1/checkout/quote")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := decodeData(t, rec)
	quote := data["quote"].(map[string]any)
	if quote["total"] != "2000" || quote["advance"] != "600" || quote["remaining"] != "1400" {
		t.Fatalf("unexpected partial quote %v", quote)
	}
	if eligible := data["eligibility"].(map[string]any)["eligible"]; eligible != true {
		t.Fatalf("expected an eligible cart, got %v", eligible)
	}

	rec = do(t, h, "/api/v1/checkout/quote?preference=full")
	quote = decodeData(t, rec)["quote"].(map[string]any)
	if quote["advance"] != "2000" || quote["remaining"] != "0" {
		t.Fatalf("unexpected full quote %v", quote)
	}

	rec = do(t, h, "/api/v1/checkout/quote?preference=later")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown preference, got %d", rec.Code)
	}

	rec = do(t, h, "/api/v1/checkout/quote?shipping_fee=-5")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative fee, got %d", rec.Code)
	}
}

func TestCheckoutQuoteReportsBlockedGates(t *testing.T) {
	h := newTestRouter(t, store.New(), nil)

	data := decodeData(t, do(t, h, "/api/v1/checkout/quote"))
	eligibility := data["eligibility"].(map[string]any)
	if eligibility["eligible"] != false {
		t.Fatalf("expected an empty cart to be blocked")
	}
	if reasons := eligibility["reasons"].([]any); len(reasons) != 4 {
		t.Fatalf("expected every gate to fail, got %v", reasons)
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	h := newTestRouter(t, store.New(), nil)
	r := h.(interface {
		Get(pattern string, handlerFn http.HandlerFunc)
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := do(t, h, "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "kaboom") {
		t.Fatalf("panic value leaked to the client: %s", rec.Body.String())
	}
}
