package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coverline/rating-engine/api"
	"github.com/coverline/rating-engine/rating"
	"github.com/coverline/rating-engine/rating/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func testSnapshot(t *testing.T) *rating.Snapshot {
	t.Helper()

	withdraw := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	snap, err := rating.NewSnapshotBuilder("USD").
		AddPlan(rating.Plan{
			ID: "plan-gold", Code: "GOLD", Name: "Gold",
			LaunchDate: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Active: true,
		}).
		AddPlan(rating.Plan{
			ID: "plan-old", Code: "OLD", Name: "Old",
			LaunchDate:   time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
			WithdrawDate: &withdraw, Active: true,
		}).
		AddValueBand(rating.ValueBand{ID: "vb-low", From: dec(t, "10000"), To: dec(t, "20000")}).
		AddVehicleCategory(rating.VehicleCategory{ID: "cat-private", Name: "Private"}).
		AddVehicleType(rating.VehicleType{ID: "vt-sedan", CategoryID: "cat-private", Name: "Sedan"}).
		AddExcessType(rating.ExcessType{ID: "ex-standard", Name: "Standard", Default: true}).
		AddTariff(rating.Tariff{
			ID: "tar-comp", Kind: rating.KindComprehensive, Plan: "plan-gold",
			VehicleCategoryID: "cat-private", VehicleTypeID: "vt-sedan", ValueBandID: "vb-low",
			Rate: dec(t, "2.5"), MinimumPremium: dec(t, "150"),
			EffectiveFrom: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), Active: true,
		}).
		AddPlanExcess(rating.PlanExcess{
			PlanID: "plan-gold", ExcessTypeID: "ex-standard", ValueBandID: "vb-low",
			Amount: dec(t, "250"), Unit: rating.ExcessFixed,
		}).
		Build()
	if err != nil {
		t.Fatalf("building snapshot: %v", err)
	}
	return snap
}

// memorySeeder adapts the in-memory provider to the scenario write surface.
type memorySeeder struct {
	mem *store.Memory
}

func (m *memorySeeder) Seed(_ context.Context, snap *rating.Snapshot) error {
	m.mem.Set(snap)
	return nil
}

func (m *memorySeeder) Reset(_ context.Context) error {
	m.mem.Set(nil)
	return nil
}

func newTestServer(t *testing.T, snap *rating.Snapshot) (*httptest.Server, *rating.Service) {
	t.Helper()

	mem := store.NewMemory(snap)
	svc := rating.NewService(mem, nil)
	if snap != nil {
		if err := svc.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	h := api.NewHandler(svc, &memorySeeder{mem: mem}, nil)
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, svc
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, decoded
}

// =============================================================================
// QUOTE ENDPOINT
// =============================================================================

func TestPostQuotes_Success(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, body := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-gold",
		"kind": "comprehensive",
		"as_of": "2025-03-01",
		"vehicle_category_id": "cat-private",
		"vehicle_type_id": "vt-sedan",
		"insured_value": "12000"
	}`)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, body)
	}
	if body["total"] != "300.00" {
		t.Errorf("total = %v, want 300.00", body["total"])
	}
	if body["snapshot_version"] == "" {
		t.Error("snapshot_version missing")
	}
}

func TestPostQuotes_ValidationError_400(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, body := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-gold",
		"kind": "comprehensive",
		"vehicle_type_id": "vt-sedan"
	}`)

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "invalid_request" {
		t.Errorf("error = %v, want invalid_request", body["error"])
	}
}

func TestPostQuotes_WithdrawnPlan_404NotOffered(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, body := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-old",
		"kind": "comprehensive",
		"as_of": "2025-07-01",
		"vehicle_category_id": "cat-private",
		"vehicle_type_id": "vt-sedan",
		"insured_value": "12000"
	}`)

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if body["error"] != "not_offered" {
		t.Errorf("error = %v, want not_offered", body["error"])
	}
}

func TestPostQuotes_BandGap_500DataError(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, body := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-gold",
		"kind": "comprehensive",
		"as_of": "2025-03-01",
		"vehicle_category_id": "cat-private",
		"vehicle_type_id": "vt-sedan",
		"insured_value": "5000"
	}`)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	if body["error"] != "reference_data_error" {
		t.Errorf("error = %v, want reference_data_error", body["error"])
	}
}

func TestPostQuotes_NoSnapshot_503(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-gold",
		"kind": "comprehensive",
		"vehicle_category_id": "cat-private",
		"vehicle_type_id": "vt-sedan",
		"insured_value": "12000"
	}`)

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if body["error"] != "snapshot_unavailable" {
		t.Errorf("error = %v, want snapshot_unavailable", body["error"])
	}
}

func TestPostQuotes_MalformedBody_400(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, _ := postJSON(t, srv.URL+"/api/quotes", `{"plan_id": `+`"x"`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

// =============================================================================
// REFERENCE ENDPOINTS
// =============================================================================

func TestGetPlans(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, err := http.Get(srv.URL + "/api/plans")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var plans []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("plans = %d, want 2", len(plans))
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, err := http.Get(srv.URL + "/api/plans/plan-nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetSnapshot(t *testing.T) {
	srv, svc := newTestServer(t, testSnapshot(t))

	resp, err := http.Get(srv.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var dto map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&dto); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dto["version"] != svc.Snapshot().Version {
		t.Errorf("version = %v, want %s", dto["version"], svc.Snapshot().Version)
	}
}

func TestGetReference_NoSnapshot_503(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/reference/value-bands")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
}

// =============================================================================
// ADMIN AND SCENARIOS
// =============================================================================

func TestPostAdminRefresh(t *testing.T) {
	srv, _ := newTestServer(t, testSnapshot(t))

	resp, body := postJSON(t, srv.URL+"/api/admin/refresh", `{}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, body)
	}
	if body["status"] != "refreshed" {
		t.Errorf("status = %v, want refreshed", body["status"])
	}
}

func TestLoadScenario_EndToEnd(t *testing.T) {
	// Loading a scenario seeds the store, refreshes, and quotes must then
	// price against the scenario catalog.
	srv, svc := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/api/scenarios/load", `{"scenario_id": "personal-lines"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%v)", resp.StatusCode, body)
	}
	if svc.Snapshot() == nil {
		t.Fatal("scenario load must leave a snapshot resident")
	}

	quoteResp, quoteBody := postJSON(t, srv.URL+"/api/quotes", `{
		"plan_id": "plan-gold",
		"kind": "comprehensive",
		"as_of": "2025-03-01",
		"vehicle_category_id": "cat-private",
		"vehicle_type_id": "vt-sedan",
		"insured_value": "12000"
	}`)
	if quoteResp.StatusCode != http.StatusOK {
		t.Fatalf("quote status = %d, want 200 (%v)", quoteResp.StatusCode, quoteBody)
	}
	if quoteBody["total"] != "300.00" {
		t.Errorf("total = %v, want 300.00", quoteBody["total"])
	}
}

func TestLoadScenario_Unknown_400(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, body := postJSON(t, srv.URL+"/api/scenarios/load", `{"scenario_id": "nope"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if body["error"] != "unknown_scenario" {
		t.Errorf("error = %v, want unknown_scenario", body["error"])
	}
}

func TestListScenarios(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/scenarios")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var list []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("no scenarios listed")
	}
}
