/*
scenarios.go - Demo catalog loaders for testing and demonstrations

PURPOSE:
  Provides pre-built reference catalogs that populate the back-office store
  with realistic data for demos. Each scenario is a JSON catalog (the same
  format the factory accepts) that gets seeded and then loaded into the
  engine via a refresh.

AVAILABLE SCENARIOS:
  personal-lines:   Comprehensive + third-party plans, excess tiers, covers
  fleet:            Commercial plans for goods and passenger transport
  tariff-rollover:  A plan with a rate change mid-year (validity windows)

HOW SCENARIOS WORK:
 1. Parse the embedded JSON catalog through the factory
 2. Seed the sqlite store (wipe + insert, one transaction)
 3. Refresh the rating service so the new snapshot is resident

NOTE:
  Scenarios wipe the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: writeJSON/writeError helpers
  - factory/catalog.go: Catalog JSON schema
  - store/sqlite/seed.go: The seeding transaction
*/
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/coverline/rating-engine/factory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "personal-lines",
		Name:        "Personal Lines",
		Description: "Comprehensive and third-party plans with excess tiers and additional covers",
	},
	{
		ID:          "fleet",
		Name:        "Commercial Fleet",
		Description: "Commercial vehicle plans rated on insured value with minimum premiums",
	},
	{
		ID:          "tariff-rollover",
		Name:        "Tariff Rollover",
		Description: "Rate change mid-year demonstrating tariff validity windows",
	},
}

var scenarioCatalogs = map[string]string{
	"personal-lines":  personalLinesCatalog,
	"fleet":           fleetCatalog,
	"tariff-rollover": tariffRolloverCatalog,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the store with a demo catalog and refreshes the engine.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	if h.Seeder == nil {
		writeError(w, http.StatusNotFound, "scenarios_disabled", nil)
		return
	}

	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	raw, ok := scenarioCatalogs[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_scenario", nil)
		return
	}

	catalog, err := factory.Parse([]byte(raw))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scenario_parse_failed", err)
		return
	}
	snap, err := catalog.ToSnapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "scenario_invalid", err)
		return
	}

	ctx := r.Context()
	if err := h.Seeder.Seed(ctx, snap); err != nil {
		writeError(w, http.StatusInternalServerError, "seed_failed", err)
		return
	}
	if err := h.Service.Refresh(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "refresh_failed", err)
		return
	}

	h.currentScenario = req.ScenarioID
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
		"version":  h.Service.Snapshot().Version,
	})
}

// =============================================================================
// EMBEDDED CATALOGS
// =============================================================================

const personalLinesCatalog = `{
  "currency": "USD",
  "plans": [
    {"id": "plan-gold", "client_id": "acme-ins", "code": "GOLD", "name": "Gold Comprehensive", "tier": "gold", "launch_date": "2024-01-01"},
    {"id": "plan-basic-tp", "client_id": "acme-ins", "code": "TP-BASIC", "name": "Basic Third Party", "launch_date": "2024-01-01"},
    {"id": "plan-legacy", "client_id": "acme-ins", "code": "LEGACY", "name": "Legacy Comprehensive", "launch_date": "2023-01-01", "withdraw_date": "2025-06-01"}
  ],
  "value_bands": [
    {"id": "vb-low", "from": "10000", "to": "20000"},
    {"id": "vb-mid", "from": "20000", "to": "50000"},
    {"id": "vb-high", "from": "50000", "to": "150000"}
  ],
  "capacity_bands": [
    {"id": "cb-small", "from": 0, "to": 1300},
    {"id": "cb-mid", "from": 1300, "to": 2000},
    {"id": "cb-large", "from": 2000, "to": 5000}
  ],
  "vehicle_categories": [
    {"id": "cat-private", "name": "Private"}
  ],
  "vehicle_types": [
    {"id": "vt-sedan", "category_id": "cat-private", "name": "Sedan"},
    {"id": "vt-suv", "category_id": "cat-private", "name": "SUV"}
  ],
  "excess_types": [
    {"id": "ex-standard", "name": "Standard", "default": true},
    {"id": "ex-young", "name": "Young Driver"}
  ],
  "additional_covers": [
    {"id": "cov-glass", "code": "GLASS", "name": "Windscreen Cover"},
    {"id": "cov-roadside", "code": "RSA", "name": "Roadside Assistance"}
  ],
  "benefit_types": [
    {"id": "ben-courtesy", "vehicle_category_id": "cat-private", "name": "Courtesy Car"},
    {"id": "ben-personal", "vehicle_category_id": "cat-private", "name": "Personal Accident"}
  ],
  "tariffs": [
    {"id": "tar-gold-low", "kind": "comprehensive", "plan_id": "plan-gold", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan", "value_band_id": "vb-low", "rate": "2.5", "minimum_premium": "150", "effective_from": "2024-01-01"},
    {"id": "tar-gold-mid", "kind": "comprehensive", "plan_id": "plan-gold", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan", "value_band_id": "vb-mid", "rate": "2.1", "minimum_premium": "400", "effective_from": "2024-01-01"},
    {"id": "tar-gold-suv-low", "kind": "comprehensive", "plan_id": "plan-gold", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-suv", "value_band_id": "vb-low", "rate": "2.8", "minimum_premium": "180", "effective_from": "2024-01-01"},
    {"id": "tar-tp-mid", "kind": "third_party", "plan_id": "plan-basic-tp", "vehicle_type_id": "vt-sedan", "capacity_band_id": "cb-mid", "flat_premium": "85", "effective_from": "2024-01-01"},
    {"id": "tar-tp-large", "kind": "third_party", "plan_id": "plan-basic-tp", "vehicle_type_id": "vt-sedan", "capacity_band_id": "cb-large", "flat_premium": "130", "effective_from": "2024-01-01"},
    {"id": "tar-legacy-low", "kind": "comprehensive", "plan_id": "plan-legacy", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan", "value_band_id": "vb-low", "rate": "3.0", "minimum_premium": "120", "effective_from": "2023-01-01"}
  ],
  "plan_excesses": [
    {"plan_id": "plan-gold", "excess_type_id": "ex-standard", "value_band_id": "vb-low", "amount": "250", "unit": "fixed"},
    {"plan_id": "plan-gold", "excess_type_id": "ex-standard", "value_band_id": "vb-mid", "amount": "1.5", "unit": "percent"},
    {"plan_id": "plan-gold", "excess_type_id": "ex-young", "value_band_id": "vb-low", "amount": "500", "unit": "fixed"},
    {"plan_id": "plan-legacy", "excess_type_id": "ex-standard", "value_band_id": "vb-low", "amount": "300", "unit": "fixed"}
  ],
  "plan_covers": [
    {"plan_id": "plan-gold", "cover_id": "cov-glass", "premium_fixed": "20", "premium_percent": "1"},
    {"plan_id": "plan-gold", "cover_id": "cov-roadside", "premium_fixed": "35"}
  ],
  "plan_benefits": [
    {"plan_id": "plan-gold", "benefit_type_id": "ben-courtesy", "covered": true, "limit": "1500"},
    {"plan_id": "plan-gold", "benefit_type_id": "ben-personal", "covered": true, "limit": "10000", "excess": "100"}
  ]
}`

const fleetCatalog = `{
  "currency": "USD",
  "plans": [
    {"id": "plan-fleet", "client_id": "haulco", "code": "FLEET", "name": "Fleet Commercial", "launch_date": "2024-03-01"}
  ],
  "value_bands": [
    {"id": "vb-com-low", "from": "20000", "to": "80000"},
    {"id": "vb-com-high", "from": "80000", "to": "300000"}
  ],
  "vehicle_categories": [
    {"id": "cat-goods", "name": "Goods Transport"},
    {"id": "cat-passenger", "name": "Passenger Transport"}
  ],
  "vehicle_types": [
    {"id": "vt-truck", "category_id": "cat-goods", "name": "Truck"},
    {"id": "vt-van", "category_id": "cat-goods", "name": "Van"},
    {"id": "vt-bus", "category_id": "cat-passenger", "name": "Bus"}
  ],
  "excess_types": [
    {"id": "ex-standard", "name": "Standard", "default": true}
  ],
  "tariffs": [
    {"id": "tar-fleet-truck", "kind": "commercial", "plan_id": "plan-fleet", "vehicle_category_id": "cat-goods", "vehicle_type_id": "vt-truck", "rate": "3.2", "minimum_premium": "900", "effective_from": "2024-03-01"},
    {"id": "tar-fleet-van", "kind": "commercial", "plan_id": "plan-fleet", "vehicle_category_id": "cat-goods", "vehicle_type_id": "vt-van", "rate": "2.7", "minimum_premium": "600", "effective_from": "2024-03-01"},
    {"id": "tar-fleet-bus", "kind": "commercial", "plan_id": "plan-fleet", "vehicle_category_id": "cat-passenger", "vehicle_type_id": "vt-bus", "rate": "3.9", "minimum_premium": "1500", "effective_from": "2024-03-01"}
  ]
}`

const tariffRolloverCatalog = `{
  "currency": "USD",
  "plans": [
    {"id": "plan-roll", "client_id": "acme-ins", "code": "ROLL", "name": "Rollover Demo", "launch_date": "2024-01-01"}
  ],
  "value_bands": [
    {"id": "vb-low", "from": "10000", "to": "20000"}
  ],
  "vehicle_categories": [
    {"id": "cat-private", "name": "Private"}
  ],
  "vehicle_types": [
    {"id": "vt-sedan", "category_id": "cat-private", "name": "Sedan"}
  ],
  "excess_types": [
    {"id": "ex-standard", "name": "Standard", "default": true}
  ],
  "tariffs": [
    {"id": "tar-h1", "kind": "comprehensive", "plan_id": "plan-roll", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan", "value_band_id": "vb-low", "rate": "2.5", "minimum_premium": "150", "effective_from": "2025-01-01", "effective_to": "2025-07-01"},
    {"id": "tar-h2", "kind": "comprehensive", "plan_id": "plan-roll", "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan", "value_band_id": "vb-low", "rate": "2.8", "minimum_premium": "160", "effective_from": "2025-07-01"}
  ],
  "plan_excesses": [
    {"plan_id": "plan-roll", "excess_type_id": "ex-standard", "value_band_id": "vb-low", "amount": "250", "unit": "fixed"}
  ]
}`
