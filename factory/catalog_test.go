package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/coverline/rating-engine/factory"
	"github.com/coverline/rating-engine/rating"
)

const sampleCatalog = `{
  "currency": "EUR",
  "plans": [
    {"id": "plan-gold", "client_id": "acme", "code": "GOLD", "name": "Gold", "launch_date": "2024-01-01"},
    {"id": "plan-old", "code": "OLD", "name": "Old", "launch_date": "2023-01-01", "withdraw_date": "2025-06-01"}
  ],
  "value_bands": [
    {"id": "vb-low", "from": "10000", "to": "20000"}
  ],
  "capacity_bands": [
    {"id": "cb-mid", "from": 1300, "to": 2000}
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
    {"id": "tar-1", "kind": "comprehensive", "plan_id": "plan-gold",
     "vehicle_category_id": "cat-private", "vehicle_type_id": "vt-sedan",
     "value_band_id": "vb-low", "rate": "2.5", "minimum_premium": "150",
     "effective_from": "2024-01-01"}
  ],
  "plan_excesses": [
    {"plan_id": "plan-gold", "excess_type_id": "ex-standard", "value_band_id": "vb-low",
     "amount": "250", "unit": "fixed"}
  ]
}`

func TestParse_ToSnapshot_RoundTrip(t *testing.T) {
	// GIVEN: A JSON catalog
	// WHEN: Parsing and converting to a snapshot
	// THEN: Every section lands in the snapshot with parsed types

	catalog, err := factory.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	snap, err := catalog.ToSnapshot()
	if err != nil {
		t.Fatalf("ToSnapshot: %v", err)
	}

	if snap.Currency != "EUR" {
		t.Errorf("currency = %s, want EUR", snap.Currency)
	}
	if len(snap.Plans) != 2 || len(snap.Tariffs) != 1 || len(snap.PlanExcesses) != 1 {
		t.Fatalf("row counts plans=%d tariffs=%d excesses=%d",
			len(snap.Plans), len(snap.Tariffs), len(snap.PlanExcesses))
	}

	gold := snap.PlanByID("plan-gold")
	if gold == nil {
		t.Fatal("plan-gold missing")
	}
	if !gold.Active {
		t.Error("active should default to true")
	}
	if gold.LaunchDate != time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC) {
		t.Errorf("launch date = %s", gold.LaunchDate)
	}

	old := snap.PlanByID("plan-old")
	if old == nil || old.WithdrawDate == nil {
		t.Fatal("plan-old withdraw date missing")
	}

	if snap.DefaultExcessType() == nil || snap.DefaultExcessType().ID != "ex-standard" {
		t.Error("default excess type not resolved")
	}
	if snap.Version == "" {
		t.Error("snapshot version not set")
	}
}

func TestToSnapshot_QuotableEndToEnd(t *testing.T) {
	// The factory output must feed the engine directly.
	catalog, err := factory.Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	snap, err := catalog.ToSnapshot()
	if err != nil {
		t.Fatalf("ToSnapshot: %v", err)
	}
	engine, err := rating.NewEngine(snap)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	value := rating.MustParseDecimal("12000")
	b, err := engine.Quote(rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      &value,
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if b.Total.Value.String() != "300" {
		t.Errorf("total = %s, want 300", b.Total.Value)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	if _, err := factory.Parse([]byte(`{"plans": [`)); err == nil {
		t.Fatal("want parse error")
	}
}

func TestToSnapshot_BadDate(t *testing.T) {
	catalog, err := factory.Parse([]byte(`{"plans": [{"id": "p", "code": "P", "launch_date": "01/02/2024"}]}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := catalog.ToSnapshot(); err == nil {
		t.Fatal("want date parse error")
	}
}

func TestToSnapshot_ThirdPartyNeedsFlatPremium(t *testing.T) {
	catalog, err := factory.Parse([]byte(`{
		"tariffs": [{"id": "t1", "kind": "third_party", "plan_id": "p",
		             "vehicle_type_id": "vt", "capacity_band_id": "cb",
		             "effective_from": "2024-01-01"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := catalog.ToSnapshot(); err == nil {
		t.Fatal("third_party tariff without flat_premium must fail")
	}
}

func TestToSnapshot_UnknownTariffKind(t *testing.T) {
	catalog, err := factory.Parse([]byte(`{
		"tariffs": [{"id": "t1", "kind": "fire", "plan_id": "p",
		             "vehicle_type_id": "vt", "effective_from": "2024-01-01"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := catalog.ToSnapshot(); err == nil {
		t.Fatal("unknown tariff kind must fail")
	}
}

func TestToSnapshot_UnknownExcessUnit(t *testing.T) {
	catalog, err := factory.Parse([]byte(`{
		"plan_excesses": [{"plan_id": "p", "excess_type_id": "e",
		                   "value_band_id": "v", "amount": "10", "unit": "days"}]
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = catalog.ToSnapshot()
	if err == nil {
		t.Fatal("unknown excess unit must fail")
	}
	if errors.Is(err, rating.ErrIndexIntegrity) {
		t.Error("unit parse failure is a factory error, not an integrity error")
	}
}
