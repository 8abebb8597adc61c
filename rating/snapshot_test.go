package rating_test

import (
	"errors"
	"testing"
	"time"

	"github.com/coverline/rating-engine/rating"
)

// =============================================================================
// BUILD-TIME VALIDATION
// =============================================================================

func TestBuild_OverlappingValueBands_Rejected(t *testing.T) {
	_, err := rating.NewSnapshotBuilder("USD").
		AddValueBand(rating.ValueBand{ID: "vb-a", From: dec("10000"), To: dec("20000")}).
		AddValueBand(rating.ValueBand{ID: "vb-b", From: dec("15000"), To: dec("30000")}).
		Build()
	if !errors.Is(err, rating.ErrIndexIntegrity) {
		t.Fatalf("err = %v, want ErrIndexIntegrity", err)
	}
}

func TestBuild_AdjacentValueBands_Allowed(t *testing.T) {
	// [10000,20000) and [20000,30000) touch without overlap.
	snap, err := rating.NewSnapshotBuilder("USD").
		AddValueBand(rating.ValueBand{ID: "vb-a", From: dec("10000"), To: dec("20000")}).
		AddValueBand(rating.ValueBand{ID: "vb-b", From: dec("20000"), To: dec("30000")}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	band, err := snap.ResolveValueBand(dec("20000"))
	if err != nil {
		t.Fatalf("ResolveValueBand: %v", err)
	}
	if band.ID != "vb-b" {
		t.Errorf("boundary value resolved to %s, want vb-b", band.ID)
	}
}

func TestBuild_GapBetweenBands_LegalUntilQuoted(t *testing.T) {
	// A gap builds fine; resolution inside the gap fails.
	snap, err := rating.NewSnapshotBuilder("USD").
		AddValueBand(rating.ValueBand{ID: "vb-a", From: dec("10000"), To: dec("20000")}).
		AddValueBand(rating.ValueBand{ID: "vb-b", From: dec("25000"), To: dec("30000")}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	_, err = snap.ResolveValueBand(dec("22000"))
	if !errors.Is(err, rating.ErrNoValueBand) {
		t.Fatalf("err = %v, want ErrNoValueBand", err)
	}
}

func TestBuild_OverlappingCapacityBands_Rejected(t *testing.T) {
	_, err := rating.NewSnapshotBuilder("USD").
		AddCapacityBand(rating.EngineCapacityBand{ID: "cb-a", From: 0, To: 1500}).
		AddCapacityBand(rating.EngineCapacityBand{ID: "cb-b", From: 1400, To: 2000}).
		Build()
	if !errors.Is(err, rating.ErrIndexIntegrity) {
		t.Fatalf("err = %v, want ErrIndexIntegrity", err)
	}
}

func TestBuild_MultipleDefaultExcessTypes_Rejected(t *testing.T) {
	_, err := rating.NewSnapshotBuilder("USD").
		AddExcessType(rating.ExcessType{ID: "ex-a", Name: "A", Default: true}).
		AddExcessType(rating.ExcessType{ID: "ex-b", Name: "B", Default: true}).
		Build()
	if !errors.Is(err, rating.ErrIndexIntegrity) {
		t.Fatalf("err = %v, want ErrIndexIntegrity", err)
	}
}

func TestBuild_DuplicatePlanCover_Rejected(t *testing.T) {
	_, err := rating.NewSnapshotBuilder("USD").
		AddPlanCover(rating.PlanAdditionalCover{PlanID: "p", CoverID: "c", PremiumFixed: dec("1")}).
		AddPlanCover(rating.PlanAdditionalCover{PlanID: "p", CoverID: "c", PremiumFixed: dec("2")}).
		Build()
	if !errors.Is(err, rating.ErrIndexIntegrity) {
		t.Fatalf("err = %v, want ErrIndexIntegrity", err)
	}
}

func TestBuild_DuplicateIDs_Rejected(t *testing.T) {
	// GIVEN: Catalogs with two rows sharing one id
	// WHEN: Building
	// THEN: Each duplicate surfaces at build time, not as silent last-wins

	cases := []struct {
		name  string
		build func() (*rating.Snapshot, error)
	}{
		{"plan", func() (*rating.Snapshot, error) {
			return rating.NewSnapshotBuilder("USD").
				AddPlan(rating.Plan{ID: "p", Code: "A", LaunchDate: date(2024, time.January, 1), Active: true}).
				AddPlan(rating.Plan{ID: "p", Code: "B", LaunchDate: date(2024, time.January, 1), Active: true}).
				Build()
		}},
		{"value band", func() (*rating.Snapshot, error) {
			// Non-overlapping ranges, so only the id check can catch this.
			return rating.NewSnapshotBuilder("USD").
				AddValueBand(rating.ValueBand{ID: "vb", From: dec("10000"), To: dec("20000")}).
				AddValueBand(rating.ValueBand{ID: "vb", From: dec("20000"), To: dec("30000")}).
				Build()
		}},
		{"capacity band", func() (*rating.Snapshot, error) {
			return rating.NewSnapshotBuilder("USD").
				AddCapacityBand(rating.EngineCapacityBand{ID: "cb", From: 0, To: 1500}).
				AddCapacityBand(rating.EngineCapacityBand{ID: "cb", From: 1500, To: 2000}).
				Build()
		}},
		{"cover", func() (*rating.Snapshot, error) {
			return rating.NewSnapshotBuilder("USD").
				AddAdditionalCover(rating.AdditionalCover{ID: "c", Code: "A", Active: true}).
				AddAdditionalCover(rating.AdditionalCover{ID: "c", Code: "B", Active: true}).
				Build()
		}},
		{"benefit type", func() (*rating.Snapshot, error) {
			return rating.NewSnapshotBuilder("USD").
				AddBenefitType(rating.BenefitType{ID: "b", VehicleCategoryID: "cat", Name: "A"}).
				AddBenefitType(rating.BenefitType{ID: "b", VehicleCategoryID: "cat", Name: "B"}).
				Build()
		}},
		{"excess type", func() (*rating.Snapshot, error) {
			return rating.NewSnapshotBuilder("USD").
				AddExcessType(rating.ExcessType{ID: "e", Name: "A"}).
				AddExcessType(rating.ExcessType{ID: "e", Name: "B"}).
				Build()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.build(); !errors.Is(err, rating.ErrIndexIntegrity) {
				t.Fatalf("err = %v, want ErrIndexIntegrity", err)
			}
		})
	}
}

// =============================================================================
// CONTENT HASH
// =============================================================================

func TestBuild_HashIgnoresInsertionOrder(t *testing.T) {
	// GIVEN: The same catalog rows added in different orders
	// WHEN: Building both snapshots
	// THEN: Versions match; a snapshot is identified by content, not load order

	planA := rating.Plan{ID: "plan-a", Code: "A", LaunchDate: date(2024, time.January, 1), Active: true}
	planB := rating.Plan{ID: "plan-b", Code: "B", LaunchDate: date(2024, time.January, 1), Active: true}

	first, err := rating.NewSnapshotBuilder("USD").AddPlan(planA).AddPlan(planB).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := rating.NewSnapshotBuilder("USD").AddPlan(planB).AddPlan(planA).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if first.Version != second.Version {
		t.Errorf("versions differ: %s vs %s", first.Version, second.Version)
	}
}

func TestBuild_HashChangesWithContent(t *testing.T) {
	base := rating.Plan{ID: "plan-a", Code: "A", LaunchDate: date(2024, time.January, 1), Active: true}

	first, err := rating.NewSnapshotBuilder("USD").AddPlan(base).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	changed := base
	changed.Tier = "gold"
	second, err := rating.NewSnapshotBuilder("USD").AddPlan(changed).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if first.Version == second.Version {
		t.Error("distinct catalogs must hash to distinct versions")
	}
	if len(first.Version) != 16 {
		t.Errorf("version length = %d, want 16 hex chars", len(first.Version))
	}
}

func TestBuild_HashChangesWithPlanRename(t *testing.T) {
	// The plan name appears on plan DTOs, so renaming a plan is a catalog
	// change and must produce a new version.
	base := rating.Plan{ID: "plan-a", Code: "A", Name: "Gold", LaunchDate: date(2024, time.January, 1), Active: true}

	first, err := rating.NewSnapshotBuilder("USD").AddPlan(base).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	renamed := base
	renamed.Name = "Gold Plus"
	second, err := rating.NewSnapshotBuilder("USD").AddPlan(renamed).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if first.Version == second.Version {
		t.Error("renaming a plan must change the snapshot version")
	}
}
