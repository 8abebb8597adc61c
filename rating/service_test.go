package rating_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coverline/rating-engine/rating"
	"github.com/coverline/rating-engine/rating/store"
)

// =============================================================================
// SNAPSHOT LIFECYCLE
// =============================================================================

func TestService_QuoteBeforeRefresh_Unavailable(t *testing.T) {
	svc := rating.NewService(store.NewMemory(nil), nil)

	_, err := svc.Quote(rating.QuoteRequest{PlanID: "plan-gold"})
	if !errors.Is(err, rating.ErrSnapshotUnavailable) {
		t.Fatalf("err = %v, want ErrSnapshotUnavailable", err)
	}
}

func TestService_RefreshMakesSnapshotResident(t *testing.T) {
	mem := store.NewMemory(testSnapshot(t))
	svc := rating.NewService(mem, nil)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	b, err := svc.Quote(rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              date(2025, time.March, 1),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      decPtr("12000"),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	assertAmount(t, b.Total.Value, "300")
}

func TestService_FailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	// GIVEN: A resident snapshot and a store that starts failing
	// WHEN: Refresh fails
	// THEN: Quotes keep pricing against the previous snapshot

	mem := store.NewMemory(testSnapshot(t))
	svc := rating.NewService(mem, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before := svc.Snapshot().Version

	mem.Fail(errors.New("connection refused"))
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh should propagate the store failure")
	}

	if svc.Snapshot() == nil || svc.Snapshot().Version != before {
		t.Error("previous snapshot must keep serving after a failed refresh")
	}
}

func TestService_CorruptCatalogRejectedAtRefresh(t *testing.T) {
	// GIVEN: A catalog whose tariffs have overlapping windows
	// WHEN: Refreshing
	// THEN: The refresh fails at engine build and nothing becomes resident

	to := date(2025, time.July, 1)
	bad, err := rating.NewSnapshotBuilder("USD").
		AddTariff(compTariff("tar-a", date(2025, time.January, 1), &to, true)).
		AddTariff(compTariff("tar-b", date(2025, time.June, 1), nil, true)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	svc := rating.NewService(store.NewMemory(bad), nil)
	err = svc.Refresh(context.Background())
	if !errors.Is(err, rating.ErrIndexIntegrity) {
		t.Fatalf("err = %v, want ErrIndexIntegrity", err)
	}
	if svc.Snapshot() != nil {
		t.Error("corrupt catalog must not become resident")
	}
}

func TestService_ConcurrentQuotesDuringSwap(t *testing.T) {
	// Quotes racing a snapshot swap must each see one coherent snapshot.
	mem := store.NewMemory(testSnapshot(t))
	svc := rating.NewService(mem, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	req := rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              date(2025, time.March, 1),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      decPtr("12000"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b, err := svc.Quote(req)
				if err != nil {
					t.Errorf("Quote: %v", err)
					return
				}
				if !b.Total.Value.Equal(dec("300")) {
					t.Errorf("total = %s, want 300", b.Total.Value)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		if err := svc.Refresh(context.Background()); err != nil {
			t.Errorf("Refresh: %v", err)
		}
	}
	wg.Wait()
}
