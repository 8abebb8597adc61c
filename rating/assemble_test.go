package rating_test

import (
	"testing"
	"time"

	"github.com/coverline/rating-engine/rating"
)

// =============================================================================
// ROUNDING CONTRACT
// =============================================================================

func TestAssemble_BankersRoundingPerLine(t *testing.T) {
	// GIVEN: Insured value 12345 at 2.5% = 308.625
	// WHEN: Assembling the breakdown
	// THEN: The base line is 308.62 (banker's rounding to even) and the
	//       total equals the sum of the printed lines

	engine := testEngine(t)

	b, err := engine.Quote(rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              date(2025, time.March, 1),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      decPtr("12345"),
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	assertAmount(t, b.Lines[0].Amount.Value, "308.62")
	assertAmount(t, b.Total.Value, "308.62")
}

func TestAssemble_TotalReproducibleFromLines(t *testing.T) {
	// The total must equal the sum of non-informational printed lines, so a
	// customer can verify the document by hand.
	engine := testEngine(t)

	b, err := engine.Quote(rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              date(2025, time.March, 1),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      decPtr("13333.33"),
		CoverIDs:          []rating.CoverID{"cov-glass"},
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	sum := rating.NewMoney(dec("0"), b.Currency)
	for _, l := range b.Lines {
		if l.Informational {
			continue
		}
		sum = sum.Add(l.Amount)
	}
	if !sum.Value.Equal(b.Total.Value) {
		t.Errorf("sum of lines %s != total %s", sum.Value, b.Total.Value)
	}
}

func TestAssemble_LineOrderFixed(t *testing.T) {
	// Base first, then excess, then covers, then benefits.
	engine := testEngine(t)

	b, err := engine.Quote(rating.QuoteRequest{
		PlanID:            "plan-gold",
		Kind:              rating.KindComprehensive,
		AsOf:              date(2025, time.March, 1),
		VehicleCategoryID: "cat-private",
		VehicleTypeID:     "vt-sedan",
		InsuredValue:      decPtr("12000"),
		CoverIDs:          []rating.CoverID{"cov-glass"},
	})
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	want := []rating.LineKind{
		rating.LineBase, rating.LineExcess, rating.LineAdditionalCover, rating.LineBenefit,
	}
	if len(b.Lines) != len(want) {
		t.Fatalf("lines = %d, want %d", len(b.Lines), len(want))
	}
	for i, k := range want {
		if b.Lines[i].Kind != k {
			t.Errorf("line %d kind = %s, want %s", i, b.Lines[i].Kind, k)
		}
	}
}

func TestAssemble_StampsSnapshotVersion(t *testing.T) {
	engine := testEngine(t)

	b, err := engine.Quote(rating.QuoteRequest{
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

	if b.SnapshotVersion != engine.Snapshot().Version {
		t.Errorf("breakdown version %s != snapshot version %s",
			b.SnapshotVersion, engine.Snapshot().Version)
	}
	if b.Currency != "USD" {
		t.Errorf("currency = %s, want USD", b.Currency)
	}
}

// =============================================================================
// MONEY
// =============================================================================

func TestMoney_RoundedBankers(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2.675", "2.68"},
		{"2.665", "2.66"}, // round half to even
		{"2.625", "2.62"},
		{"308.625", "308.62"},
		{"100", "100"},
	}
	for _, tc := range cases {
		got := rating.NewMoney(dec(tc.in), "USD").Rounded()
		if !got.Value.Equal(dec(tc.want)) {
			t.Errorf("Rounded(%s) = %s, want %s", tc.in, got.Value, tc.want)
		}
	}
}
