/*
Package sqlite provides a SQLite-backed SnapshotProvider.

PURPOSE:
  Implements rating.SnapshotProvider over the back-office reference schema
  (plans, bands, vehicle classifications, the three tariff tables, plan
  excesses, plan additional covers, plan benefits). In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

READ-ONLY CONTRACT:
  The rating core never mutates reference data. This store's write surface
  (Seed, Reset) exists for the admin/demo path only; LoadSnapshot is the
  single call the refresh path uses.

KEY TABLES:
  plans:                   Insurance products with launch/withdraw lifecycle
  value_bands:             [from, to) ranges over insured value
  engine_capacities:       [from, to) ranges over engine capacity (cc)
  vehicle_categories/types Classification of the insured vehicle
  excess_types:            Named deductible categories
  comprehensive_tariffs:   plan x band x category x type -> rate, minimum
  commercial_tariffs:      plan x category x type -> rate, minimum
  third_party_tariffs:     plan x capacity band x type -> flat premium
  plan_excesses:           Deductible per (plan, excess type, band)
  plan_additional_covers:  Optional cover attachments (fixed + percent)
  plan_benefits:           Disclosure-only benefit terms

WAL MODE:
  SQLite is opened with WAL for better concurrency: the refresh path reads
  a consistent snapshot while the admin surface writes.

USAGE:
  store, err := sqlite.New("./data/backoffice.db", "USD")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := rating.NewService(store, logger)
  err = svc.Refresh(ctx)

SEE ALSO:
  - rating/snapshot.go: Snapshot builder this store feeds
  - factory: JSON catalogs used with Seed
  - seed.go: Admin/demo write surface
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/coverline/rating-engine/rating"
)

const dateLayout = "2006-01-02"

// Store implements rating.SnapshotProvider over the back-office schema.
type Store struct {
	db       *sql.DB
	currency string
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath, currency string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, currency: currency}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		client_id TEXT,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		tier TEXT,
		launch_date TEXT NOT NULL,
		withdraw_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS value_bands (
		id TEXT PRIMARY KEY,
		value_from TEXT NOT NULL,
		value_to TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS engine_capacities (
		id TEXT PRIMARY KEY,
		capacity_from INTEGER NOT NULL,
		capacity_to INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vehicle_categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS vehicle_types (
		id TEXT PRIMARY KEY,
		category_id TEXT REFERENCES vehicle_categories(id),
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS excess_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS additional_covers (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS benefit_types (
		id TEXT PRIMARY KEY,
		vehicle_category_id TEXT NOT NULL REFERENCES vehicle_categories(id),
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comprehensive_tariffs (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES plans(id),
		value_band_id TEXT NOT NULL REFERENCES value_bands(id),
		vehicle_category_id TEXT NOT NULL REFERENCES vehicle_categories(id),
		vehicle_type_id TEXT NOT NULL REFERENCES vehicle_types(id),
		rate TEXT NOT NULL,
		minimum_premium TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_comprehensive_lookup
		ON comprehensive_tariffs(plan_id, vehicle_category_id, vehicle_type_id, value_band_id);

	CREATE TABLE IF NOT EXISTS commercial_tariffs (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES plans(id),
		vehicle_category_id TEXT NOT NULL REFERENCES vehicle_categories(id),
		vehicle_type_id TEXT NOT NULL REFERENCES vehicle_types(id),
		rate TEXT NOT NULL,
		minimum_premium TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_commercial_lookup
		ON commercial_tariffs(plan_id, vehicle_category_id, vehicle_type_id);

	CREATE TABLE IF NOT EXISTS third_party_tariffs (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES plans(id),
		engine_capacity_id TEXT NOT NULL REFERENCES engine_capacities(id),
		vehicle_type_id TEXT NOT NULL REFERENCES vehicle_types(id),
		premium_amount TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_third_party_lookup
		ON third_party_tariffs(plan_id, vehicle_type_id, engine_capacity_id);

	CREATE TABLE IF NOT EXISTS plan_excesses (
		plan_id TEXT NOT NULL REFERENCES plans(id),
		excess_type_id TEXT NOT NULL REFERENCES excess_types(id),
		value_band_id TEXT NOT NULL REFERENCES value_bands(id),
		amount TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT 'fixed',
		PRIMARY KEY (plan_id, excess_type_id, value_band_id)
	);

	CREATE TABLE IF NOT EXISTS plan_additional_covers (
		plan_id TEXT NOT NULL REFERENCES plans(id),
		cover_id TEXT NOT NULL REFERENCES additional_covers(id),
		premium_fixed TEXT NOT NULL DEFAULT '0',
		premium_percent TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (plan_id, cover_id)
	);

	CREATE TABLE IF NOT EXISTS plan_benefits (
		plan_id TEXT NOT NULL REFERENCES plans(id),
		benefit_type_id TEXT NOT NULL REFERENCES benefit_types(id),
		covered INTEGER,
		limit_amount TEXT,
		excess_amount TEXT,
		PRIMARY KEY (plan_id, benefit_type_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

// LoadSnapshot reads the full reference-data set and seals it into an
// immutable snapshot. Called by the refresh path, never per quote. All
// table reads run inside one transaction so a Seed committing mid-load
// can never produce a mixed catalog.
func (s *Store) LoadSnapshot(ctx context.Context) (*rating.Snapshot, error) {
	b := rating.NewSnapshotBuilder(s.currency)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer tx.Rollback()

	if err := s.loadPlans(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.loadBands(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.loadVehicleClassification(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.loadExcessAndCovers(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.loadTariffs(ctx, tx, b); err != nil {
		return nil, err
	}
	if err := s.loadPlanAttachments(ctx, tx, b); err != nil {
		return nil, err
	}

	return b.Build()
}

func (s *Store) loadPlans(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, COALESCE(client_id,''), code, name, COALESCE(tier,''),
		        launch_date, withdraw_date, is_active
		 FROM plans`)
	if err != nil {
		return fmt.Errorf("load plans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        rating.Plan
			id       string
			client   string
			launch   string
			withdraw sql.NullString
			active   int
		)
		if err := rows.Scan(&id, &client, &p.Code, &p.Name, &p.Tier, &launch, &withdraw, &active); err != nil {
			return fmt.Errorf("scan plan: %w", err)
		}
		p.ID = rating.PlanID(id)
		p.ClientID = rating.ClientID(client)
		p.Active = active != 0
		if p.LaunchDate, err = time.Parse(dateLayout, launch); err != nil {
			return fmt.Errorf("plan %s launch_date: %w", id, err)
		}
		if withdraw.Valid {
			w, err := time.Parse(dateLayout, withdraw.String)
			if err != nil {
				return fmt.Errorf("plan %s withdraw_date: %w", id, err)
			}
			p.WithdrawDate = &w
		}
		b.AddPlan(p)
	}
	return rows.Err()
}

func (s *Store) loadBands(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, value_from, value_to FROM value_bands`)
	if err != nil {
		return fmt.Errorf("load value bands: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, from, to string
		if err := rows.Scan(&id, &from, &to); err != nil {
			return fmt.Errorf("scan value band: %w", err)
		}
		fromD, err := decimal.NewFromString(from)
		if err != nil {
			return fmt.Errorf("value band %s from: %w", id, err)
		}
		toD, err := decimal.NewFromString(to)
		if err != nil {
			return fmt.Errorf("value band %s to: %w", id, err)
		}
		b.AddValueBand(rating.ValueBand{ID: rating.ValueBandID(id), From: fromD, To: toD})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	capRows, err := tx.QueryContext(ctx, `SELECT id, capacity_from, capacity_to FROM engine_capacities`)
	if err != nil {
		return fmt.Errorf("load engine capacities: %w", err)
	}
	defer capRows.Close()
	for capRows.Next() {
		var (
			id       string
			from, to int
		)
		if err := capRows.Scan(&id, &from, &to); err != nil {
			return fmt.Errorf("scan engine capacity: %w", err)
		}
		b.AddCapacityBand(rating.EngineCapacityBand{ID: rating.CapacityBandID(id), From: from, To: to})
	}
	return capRows.Err()
}

func (s *Store) loadVehicleClassification(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM vehicle_categories`)
	if err != nil {
		return fmt.Errorf("load vehicle categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan vehicle category: %w", err)
		}
		b.AddVehicleCategory(rating.VehicleCategory{ID: rating.VehicleCategoryID(id), Name: name})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	typeRows, err := tx.QueryContext(ctx, `SELECT id, COALESCE(category_id,''), name FROM vehicle_types`)
	if err != nil {
		return fmt.Errorf("load vehicle types: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var id, cat, name string
		if err := typeRows.Scan(&id, &cat, &name); err != nil {
			return fmt.Errorf("scan vehicle type: %w", err)
		}
		b.AddVehicleType(rating.VehicleType{
			ID:         rating.VehicleTypeID(id),
			CategoryID: rating.VehicleCategoryID(cat),
			Name:       name,
		})
	}
	return typeRows.Err()
}

func (s *Store) loadExcessAndCovers(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, is_default FROM excess_types`)
	if err != nil {
		return fmt.Errorf("load excess types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id, name string
			def      int
		)
		if err := rows.Scan(&id, &name, &def); err != nil {
			return fmt.Errorf("scan excess type: %w", err)
		}
		b.AddExcessType(rating.ExcessType{ID: rating.ExcessTypeID(id), Name: name, Default: def != 0})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	coverRows, err := tx.QueryContext(ctx, `SELECT id, code, name, is_active FROM additional_covers`)
	if err != nil {
		return fmt.Errorf("load additional covers: %w", err)
	}
	defer coverRows.Close()
	for coverRows.Next() {
		var (
			id, code, name string
			active         int
		)
		if err := coverRows.Scan(&id, &code, &name, &active); err != nil {
			return fmt.Errorf("scan additional cover: %w", err)
		}
		b.AddAdditionalCover(rating.AdditionalCover{
			ID: rating.CoverID(id), Code: code, Name: name, Active: active != 0,
		})
	}
	if err := coverRows.Err(); err != nil {
		return err
	}

	benefitRows, err := tx.QueryContext(ctx, `SELECT id, vehicle_category_id, name FROM benefit_types`)
	if err != nil {
		return fmt.Errorf("load benefit types: %w", err)
	}
	defer benefitRows.Close()
	for benefitRows.Next() {
		var id, cat, name string
		if err := benefitRows.Scan(&id, &cat, &name); err != nil {
			return fmt.Errorf("scan benefit type: %w", err)
		}
		b.AddBenefitType(rating.BenefitType{
			ID:                rating.BenefitTypeID(id),
			VehicleCategoryID: rating.VehicleCategoryID(cat),
			Name:              name,
		})
	}
	return benefitRows.Err()
}

func (s *Store) loadTariffs(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	type tariffQuery struct {
		kind  rating.CoverageKind
		query string
	}
	queries := []tariffQuery{
		{rating.KindComprehensive,
			`SELECT id, plan_id, vehicle_category_id, vehicle_type_id, value_band_id, '',
			        rate, minimum_premium, '', effective_from, effective_to, is_active
			 FROM comprehensive_tariffs`},
		{rating.KindCommercial,
			`SELECT id, plan_id, vehicle_category_id, vehicle_type_id, '', '',
			        rate, minimum_premium, '', effective_from, effective_to, is_active
			 FROM commercial_tariffs`},
		{rating.KindThirdParty,
			`SELECT id, plan_id, '', vehicle_type_id, '', engine_capacity_id,
			        '', '', premium_amount, effective_from, effective_to, is_active
			 FROM third_party_tariffs`},
	}

	for _, q := range queries {
		rows, err := tx.QueryContext(ctx, q.query)
		if err != nil {
			return fmt.Errorf("load %s tariffs: %w", q.kind, err)
		}
		if err := scanTariffs(rows, q.kind, b); err != nil {
			rows.Close()
			return err
		}
		rows.Close()
	}
	return nil
}

func scanTariffs(rows *sql.Rows, kind rating.CoverageKind, b *rating.SnapshotBuilder) error {
	for rows.Next() {
		var (
			id, plan, cat, vtype, vband, cband string
			rate, minimum, flat                string
			from                               string
			to                                 sql.NullString
			active                             int
		)
		if err := rows.Scan(&id, &plan, &cat, &vtype, &vband, &cband,
			&rate, &minimum, &flat, &from, &to, &active); err != nil {
			return fmt.Errorf("scan %s tariff: %w", kind, err)
		}

		t := rating.Tariff{
			ID:                rating.TariffID(id),
			Kind:              kind,
			Plan:              rating.PlanID(plan),
			VehicleCategoryID: rating.VehicleCategoryID(cat),
			VehicleTypeID:     rating.VehicleTypeID(vtype),
			ValueBandID:       rating.ValueBandID(vband),
			CapacityBandID:    rating.CapacityBandID(cband),
			Active:            active != 0,
		}

		var err error
		if t.EffectiveFrom, err = time.Parse(dateLayout, from); err != nil {
			return fmt.Errorf("tariff %s effective_from: %w", id, err)
		}
		if to.Valid {
			parsed, err := time.Parse(dateLayout, to.String)
			if err != nil {
				return fmt.Errorf("tariff %s effective_to: %w", id, err)
			}
			t.EffectiveTo = &parsed
		}

		if kind == rating.KindThirdParty {
			if t.FlatPremium, err = decimal.NewFromString(flat); err != nil {
				return fmt.Errorf("tariff %s premium_amount: %w", id, err)
			}
		} else {
			if t.Rate, err = decimal.NewFromString(rate); err != nil {
				return fmt.Errorf("tariff %s rate: %w", id, err)
			}
			if t.MinimumPremium, err = decimal.NewFromString(minimum); err != nil {
				return fmt.Errorf("tariff %s minimum_premium: %w", id, err)
			}
		}
		b.AddTariff(t)
	}
	return rows.Err()
}

func (s *Store) loadPlanAttachments(ctx context.Context, tx *sql.Tx, b *rating.SnapshotBuilder) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT plan_id, excess_type_id, value_band_id, amount, unit FROM plan_excesses`)
	if err != nil {
		return fmt.Errorf("load plan excesses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var plan, excess, band, amount, unit string
		if err := rows.Scan(&plan, &excess, &band, &amount, &unit); err != nil {
			return fmt.Errorf("scan plan excess: %w", err)
		}
		amountD, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("plan excess %s/%s amount: %w", plan, excess, err)
		}
		b.AddPlanExcess(rating.PlanExcess{
			PlanID:       rating.PlanID(plan),
			ExcessTypeID: rating.ExcessTypeID(excess),
			ValueBandID:  rating.ValueBandID(band),
			Amount:       amountD,
			Unit:         rating.ExcessUnit(unit),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	coverRows, err := tx.QueryContext(ctx,
		`SELECT plan_id, cover_id, premium_fixed, premium_percent FROM plan_additional_covers`)
	if err != nil {
		return fmt.Errorf("load plan covers: %w", err)
	}
	defer coverRows.Close()
	for coverRows.Next() {
		var plan, cover, fixed, pct string
		if err := coverRows.Scan(&plan, &cover, &fixed, &pct); err != nil {
			return fmt.Errorf("scan plan cover: %w", err)
		}
		fixedD, err := decimal.NewFromString(fixed)
		if err != nil {
			return fmt.Errorf("plan cover %s/%s premium_fixed: %w", plan, cover, err)
		}
		pctD, err := decimal.NewFromString(pct)
		if err != nil {
			return fmt.Errorf("plan cover %s/%s premium_percent: %w", plan, cover, err)
		}
		b.AddPlanCover(rating.PlanAdditionalCover{
			PlanID:         rating.PlanID(plan),
			CoverID:        rating.CoverID(cover),
			PremiumFixed:   fixedD,
			PremiumPercent: pctD,
		})
	}
	if err := coverRows.Err(); err != nil {
		return err
	}

	benefitRows, err := tx.QueryContext(ctx,
		`SELECT plan_id, benefit_type_id, covered, limit_amount, excess_amount FROM plan_benefits`)
	if err != nil {
		return fmt.Errorf("load plan benefits: %w", err)
	}
	defer benefitRows.Close()
	for benefitRows.Next() {
		var (
			plan, benefit string
			covered       sql.NullInt64
			limit, excess sql.NullString
		)
		if err := benefitRows.Scan(&plan, &benefit, &covered, &limit, &excess); err != nil {
			return fmt.Errorf("scan plan benefit: %w", err)
		}
		pb := rating.PlanBenefit{
			PlanID:        rating.PlanID(plan),
			BenefitTypeID: rating.BenefitTypeID(benefit),
		}
		if covered.Valid {
			c := covered.Int64 != 0
			pb.Covered = &c
		}
		if limit.Valid {
			d, err := decimal.NewFromString(limit.String)
			if err != nil {
				return fmt.Errorf("plan benefit %s/%s limit: %w", plan, benefit, err)
			}
			pb.Limit = &d
		}
		if excess.Valid {
			d, err := decimal.NewFromString(excess.String)
			if err != nil {
				return fmt.Errorf("plan benefit %s/%s excess: %w", plan, benefit, err)
			}
			pb.Excess = &d
		}
		b.AddPlanBenefit(pb)
	}
	return benefitRows.Err()
}
