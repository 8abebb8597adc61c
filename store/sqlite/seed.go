/*
seed.go - Admin/demo write surface

PURPOSE:
  Replaces the store's contents with a catalog, typically parsed from a
  JSON definition (see factory). Used by demo scenarios and the CLI; the
  rating core itself never writes.

  Seed is all-or-nothing: the wipe and every insert run inside a single
  database transaction.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coverline/rating-engine/rating"
)

// tables in FK-safe delete order (children first).
var tables = []string{
	"plan_benefits",
	"plan_additional_covers",
	"plan_excesses",
	"comprehensive_tariffs",
	"commercial_tariffs",
	"third_party_tariffs",
	"benefit_types",
	"additional_covers",
	"excess_types",
	"vehicle_types",
	"vehicle_categories",
	"engine_capacities",
	"value_bands",
	"plans",
}

// Reset wipes all reference data.
func (s *Store) Reset(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return wipe(ctx, tx)
	})
}

// Seed wipes the store and inserts the snapshot's rows atomically.
func (s *Store) Seed(ctx context.Context, snap *rating.Snapshot) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := wipe(ctx, tx); err != nil {
			return err
		}

		for _, p := range snap.Plans {
			var withdraw interface{}
			if p.WithdrawDate != nil {
				withdraw = p.WithdrawDate.Format(dateLayout)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plans (id, client_id, code, name, tier, launch_date, withdraw_date, is_active)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				string(p.ID), string(p.ClientID), p.Code, p.Name, p.Tier,
				p.LaunchDate.Format(dateLayout), withdraw, boolInt(p.Active)); err != nil {
				return fmt.Errorf("insert plan %s: %w", p.ID, err)
			}
		}

		for _, vb := range snap.ValueBands {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO value_bands (id, value_from, value_to) VALUES (?, ?, ?)`,
				string(vb.ID), vb.From.String(), vb.To.String()); err != nil {
				return fmt.Errorf("insert value band %s: %w", vb.ID, err)
			}
		}

		for _, cb := range snap.CapacityBands {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO engine_capacities (id, capacity_from, capacity_to) VALUES (?, ?, ?)`,
				string(cb.ID), cb.From, cb.To); err != nil {
				return fmt.Errorf("insert engine capacity %s: %w", cb.ID, err)
			}
		}

		for _, vc := range snap.VehicleCategories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vehicle_categories (id, name) VALUES (?, ?)`,
				string(vc.ID), vc.Name); err != nil {
				return fmt.Errorf("insert vehicle category %s: %w", vc.ID, err)
			}
		}

		for _, vt := range snap.VehicleTypes {
			var cat interface{}
			if vt.CategoryID != "" {
				cat = string(vt.CategoryID)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vehicle_types (id, category_id, name) VALUES (?, ?, ?)`,
				string(vt.ID), cat, vt.Name); err != nil {
				return fmt.Errorf("insert vehicle type %s: %w", vt.ID, err)
			}
		}

		for _, et := range snap.ExcessTypes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO excess_types (id, name, is_default) VALUES (?, ?, ?)`,
				string(et.ID), et.Name, boolInt(et.Default)); err != nil {
				return fmt.Errorf("insert excess type %s: %w", et.ID, err)
			}
		}

		for _, ac := range snap.AdditionalCovers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO additional_covers (id, code, name, is_active) VALUES (?, ?, ?, ?)`,
				string(ac.ID), ac.Code, ac.Name, boolInt(ac.Active)); err != nil {
				return fmt.Errorf("insert additional cover %s: %w", ac.ID, err)
			}
		}

		for _, bt := range snap.BenefitTypes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO benefit_types (id, vehicle_category_id, name) VALUES (?, ?, ?)`,
				string(bt.ID), string(bt.VehicleCategoryID), bt.Name); err != nil {
				return fmt.Errorf("insert benefit type %s: %w", bt.ID, err)
			}
		}

		for _, t := range snap.Tariffs {
			if err := insertTariff(ctx, tx, t); err != nil {
				return err
			}
		}

		for _, pe := range snap.PlanExcesses {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plan_excesses (plan_id, excess_type_id, value_band_id, amount, unit)
				 VALUES (?, ?, ?, ?, ?)`,
				string(pe.PlanID), string(pe.ExcessTypeID), string(pe.ValueBandID),
				pe.Amount.String(), string(pe.Unit)); err != nil {
				return fmt.Errorf("insert plan excess %s/%s: %w", pe.PlanID, pe.ExcessTypeID, err)
			}
		}

		for _, pc := range snap.PlanCovers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plan_additional_covers (plan_id, cover_id, premium_fixed, premium_percent)
				 VALUES (?, ?, ?, ?)`,
				string(pc.PlanID), string(pc.CoverID),
				pc.PremiumFixed.String(), pc.PremiumPercent.String()); err != nil {
				return fmt.Errorf("insert plan cover %s/%s: %w", pc.PlanID, pc.CoverID, err)
			}
		}

		for _, pb := range snap.PlanBenefits {
			var covered, limit, excess interface{}
			if pb.Covered != nil {
				covered = boolInt(*pb.Covered)
			}
			if pb.Limit != nil {
				limit = pb.Limit.String()
			}
			if pb.Excess != nil {
				excess = pb.Excess.String()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO plan_benefits (plan_id, benefit_type_id, covered, limit_amount, excess_amount)
				 VALUES (?, ?, ?, ?, ?)`,
				string(pb.PlanID), string(pb.BenefitTypeID), covered, limit, excess); err != nil {
				return fmt.Errorf("insert plan benefit %s/%s: %w", pb.PlanID, pb.BenefitTypeID, err)
			}
		}

		return nil
	})
}

func insertTariff(ctx context.Context, tx *sql.Tx, t rating.Tariff) error {
	var to interface{}
	if t.EffectiveTo != nil {
		to = t.EffectiveTo.Format(dateLayout)
	}
	from := t.EffectiveFrom.Format(dateLayout)

	switch t.Kind {
	case rating.KindComprehensive:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO comprehensive_tariffs
			 (id, plan_id, value_band_id, vehicle_category_id, vehicle_type_id,
			  rate, minimum_premium, effective_from, effective_to, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(t.ID), string(t.Plan), string(t.ValueBandID),
			string(t.VehicleCategoryID), string(t.VehicleTypeID),
			t.Rate.String(), t.MinimumPremium.String(), from, to, boolInt(t.Active))
		if err != nil {
			return fmt.Errorf("insert comprehensive tariff %s: %w", t.ID, err)
		}
	case rating.KindCommercial:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO commercial_tariffs
			 (id, plan_id, vehicle_category_id, vehicle_type_id,
			  rate, minimum_premium, effective_from, effective_to, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(t.ID), string(t.Plan),
			string(t.VehicleCategoryID), string(t.VehicleTypeID),
			t.Rate.String(), t.MinimumPremium.String(), from, to, boolInt(t.Active))
		if err != nil {
			return fmt.Errorf("insert commercial tariff %s: %w", t.ID, err)
		}
	case rating.KindThirdParty:
		_, err := tx.ExecContext(ctx,
			`INSERT INTO third_party_tariffs
			 (id, plan_id, engine_capacity_id, vehicle_type_id,
			  premium_amount, effective_from, effective_to, is_active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(t.ID), string(t.Plan), string(t.CapacityBandID),
			string(t.VehicleTypeID),
			t.FlatPremium.String(), from, to, boolInt(t.Active))
		if err != nil {
			return fmt.Errorf("insert third party tariff %s: %w", t.ID, err)
		}
	default:
		return fmt.Errorf("unknown tariff kind %q", t.Kind)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func wipe(ctx context.Context, tx *sql.Tx) error {
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
