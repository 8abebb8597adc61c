/*
errors.go - Centralized error types for the rating core

PURPOSE:
  All rating errors in one place for consistency and discoverability.
  The taxonomy separates three classes:

  1. Input errors  - bad request data (missing fields, unknown cover ids).
                     The caller should fix the request.
  2. Data errors   - misconfigured reference data (overlapping tariff
                     windows, band gaps, missing excess rules). An operator
                     must fix the catalog; retrying reproduces the error.
  3. Availability  - plan withdrawn or snapshot not resident. The caller
                     should show "not offered", not "system error".

USAGE:
  breakdown, err := engine.Quote(req)
  if rating.IsInputError(err) { ... 400 ... }
  if rating.IsDataError(err) { ... alert operator ... }

SEE ALSO:
  - engine.go: Produces these errors
  - index.go: Produces ErrIndexIntegrity / ErrNoTariffFound
  - api/handlers.go: Maps classes to HTTP statuses
*/
package rating

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRequest is returned when a quote request is missing required
	// fields or carries an unsupported coverage kind.
	ErrInvalidRequest = errors.New("invalid quote request")

	// ErrPlanNotFound is returned when the requested plan is not in the
	// snapshot at all.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrPlanNotAvailable is returned when the plan exists but is inactive,
	// not yet launched, or withdrawn at the quote date.
	ErrPlanNotAvailable = errors.New("plan not available at quote date")

	// ErrNoValueBand is returned when the insured value falls in no
	// configured value band. Never silently defaulted.
	ErrNoValueBand = errors.New("no value band matches insured value")

	// ErrNoCapacityBand is returned when the engine capacity falls in no
	// configured capacity band.
	ErrNoCapacityBand = errors.New("no capacity band matches engine capacity")

	// ErrNoTariffFound is returned when no tariff row covers the resolved
	// dimensions at the quote date. The engine never guesses a closest row.
	ErrNoTariffFound = errors.New("no tariff found")

	// ErrNoExcessRule is returned when a comprehensive quote needs a plan
	// excess and none is configured for the (plan, excess type, band) triple.
	ErrNoExcessRule = errors.New("no excess rule configured")

	// ErrUnknownCover is returned when a requested additional cover is
	// unknown, inactive, or not attached to the plan. The request is
	// rejected, never silently skipped.
	ErrUnknownCover = errors.New("unknown additional cover")

	// ErrIndexIntegrity is returned at build time when two active tariff
	// rows for the same key have overlapping validity windows.
	ErrIndexIntegrity = errors.New("tariff index integrity violation")

	// ErrSnapshotUnavailable is returned when pricing is attempted before a
	// reference-data snapshot has loaded.
	ErrSnapshotUnavailable = errors.New("reference snapshot unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a malformed quote request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quote request: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// PlanWindowError reports a quote dated outside the plan's availability
// window, distinguishing "withdrawn" from "not yet launched".
type PlanWindowError struct {
	PlanID    PlanID
	AsOf      time.Time
	Launch    time.Time
	Withdraw  *time.Time
	Withdrawn bool
}

func (e *PlanWindowError) Error() string {
	if e.Withdrawn {
		return fmt.Sprintf("plan %s withdrawn on %s, quote dated %s",
			e.PlanID, e.Withdraw.Format("2006-01-02"), e.AsOf.Format("2006-01-02"))
	}
	return fmt.Sprintf("plan %s not available on %s", e.PlanID, e.AsOf.Format("2006-01-02"))
}

func (e *PlanWindowError) Unwrap() error { return ErrPlanNotAvailable }

// NoBandError reports a value (or capacity) that no band covers.
type NoBandError struct {
	Kind  string // "value" or "capacity"
	Input string // the value that failed to match
}

func (e *NoBandError) Error() string {
	return fmt.Sprintf("no %s band covers %s", e.Kind, e.Input)
}

func (e *NoBandError) Unwrap() error {
	if e.Kind == "capacity" {
		return ErrNoCapacityBand
	}
	return ErrNoValueBand
}

// TariffOverlapError reports two active tariff rows with intersecting
// validity windows for the same (kind, plan, dimension) key.
type TariffOverlapError struct {
	Kind     CoverageKind
	PlanID   PlanID
	Key      DimensionKey
	FirstID  TariffID
	SecondID TariffID
}

func (e *TariffOverlapError) Error() string {
	return fmt.Sprintf("overlapping %s tariff windows for plan %s: %s and %s",
		e.Kind, e.PlanID, e.FirstID, e.SecondID)
}

func (e *TariffOverlapError) Unwrap() error { return ErrIndexIntegrity }

// NoTariffError reports an unmatched tariff lookup.
type NoTariffError struct {
	Kind   CoverageKind
	PlanID PlanID
	Key    DimensionKey
	AsOf   time.Time
}

func (e *NoTariffError) Error() string {
	return fmt.Sprintf("no %s tariff for plan %s at %s",
		e.Kind, e.PlanID, e.AsOf.Format("2006-01-02"))
}

func (e *NoTariffError) Unwrap() error { return ErrNoTariffFound }

// UnknownCoverError reports a requested cover the plan cannot price.
type UnknownCoverError struct {
	PlanID  PlanID
	CoverID CoverID
	Reason  string // "not in catalog", "inactive", "not attached to plan"
}

func (e *UnknownCoverError) Error() string {
	return fmt.Sprintf("cover %s for plan %s: %s", e.CoverID, e.PlanID, e.Reason)
}

func (e *UnknownCoverError) Unwrap() error { return ErrUnknownCover }

// NoExcessRuleError reports a missing PlanExcess row.
type NoExcessRuleError struct {
	PlanID       PlanID
	ExcessTypeID ExcessTypeID
	ValueBandID  ValueBandID
}

func (e *NoExcessRuleError) Error() string {
	return fmt.Sprintf("no excess rule for plan %s, excess type %s, band %s",
		e.PlanID, e.ExcessTypeID, e.ValueBandID)
}

func (e *NoExcessRuleError) Unwrap() error { return ErrNoExcessRule }

// =============================================================================
// ERROR CLASSIFIERS
// =============================================================================

// IsInputError returns true if the error is due to invalid caller input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrUnknownCover) ||
		errors.Is(err, ErrPlanNotFound)
}

// IsDataError returns true if the error indicates misconfigured reference
// data that an operator must fix.
func IsDataError(err error) bool {
	return errors.Is(err, ErrIndexIntegrity) ||
		errors.Is(err, ErrNoValueBand) ||
		errors.Is(err, ErrNoCapacityBand) ||
		errors.Is(err, ErrNoTariffFound) ||
		errors.Is(err, ErrNoExcessRule)
}

// IsAvailabilityError returns true if the product is simply not offered at
// the quote date or the snapshot has not loaded yet.
func IsAvailabilityError(err error) bool {
	return errors.Is(err, ErrPlanNotAvailable) ||
		errors.Is(err, ErrSnapshotUnavailable)
}
