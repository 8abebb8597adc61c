/*
handlers.go - HTTP API handlers for the rating engine

PURPOSE:
  Exposes the rating engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the rating service.

ENDPOINTS:
  Quotes:
    POST   /api/quotes                 Price a quote request

  Reference data (from the resident snapshot):
    GET    /api/plans                  List plans
    GET    /api/plans/{id}             Get plan details
    GET    /api/reference/value-bands
    GET    /api/reference/capacity-bands
    GET    /api/reference/vehicle-categories
    GET    /api/reference/vehicle-types
    GET    /api/reference/excess-types
    GET    /api/reference/covers

  Snapshot:
    GET    /api/snapshot               Resident snapshot version/stats
    POST   /api/admin/refresh          Reload reference data now

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Seed the store and refresh

ERROR HANDLING:
  Rating errors map to HTTP status by class, not by individual type:
  - 400: input errors (bad fields, unknown plan or cover)
  - 404: availability errors (plan withdrawn, not yet launched)
  - 500: reference-data errors (operator must fix the catalog)
  - 503: snapshot not resident yet

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo catalog loaders
  - server.go: Router setup and middleware
  - rating/errors.go: The error classes mapped here
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coverline/rating-engine/rating"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Seeder is the write surface scenarios need from the back-office store.
type Seeder interface {
	Seed(ctx context.Context, snap *rating.Snapshot) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *rating.Service
	Seeder  Seeder // nil disables scenario loading
	Log     *zap.Logger

	currentScenario string
}

// NewHandler creates a handler over the rating service.
func NewHandler(svc *rating.Service, seeder Seeder, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Service: svc, Seeder: seeder, Log: log}
}

// =============================================================================
// QUOTE HANDLERS
// =============================================================================

// CreateQuote prices a quote request against the current snapshot.
func (h *Handler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	domainReq, err := toDomainRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	breakdown, err := h.Service.Quote(domainReq)
	if err != nil {
		h.writeRatingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQuoteDTO(breakdown))
}

// toDomainRequest converts the wire request into a domain request. Field
// presence is checked by the engine; this only rejects unparseable values.
func toDomainRequest(req QuoteRequest) (rating.QuoteRequest, error) {
	out := rating.QuoteRequest{
		PlanID:            rating.PlanID(req.PlanID),
		Kind:              rating.CoverageKind(req.Kind),
		VehicleCategoryID: rating.VehicleCategoryID(req.VehicleCategoryID),
		VehicleTypeID:     rating.VehicleTypeID(req.VehicleTypeID),
		EngineCapacity:    req.EngineCapacity,
	}

	if req.AsOf != "" {
		t, err := time.Parse(dateLayout, req.AsOf)
		if err != nil {
			return out, &rating.ValidationError{Field: "as_of", Reason: "use YYYY-MM-DD"}
		}
		out.AsOf = t
	}

	if req.InsuredValue != nil {
		v, err := decimal.NewFromString(*req.InsuredValue)
		if err != nil {
			return out, &rating.ValidationError{Field: "insured_value", Reason: "not a decimal"}
		}
		out.InsuredValue = &v
	}

	if req.ExcessTypeID != nil {
		id := rating.ExcessTypeID(*req.ExcessTypeID)
		out.ExcessTypeID = &id
	}

	for _, id := range req.CoverIDs {
		out.CoverIDs = append(out.CoverIDs, rating.CoverID(id))
	}
	return out, nil
}

// =============================================================================
// REFERENCE HANDLERS
// =============================================================================

// ListPlans returns all plans in the resident snapshot.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	now := time.Now()
	dtos := make([]PlanDTO, len(snap.Plans))
	for i, p := range snap.Plans {
		dtos[i] = toPlanDTO(p, now)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a single plan.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	plan := snap.PlanByID(rating.PlanID(chi.URLParam(r, "id")))
	if plan == nil {
		writeError(w, http.StatusNotFound, "plan_not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan, time.Now()))
}

// ListValueBands returns the configured value bands.
func (h *Handler) ListValueBands(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]ValueBandDTO, len(snap.ValueBands))
	for i, b := range snap.ValueBands {
		dtos[i] = ValueBandDTO{ID: string(b.ID), From: b.From.String(), To: b.To.String()}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCapacityBands returns the configured engine capacity bands.
func (h *Handler) ListCapacityBands(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]CapacityBandDTO, len(snap.CapacityBands))
	for i, b := range snap.CapacityBands {
		dtos[i] = CapacityBandDTO{ID: string(b.ID), From: b.From, To: b.To}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListVehicleCategories returns the vehicle categories.
func (h *Handler) ListVehicleCategories(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]VehicleCategoryDTO, len(snap.VehicleCategories))
	for i, c := range snap.VehicleCategories {
		dtos[i] = VehicleCategoryDTO{ID: string(c.ID), Name: c.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListVehicleTypes returns the vehicle types.
func (h *Handler) ListVehicleTypes(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]VehicleTypeDTO, len(snap.VehicleTypes))
	for i, t := range snap.VehicleTypes {
		dtos[i] = VehicleTypeDTO{ID: string(t.ID), CategoryID: string(t.CategoryID), Name: t.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListExcessTypes returns the excess types.
func (h *Handler) ListExcessTypes(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]ExcessTypeDTO, len(snap.ExcessTypes))
	for i, e := range snap.ExcessTypes {
		dtos[i] = ExcessTypeDTO{ID: string(e.ID), Name: e.Name, Default: e.Default}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListCovers returns the additional covers.
func (h *Handler) ListCovers(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	dtos := make([]CoverDTO, len(snap.AdditionalCovers))
	for i, c := range snap.AdditionalCovers {
		dtos[i] = CoverDTO{ID: string(c.ID), Code: c.Code, Name: c.Name, Active: c.Active}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SNAPSHOT HANDLERS
// =============================================================================

// GetSnapshot reports the resident snapshot's version and row counts.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, SnapshotDTO{
		Version:  snap.Version,
		TakenAt:  snap.TakenAt.Format(time.RFC3339),
		Currency: snap.Currency,
		Plans:    len(snap.Plans),
		Tariffs:  len(snap.Tariffs),
	})
}

// AdminRefresh reloads reference data from the store immediately.
func (h *Handler) AdminRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Refresh(r.Context()); err != nil {
		if rating.IsDataError(err) {
			writeError(w, http.StatusInternalServerError, "reference_data_error", err)
			return
		}
		writeError(w, http.StatusBadGateway, "store_unavailable", err)
		return
	}

	snap := h.Service.Snapshot()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "refreshed",
		"version": snap.Version,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// snapshot fetches the resident snapshot, writing 503 when none is loaded.
func (h *Handler) snapshot(w http.ResponseWriter) (*rating.Snapshot, bool) {
	snap := h.Service.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot_unavailable", rating.ErrSnapshotUnavailable)
		return nil, false
	}
	return snap, true
}

// writeRatingError maps an engine error class to an HTTP status.
func (h *Handler) writeRatingError(w http.ResponseWriter, err error) {
	switch {
	case rating.IsInputError(err):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, rating.ErrSnapshotUnavailable):
		writeError(w, http.StatusServiceUnavailable, "snapshot_unavailable", err)
	case rating.IsAvailabilityError(err):
		// Plan withdrawn or not yet launched: the product is not offered,
		// which is a 404 from the caller's point of view.
		writeError(w, http.StatusNotFound, "not_offered", err)
	case rating.IsDataError(err):
		h.Log.Error("reference data error during quote", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "reference_data_error", err)
	default:
		h.Log.Error("unexpected quote error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, class string, err error) {
	resp := ErrorResponse{Error: class}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
