package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/export"
	"fizibilite/internal/finance"
	"fizibilite/internal/listparams"
	"fizibilite/internal/models"
	"fizibilite/internal/workflow"
)

type createScenarioRequest struct {
	AcademicYear      string   `json:"academicYear" validate:"required,academic_year"`
	InputCurrency     string   `json:"inputCurrency" validate:"omitempty,oneof=USD LOCAL usd local"`
	FXUSDToLocal      *float64 `json:"fxUsdToLocal" validate:"omitempty,gt=0"`
	LocalCurrencyCode *string  `json:"localCurrencyCode" validate:"omitempty,min=2,max=8"`
	ProgramType       string   `json:"programType" validate:"omitempty,oneof=local international"`
}

// briefScenario is the fields=brief projection of a scenario.
type briefScenario struct {
	ID           uuid.UUID `json:"id"`
	AcademicYear string    `json:"academicYear"`
	Status       string    `json:"status"`
}

func (h *APIHandler) listOptions(defaultOrder string) listparams.Options {
	return listparams.Options{
		DefaultLimit:        h.cfg.ListDefaultLimit,
		MaxLimit:            h.cfg.ListMaxLimit,
		AllowedOrderColumns: models.ScenarioOrderColumns,
		DefaultOrder:        defaultOrder,
		ApplyDefaultLimit:   true,
	}
}

func listResponse(items []*models.Scenario, p listparams.Params) map[string]interface{} {
	var data interface{} = items
	if p.Brief() {
		brief := make([]briefScenario, len(items))
		for i, s := range items {
			brief[i] = briefScenario{ID: s.ID, AcademicYear: s.AcademicYear, Status: s.Status}
		}
		data = brief
	}
	return map[string]interface{}{
		"items":  data,
		"limit":  p.Limit,
		"offset": p.Offset,
		"order":  p.Order,
	}
}

// GET /api/schools/{id}/scenarios
func (h *APIHandler) ListScenarios(w http.ResponseWriter, r *http.Request, schoolID uuid.UUID) {
	p, err := listparams.Parse(r.URL.Query(), h.listOptions(""))
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	items, err := models.ListScenarios(r.Context(), h.db, schoolID, p)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"school_id": schoolID})
		return
	}
	jsonResponse(w, http.StatusOK, listResponse(items, p))
}

// POST /api/schools/{id}/scenarios
func (h *APIHandler) CreateScenario(w http.ResponseWriter, r *http.Request, schoolID uuid.UUID) {
	var req createScenarioRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	ctx := r.Context()
	if _, err := models.GetSchool(ctx, h.db, schoolID); err != nil {
		h.writeError(w, r, err, logrus.Fields{"school_id": schoolID})
		return
	}

	program := req.ProgramType
	if program == "" {
		program = finance.ProgramLocal
	}
	ns := models.NewScenario{
		SchoolID:          schoolID,
		AcademicYear:      strings.TrimSpace(req.AcademicYear),
		InputCurrency:     finance.NormalizeCurrency(req.InputCurrency),
		FXUSDToLocal:      req.FXUSDToLocal,
		LocalCurrencyCode: req.LocalCurrencyCode,
		ProgramType:       program,
		CreatedByUserID:   currentUserID(r),
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	defer tx.Rollback()

	s, err := models.CreateScenario(ctx, tx, ns)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"school_id": schoolID, "academic_year": ns.AcademicYear})
		return
	}
	if err := tx.Commit(); err != nil {
		h.writeError(w, r, err, logrus.Fields{"school_id": schoolID})
		return
	}
	h.log.WithFields(logrus.Fields{"scenario_id": s.ID, "academic_year": s.AcademicYear}).Info("scenario created")
	jsonResponse(w, http.StatusCreated, s)
}

// GET /api/scenarios/{id}
func (h *APIHandler) GetScenario(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	s, err := models.GetScenario(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	items, err := models.GetWorkItems(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"scenario":   s,
		"workItems":  items,
		"required":   workflow.RequiredWorkIDs,
		"statusInfo": models.GetStatusDisplayInfo(s.Status, s.SentAt != nil),
		"locked":     workflow.Locked(s.Status, s.SentAt),
	})
}

// DELETE /api/scenarios/{id}
func (h *APIHandler) DeleteScenario(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	status, sentAt, err := models.GetScenarioStatus(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	if workflow.Locked(status, sentAt) && !IsAdmin(r) {
		jsonError(w, http.StatusConflict, "scenario is locked and can only be deleted by an admin")
		return
	}
	if err := models.DeleteScenario(ctx, h.db, id); err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	h.cache.DeletePrefix(ctx, export.CachePrefix(id))
	h.log.WithField("scenario_id", id).Info("scenario deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/scenarios/{id}/inputs
func (h *APIHandler) GetInputs(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	in, err := models.GetScenarioInputs(r.Context(), h.db, id)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"inputs":    json.RawMessage(in.Inputs),
		"updatedAt": in.UpdatedAt,
	})
}

// ensureEditable refuses changes to a sent or finally approved scenario.
func (h *APIHandler) ensureEditable(r *http.Request, id uuid.UUID) error {
	status, sentAt, err := models.GetScenarioStatus(r.Context(), h.db, id)
	if err != nil {
		return err
	}
	if workflow.Locked(status, sentAt) {
		return &workflow.GateError{Reason: "scenario is " + status + " and cannot be edited"}
	}
	return nil
}

// PUT /api/scenarios/{id}/inputs replaces the inputs document.
func (h *APIHandler) PutInputs(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	fields := logrus.Fields{"scenario_id": id}
	if err := h.ensureEditable(r, id); err != nil {
		h.writeError(w, r, err, fields)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxInputsBytes))
	if err != nil {
		h.writeError(w, r, badRequestf("inputs body too large or unreadable"), fields)
		return
	}
	if _, err := finance.ParseInputs(body); err != nil {
		h.writeError(w, r, badRequestf("invalid inputs: %v", err), fields)
		return
	}

	ctx := r.Context()
	updatedAt, err := models.SaveScenarioInputs(ctx, h.db, id, body)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	h.cache.DeletePrefix(ctx, export.CachePrefix(id))
	jsonResponse(w, http.StatusOK, map[string]interface{}{"updatedAt": updatedAt})
}

// POST /api/scenarios/{id}/calculate computes and stores the results.
func (h *APIHandler) Calculate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	ctx := r.Context()
	fields := logrus.Fields{"scenario_id": id}
	if err := h.ensureEditable(r, id); err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	s, err := models.GetScenario(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	stored, err := models.GetScenarioInputs(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	in, err := finance.ParseInputs(stored.Inputs)
	if err != nil {
		h.log.WithFields(fields).WithError(err).Warn("calculating with partially decoded inputs")
	}

	results := finance.ComputeResults(in, s.InputCurrency)
	raw, err := json.Marshal(results)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	if err := models.SaveScenarioResults(ctx, h.db, id, raw); err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	h.cache.DeletePrefix(ctx, export.CachePrefix(id))
	jsonResponse(w, http.StatusOK, results)
}

// GET /api/scenarios/{id}/report?currency=usd|local
func (h *APIHandler) Report(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	req, err := export.Request{Sheet: export.SheetReport, Currency: r.URL.Query().Get("currency")}.Normalize()
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	src, err := export.Load(r.Context(), h.db, id)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	b := src.Input
	b.ReportCurrency = req.Currency
	jsonResponse(w, http.StatusOK, finance.BuildReport(b))
}
