package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/export"
	"fizibilite/internal/listparams"
	"fizibilite/internal/models"
	"fizibilite/internal/workflow"
)

type workItemRequest struct {
	Comment string `json:"comment" validate:"max=2000"`
}

type returnRequest struct {
	WorkIDs []string `json:"workIds" validate:"required,min=1,dive,required"`
	Comment string   `json:"comment" validate:"required,max=2000"`
}

// POST /api/scenarios/{id}/work-items/{workId}/{action}
func (h *APIHandler) WorkItemAction(w http.ResponseWriter, r *http.Request, id uuid.UUID, workID, action string) {
	switch action {
	case workflow.ActionStart, workflow.ActionSubmit:
		if !CanEdit(r) {
			jsonError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
			return
		}
	case workflow.ActionApprove, workflow.ActionRevise:
		if !CanReview(r) {
			jsonError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
			return
		}
	default:
		jsonError(w, http.StatusNotFound, "Unknown work item action")
		return
	}

	var req workItemRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeError(w, r, err, nil)
			return
		}
	}

	fields := logrus.Fields{"scenario_id": id, "work_id": workID, "action": action}
	item, status, err := workflow.ApplyWorkItemAction(r.Context(), h.db, id, workID, action, req.Comment)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}
	h.log.WithFields(fields).WithField("status", status).Info("work item updated")
	jsonResponse(w, http.StatusOK, map[string]interface{}{"item": item, "status": status})
}

// POST /api/scenarios/{id}/send-for-approval
func (h *APIHandler) SendForApproval(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := workflow.SendForApproval(r.Context(), h.db, id); err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	h.log.WithField("scenario_id", id).Info("scenario sent for approval")
	jsonResponse(w, http.StatusOK, map[string]string{"status": models.StatusSentForApproval})
}

// POST /api/scenarios/{id}/final-approve
func (h *APIHandler) FinalApprove(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	at := time.Now().UTC()
	if err := workflow.FinalizeApproval(r.Context(), h.db, id, at); err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	h.log.WithField("scenario_id", id).Info("scenario finally approved")
	jsonResponse(w, http.StatusOK, map[string]interface{}{"status": models.StatusApproved, "sentAt": at})
}

// POST /api/scenarios/{id}/return
func (h *APIHandler) ReturnScenario(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req returnRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	ctx := r.Context()
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	defer tx.Rollback()

	status, err := workflow.ReturnForRevision(ctx, tx, id, req.WorkIDs, req.Comment)
	if err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	if err := tx.Commit(); err != nil {
		h.writeError(w, r, err, logrus.Fields{"scenario_id": id})
		return
	}
	h.cache.DeletePrefix(ctx, export.CachePrefix(id))
	h.log.WithFields(logrus.Fields{"scenario_id": id, "work_ids": req.WorkIDs}).Info("scenario returned for revision")
	jsonResponse(w, http.StatusOK, map[string]string{"status": status})
}

// GET /api/review-queue
func (h *APIHandler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	p, err := listparams.Parse(r.URL.Query(), h.listOptions("updatedAt:desc"))
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	items, err := models.ListReviewQueue(r.Context(), h.db, p)
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}
	jsonResponse(w, http.StatusOK, listResponse(items, p))
}
