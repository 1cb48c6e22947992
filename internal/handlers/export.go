package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fizibilite/internal/export"
	"fizibilite/internal/xlsx"
)

// GET /api/scenarios/{id}/export?sheet=&currency=&year=
func (h *APIHandler) Export(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	q := r.URL.Query()
	req, err := export.Request{Sheet: q.Get("sheet"), Currency: q.Get("currency"), Year: q.Get("year")}.Normalize()
	if err != nil {
		h.writeError(w, r, err, nil)
		return
	}

	ctx := r.Context()
	fields := logrus.Fields{"scenario_id": id, "sheet": req.Sheet}
	src, err := export.Load(ctx, h.db, id)
	if err != nil {
		h.writeError(w, r, err, fields)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteWorkbook(&buf, export.Build(ctx, h.cache, src, req)); err != nil {
		h.writeError(w, r, err, fields)
		return
	}

	name := export.Filename(src.Scenario, req)
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"export.xlsx\"; filename*=UTF-8''%s", url.PathEscape(name)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.WithFields(fields).WithError(err).Warn("export download interrupted")
	}
}
