package api

import (
	"fmt"
	"net/http"

	"github.com/Veraticus/crm-sheets/internal/model"
	"github.com/Veraticus/crm-sheets/internal/service"
	"github.com/Veraticus/crm-sheets/internal/sheets"
	"github.com/go-chi/chi/v5"
)

type exportHandler struct {
	exporter service.Exporter
}

type exportRequest struct {
	FolderID *string `json:"folder_id"`
}

type exportListResponse struct {
	Section string             `json:"section"`
	Files   []model.ReportFile `json:"files"`
}

func (h *exportHandler) export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	section, ok := model.ParseSection(chi.URLParam(r, "section"))
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: %q", sheets.ErrUnknownSection, chi.URLParam(r, "section")))
		return
	}

	var req exportRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}
	folderID := ""
	if req.FolderID != nil {
		folderID = *req.FolderID
	}

	doc, err := h.exporter.Export(ctx, section, folderID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

func (h *exportHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	section := r.URL.Query().Get("section")
	if section == "" {
		writeError(ctx, w, badRequest("section is required"))
		return
	}

	files, err := h.exporter.ListReports(ctx, section)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, exportListResponse{Section: section, Files: files})
}
