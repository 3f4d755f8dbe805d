package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Veraticus/crm-sheets/internal/settings"
)

type settingsHandler struct {
	store SettingsStore
}

type uploadResponse struct {
	Path string `json:"path"`
}

func (h *settingsHandler) get(w http.ResponseWriter, r *http.Request) {
	raw, err := h.store.Raw()
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, raw)
}

func (h *settingsHandler) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var values map[string]any
	if err := decodeJSON(w, r, &values, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	stored, err := h.store.UpdateMap(values)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, stored)
}

func (h *settingsHandler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	target := settings.CredentialTarget(r.URL.Query().Get("target"))
	if target != settings.TargetCredentials && target != settings.TargetClientSecret {
		writeError(ctx, w, settings.ErrUnknownTarget)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(ctx, w, badRequest("multipart field \"file\" is required"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".json") {
		writeError(ctx, w, badRequest("a .json file is required"))
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(ctx, w, badRequest("failed to read upload: "+err.Error()))
		return
	}

	name, err := h.store.SaveCredential(target, content)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, uploadResponse{Path: name})
}
