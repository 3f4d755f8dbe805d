package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Veraticus/crm-sheets/internal/common"
	"github.com/Veraticus/crm-sheets/internal/settings"
	"github.com/Veraticus/crm-sheets/internal/sheets"
	"github.com/Veraticus/crm-sheets/internal/storage"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

var badRequestErrors = []error{
	common.ErrInvalidInput,
	sheets.ErrMissingCredentials,
	sheets.ErrInvalidCredentials,
	settings.ErrInvalidValue,
	settings.ErrUnknownTarget,
	settings.ErrNotJSON,
	storage.ErrEmptyString,
	storage.ErrNilParameter,
	storage.ErrInvalidID,
	storage.ErrInvalidLimit,
	storage.ErrInvalidDeal,
}

func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, sheets.ErrUnknownSection) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		common.LoggerFrom(ctx).Error("failed to encode response", "error", err)
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	logger := common.LoggerFrom(ctx)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	} else {
		logger.Debug("request rejected", "error", err, "status", status)
	}
	writeJSON(ctx, w, status, errorResponse{Detail: err.Error()})
}

func badRequest(msg string) error {
	return fmt.Errorf("%w: %s", common.ErrInvalidInput, msg)
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return badRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// queryInt reads an integer query parameter bounded to [lo, hi], or def when absent.
func queryInt(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, badRequest(name + " must be an integer between " + strconv.Itoa(lo) + " and " + strconv.Itoa(hi))
	}
	return n, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest(name + " must be an integer")
	}
	return &id, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest(name + " must be true or false")
	}
	return &b, nil
}
