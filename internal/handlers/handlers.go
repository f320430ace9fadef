// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the folio blog API.
// Handlers are grouped by concern (admin, public, auth) and receive
// their dependencies through the handler struct. All endpoints speak
// JSON; store errors are mapped to HTTP statuses by their kind.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"folio/internal/apperr"
)

// maxRequestBody caps JSON request bodies at 1 MiB.
const maxRequestBody = 1 << 20

// writeJSON serializes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError maps an error to its HTTP status by kind. Unclassified
// errors are logged and reported as an opaque 500.
func writeError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
		return
	}

	var status int
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	default:
		// Dependency errors are logged and swallowed by callers; one
		// reaching here is a bug, but the client still gets a clean 500.
		slog.Error("unexpected error kind in response path", "error", err)
		status = http.StatusInternalServerError
	}

	var e *apperr.Error
	msg := "internal server error"
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// readJSON decodes the request body into dst, rejecting oversized and
// malformed payloads as validation errors.
func readJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
	if err != nil {
		return apperr.Validation("could not read request body")
	}
	if len(body) > maxRequestBody {
		return apperr.Validation("request body too large")
	}
	if len(body) == 0 {
		return apperr.Validation("request body is empty")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validation("invalid JSON body")
	}
	return nil
}

// uuidParam parses a chi URL parameter as a UUID.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}
