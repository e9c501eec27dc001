package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/salesdesk/salesdesk/internal/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// listParams reads limit/offset query parameters with sane bounds.
func listParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, maxPageSize)
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

// pathID parses a numeric path value such as {id}.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

// storeError maps store errors onto HTTP responses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found", s.logger)
	case errors.Is(err, store.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", "not enough stock for the requested quantity", s.logger)
	default:
		requestID, _ := requestIDFromContext(r.Context())
		s.logger.Error("store operation failed",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestID,
		)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error", s.logger)
	}
}
