package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/salesdesk/salesdesk/internal/store"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, found, err := s.store.GetCompanySettings(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "company settings not configured", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, settings, s.logger)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var params store.CompanySettingsParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "name is required", s.logger)
		return
	}
	settings, err := s.store.UpsertCompanySettings(r.Context(), params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings, s.logger)
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCompanySettings(r.Context()); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
