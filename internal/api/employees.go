package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/salesdesk/salesdesk/internal/store"
)

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	employees, err := s.store.ListEmployees(r.Context(), limit, offset)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, employees, s.logger)
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var params store.CreateEmployeeParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(params.FirstName) == "" || strings.TrimSpace(params.Email) == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "first_name and email are required", s.logger)
		return
	}
	employee, err := s.store.CreateEmployee(r.Context(), params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, employee, s.logger)
}
