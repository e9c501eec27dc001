package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/salesdesk/salesdesk/internal/store"
)

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	persons, err := s.store.ListPersons(r.Context(), limit, offset)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, persons, s.logger)
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var params store.CreatePersonParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(params.FirstName) == "" || strings.TrimSpace(params.Email) == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "first_name and email are required", s.logger)
		return
	}
	person, err := s.store.CreatePerson(r.Context(), params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, person, s.logger)
}
