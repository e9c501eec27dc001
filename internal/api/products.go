package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/salesdesk/salesdesk/internal/store"
)

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	products, err := s.store.ListProducts(r.Context(), limit, offset)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products, s.logger)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", s.logger)
		return
	}
	product, err := s.store.GetProduct(r.Context(), id)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product, s.logger)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var params store.CreateProductParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "name is required", s.logger)
		return
	}
	if params.Price < 0 || params.Stock < 0 {
		writeError(w, http.StatusBadRequest, "invalid_body", "price and stock must not be negative", s.logger)
		return
	}
	product, err := s.store.CreateProduct(r.Context(), params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, product, s.logger)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", s.logger)
		return
	}
	var params store.CreateProductParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		writeError(w, http.StatusBadRequest, "invalid_body", "name is required", s.logger)
		return
	}
	product, err := s.store.UpdateProduct(r.Context(), id, params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product, s.logger)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", s.logger)
		return
	}
	if err := s.store.DeleteProduct(r.Context(), id); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
