package api

import (
	"encoding/json"
	"net/http"

	"github.com/salesdesk/salesdesk/internal/store"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	orders, err := s.store.ListOrders(r.Context(), limit, offset)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders, s.logger)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	number, ok := pathID(r, "number")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order number", s.logger)
		return
	}
	detail, found, err := s.store.GetOrderByNumber(r.Context(), number)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "order not found", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, detail, s.logger)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var params store.CreateOrderParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if params.PersonID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_body", "person_id is required", s.logger)
		return
	}
	if len(params.Items) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_body", "at least one item is required", s.logger)
		return
	}
	for _, item := range params.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_body", "items need a product_id and a positive quantity", s.logger)
			return
		}
	}
	detail, err := s.store.CreateOrder(r.Context(), params)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, detail, s.logger)
}

func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	number, ok := pathID(r, "number")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order number", s.logger)
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body", s.logger)
		return
	}
	if !validOrderStatus(body.Status) {
		writeError(w, http.StatusBadRequest, "invalid_body", "unknown order status", s.logger)
		return
	}
	if err := s.store.UpdateOrderStatus(r.Context(), number, body.Status); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func validOrderStatus(status string) bool {
	switch status {
	case "pending", "paid", "shipped", "delivered", "cancelled":
		return true
	}
	return false
}
