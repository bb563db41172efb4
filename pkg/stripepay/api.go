// pkg/stripepay/api.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package stripepay

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// NewRouter builds the operator HTTP API for the payment service.
// Approval is the triggered step the pipeline waits on: an operator POSTs
// the 1-based index of a pending payment.
func NewRouter(s *Service) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/payments/pending", s.handlePending).Methods("GET")
	r.HandleFunc("/payments/history", s.handleHistory).Methods("GET")
	r.HandleFunc("/payments/{index}/approve", s.handleApprove).Methods("POST")
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Service) handlePending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Pending())
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.History())
}

func (s *Service) handleApprove(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return
	}
	p, err := s.Approve(index)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, p)
}
