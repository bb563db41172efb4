// pkg/portal/api.go
// Copyright(c) 2025 AirControlX contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// NewRouter builds the operator HTTP API: the portal's replacement for
// the interactive menu.  All responses are JSON.
func NewRouter(p *Portal) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/avns", p.handleListNotices).Methods("GET")
	r.HandleFunc("/avns/{id}/pay", p.handlePay).Methods("POST")
	r.HandleFunc("/accounts", p.handleAccounts).Methods("GET")
	r.HandleFunc("/accounts/{airline}", p.handleAccount).Methods("GET")
	r.HandleFunc("/accounts/{airline}/deposit", p.handleDeposit).Methods("POST")
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownNotice), errors.Is(err, ErrUnknownAirline):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyPaid), errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrInvalidAmount):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleListNotices returns the notices, optionally filtered with
// ?airline=PIA and/or ?paid=true|false.
func (p *Portal) handleListNotices(w http.ResponseWriter, r *http.Request) {
	var paid *bool
	if v := r.URL.Query().Get("paid"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "Invalid paid filter", http.StatusBadRequest)
			return
		}
		paid = &b
	}
	writeJSON(w, p.Notices(r.URL.Query().Get("airline"), paid))
}

func (p *Portal) handlePay(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := p.PayNotice(id); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, map[string]string{"status": "payment requested", "id": id})
}

func (p *Portal) handleAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, p.Balances())
}

func (p *Portal) handleAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := p.Balance(mux.Vars(r)["airline"])
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, acct)
}

func (p *Portal) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	airline := mux.Vars(r)["airline"]
	if err := p.Deposit(airline, req.Amount); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	acct, _ := p.Balance(airline)
	writeJSON(w, acct)
}
