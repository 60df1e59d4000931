package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Dan9191/finance-service/internal/models"
)

// CreateTransaction handles transaction creation
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.TransactionInput
	if !h.decode(w, r, &in) {
		return
	}
	transaction, err := h.transactions.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transaction)
}

// ListTransactions returns the caller's transactions matching the query
// filters together with income, expense and balance totals.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	filters, err := models.ParseTransactionFilters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.transactions.FindAll(r.Context(), userID, filters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetTransaction returns one of the caller's transactions
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	transaction, err := h.transactions.GetOne(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// UpdateTransaction applies a partial update to a transaction
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var patch models.TransactionPatch
	if !h.decode(w, r, &patch) {
		return
	}
	transaction, err := h.transactions.Update(r.Context(), mux.Vars(r)["id"], userID, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.transactions.Delete(r.Context(), mux.Vars(r)["id"], userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
