package handlers

import (
	"fmt"
	"net/http"
	"time"

	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/models"
	"finance-tracker/internal/undo"

	"github.com/go-chi/chi/v5"
)

// ListResponse is the transaction list with the filter that produced it.
type ListResponse struct {
	Transactions []models.Transaction `json:"transactions"`
	Filter       ledger.Filter        `json:"filter"`
	PendingUndo  *undo.Pending        `json:"pendingUndo,omitempty"`
}

// ListTransactions returns the filtered ledger. The type and q query
// parameters replace the remembered filter when either is present.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Has("type") || q.Has("q") {
		f := ledger.Filter{Type: ledger.ParseTypeFilter(q.Get("type")), Search: q.Get("q")}
		if err := h.app.SetFilter(r.Context(), f); err != nil {
			writeError(w, r, err)
			return
		}
	}

	txs, f, err := h.app.Transactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := ListResponse{Transactions: txs, Filter: f}
	if p, ok, err := h.app.PendingUndo(r.Context()); err == nil && ok {
		resp.PendingUndo = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateTransaction adds a transaction from a JSON draft.
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var d models.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	tx, err := h.app.AddTransaction(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// DeleteResponse describes a deletion that can still be undone.
type DeleteResponse struct {
	Removed       models.Transaction `json:"removed"`
	Index         int                `json:"index"`
	UndoExpiresAt *time.Time         `json:"undoExpiresAt,omitempty"`
}

// DeleteTransaction removes a transaction and opens the undo window.
func (h *Handlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	rm, err := h.app.DeleteTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := DeleteResponse{Removed: rm.Transaction, Index: rm.Index}
	if p, ok, err := h.app.PendingUndo(r.Context()); err == nil && ok {
		resp.UndoExpiresAt = &p.ExpiresAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// UndoResponse carries the restored transaction, or null when the undo
// window had already closed.
type UndoResponse struct {
	Restored *models.Transaction `json:"restored"`
}

// UndoDelete restores the most recent deletion.
func (h *Handlers) UndoDelete(w http.ResponseWriter, r *http.Request) {
	tx, err := h.app.Undo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UndoResponse{Restored: tx})
}

// ExportTransactions downloads the whole ledger as xlsx, or as CSV with
// format=csv.
func (h *Handlers) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.app.AllTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	stamp := time.Now().Format("20060102")
	switch r.URL.Query().Get("format") {
	case "", "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions_%s.xlsx"`, stamp))
		if err := export.WriteXLSX(w, txs); err != nil {
			writeError(w, r, err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transactions_%s.csv"`, stamp))
		if err := export.WriteCSV(w, txs); err != nil {
			writeError(w, r, err)
		}
	default:
		writeError(w, r, models.NewValidationError("format", "format must be xlsx or csv"))
	}
}
