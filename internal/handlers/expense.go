package handlers

import (
	"net/http"

	"github.com/expensely/ledger/internal/services"
	"github.com/expensely/ledger/types"
	"github.com/go-chi/chi/v5"
)

// ExpenseHandler provides HTTP handlers for ledger entries.
type ExpenseHandler struct {
	ledger *services.LedgerService
}

// NewExpenseHandler constructs a handler backed by the ledger service.
func NewExpenseHandler(ledger *services.LedgerService) *ExpenseHandler {
	return &ExpenseHandler{ledger: ledger}
}

// ExpenseRouter registers expense routes on the given router.
func ExpenseRouter(r chi.Router, ledger *services.LedgerService) {
	handler := NewExpenseHandler(ledger)

	r.Post("/", handler.CreateExpense)
	r.Get("/", handler.ListExpenses)
	r.Get("/by-category", handler.ListByCategory)
	r.Route("/{expenseID}", func(r chi.Router) {
		r.Get("/", handler.GetExpense)
		r.Patch("/", handler.PatchExpense)
		r.Put("/", handler.PatchExpense)
		r.Delete("/", handler.DeleteExpense)
	})
}

// UserRouter registers per-user routes on the given router.
func UserRouter(r chi.Router, ledger *services.LedgerService) {
	handler := NewExpenseHandler(ledger)

	r.Get("/{userID}/expenses", handler.ListUserExpenses)
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req types.ExpenseInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.ledger.Create(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "expense created", ID: created.ID})
}

func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.ledger.List(r.Context(), criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ExpenseHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.ledger.ListByCategory(r.Context(), r.URL.Query().Get("category"), skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ExpenseHandler) ListUserExpenses(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID")
	if err != nil {
		writeError(w, err)
		return
	}
	skip, limit, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, err := h.ledger.ListByUser(r.Context(), userID, skip, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ExpenseHandler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "expenseID")
	if err != nil {
		writeError(w, err)
		return
	}

	expense, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// PatchExpense applies a sparse update. Keys absent from the body are left
// untouched; keys present with an empty string overwrite.
func (h *ExpenseHandler) PatchExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "expenseID")
	if err != nil {
		writeError(w, err)
		return
	}

	var patch types.ExpensePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.ledger.Patch(r.Context(), id, patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "expense updated"})
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "expenseID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.ledger.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "expense deleted"})
}
