package handlers

import (
	"net/http"

	"github.com/expensely/ledger/internal/services"
	"github.com/go-chi/chi/v5"
)

// CategoryHandler manages the category registry.
type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// CategoryRouter registers category routes on the given router.
func CategoryRouter(r chi.Router, categories *services.CategoryService) {
	handler := NewCategoryHandler(categories)

	r.Post("/", handler.CreateCategory)
	r.Get("/", handler.ListCategories)
	r.Put("/{categoryID}", handler.RenameCategory)
	r.Delete("/{categoryID}", handler.DeleteCategory)
}

// CategoryRequest is the create and rename payload.
type CategoryRequest struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.categories.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CategoryHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "categoryID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	renamed, err := h.categories.Rename(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "categoryID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
