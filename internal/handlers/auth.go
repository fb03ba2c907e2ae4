package handlers

import (
	"net/http"

	"github.com/expensely/ledger/internal/services"
	"github.com/expensely/ledger/types"
	"github.com/go-chi/chi/v5"
)

// AuthHandler provides registration and login endpoints.
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService) {
	handler := NewAuthHandler(userService)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req types.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "user registered", ID: user.ID})
}

// Login verifies credentials and returns the account id.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	userID, err := h.userService.Login(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Message: "login successful", UserID: userID})
}

type LoginResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}
