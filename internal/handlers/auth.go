package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/crucial707/authsvc/internal/auth"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Auth *auth.Service
}

// RegisterRequest is the body of POST /register. Role is optional.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	Status  string `json:"status"`
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	reg, err := h.Auth.Register(r.Context(), input.Username, input.Password, input.Role)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			JSONMessage(w, ve.Message, http.StatusBadRequest)
		case errors.Is(err, auth.ErrConflict):
			JSONMessage(w, MsgUsernameTaken, http.StatusConflict)
		default:
			JSONMessage(w, MsgRegisterInternal, http.StatusInternalServerError)
		}
		return
	}

	JSONMessage(w, fmt.Sprintf("User '%s' registered successfully", reg.Username), http.StatusCreated)
}

// ==========================
// Login
// ==========================

// Login answers 401 with the same body whether the username is unknown or the password is wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	session, err := h.Auth.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		var ve *auth.ValidationError
		switch {
		case errors.As(err, &ve):
			JSONMessage(w, ve.Message, http.StatusBadRequest)
		case errors.Is(err, auth.ErrAuthenticationFailed):
			JSONMessage(w, MsgIncorrectCredential, http.StatusUnauthorized)
		case errors.Is(err, auth.ErrIssuance):
			JSONMessage(w, MsgTokenFailed, http.StatusInternalServerError)
		default:
			JSONMessage(w, MsgLoginInternal, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message: "Login successful!",
		Token:   session.Token,
		Status:  "authenticated",
	})
}
