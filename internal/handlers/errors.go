package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Client-facing messages. Internal details never reach a response body.
const (
	MsgInvalidJSON         = "Request body must be a JSON object"
	MsgBodyTooLarge        = "Request body too large"
	MsgIncorrectCredential = "Incorrect credentials"
	MsgUsernameTaken       = "Registration failed: Username already exists"
	MsgRegisterInternal    = "An internal error occurred during registration"
	MsgLoginInternal       = "An internal error occurred during login"
	MsgTokenFailed         = "Failed to generate token"
)

// MessageResponse is the body of every non-health response.
type MessageResponse struct {
	Message string `json:"message"`
}

// JSONMessage sends a JSON response with a single "message" field.
func JSONMessage(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response failed", "error", err)
	}
}

// decodeJSON reads the body into v and writes the 400/413 response itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		JSONMessage(w, MsgBodyTooLarge, http.StatusRequestEntityTooLarge)
		return false
	}
	JSONMessage(w, MsgInvalidJSON, http.StatusBadRequest)
	return false
}
