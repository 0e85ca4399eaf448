package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire shape of every JSON body this service emits.
type Envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// FieldError is one request-validation issue.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Message: message, Data: data})
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, message, data)
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, message, data)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func ValidationFailed(w http.ResponseWriter, issues []FieldError) {
	JSON(w, http.StatusBadRequest, "validation failed", issues)
}

func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, message, nil)
}

func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, message, nil)
}

func Forbidden(w http.ResponseWriter, message string) {
	JSON(w, http.StatusForbidden, message, nil)
}

func Internal(w http.ResponseWriter, message string) {
	JSON(w, http.StatusInternalServerError, message, nil)
}
