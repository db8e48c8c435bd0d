package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"homenest/internal/auth"
	"homenest/internal/logger"
	"homenest/internal/models"
)

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Default().WithError(err).Error("encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// WriteError maps a domain error to its status code. Store and unexpected errors are
// logged with their cause and reported to the client with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var forbidden *models.ForbiddenError
	var invalid *models.ValidationError

	switch {
	case errors.Is(err, models.ErrUnauthenticated):
		writeMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
	case errors.Is(err, models.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid token.")
	case errors.Is(err, models.ErrMissingIdentity):
		writeMessage(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token")
	case errors.As(err, &forbidden):
		writeMessage(w, http.StatusForbidden, forbidden.Message)
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: invalid.Message, Field: invalid.Field})
	case errors.Is(err, models.ErrPropertyNotFound):
		writeMessage(w, http.StatusNotFound, "Property not found")
	case errors.Is(err, models.ErrReviewNotFound):
		writeMessage(w, http.StatusNotFound, "Review not found")
	case errors.Is(err, models.ErrNoRecord):
		writeMessage(w, http.StatusNotFound, "Not found")
	default:
		logger.FromContext(r.Context()).WithError(err).Errorf("%s %s failed", r.Method, r.URL.Path)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return models.NewValidationError(typeErr.Field, "%s must be of type %s", typeErr.Field, typeErr.Type)
	}
	return &models.ValidationError{Message: "Invalid request body"}
}

// identity returns the caller set by the auth middleware. Routes wired without it
// are treated as unauthenticated.
func identity(r *http.Request) (models.Identity, error) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return models.Identity{}, models.ErrUnauthenticated
	}
	return id, nil
}

// NotFound answers unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Message: "Route not found", Path: r.URL.Path})
}
