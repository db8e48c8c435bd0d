package handlers

import (
	"net/http"

	"homenest/internal/models"
	"homenest/internal/services"
)

type PropertyHandler struct {
	Service *services.PropertyService
}

// GetProperties handles GET / with optional sortBy, sortOrder and search.
func (h *PropertyHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.PropertyQuery{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: models.SortDesc,
	}
	if q.Get("sortOrder") == "asc" {
		query.SortOrder = models.SortAsc
	}
	properties, err := h.Service.ListProperties(r.Context(), query)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) GetFeatured(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Service.Featured(r.Context())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) GetPropertiesByUser(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	properties, err := h.Service.ListByOwner(r.Context(), id, getParam(r, "email"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) GetPropertyByID(w http.ResponseWriter, r *http.Request) {
	if _, err := identity(r); err != nil {
		WriteError(w, r, err)
		return
	}
	property, err := h.Service.GetProperty(r.Context(), getParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in services.CreatePropertyInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	property, err := h.Service.CreateProperty(r.Context(), id, in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, property)
}

func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in services.UpdatePropertyInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	property, err := h.Service.UpdateProperty(r.Context(), id, getParam(r, "id"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, property)
}

func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.Service.DeleteProperty(r.Context(), id, getParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Property deleted")
}
