package handlers

import (
	"net/http"

	"homenest/internal/models"
	"homenest/internal/services"
)

type ReviewHandler struct {
	Service *services.ReviewService
}

type reviewUpdateResponse struct {
	Message string             `json:"message"`
	Review  *models.UserReview `json:"review"`
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in services.CreateReviewInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	property, err := h.Service.AddReview(r.Context(), id, getParam(r, "id"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, property)
}

func (h *ReviewHandler) GetReviewsByUser(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	reviews, err := h.Service.ListByReviewer(r.Context(), id, getParam(r, "email"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var in services.UpdateReviewInput
	if err := decodeJSON(r, &in); err != nil {
		WriteError(w, r, err)
		return
	}
	review, err := h.Service.UpdateReview(r.Context(), id, getParam(r, "propertyId"), getParam(r, "reviewId"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviewUpdateResponse{Message: "Review updated successfully", Review: review})
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := identity(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	if err := h.Service.DeleteReview(r.Context(), id, getParam(r, "propertyId"), getParam(r, "reviewId")); err != nil {
		WriteError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Review deleted successfully")
}
