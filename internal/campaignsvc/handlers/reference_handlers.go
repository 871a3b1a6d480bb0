package handlers

import (
	"net/http"
	"strconv"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

func (h *Handler) ListOrigins(w http.ResponseWriter, r *http.Request) {
	origins, err := h.Reference.ListOrigins(r.Context())
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "origins", origins)
}

func (h *Handler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.Reference.ListClasses(r.Context())
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "classes", classes)
}

func (h *Handler) ListFeatures(w http.ResponseWriter, r *http.Request) {
	var classID *int64
	if raw := r.URL.Query().Get("class"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.ErrorResponse(w, r, &models.ValidationError{Message: "invalid class " + strconv.Quote(raw)})
			return
		}
		classID = &id
	}
	features, err := h.Reference.ListFeatures(r.Context(), classID)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "features", features)
}

func (h *Handler) ListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.Reference.ListSkills(r.Context())
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "skills", skills)
}
