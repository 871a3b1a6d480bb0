package handlers

import (
	"net/http"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

// ListInvites lists the caller's invites, optionally filtered by ?status=.
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	var status *models.InviteStatus
	switch raw := models.InviteStatus(r.URL.Query().Get("status")); raw {
	case "":
	case models.InvitePending, models.InviteAccepted, models.InviteRejected:
		status = &raw
	default:
		h.ErrorResponse(w, r, &models.ValidationError{Message: "unknown invite status " + string(raw)})
		return
	}

	invites, err := h.Invites.ListForUser(r.Context(), actorFrom(r), status)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "invites", invites)
}

func (h *Handler) GetInvite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "inviteID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	invite, err := h.Invites.GetInvite(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "invite", invite)
}

type respondRequest struct {
	Response string `json:"response"`
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, response models.InviteStatus) {
	id, err := idParam(r, "inviteID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	invite, err := h.Invites.Respond(r.Context(), id, response, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "invite "+string(invite.Status), invite)
}

func (h *Handler) RespondInvite(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if err := decodeBody(r, &req); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	response, err := models.ParseInviteResponse(req.Response)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.respond(w, r, response)
}

func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.InviteAccepted)
}

func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, models.InviteRejected)
}
