package handlers

import (
	"net/http"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Campaigns.ListCampaigns(r.Context(), actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "campaigns", campaigns)
}

func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in models.CampaignInput
	if err := decodeBody(r, &in); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	campaign, err := h.Campaigns.CreateCampaign(r.Context(), actorFrom(r), in)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "campaign created", campaign)
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	campaign, err := h.Campaigns.GetCampaign(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "campaign", campaign)
}

func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	var in models.CampaignInput
	if err := decodeBody(r, &in); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	campaign, err := h.Campaigns.UpdateCampaign(r.Context(), id, actorFrom(r), in)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "campaign updated", campaign)
}

func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	if err := h.Campaigns.DeleteCampaign(r.Context(), id, actorFrom(r)); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "campaign deleted", nil)
}

func (h *Handler) ListCampaignCharacters(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	status, err := statusQuery(r)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	characters, err := h.Characters.ListForCampaign(r.Context(), id, actorFrom(r), status)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "characters", characters)
}

// createCharacterRequest takes ability scores at the top level, like the sheet.
type createCharacterRequest struct {
	models.ScoreChanges
	Name  string `json:"name"`
	Level int    `json:"level"`
}

func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	var req createCharacterRequest
	if err := decodeBody(r, &req); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	c, err := h.Characters.CreateCharacter(r.Context(), actorFrom(r), models.NewCharacterInput{
		CampaignID: id,
		Name:       req.Name,
		Level:      req.Level,
		Scores:     req.ScoreChanges,
	})
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "character created", c)
}

// ListCampaignLogs serves the campaign log, newest first.
func (h *Handler) ListCampaignLogs(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	logs, err := h.Logs.ListForCampaign(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "campaign logs", logs)
}

func (h *Handler) ListCampaignInvites(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	invites, err := h.Invites.ListForCampaign(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "invites", invites)
}

type sendInviteRequest struct {
	UserID models.UserID `json:"user_id"`
}

func (h *Handler) SendInvite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "campaignID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	var req sendInviteRequest
	if err := decodeBody(r, &req); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	invite, err := h.Invites.SendInvite(r.Context(), id, req.UserID, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusCreated, "invite sent", invite)
}
