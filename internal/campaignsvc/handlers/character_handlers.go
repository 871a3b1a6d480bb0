package handlers

import (
	"net/http"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
)

func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	status, err := statusQuery(r)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	characters, err := h.Characters.ListForUser(r.Context(), actorFrom(r), status)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "characters", characters)
}

// characterView adds the derived values to a sheet.
type characterView struct {
	*models.Character
	Modifiers        map[models.Ability]int `json:"modifiers"`
	ProficiencyBonus int                    `json:"proficiency_bonus"`
}

func newCharacterView(c *models.Character) characterView {
	return characterView{
		Character:        c,
		Modifiers:        c.Modifiers(),
		ProficiencyBonus: c.ProficiencyBonus(),
	}
}

func (h *Handler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	c, err := h.Characters.GetCharacter(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "character", newCharacterView(c))
}

func (h *Handler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	var patch models.CharacterPatch
	if err := decodeBody(r, &patch); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	c, err := h.Characters.UpdateCharacter(r.Context(), id, actorFrom(r), patch)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "character updated", newCharacterView(c))
}

func (h *Handler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	if err := h.Characters.DeleteCharacter(r.Context(), id, actorFrom(r)); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "character deleted", nil)
}

type statusRequest struct {
	Status string `json:"status"`
}

type statusResponse struct {
	CharacterID int64               `json:"character"`
	Status      models.Status       `json:"status"`
	Log         *models.CampaignLog `json:"log"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, target models.Status) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	entry, err := h.Characters.ChangeStatus(r.Context(), id, target, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "status changed", statusResponse{CharacterID: id, Status: target, Log: entry})
}

// ChangeStatus accepts any target status in the body.
func (h *Handler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(r, &req); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.changeStatus(w, r, target)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.StatusActive)
}

func (h *Handler) Kill(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.StatusDead)
}

func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.StatusRetired)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, models.StatusRemoved)
}

func (h *Handler) ListCharacterSkills(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	skills, err := h.Characters.ListSkills(r.Context(), id, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "skills", skills)
}

type skillRequest struct {
	ProficiencyLevel *int `json:"proficiency_level"`
}

func (h *Handler) UpdateCharacterSkill(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "characterID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	skillID, err := idParam(r, "skillID")
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	var req skillRequest
	if err := decodeBody(r, &req); err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	if req.ProficiencyLevel == nil {
		h.ErrorResponse(w, r, &models.ValidationError{Message: "proficiency_level is required"})
		return
	}
	cs, err := h.Characters.UpdateSkill(r.Context(), id, skillID, *req.ProficiencyLevel, actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "skill updated", cs)
}
