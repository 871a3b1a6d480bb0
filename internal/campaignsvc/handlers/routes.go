package handlers

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)
			r.Use(h.UserMiddleware)

			r.Get("/me", h.Me)

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", h.ListCampaigns)
				r.Post("/", h.CreateCampaign)

				r.Route("/{campaignID}", func(r chi.Router) {
					r.Get("/", h.GetCampaign)
					r.Patch("/", h.UpdateCampaign)
					r.Delete("/", h.DeleteCampaign)

					r.Get("/characters", h.ListCampaignCharacters)
					r.Post("/characters", h.CreateCharacter)
					r.Get("/logs", h.ListCampaignLogs)
					r.Get("/invites", h.ListCampaignInvites)
					r.Post("/invites", h.SendInvite)
				})
			})

			r.Route("/characters", func(r chi.Router) {
				r.Get("/", h.ListCharacters)

				r.Route("/{characterID}", func(r chi.Router) {
					r.Get("/", h.GetCharacter)
					r.Patch("/", h.UpdateCharacter)
					r.Delete("/", h.DeleteCharacter)

					r.Post("/status", h.ChangeStatus)
					r.Post("/activate", h.Activate)
					r.Post("/kill", h.Kill)
					r.Post("/retire", h.Retire)
					r.Post("/remove", h.Remove)

					r.Get("/skills", h.ListCharacterSkills)
					r.Patch("/skills/{skillID}", h.UpdateCharacterSkill)
				})
			})

			r.Route("/invites", func(r chi.Router) {
				r.Get("/", h.ListInvites)
				r.Get("/{inviteID}", h.GetInvite)
				r.Post("/{inviteID}/respond", h.RespondInvite)
				r.Post("/{inviteID}/accept", h.AcceptInvite)
				r.Post("/{inviteID}/decline", h.DeclineInvite)
			})

			r.Get("/origins", h.ListOrigins)
			r.Get("/classes", h.ListClasses)
			r.Get("/features", h.ListFeatures)
			r.Get("/skills", h.ListSkills)
		})
	})
}

// InitAuth configures HS256 verification with the shared secret.
func (h *Handler) InitAuth(secret string) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
}

// TokenAuth exposes the verifier, e.g. to mint tokens in tests and tooling.
func (h *Handler) TokenAuth() *jwtauth.JWTAuth {
	return h.tokenAuth
}
