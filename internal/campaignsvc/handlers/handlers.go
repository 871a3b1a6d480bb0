package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

type UserService interface {
	GetOrCreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id models.UserID) (*models.User, error)
}

type CampaignService interface {
	CreateCampaign(ctx context.Context, actor models.UserID, in models.CampaignInput) (*models.Campaign, error)
	GetCampaign(ctx context.Context, id int64, actor models.UserID) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, actor models.UserID) ([]*models.Campaign, error)
	UpdateCampaign(ctx context.Context, id int64, actor models.UserID, in models.CampaignInput) (*models.Campaign, error)
	DeleteCampaign(ctx context.Context, id int64, actor models.UserID) error
}

type CharacterService interface {
	CreateCharacter(ctx context.Context, actor models.UserID, input models.NewCharacterInput) (*models.Character, error)
	GetCharacter(ctx context.Context, id int64, actor models.UserID) (*models.Character, error)
	ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID, status *models.Status) ([]*models.Character, error)
	ListForUser(ctx context.Context, actor models.UserID, status *models.Status) ([]*models.Character, error)
	UpdateCharacter(ctx context.Context, id int64, actor models.UserID, patch models.CharacterPatch) (*models.Character, error)
	ChangeStatus(ctx context.Context, characterID int64, target models.Status, actor models.UserID) (*models.CampaignLog, error)
	DeleteCharacter(ctx context.Context, id int64, actor models.UserID) error
	ListSkills(ctx context.Context, characterID int64, actor models.UserID) ([]*models.CharacterSkill, error)
	UpdateSkill(ctx context.Context, characterID, skillID int64, level int, actor models.UserID) (*models.CharacterSkill, error)
}

type InviteService interface {
	SendInvite(ctx context.Context, campaignID int64, invitee, actor models.UserID) (*models.CampaignInvite, error)
	GetInvite(ctx context.Context, inviteID int64, actor models.UserID) (*models.CampaignInvite, error)
	ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID) ([]*models.CampaignInvite, error)
	ListForUser(ctx context.Context, actor models.UserID, status *models.InviteStatus) ([]*models.CampaignInvite, error)
	Respond(ctx context.Context, inviteID int64, response models.InviteStatus, actor models.UserID) (*models.CampaignInvite, error)
}

type LogService interface {
	ListForCampaign(ctx context.Context, campaignID int64, actor models.UserID) ([]*models.CampaignLog, error)
}

type ReferenceService interface {
	ListOrigins(ctx context.Context) ([]*models.Origin, error)
	ListClasses(ctx context.Context) ([]*models.Class, error)
	ListFeatures(ctx context.Context, classID *int64) ([]*models.Feature, error)
	ListSkills(ctx context.Context) ([]*models.Skill, error)
}

// Services bundles what the HTTP layer calls into.
type Services struct {
	Users      UserService
	Campaigns  CampaignService
	Characters CharacterService
	Invites    InviteService
	Logs       LogService
	Reference  ReferenceService
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	port      string
	Services
}

func NewHandler(services Services, port string) *Handler {
	return &Handler{Services: services, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)

	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Error encoding response: %s", err)
	}
}

func (h *Handler) ok(w http.ResponseWriter, code int, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: code, Data: data})
}

// ErrorResponse maps domain errors onto HTTP status codes. Anything it does
// not recognise is logged and reported as 500.
func (h *Handler) ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var (
		validationErr *models.ValidationError
		authErr       *models.AuthorizationError
		transitionErr *models.InvalidTransitionError
	)

	switch {
	case errors.Is(err, models.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, models.ErrNotInvitee):
		code = http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyResponded):
		code = http.StatusBadRequest
	case errors.Is(err, models.ErrInviteExists), errors.Is(err, models.ErrCharacterExists):
		code = http.StatusConflict
	case errors.As(err, &validationErr):
		code = http.StatusBadRequest
	case errors.As(err, &authErr):
		code = http.StatusForbidden
	case errors.As(err, &transitionErr):
		code = http.StatusConflict
	}

	message := err.Error()
	if code == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Errorf("Error handling request: %s", err)
		message = "internal server error"
	}

	h.CreateResponse(w, Response{
		Message: http.StatusText(code),
		Code:    code,
		Error:   message,
	})
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, http.StatusOK, "campaign service is running at port "+h.port, nil)
}

// Me returns the caller as recorded by UserMiddleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Users.GetUser(r.Context(), actorFrom(r))
	if err != nil {
		h.ErrorResponse(w, r, err)
		return
	}
	h.ok(w, http.StatusOK, "user", user)
}

type actorKey struct{}

// UserMiddleware resolves the authenticated caller from the token claims and
// records it in the users table. It must run after jwtauth.Authenticator.
func (h *Handler) UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			h.CreateResponse(w, Response{Message: "Unauthorized", Code: http.StatusUnauthorized, Error: err.Error()})
			return
		}

		id, err := userIDFromClaims(claims)
		if err != nil {
			h.CreateResponse(w, Response{Message: "Unauthorized", Code: http.StatusUnauthorized, Error: err.Error()})
			return
		}
		name, _ := claims["name"].(string)

		user, err := h.Users.GetOrCreateUser(r.Context(), models.User{UserId: id, Name: name})
		if err != nil {
			h.ErrorResponse(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, user.UserId)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(r *http.Request) models.UserID {
	id, _ := r.Context().Value(actorKey{}).(models.UserID)
	return id
}

// userIDFromClaims reads the user_id claim, falling back to sub.
func userIDFromClaims(claims map[string]interface{}) (models.UserID, error) {
	raw, ok := claims["user_id"]
	if !ok {
		raw, ok = claims["sub"]
	}
	if !ok {
		return 0, errors.New("token has no user_id claim")
	}

	var id int64
	switch v := raw.(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("user_id claim %v is not an integer", v)
		}
		id = int64(v)
	case int:
		id = int64(v)
	case int64:
		id = v
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("user_id claim: %w", err)
		}
		id = n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("user_id claim %q is not an integer", v)
		}
		id = n
	default:
		return 0, fmt.Errorf("unsupported user_id claim type %T", raw)
	}

	if id <= 0 {
		return 0, fmt.Errorf("user_id claim must be positive, got %d", id)
	}
	return models.UserID(id), nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Message: fmt.Sprintf("invalid %s %q", name, raw)}
	}
	return id, nil
}

// decodeBody rejects unknown keys so that a misspelled field is reported
// instead of being dropped.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &models.ValidationError{Message: "invalid request body: " + err.Error(), Err: err}
	}
	return nil
}

func statusQuery(r *http.Request) (*models.Status, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
