package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/tabletop-services/internal/campaignsvc/models"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	seen []models.User
}

func (f *fakeUsers) GetOrCreateUser(_ context.Context, u models.User) (*models.User, error) {
	f.seen = append(f.seen, u)
	return &u, nil
}

func (f *fakeUsers) GetUser(_ context.Context, id models.UserID) (*models.User, error) {
	for i := len(f.seen) - 1; i >= 0; i-- {
		if f.seen[i].UserId == id {
			u := f.seen[i]
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

type fakeCampaigns struct {
	err error
}

func (f *fakeCampaigns) CreateCampaign(_ context.Context, actor models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Campaign{ID: 1, Name: in.Name, OwnerID: actor}, nil
}

func (f *fakeCampaigns) GetCampaign(_ context.Context, id int64, actor models.UserID) (*models.Campaign, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Campaign{ID: id, OwnerID: actor}, nil
}

func (f *fakeCampaigns) ListCampaigns(context.Context, models.UserID) ([]*models.Campaign, error) {
	return []*models.Campaign{}, f.err
}

func (f *fakeCampaigns) UpdateCampaign(_ context.Context, id int64, _ models.UserID, in models.CampaignInput) (*models.Campaign, error) {
	return &models.Campaign{ID: id, Name: in.Name}, f.err
}

func (f *fakeCampaigns) DeleteCampaign(context.Context, int64, models.UserID) error {
	return f.err
}

type statusCall struct {
	characterID int64
	target      models.Status
	actor       models.UserID
}

type fakeCharacters struct {
	err         error
	statusCalls []statusCall
	skillLevel  int
}

func (f *fakeCharacters) CreateCharacter(_ context.Context, actor models.UserID, in models.NewCharacterInput) (*models.Character, error) {
	if f.err != nil {
		return nil, f.err
	}
	in.UserID = actor
	return models.NewCharacter(in, time.Now())
}

func (f *fakeCharacters) GetCharacter(_ context.Context, id int64, actor models.UserID) (*models.Character, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Character{
		ID: id, UserID: actor, Name: "Aria", Level: 5,
		AbilityScores: models.AbilityScores{Strength: 8, Dexterity: 16, Constitution: 12, Intelligence: 10, Wisdom: 13, Charisma: 9},
		Status:        models.StatusActive,
	}, nil
}

func (f *fakeCharacters) ListForCampaign(context.Context, int64, models.UserID, *models.Status) ([]*models.Character, error) {
	return []*models.Character{}, f.err
}

func (f *fakeCharacters) ListForUser(_ context.Context, _ models.UserID, status *models.Status) ([]*models.Character, error) {
	if status != nil {
		return []*models.Character{{ID: 1, Status: *status}}, f.err
	}
	return []*models.Character{}, f.err
}

func (f *fakeCharacters) UpdateCharacter(_ context.Context, id int64, actor models.UserID, patch models.CharacterPatch) (*models.Character, error) {
	c, err := f.GetCharacter(context.Background(), id, actor)
	if err != nil {
		return nil, err
	}
	return c.Apply(patch)
}

func (f *fakeCharacters) ChangeStatus(_ context.Context, characterID int64, target models.Status, actor models.UserID) (*models.CampaignLog, error) {
	f.statusCalls = append(f.statusCalls, statusCall{characterID, target, actor})
	if f.err != nil {
		return nil, f.err
	}
	return &models.CampaignLog{ID: 1, ActorID: &actor, Message: models.TransitionMessage("Aria", models.StatusActive, target)}, nil
}

func (f *fakeCharacters) DeleteCharacter(context.Context, int64, models.UserID) error {
	return f.err
}

func (f *fakeCharacters) ListSkills(context.Context, int64, models.UserID) ([]*models.CharacterSkill, error) {
	return []*models.CharacterSkill{}, f.err
}

func (f *fakeCharacters) UpdateSkill(_ context.Context, characterID, skillID int64, level int, _ models.UserID) (*models.CharacterSkill, error) {
	if err := models.ValidateProficiencyLevel(level); err != nil {
		return nil, err
	}
	f.skillLevel = level
	return &models.CharacterSkill{CharacterID: characterID, Skill: models.Skill{ID: skillID}, ProficiencyLevel: level}, f.err
}

type fakeInvites struct {
	err       error
	responses []models.InviteStatus
}

func (f *fakeInvites) SendInvite(_ context.Context, campaignID int64, invitee, actor models.UserID) (*models.CampaignInvite, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CampaignInvite{ID: 1, CampaignID: campaignID, InvitedUserID: invitee, InvitedByID: actor, Status: models.InvitePending}, nil
}

func (f *fakeInvites) GetInvite(_ context.Context, id int64, actor models.UserID) (*models.CampaignInvite, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CampaignInvite{ID: id, CampaignID: 3, InvitedUserID: actor, Status: models.InvitePending}, nil
}

func (f *fakeInvites) ListForCampaign(context.Context, int64, models.UserID) ([]*models.CampaignInvite, error) {
	return []*models.CampaignInvite{}, f.err
}

func (f *fakeInvites) ListForUser(context.Context, models.UserID, *models.InviteStatus) ([]*models.CampaignInvite, error) {
	return []*models.CampaignInvite{}, f.err
}

func (f *fakeInvites) Respond(_ context.Context, id int64, response models.InviteStatus, actor models.UserID) (*models.CampaignInvite, error) {
	f.responses = append(f.responses, response)
	if f.err != nil {
		return nil, f.err
	}
	return &models.CampaignInvite{ID: id, InvitedUserID: actor, Status: response}, nil
}

type fakeLogs struct{}

func (fakeLogs) ListForCampaign(_ context.Context, campaignID int64, _ models.UserID) ([]*models.CampaignLog, error) {
	return []*models.CampaignLog{
		{ID: 2, CampaignID: campaignID, Message: "Aria: ACTIVE → DEAD"},
		{ID: 1, CampaignID: campaignID, Message: "Aria: DRAFT → ACTIVE"},
	}, nil
}

type fakeReference struct{}

func (fakeReference) ListOrigins(context.Context) ([]*models.Origin, error) {
	return []*models.Origin{{ID: 1, Name: "Elf"}}, nil
}

func (fakeReference) ListClasses(context.Context) ([]*models.Class, error) {
	return []*models.Class{}, nil
}

func (fakeReference) ListFeatures(_ context.Context, classID *int64) ([]*models.Feature, error) {
	if classID != nil {
		return []*models.Feature{{ID: 1, ClassID: classID, Name: "Rage"}}, nil
	}
	return []*models.Feature{}, nil
}

func (fakeReference) ListSkills(context.Context) ([]*models.Skill, error) {
	return []*models.Skill{}, nil
}

type testServer struct {
	handler    *Handler
	router     *chi.Mux
	users      *fakeUsers
	campaigns  *fakeCampaigns
	characters *fakeCharacters
	invites    *fakeInvites
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		users:      &fakeUsers{},
		campaigns:  &fakeCampaigns{},
		characters: &fakeCharacters{},
		invites:    &fakeInvites{},
	}
	ts.handler = NewHandler(Services{
		Users:      ts.users,
		Campaigns:  ts.campaigns,
		Characters: ts.characters,
		Invites:    ts.invites,
		Logs:       fakeLogs{},
		Reference:  fakeReference{},
	}, "8080")
	ts.handler.InitAuth("test-secret")
	ts.router = chi.NewRouter()
	ts.handler.SetRoutes(ts.router)
	return ts
}

func (ts *testServer) token(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	_, token, err := ts.handler.TokenAuth().Encode(claims)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var rsp Response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
	}
	return rec, rsp
}

func TestHealthIsPublic(t *testing.T) {
	ts := newTestServer(t)
	rec, rsp := ts.do(t, http.MethodGet, "/v1/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rsp.Message, "8080")
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodGet, "/v1/campaigns", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/v1/campaigns", ts.token(t, map[string]interface{}{"name": "nobody"}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, "/v1/campaigns", ts.token(t, map[string]interface{}{"user_id": 7, "name": "Player"}), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ts.users.seen, 1)
	assert.Equal(t, models.UserID(7), ts.users.seen[0].UserId)
	assert.Equal(t, "Player", ts.users.seen[0].Name)
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)

	rec, rsp := ts.do(t, http.MethodGet, "/v1/me", ts.token(t, map[string]interface{}{"user_id": 7, "name": "Player"}), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, float64(7), data["user_id"])
	assert.Equal(t, "Player", data["name"])

	rec, _ = ts.do(t, http.MethodGet, "/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStatusEndpoints(t *testing.T) {
	tests := []struct {
		path   string
		body   string
		target models.Status
	}{
		{path: "/v1/characters/4/activate", target: models.StatusActive},
		{path: "/v1/characters/4/kill", target: models.StatusDead},
		{path: "/v1/characters/4/retire", target: models.StatusRetired},
		{path: "/v1/characters/4/remove", target: models.StatusRemoved},
		{path: "/v1/characters/4/status", body: `{"status":"dead"}`, target: models.StatusDead},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ts := newTestServer(t)
			token := ts.token(t, map[string]interface{}{"user_id": 1})

			rec, rsp := ts.do(t, http.MethodPost, tt.path, token, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Len(t, ts.characters.statusCalls, 1)
			assert.Equal(t, statusCall{characterID: 4, target: tt.target, actor: 1}, ts.characters.statusCalls[0])

			data := rsp.Data.(map[string]interface{})
			assert.Equal(t, string(tt.target), data["status"])
		})
	}
}

func TestStatusErrors(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": 1})

	rec, _ := ts.do(t, http.MethodPost, "/v1/characters/4/status", token, `{"status":"zombie"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.characters.statusCalls)

	rec, _ = ts.do(t, http.MethodPost, "/v1/characters/abc/kill", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.characters.err = &models.AuthorizationError{Message: "only the campaign owner can mark a character as dead"}
	rec, rsp := ts.do(t, http.MethodPost, "/v1/characters/4/kill", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "only the campaign owner can mark a character as dead", rsp.Error)

	ts.characters.err = &models.InvalidTransitionError{From: models.StatusDead, To: models.StatusRetired, Message: "invalid status transition"}
	rec, _ = ts.do(t, http.MethodPost, "/v1/characters/4/retire", token, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestInviteResponses(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": "2"})

	rec, rsp := ts.do(t, http.MethodPost, "/v1/invites/9/respond", token, `{"response":"decline"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invite rejected", rsp.Message)

	rec, _ = ts.do(t, http.MethodPost, "/v1/invites/9/accept", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.InviteStatus{models.InviteRejected, models.InviteAccepted}, ts.invites.responses)

	rec, _ = ts.do(t, http.MethodPost, "/v1/invites/9/respond", token, `{"response":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.invites.err = models.ErrNotInvitee
	rec, _ = ts.do(t, http.MethodPost, "/v1/invites/9/accept", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.invites.err = models.ErrAlreadyResponded
	rec, _ = ts.do(t, http.MethodPost, "/v1/invites/9/decline", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.invites.err = nil
	rec, _ = ts.do(t, http.MethodGet, "/v1/invites?status=archived", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInvite(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": 2})

	rec, rsp := ts.do(t, http.MethodGet, "/v1/invites/9", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, float64(9), data["id"])
	assert.Equal(t, string(models.InvitePending), data["status"])

	rec, _ = ts.do(t, http.MethodGet, "/v1/invites/nine", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.invites.err = &models.AuthorizationError{Message: "you are not a member of this campaign"}
	rec, _ = ts.do(t, http.MethodGet, "/v1/invites/9", token, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.invites.err = models.ErrNotFound
	rec, _ = ts.do(t, http.MethodGet, "/v1/invites/9", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCampaignRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": 1})

	rec, rsp := ts.do(t, http.MethodPost, "/v1/campaigns", token, `{"name":"Lost Mines"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Lost Mines", rsp.Data.(map[string]interface{})["name"])

	rec, rsp = ts.do(t, http.MethodGet, "/v1/campaigns/3/logs", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	logs := rsp.Data.([]interface{})
	require.Len(t, logs, 2)
	assert.Equal(t, "Aria: ACTIVE → DEAD", logs[0].(map[string]interface{})["message"])

	rec, rsp = ts.do(t, http.MethodPost, "/v1/campaigns/3/invites", token, `{"user_id":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(2), rsp.Data.(map[string]interface{})["invited_user"])

	rec, rsp = ts.do(t, http.MethodPost, "/v1/campaigns/3/characters", token, `{"name":"Aria","strength":99}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := rsp.Data.(map[string]interface{})
	assert.Equal(t, float64(models.MaxAbilityScore), created["strength"])
	assert.Equal(t, float64(models.DefaultAbilityScore), created["dexterity"], "omitted scores keep the default")

	rec, _ = ts.do(t, http.MethodPost, "/v1/campaigns/3/characters", token, `{"name":"Aria","scores":{"strength":15}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "unknown keys are rejected")

	rec, _ = ts.do(t, http.MethodPatch, "/v1/campaigns/3", token, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.campaigns.err = models.ErrNotFound
	rec, _ = ts.do(t, http.MethodGet, "/v1/campaigns/3", token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCharacterRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": 2})

	rec, rsp := ts.do(t, http.MethodGet, "/v1/characters/5", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := rsp.Data.(map[string]interface{})
	assert.Equal(t, "Aria", data["name"])
	assert.Equal(t, float64(16), data["dexterity"])
	assert.Equal(t, float64(3), data["proficiency_bonus"])
	assert.Equal(t, float64(3), data["modifiers"].(map[string]interface{})["dexterity"])
	assert.Equal(t, float64(-1), data["modifiers"].(map[string]interface{})["charisma"])

	rec, rsp = ts.do(t, http.MethodPatch, "/v1/characters/5", token, `{"strength":15}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data = rsp.Data.(map[string]interface{})
	assert.Equal(t, float64(15), data["strength"])
	assert.Equal(t, float64(16), data["dexterity"])
	assert.Equal(t, float64(13), data["wisdom"])

	rec, _ = ts.do(t, http.MethodPatch, "/v1/characters/5", token, `{"strenght":15}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, rsp = ts.do(t, http.MethodGet, "/v1/characters?status=retired", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rsp.Data.([]interface{}), 1)

	rec, _ = ts.do(t, http.MethodPatch, "/v1/characters/5/skills/8", token, `{"proficiency_level":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, ts.characters.skillLevel)

	rec, rsp = ts.do(t, http.MethodPatch, "/v1/characters/5/skills/8", token, `{"proficiency_level":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, models.ErrInvalidProficiencyLevel.Error(), rsp.Error)

	rec, _ = ts.do(t, http.MethodPatch, "/v1/characters/5/skills/8", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.characters.err = models.ErrCharacterExists
	rec, _ = ts.do(t, http.MethodPost, "/v1/campaigns/3/characters", token, `{"name":"Twin"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReferenceRoutes(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token(t, map[string]interface{}{"user_id": 2})

	rec, rsp := ts.do(t, http.MethodGet, "/v1/features?class=4", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rsp.Data.([]interface{}), 1)

	rec, _ = ts.do(t, http.MethodGet, "/v1/features?class=barbarian", token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, rsp = ts.do(t, http.MethodGet, "/v1/origins", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, rsp.Data.([]interface{}), 1)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{models.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("get character: %w", models.ErrNotFound), http.StatusNotFound},
		{models.ErrNotInvitee, http.StatusForbidden},
		{models.ErrAlreadyResponded, http.StatusBadRequest},
		{models.ErrInviteExists, http.StatusConflict},
		{models.ErrCharacterExists, http.StatusConflict},
		{&models.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{&models.AuthorizationError{Message: "no"}, http.StatusForbidden},
		{&models.InvalidTransitionError{Message: "invalid status transition"}, http.StatusConflict},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}

	h := NewHandler(Services{}, "8080")
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ErrorResponse(rec, httptest.NewRequest(http.MethodGet, "/v1/x", nil), tt.err)
			assert.Equal(t, tt.code, rec.Code)

			var rsp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rsp))
			if tt.code == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", rsp.Error)
			} else {
				assert.Equal(t, tt.err.Error(), rsp.Error)
			}
		})
	}
}

func TestUserIDFromClaims(t *testing.T) {
	tests := []struct {
		name    string
		claims  map[string]interface{}
		want    models.UserID
		wantErr bool
	}{
		{name: "float", claims: map[string]interface{}{"user_id": float64(12)}, want: 12},
		{name: "int", claims: map[string]interface{}{"user_id": 12}, want: 12},
		{name: "json number", claims: map[string]interface{}{"user_id": json.Number("12")}, want: 12},
		{name: "string", claims: map[string]interface{}{"user_id": "12"}, want: 12},
		{name: "sub fallback", claims: map[string]interface{}{"sub": "44"}, want: 44},
		{name: "fraction", claims: map[string]interface{}{"user_id": 1.5}, wantErr: true},
		{name: "zero", claims: map[string]interface{}{"user_id": 0}, wantErr: true},
		{name: "garbage", claims: map[string]interface{}{"user_id": "abc"}, wantErr: true},
		{name: "bool", claims: map[string]interface{}{"user_id": true}, wantErr: true},
		{name: "missing", claims: map[string]interface{}{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := userIDFromClaims(tt.claims)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
