package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/handler"
	"github.com/user/tubeview/internal/memstore"
	"github.com/user/tubeview/internal/router"
	"github.com/user/tubeview/internal/service"
	"github.com/user/tubeview/internal/utils"
)

type fakeVisits struct {
	err error
}

func (f *fakeVisits) GetRecentVisits(_ context.Context, _ string) ([]service.Visit, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := service.Visit{Timestamp: time.Now().UnixMilli()}
	v.Confidence.Score = 0.99
	return []service.Visit{v}, nil
}

type apiEnv struct {
	r      *gin.Engine
	visits *fakeVisits
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("APP_SECRET", "handler-test-secret")
	cfg := config.Load()
	require.NoError(t, cfg.Validate())

	store := memstore.New()
	visits := &fakeVisits{}
	catalog := service.NewVideoCatalog(store.Videos(), 100, time.Minute)
	oracle := service.NewSubscriptionOracle(store.Subscriptions())
	views := service.NewViewService(service.ViewServiceDeps{
		Catalog:  catalog,
		Oracle:   oracle,
		Views:    store.Views(),
		Pointers: store.Pointers(),
		Tx:       store,
		Fraud:    service.NewFraudChecker(visits, cfg.View, time.Second),
		Counts:   utils.NewMemoryCountCache(time.Minute),
		Config:   cfg.View,
	})
	h := handler.NewHandler(cfg, handler.Services{
		Users:        service.NewUserService(store.Users(), store.Subscriptions()),
		Videos:       service.NewVideoService(catalog, oracle, store.Videos(), store.Likes(), views),
		Views:        views,
		Interactions: service.NewInteractionService(views, store.Likes(), store.Comments()),
	})

	r := gin.New()
	router.RegisterRoutes(r, h)
	return &apiEnv{r: r, visits: visits}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Reason  string          `json:"reason"`
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func (e *apiEnv) register(t *testing.T, name string) (string, uuid.UUID) {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": name + "@example.com", "username": name, "password": "password123",
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out.Token, out.User.ID
}

func (e *apiEnv) createVideo(t *testing.T, token, visibility string, duration float64) uuid.UUID {
	t.Helper()
	code, res := e.do(t, http.MethodPost, "/api/videos", token, map[string]any{
		"title": "demo", "duration": duration, "visibility": visibility,
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	var v handler.VideoDTO
	require.NoError(t, json.Unmarshal(res.Data, &v))
	return v.ID
}

func TestAPI_Health(t *testing.T) {
	e := newAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_AuthFlow(t *testing.T) {
	e := newAPI(t)
	token, id := e.register(t, "olga")

	code, res := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "olga@example.com", "username": "olga2", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, 5000, res.Code)

	code, res = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "olga@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 5002, res.Code)

	code, res = e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "bad", "username": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 5003, res.Code)

	code, res = e.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var me handler.UserDTO
	require.NoError(t, json.Unmarshal(res.Data, &me))
	assert.Equal(t, id, me.ID)

	code, _ = e.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAPI_ViewLifecycle(t *testing.T) {
	e := newAPI(t)
	ownerToken, _ := e.register(t, "pete")
	viewerToken, _ := e.register(t, "quinn")
	videoID := e.createVideo(t, ownerToken, "everyone", 120)

	code, res := e.do(t, http.MethodPost, "/api/views", viewerToken, map[string]any{
		"video_id": videoID, "fingerprint": "fp-quinn", "stop_timecode": 150.0, "viewing_time": 30.5,
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	var view handler.ViewDTO
	require.NoError(t, json.Unmarshal(res.Data, &view))
	assert.True(t, view.Counted)
	assert.InDelta(t, 120.0, view.StopTimecode, 1e-9, "超出时长截断")

	code, res = e.do(t, http.MethodGet, "/api/videos/"+videoID.String()+"/views", "", nil)
	require.Equal(t, http.StatusOK, code)
	var count struct {
		Views int64 `json:"views"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &count))
	assert.EqualValues(t, 1, count.Views)

	code, res = e.do(t, http.MethodGet, "/api/videos/"+videoID.String()+"/resume", viewerToken, nil)
	require.Equal(t, http.StatusOK, code)
	var resume struct {
		Position *float64 `json:"position"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &resume))
	require.NotNil(t, resume.Position)
	assert.InDelta(t, 120.0, *resume.Position, 1e-9)

	code, _ = e.do(t, http.MethodDelete, "/api/views/"+videoID.String(), viewerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, res = e.do(t, http.MethodDelete, "/api/views/"+videoID.String(), viewerToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 9003, res.Code)

	code, res = e.do(t, http.MethodGet, "/api/videos/"+videoID.String()+"/resume", viewerToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &resume))
	assert.Nil(t, resume.Position)
}

func TestAPI_RecordViewHugeTimecodeIsClamped(t *testing.T) {
	e := newAPI(t)
	ownerToken, _ := e.register(t, "uma")
	videoID := e.createVideo(t, ownerToken, "everyone", 120)

	code, res := e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": videoID, "fingerprint": "fp-uma", "stop_timecode": 1e11, "viewing_time": 1e11,
	})
	require.Equal(t, http.StatusCreated, code, res.Message)
	var view handler.ViewDTO
	require.NoError(t, json.Unmarshal(res.Data, &view))
	assert.InDelta(t, 120.0, view.StopTimecode, 1e-9)
	assert.True(t, view.Counted)
}

func TestAPI_RecordViewErrors(t *testing.T) {
	e := newAPI(t)
	ownerToken, _ := e.register(t, "rita")
	public := e.createVideo(t, ownerToken, "everyone", 60)
	private := e.createVideo(t, ownerToken, "subscribers", 60)

	code, res := e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": public, "fingerprint": "fp", "stop_timecode": 1, "viewing_time": -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 9002, res.Code)
	assert.NotEmpty(t, res.Reason)

	code, res = e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": public, "stop_timecode": 1, "viewing_time": 20,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 5003, res.Code, "缺少指纹")

	code, res = e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": private, "fingerprint": "fp", "stop_timecode": 1, "viewing_time": 20,
	})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, 5005, res.Code)

	code, res = e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": uuid.New(), "fingerprint": "fp", "stop_timecode": 1, "viewing_time": 20,
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 6001, res.Code)

	e.visits.err = errors.New("fingerprint service down")
	code, res = e.do(t, http.MethodPost, "/api/views", "", map[string]any{
		"video_id": public, "fingerprint": "fp", "stop_timecode": 1, "viewing_time": 20,
	})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, 9000, res.Code)
}

func TestAPI_VideoVisibility(t *testing.T) {
	e := newAPI(t)
	ownerToken, ownerID := e.register(t, "sam")
	fanToken, _ := e.register(t, "tina")
	subsOnly := e.createVideo(t, ownerToken, "subscribers", 60)
	e.createVideo(t, ownerToken, "everyone", 60)

	code, _ := e.do(t, http.MethodGet, "/api/videos/"+subsOnly.String(), fanToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.do(t, http.MethodPost, "/api/subscriptions/"+ownerID.String(), fanToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, res := e.do(t, http.MethodGet, "/api/videos/"+subsOnly.String(), fanToken, nil)
	require.Equal(t, http.StatusOK, code)
	var detail handler.VideoDetailDTO
	require.NoError(t, json.Unmarshal(res.Data, &detail))
	assert.Equal(t, subsOnly, detail.ID)
	assert.InDelta(t, 60.0, detail.Duration, 1e-9)

	var list []handler.VideoDTO
	code, res = e.do(t, http.MethodGet, "/api/users/"+ownerID.String()+"/videos", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &list))
	assert.Len(t, list, 1)

	code, res = e.do(t, http.MethodGet, "/api/videos?limit=10&page=1", fanToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &list))
	assert.Len(t, list, 2)

	code, _ = e.do(t, http.MethodDelete, "/api/videos/"+subsOnly.String(), fanToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(t, http.MethodDelete, "/api/videos/"+subsOnly.String(), ownerToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, res = e.do(t, http.MethodGet, "/api/videos/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 5003, res.Code)
}

func TestAPI_RatingsAndComments(t *testing.T) {
	e := newAPI(t)
	ownerToken, _ := e.register(t, "uma")
	userToken, _ := e.register(t, "vic")
	videoID := e.createVideo(t, ownerToken, "authenticated", 60)
	base := "/api/videos/" + videoID.String()

	code, _ := e.do(t, http.MethodPut, base+"/rating", userToken, map[string]string{"status": "like"})
	require.Equal(t, http.StatusOK, code)
	code, res := e.do(t, http.MethodPut, base+"/rating", userToken, map[string]string{"status": "meh"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 5003, res.Code)

	code, res = e.do(t, http.MethodGet, base+"/likes", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var counts service.LikeCounts
	require.NoError(t, json.Unmarshal(res.Data, &counts))
	assert.EqualValues(t, 1, counts.Likes)

	code, _ = e.do(t, http.MethodGet, base+"/likes", "", nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = e.do(t, http.MethodDelete, base+"/rating", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, res = e.do(t, http.MethodDelete, base+"/rating", userToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, 8001, res.Code)

	code, res = e.do(t, http.MethodPost, base+"/comments", userToken, map[string]string{"text": "great"})
	require.Equal(t, http.StatusCreated, code)
	var comment struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &comment))

	code, res = e.do(t, http.MethodGet, base+"/comments", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var comments []map[string]any
	require.NoError(t, json.Unmarshal(res.Data, &comments))
	assert.Len(t, comments, 1)

	code, _ = e.do(t, http.MethodDelete, "/api/comments/"+comment.ID.String(), ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = e.do(t, http.MethodDelete, "/api/comments/"+comment.ID.String(), userToken, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestAPI_SubscriptionsAndViewed(t *testing.T) {
	e := newAPI(t)
	ownerToken, ownerID := e.register(t, "walt")
	fanToken, fanID := e.register(t, "xena")
	videoID := e.createVideo(t, ownerToken, "everyone", 60)

	code, _ := e.do(t, http.MethodPost, "/api/subscriptions/"+ownerID.String(), fanToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, res := e.do(t, http.MethodGet, "/api/me/subscribers", ownerToken, nil)
	require.Equal(t, http.StatusOK, code)
	var users []handler.UserDTO
	require.NoError(t, json.Unmarshal(res.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, fanID, users[0].ID)

	code, res = e.do(t, http.MethodGet, "/api/me/subscriptions", fanToken, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &users))
	require.Len(t, users, 1)
	assert.Equal(t, ownerID, users[0].ID)

	code, _ = e.do(t, http.MethodPost, "/api/views", fanToken, map[string]any{
		"video_id": videoID, "fingerprint": "fp", "stop_timecode": 10, "viewing_time": 20,
	})
	require.Equal(t, http.StatusCreated, code)

	code, res = e.do(t, http.MethodGet, "/api/me/viewed", fanToken, nil)
	require.Equal(t, http.StatusOK, code)
	var viewed []handler.VideoDTO
	require.NoError(t, json.Unmarshal(res.Data, &viewed))
	require.Len(t, viewed, 1)
	assert.Equal(t, videoID, viewed[0].ID)

	code, _ = e.do(t, http.MethodDelete, "/api/subscriptions/"+ownerID.String(), fanToken, nil)
	assert.Equal(t, http.StatusOK, code)
}
