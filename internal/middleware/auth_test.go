package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-123"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c).String())
	}
	r.GET("/optional", OptionalAuth(testSecret), whoami)
	r.GET("/required", RequireAuth(testSecret), whoami)
	return r
}

func doGet(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	r := newAuthRouter()
	userID := uuid.New()
	token, err := GenerateToken(userID, "nina", testSecret, time.Hour)
	require.NoError(t, err)

	w := doGet(r, "/required", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
	assert.Empty(t, w.Header().Get(RefreshHeader), "刚签发的 Token 不需要续期")

	w = doGet(r, "/optional", token)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestAuth_Rejections(t *testing.T) {
	r := newAuthRouter()

	w := doGet(r, "/required", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrong, err := GenerateToken(uuid.New(), "x", "another-secret", time.Hour)
	require.NoError(t, err)
	w = doGet(r, "/required", wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := GenerateToken(uuid.New(), "x", testSecret, -time.Minute)
	require.NoError(t, err)
	w = doGet(r, "/required", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 可选登录下无效 Token 视为匿名
	w = doGet(r, "/optional", wrong)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uuid.Nil.String(), w.Body.String())
}

func TestShouldRefresh(t *testing.T) {
	token, err := GenerateToken(uuid.New(), "x", testSecret, time.Hour)
	require.NoError(t, err)
	claims, _, err := extractClaimsFromString(token)
	require.NoError(t, err)
	assert.False(t, shouldRefresh(claims))

	claims.IssuedAt.Time = time.Now().Add(-40 * time.Minute)
	claims.ExpiresAt.Time = claims.IssuedAt.Time.Add(time.Hour)
	assert.True(t, shouldRefresh(claims))
}

func extractClaimsFromString(token string) (*Claims, uuid.UUID, error) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Authorization", "Bearer "+token)
	return extractClaims(c, testSecret)
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(), Logger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = doGet(r, "/ping", "")
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
