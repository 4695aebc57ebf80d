package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talentedge_backend/internal/config"
	"talentedge_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func reviewerRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	r := gin.New()
	g := r.Group("/api/reviewer")
	g.Use(AuthMiddleware(cfg), RoleMiddleware(util.RoleReviewer))
	g.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "%d", util.GetUserFromContext(c).UserID)
	})
	return r
}

func call(t *testing.T, r *gin.Engine, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/reviewer/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_Roles(t *testing.T) {
	r := reviewerRouter()

	tests := []struct {
		role util.Role
		code int
	}{
		{role: util.RoleReviewer, code: http.StatusOK},
		{role: util.RoleAdmin, code: http.StatusOK},
		{role: util.Role("candidate"), code: http.StatusForbidden},
	}
	for _, tc := range tests {
		token, err := util.GenerateJWT(42, tc.role, "r@example.com", testSecret, time.Hour)
		require.NoError(t, err)

		w := call(t, r, token)
		assert.Equal(t, tc.code, w.Code, string(tc.role))
		if tc.code == http.StatusOK {
			assert.Equal(t, "42", w.Body.String())
		}
	}
}

func TestAuth_RejectsBadTokens(t *testing.T) {
	r := reviewerRouter()

	assert.Equal(t, http.StatusUnauthorized, call(t, r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, "not-a-jwt").Code)

	expired, err := util.GenerateJWT(1, util.RoleReviewer, "", testSecret, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, expired).Code)

	wrongKey, err := util.GenerateJWT(1, util.RoleReviewer, "", "another-secret-another-secret-xx", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, wrongKey).Code)

	// 算法混淆：密钥正确的 HS512 token 仍被拒绝
	claims := &util.Claims{UserID: 1, Role: util.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call(t, r, hs512).Code)
}
