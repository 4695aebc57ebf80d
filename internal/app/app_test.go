package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"talentedge_backend/internal/config"
	"talentedge_backend/internal/controller"
	"talentedge_backend/internal/service"
	"talentedge_backend/internal/util"
	"talentedge_backend/pkg/locker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func testApp(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: secret},
		Grading: config.GradingConfig{AICallInterval: time.Second, Workers: 1, LockBackend: "local"},
	}

	a := &App{Config: cfg}
	a.services = &services{pacer: service.NewRatePacer(cfg.Grading.AICallInterval)}

	r := gin.New()
	a.registerRoutes(r, &controllers{
		evaluation: controller.NewEvaluationController(nil, nil),
		health:     &controller.HealthController{},
	}, cfg)
	return a, r
}

func TestReviewerRoutesRequireAuth(t *testing.T) {
	_, r := testApp(t)

	paths := []struct{ method, path string }{
		{http.MethodPost, "/api/reviewer/attempts/1/evaluate"},
		{http.MethodPost, "/api/reviewer/attempts/evaluate"},
		{http.MethodGet, "/api/reviewer/attempts/1/summary"},
		{http.MethodPut, "/api/reviewer/responses/1/score"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.path)
	}

	token, err := util.GenerateJWT(5, util.Role("candidate"), "", secret, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/reviewer/attempts/1/summary", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApplyReload(t *testing.T) {
	a, _ := testApp(t)

	var seen *config.Config
	a.RegisterConfigCallback(func(c *config.Config) { seen = c })

	newCfg := &config.Config{Grading: config.GradingConfig{AICallInterval: 200 * time.Millisecond}}
	a.applyReload(newCfg)

	assert.Equal(t, 200*time.Millisecond, a.Config.Grading.AICallInterval)
	assert.Same(t, newCfg, seen)
}

func TestNewLocker(t *testing.T) {
	a := &App{}
	assert.IsType(t, &locker.Local{}, a.newLocker(&config.Config{Grading: config.GradingConfig{LockBackend: "local"}}))
}

func TestSwaggerDocServed(t *testing.T) {
	_, r := testApp(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, path := range []string{
		"/api/health",
		"/api/reviewer/attempts/evaluate",
		"/api/reviewer/attempts/{id}/evaluate",
		"/api/reviewer/attempts/{id}/summary",
		"/api/reviewer/responses/{id}/score",
	} {
		assert.Contains(t, body, `"`+path+`"`)
	}
	assert.Contains(t, body, `"basePath": "/"`)
}
