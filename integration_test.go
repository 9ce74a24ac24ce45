package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tasklist/backend/internal/config"
	"tasklist/backend/internal/models"
	"tasklist/backend/internal/repositories"
	"tasklist/backend/internal/testutil"
	"tasklist/backend/internal/worker"
)

const integrationSecret = "integration-secret"

func setTestEnv(t *testing.T, redisAddr *miniredis.Miniredis) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("DB_LOG_LEVEL", "silent")
	t.Setenv("JWT_SECRET", integrationSecret)
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("SWEEP_TIMEZONE", "UTC")
	if redisAddr == nil {
		t.Setenv("REDIS_ENABLED", "false")
		return
	}
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_HOST", redisAddr.Host())
	t.Setenv("REDIS_PORT", redisAddr.Port())
	t.Setenv("REDIS_MAX_RETRIES", "-1")
}

func newTestApp(t *testing.T, mr *miniredis.Miniredis) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setTestEnv(t, mr)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	a, err := newApp(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.close)
	return a
}

func bearer(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(integrationSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(a *app, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0 6 * * *", cfg.Sweep.Schedule)
	assert.False(t, cfg.Sweep.EnableDelete)
	assert.Equal(t, "America/Chicago", cfg.SweepLocation().String())
	assert.Equal(t, []string{"maintenance"}, cfg.Worker.Queues)
}

func TestApplicationWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newTestApp(t, mr)

	w := serve(a, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"redis"`)

	seed := testutil.NewSeeder(t, repositories.NewStore(a.pool.DB))
	user := seed.User(models.AutoDeleteOneWeek, false)
	list := seed.List(user.ID, "Inbox", false)
	auth := bearer(t, user.ID, "user")

	w = serve(a, http.MethodPost, "/tasks", auth, map[string]interface{}{
		"taskName": "water plants",
		"listId":   list.ID,
		"dueDate":  "2024-03-20",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(a, http.MethodGet, "/settings", auth, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"autoDeleteTasks":"7"`)

	require.NoError(t, a.triggerSweep(context.Background(), true))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	size, err := worker.NewJobQueue(client).GetQueueSize(context.Background(), worker.DefaultQueue)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}

func TestApplicationInlineSweep(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Nil(t, a.worker)

	seed := testutil.NewSeeder(t, repositories.NewStore(a.pool.DB))
	user := seed.User(models.AutoDeleteOneWeek, false)
	list := seed.List(user.ID, "Inbox", false)
	seed.Task(list.ID, "old", testutil.CompletedOn(testutil.Day(2020, time.January, 6)))
	seed.Task(list.ID, "open")

	require.NoError(t, a.triggerSweep(context.Background(), false))

	var remaining int64
	require.NoError(t, a.pool.DB.Model(&models.Task{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	w := serve(a, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sweeps"`)
	assert.Contains(t, w.Body.String(), `"l1_entries"`)
	assert.Contains(t, w.Body.String(), `"max_open_connections"`)
}
