package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/relay/config"
	"github.com/crewlink/relay/internal/handlers"
	"github.com/crewlink/relay/internal/middleware"
	"github.com/crewlink/relay/internal/relay"
)

func adminRouter(cfg *config.Config, r *relay.Relay) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api := router.Group("/api")
	api.POST("/auth/login", handlers.Login(cfg))
	api.GET("/stats", middleware.JWTAuth(cfg.JWTSecret), handlers.Stats(r))
	api.GET("/rooms/:code", middleware.JWTAuth(cfg.JWTSecret), handlers.GetRoom(r))
	return router
}

func adminConfig() *config.Config {
	return &config.Config{
		JWTSecret: "test-secret",
		AdminUser: "admin",
		AdminPass: "hunter2",
	}
}

func login(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	router := adminRouter(adminConfig(), relay.New(nil))

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "valid credentials", body: `{"username":"admin","password":"hunter2"}`, code: http.StatusOK},
		{name: "wrong password", body: `{"username":"admin","password":"nope"}`, code: http.StatusUnauthorized},
		{name: "wrong user", body: `{"username":"root","password":"hunter2"}`, code: http.StatusUnauthorized},
		{name: "missing fields", body: `{"username":"admin"}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := login(t, router, tt.body)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				var resp handlers.LoginResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
			}
		})
	}
}

func TestLoginDisabledWithoutPassword(t *testing.T) {
	cfg := adminConfig()
	cfg.AdminPass = ""
	router := adminRouter(cfg, relay.New(nil))

	w := login(t, router, `{"username":"admin","password":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = login(t, router, `{"username":"admin","password":"anything"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatsRequiresToken(t *testing.T) {
	router := adminRouter(adminConfig(), relay.New(nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatsAndRoomSnapshot(t *testing.T) {
	cfg := adminConfig()
	r := relay.New(nil)
	a := &stubPeer{id: "a"}
	b := &stubPeer{id: "b"}
	r.Connect(a)
	r.Connect(b)
	r.Join(a, "ABCD", 1)
	r.Join(b, "ABCD", 2)
	router := adminRouter(cfg, r)

	w := login(t, router, `{"username":"admin","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp handlers.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var stats handlers.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.OpenRooms)
	assert.Equal(t, 2, stats.ConnectedPlayers)
	assert.Equal(t, map[string]int{"ABCD": 2}, stats.Rooms)

	req = httptest.NewRequest(http.MethodGet, "/api/rooms/ABCD", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var room handlers.RoomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.Equal(t, "ABCD", room.Code)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, room.Members)

	req = httptest.NewRequest(http.MethodGet, "/api/rooms/NONE", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
