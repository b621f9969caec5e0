package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	_ "herms/docs"
	"herms/internal/auth"
	"herms/internal/config"
	"herms/internal/handler"
	"herms/internal/middleware"
	"herms/internal/server"
	"herms/internal/storage"
)

func setupServer(t *testing.T) (*server.Server, storage.Storage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ttl := time.Hour
	store := storage.NewMemStore(storage.NewClock())
	sessions := auth.NewManager(auth.NewSigner("test-secret", ttl), auth.NewMemoryStore(), ttl)

	s := server.New(server.Params{
		Config:   &config.Config{ServerPort: "0", SessionTTL: ttl},
		Logger:   zap.NewNop(),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Store:    store,
		Sessions: sessions,
	})
	return s, store
}

func request(s *server.Server, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, req)
	return resp
}

func sessionCookie(t *testing.T, resp *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHealthz(t *testing.T) {
	s, _ := setupServer(t)

	resp := request(s, http.MethodGet, "/healthz", nil, nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
}

func TestSwaggerDoc(t *testing.T) {
	s, _ := setupServer(t)

	resp := request(s, http.MethodGet, "/swagger/doc.json", nil, nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/auth/login")
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s, _ := setupServer(t)

	for _, path := range []string{"/api/projects", "/api/document-templates"} {
		resp := request(s, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, path)
		assert.JSONEq(t, `{"error":"Authentication required"}`, resp.Body.String())
	}
}

func TestLoginFlow(t *testing.T) {
	// Arrange
	s, store := setupServer(t)

	// Act: первый вход создаёт профиль
	resp := request(s, http.MethodPost, "/api/auth/login",
		handler.LoginRequest{Email: "jane.doe@example.com", Password: "ignored"}, nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var login handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))
	require.NotNil(t, login.User)
	require.NotNil(t, login.Session)
	require.NotNil(t, login.User.FullName)
	assert.Equal(t, "jane.doe", *login.User.FullName)
	assert.Equal(t, login.User.ID, login.Session.User.ID)

	cookie := sessionCookie(t, resp)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	profile, err := store.GetProfileByEmail(context.Background(), "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, profile.ID)

	// the second login reuses the profile
	again := request(s, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: "jane.doe@example.com"}, nil)
	var second handler.AuthResponse
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &second))
	assert.Equal(t, login.User.ID, second.User.ID)

	me := request(s, http.MethodGet, "/api/auth/user", nil, cookie)
	var current handler.AuthResponse
	require.NoError(t, json.Unmarshal(me.Body.Bytes(), &current))
	require.NotNil(t, current.User)
	assert.Equal(t, login.User.ID, current.User.ID)

	created := request(s, http.MethodPost, "/api/projects", gin.H{"title": "Launch"}, cookie)
	assert.Equal(t, http.StatusCreated, created.Code)

	out := request(s, http.MethodPost, "/api/auth/logout", nil, cookie)
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, -1, sessionCookie(t, out).MaxAge)

	// Act: после выхода старая кука больше не работает
	after := request(s, http.MethodGet, "/api/auth/user", nil, cookie)
	assert.JSONEq(t, `{"user":null}`, after.Body.String())
	assert.Equal(t, http.StatusUnauthorized, request(s, http.MethodGet, "/api/projects", nil, cookie).Code)
}

func TestDeleteOwnProfileEndsSession(t *testing.T) {
	// Arrange
	s, store := setupServer(t)
	resp := request(s, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: "leaver@example.com"}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	cookie := sessionCookie(t, resp)
	var login handler.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &login))

	// Act
	deleted := request(s, http.MethodDelete, "/api/profiles/"+login.User.ID.String(), nil, cookie)

	// Assert
	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())
	assert.Equal(t, -1, sessionCookie(t, deleted).MaxAge)

	_, err := store.GetProfile(context.Background(), login.User.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// старая кука больше не открывает сессию
	after := request(s, http.MethodGet, "/api/projects", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, after.Code)
}

func TestLoginValidation(t *testing.T) {
	s, _ := setupServer(t)

	resp := request(s, http.MethodPost, "/api/auth/login", gin.H{"email": "not-an-email"}, nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), `"email"`)
}
