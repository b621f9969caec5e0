package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"herms/internal/auth"
	"herms/internal/middleware"
)

func setupRouter(sessions *auth.Manager, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.SessionAuth(sessions, log))

	// Защищенный маршрут
	protected := r.Group("/protected")
	protected.Use(middleware.RequireAuth())

	protected.GET("/resource", func(c *gin.Context) {
		userID, exists := middleware.CurrentUserID(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "User ID not found in context"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Access granted",
			"user_id": userID,
		})
	})

	return r
}

func newManager() *auth.Manager {
	return auth.NewManager(auth.NewSigner("test-secret-key", time.Hour), auth.NewMemoryStore(), time.Hour)
}

func TestSessionAuth_ValidCookie(t *testing.T) {
	// Arrange
	sessions := newManager()
	router := setupRouter(sessions, zap.NewNop())
	userID := uuid.New()
	_, token, err := sessions.Login(context.Background(), userID)
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Access granted")
	assert.Contains(t, resp.Body.String(), userID.String())
}

func TestSessionAuth_NoCookie(t *testing.T) {
	// Arrange
	router := setupRouter(newManager(), zap.NewNop())

	req, _ := http.NewRequest("GET", "/protected/resource", nil)

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), "Authentication required")
}

func TestSessionAuth_InvalidToken(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	router := setupRouter(newManager(), zap.New(core))

	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "invalid-token"})

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, logs.Len())
}

func TestSessionAuth_LoggedOut(t *testing.T) {
	// Arrange
	sessions := newManager()
	router := setupRouter(sessions, zap.NewNop())
	_, token, err := sessions.Login(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, sessions.Logout(context.Background(), token))

	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

// Хранилище сессий, которое недоступно при чтении
type unreachableStore struct {
	*auth.MemoryStore
}

func (unreachableStore) Get(ctx context.Context, id uuid.UUID) (auth.Session, error) {
	return auth.Session{}, errors.New("dial tcp: connection refused")
}

func TestSessionAuth_StoreFailureIsLogged(t *testing.T) {
	// Arrange
	core, logs := observer.New(zap.WarnLevel)
	sessions := auth.NewManager(auth.NewSigner("test-secret-key", time.Hour),
		unreachableStore{auth.NewMemoryStore()}, time.Hour)
	router := setupRouter(sessions, zap.New(core))
	_, token, err := sessions.Login(context.Background(), uuid.New())
	require.NoError(t, err)

	req, _ := http.NewRequest("GET", "/protected/resource", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})

	// Act
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	entries := logs.FilterMessage("failed to resolve session").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dial tcp: connection refused", entries[0].ContextMap()["error"])
	assert.Equal(t, "/protected/resource", entries[0].ContextMap()["path"])
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(middleware.RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(http.StatusNoContent), entries[0].ContextMap()["status"])
	assert.Equal(t, "/ok", entries[0].ContextMap()["path"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	r := gin.New()
	r.Use(middleware.Tracing(provider.Tracer("test")))
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/projects/42", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /projects/:id", spans[0].Name())
}
