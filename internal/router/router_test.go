package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.campus/internal/config"
	"sudooom.im.campus/internal/gateway"
	"sudooom.im.campus/internal/handler"
	"sudooom.im.campus/internal/model"
	"sudooom.im.campus/internal/service"
	"sudooom.im.campus/internal/session"
	apperrors "sudooom.im.campus/shared/errors"
)

type stubMessaging struct{}

func (stubMessaging) SendMessage(context.Context, int64, int64, string) (*model.Message, error) {
	return nil, apperrors.ErrServerError
}

func (stubMessaging) Messages(context.Context, int64, int64) ([]*model.Message, error) {
	return nil, nil
}

func (stubMessaging) MarkRead(context.Context, int64, int64) error { return nil }

func (stubMessaging) UnreadCount(_ context.Context, userID int64) (int64, error) {
	return userID * 10, nil
}

func (stubMessaging) Conversations(context.Context, int64) ([]*model.ConversationSummary, error) {
	return nil, nil
}

func (stubMessaging) Contacts(context.Context, int64) ([]*model.User, error) { return nil, nil }

type stubAuth struct{ loggedOut string }

func (s *stubAuth) Register(_ context.Context, req *service.RegisterRequest) (*service.LoginResponse, error) {
	return &service.LoginResponse{UserID: 5, Username: req.Username, Role: "student", AccessToken: "fresh"}, nil
}

func (s *stubAuth) Login(_ context.Context, req *service.LoginRequest) (*service.LoginResponse, error) {
	return &service.LoginResponse{UserID: 1, Username: req.Username, AccessToken: "tok"}, nil
}

func (s *stubAuth) Refresh(context.Context, *service.RefreshRequest) (*service.LoginResponse, error) {
	return nil, apperrors.ErrTokenInvalid
}

func (s *stubAuth) Logout(_ context.Context, accessToken string) error {
	s.loggedOut = accessToken
	return nil
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, token string) (*session.Identity, error) {
	if token != "tok" {
		return nil, apperrors.ErrTokenInvalid
	}
	return &session.Identity{ID: 4, Username: "dave", Role: model.RoleStudent}, nil
}

type stubToucher struct{ touched int }

func (s *stubToucher) Touch(context.Context, int64) { s.touched++ }

type countingLimiter struct {
	limit int
	calls int
}

func (l *countingLimiter) Allow(context.Context, string) (bool, error) {
	l.calls++
	return l.calls <= l.limit, nil
}

func setup(t *testing.T, limiter *countingLimiter) (http.Handler, *stubAuth, *stubToucher) {
	t.Helper()

	gw, err := gateway.NewHandler(stubMessaging{}, time.Second)
	require.NoError(t, err)

	auth := &stubAuth{}
	toucher := &stubToucher{}
	cfg := &config.Config{
		App:       config.AppConfig{Mode: "test"},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST"}},
		RateLimit: config.RateLimitConfig{Enabled: true, RequestsPerMinute: limiter.limit},
	}

	r := SetupRouter(cfg, Dependencies{
		Resolver:    stubResolver{},
		Activity:    toucher,
		Limiter:     limiter,
		Gateway:     gw,
		AuthHandler: handler.NewAuthHandler(auth),
		Health:      http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
		Ready:       func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusServiceUnavailable) },
	})
	return r, auth, toucher
}

func graphqlRequest(query, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", bytes.NewBufferString(`{"query":"`+query+`"}`))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRouter_GraphQLWithSession(t *testing.T) {
	r, _, toucher := setup(t, &countingLimiter{limit: 100})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, graphqlRequest("{ unreadMessageCount }", "tok"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"unreadMessageCount":40}}`, w.Body.String())
	assert.Equal(t, 1, toucher.touched)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, graphqlRequest("{ unreadMessageCount }", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
	assert.NotContains(t, w.Body.String(), `"data"`)
	assert.Equal(t, 1, toucher.touched)
}

func TestRouter_AuthRoutes(t *testing.T) {
	r, auth, _ := setup(t, &countingLimiter{limit: 100})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{"username":"dave","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok"`)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		bytes.NewBufferString(`{"username":"erin","password":"secret123","university_id":"U7"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"fresh"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok", auth.loggedOut)
}

func TestRouter_RateLimitSkipsProbes(t *testing.T) {
	limiter := &countingLimiter{limit: 1}
	r, _, _ := setup(t, limiter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, graphqlRequest("{ unreadMessageCount }", "tok"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, graphqlRequest("{ unreadMessageCount }", "tok"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 2, limiter.calls)
}
