package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobfolio/auth-service/internal/adapters/transport/http/dto"
	authErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
	"github.com/jobfolio/auth-service/internal/infra/config"
)

type svcStub struct {
	user        model.User
	loginErr    error
	resetErr    error
	validateErr error
	forgotHit   bool
	deletedID   string
}

func (s *svcStub) pair() model.TokenPair {
	return model.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		AccessTTL:    time.Minute,
		RefreshTTL:   time.Hour,
		UserId:       s.user.ID,
	}
}

func (s *svcStub) Register(context.Context, dto.RegisterDTO) (model.TokenPair, error) {
	return s.pair(), nil
}
func (s *svcStub) Login(context.Context, dto.LoginDTO) (model.TokenPair, error) {
	if s.loginErr != nil {
		return model.TokenPair{}, s.loginErr
	}
	return s.pair(), nil
}
func (s *svcStub) Validate(_ context.Context, in dto.ValidateDTO) (model.User, error) {
	if s.validateErr != nil {
		return model.User{}, s.validateErr
	}
	if in.AccessToken != "access" {
		return model.User{}, authErrors.ErrInvalidToken
	}
	return s.user, nil
}
func (s *svcStub) Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error) {
	return s.pair(), nil
}
func (s *svcStub) Logout(context.Context, dto.LogoutDTO) error { return nil }
func (s *svcStub) ForgotPassword(context.Context, dto.ForgotPasswordDTO) error {
	s.forgotHit = true
	return nil
}
func (s *svcStub) ResetPassword(context.Context, dto.ResetPasswordDTO) error {
	return s.resetErr
}
func (s *svcStub) ChangePassword(context.Context, uuid.UUID, dto.ChangePasswordDTO) error {
	return nil
}
func (s *svcStub) UpdateProfile(_ context.Context, _ uuid.UUID, in dto.UpdateProfileDTO) (model.User, error) {
	u := s.user
	u.FullName = in.FullName
	return u, nil
}
func (s *svcStub) ChangeRole(context.Context, model.User, dto.ChangeRoleDTO) error {
	return nil
}
func (s *svcStub) DeleteUser(_ context.Context, actor model.User, userID string) error {
	if actor.Role != model.RoleAdmin {
		return authErrors.ErrPermissionDenied
	}
	s.deletedID = userID
	return nil
}
func (s *svcStub) ListUsers(context.Context, dto.ListUsersDTO) ([]model.User, int64, error) {
	return []model.User{s.user}, 1, nil
}

func newRouter(s *svcStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(s, &config.Config{CookieDomain: "jobfolio.test"}, zap.NewNop())
	h.Register(router)
	return router
}

func seekerStub() *svcStub {
	return &svcStub{user: model.User{
		ID:      uuid.New(),
		Email:   "u@example.com",
		Role:    model.RoleSeeker,
		Enabled: true,
	}}
}

func TestHandler_LoginSetsCookies(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"u@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	names := make([]string, 0, len(cookies))
	for _, ck := range cookies {
		names = append(names, ck.Name)
		require.True(t, ck.HttpOnly)
	}
	require.Contains(t, names, "access_token")
	require.Contains(t, names, "refresh_token")
}

func TestHandler_LoginInvalidCredentials(t *testing.T) {
	s := seekerStub()
	s.loginErr = authErrors.ErrInvalidCredentials
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"email":"u@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")
}

func TestHandler_LoginBadBody(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_ForgotPasswordAlwaysOK(t *testing.T) {
	s := seekerStub()
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/forgot-password",
		strings.NewReader(`{"email":"whoever@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, s.forgotHit)
}

func TestHandler_ResetPasswordExpired(t *testing.T) {
	s := seekerStub()
	s.resetErr = authErrors.ErrTokenExpired
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodPost, "/reset-password",
		strings.NewReader(`{"reset_token":"t","new_password":"Aa1aaaaa"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "token expired")
}

func TestHandler_MeRequiresToken(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer access")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "u@example.com")
}

func TestHandler_UsersRequiresAdmin(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_UsersAsAdmin(t *testing.T) {
	s := seekerStub()
	s.user.Role = model.RoleAdmin
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/users?skip=0&limit=10", nil)
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"total":1`)
}

func TestHandler_MeStorageUnavailable(t *testing.T) {
	s := seekerStub()
	s.validateErr = authErrors.WrapUnavailable(context.DeadlineExceeded, "IsAccessRevoked")
	router := newRouter(s)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "storage unavailable")
}

func TestHandler_UpdateProfile(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodPatch, "/me",
		strings.NewReader(`{"full_name":"New Name"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "New Name")
}

func TestHandler_DeleteUserAsAdmin(t *testing.T) {
	s := seekerStub()
	s.user.Role = model.RoleAdmin
	router := newRouter(s)

	target := uuid.NewString()
	req := httptest.NewRequest(http.MethodDelete, "/users/"+target, nil)
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, target, s.deletedID)
}

func TestHandler_DeleteUserRequiresAdmin(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodDelete, "/users/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer access")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_Health(t *testing.T) {
	router := newRouter(seekerStub())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}
