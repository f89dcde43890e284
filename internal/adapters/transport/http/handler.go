package http

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobfolio/auth-service/internal/adapters/transport/http/dto"
	"github.com/jobfolio/auth-service/internal/adapters/transport/http/middleware"
	appsvc "github.com/jobfolio/auth-service/internal/app/auth/service"
	authErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
	"github.com/jobfolio/auth-service/internal/infra/config"
)

type Handler struct {
	svc appsvc.Service
	cfg *config.Config
	log *zap.Logger
}

func NewHandler(svc appsvc.Service, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{svc: svc, cfg: cfg, log: log}
}

func (h *Handler) Register(router *gin.Engine) {
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.POST("/refresh", h.refresh)
	router.POST("/logout", h.logout)
	router.POST("/forgot-password", h.forgotPassword)
	router.POST("/reset-password", h.resetPassword)
	router.GET("/health", h.health)

	authed := router.Group("/", middleware.Authenticated(h.svc))
	authed.GET("/me", h.me)
	authed.PATCH("/me", h.updateProfile)
	authed.POST("/change-password", h.changePassword)

	admin := authed.Group("/", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/users", h.listUsers)
	admin.PATCH("/users/:id/role", h.changeRole)
	admin.DELETE("/users/:id", h.deleteUser)
}

// issueTokens sets the pair as httpOnly cookies and echoes the expiry.
func (h *Handler) issueTokens(c *gin.Context, pair model.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		"access_token",
		pair.AccessToken,
		int(pair.AccessTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true, // secure
		true, // httpOnly
	)

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		"refresh_token",
		pair.RefreshToken,
		int(pair.RefreshTTL.Seconds()),
		"/",
		h.cfg.CookieDomain,
		true,
		true,
	)

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
		"expiresIn":    int(pair.AccessTTL.Seconds()),
		"userId":       pair.UserId.String(),
	})
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("/register",
		zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Email)))),
	)
	pair, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Info("/login",
		zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(body.Email)))),
	)
	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.issueTokens(c, pair)
}

func (h *Handler) logout(c *gin.Context) {
	var body dto.LogoutDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.Logout(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var body dto.ForgotPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	// identical response whether or not the account exists
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset link has been sent"})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var body dto.ResetPasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID.String(),
		"email":     user.Email,
		"fullName":  user.FullName,
		"role":      user.Role,
		"createdAt": user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) updateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var body dto.UpdateProfileDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.svc.UpdateProfile(c.Request.Context(), user.ID, body)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       updated.ID.String(),
		"email":    updated.Email,
		"fullName": updated.FullName,
		"role":     updated.Role,
	})
}

func (h *Handler) changePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var body dto.ChangePasswordDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, body); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *Handler) listUsers(c *gin.Context) {
	var q dto.ListUsersDTO
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	users, total, err := h.svc.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.handleError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"id":        u.ID.String(),
			"email":     u.Email,
			"fullName":  u.FullName,
			"role":      u.Role,
			"enabled":   u.Enabled,
			"createdAt": u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out, "total": total})
}

func (h *Handler) changeRole(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in := dto.ChangeRoleDTO{UserID: c.Param("id"), Role: body.Role}
	if err := h.svc.ChangeRole(c.Request.Context(), actor, in); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

func (h *Handler) deleteUser(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user disabled"})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Unix()})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case authErrors.IsInvalidArgument(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case authErrors.IsInvalidCredentials(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case authErrors.IsTokenExpired(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
	case authErrors.IsInvalidToken(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case authErrors.IsAlreadyExists(err):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case authErrors.IsPermissionDenied(err):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case authErrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case authErrors.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
