package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jobfolio/auth-service/internal/adapters/transport/http/dto"
	appsvc "github.com/jobfolio/auth-service/internal/app/auth/service"
	authErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
)

const userKey = "auth.user"

// Authenticated gates a route on a valid, unrevoked access token. The token
// is taken from the Authorization header or the access_token cookie;
// verification failures are 401, a storage outage is 503.
func Authenticated(svc appsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		user, err := svc.Validate(c.Request.Context(), dto.ValidateDTO{AccessToken: token})
		if err != nil {
			switch {
			case authErrors.IsTokenExpired(err):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			case authErrors.IsUnavailable(err):
				// a storage outage is not the caller's fault
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			}
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated user holds the role.
// Must run after Authenticated.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}
