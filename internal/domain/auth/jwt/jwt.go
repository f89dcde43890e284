package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jobfolio/auth-service/internal/domain/auth/model"
)

// Token kinds. A token of one kind must never validate as another.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
	KindReset   = "reset"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
	Kind string     `json:"kind"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// ResetClaims is carried by the single-use password-reset token sent by mail.
type ResetClaims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

type JWTUtil interface {
	GenerateAccessToken(userID uuid.UUID, role model.Role) (token string, exp time.Time, jti string, err error)
	GenerateRefreshToken(userID uuid.UUID) (token string, exp time.Time, jti string, err error)
	GenerateResetToken(userID uuid.UUID) (token string, exp time.Time, jti string, err error)
	ValidateAccessToken(token string) (claims AccessClaims, err error)
	ValidateRefreshToken(token string) (claims RefreshClaims, err error)
	ValidateResetToken(token string) (claims ResetClaims, err error)
}
