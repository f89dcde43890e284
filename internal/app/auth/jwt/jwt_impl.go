package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	jwt2 "github.com/jobfolio/auth-service/internal/domain/auth/jwt"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
	"github.com/jobfolio/auth-service/internal/infra/config"
)

type JwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	issuer     string
	audience   string
}

func NewJWTUtil(cfg *config.Config) (*JwtUtilImpl, error) {
	if cfg.JWTSecret == "" {
		return nil, customErrors.NewInvalidArgument("empty JWT secret")
	}

	return &JwtUtilImpl{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		resetTTL:   cfg.ResetTokenTTL,
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}, nil
}

func (j *JwtUtilImpl) registered(userID uuid.UUID, ttl time.Duration) (jwt.RegisteredClaims, string) {
	jti := uuid.NewString()
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    j.issuer,
		Audience:  jwt.ClaimStrings{j.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        jti,
	}, jti
}

func (j *JwtUtilImpl) GenerateAccessToken(userID uuid.UUID, role model.Role) (string, time.Time, string, error) {
	reg, jti := j.registered(userID, j.accessTTL)
	claims := jwt2.AccessClaims{RegisteredClaims: reg, Role: role, Kind: jwt2.KindAccess}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign access token")
	}
	return signed, claims.ExpiresAt.Time, jti, nil
}

func (j *JwtUtilImpl) GenerateRefreshToken(userID uuid.UUID) (string, time.Time, string, error) {
	reg, jti := j.registered(userID, j.refreshTTL)
	claims := jwt2.RefreshClaims{RegisteredClaims: reg, Kind: jwt2.KindRefresh}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign refresh token")
	}
	return signed, claims.ExpiresAt.Time, jti, nil
}

func (j *JwtUtilImpl) GenerateResetToken(userID uuid.UUID) (string, time.Time, string, error) {
	reg, jti := j.registered(userID, j.resetTTL)
	claims := jwt2.ResetClaims{RegisteredClaims: reg, Kind: jwt2.KindReset}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, "", customErrors.WrapInternal(err, "sign reset token")
	}
	return signed, claims.ExpiresAt.Time, jti, nil
}

// parse verifies signature and registered claims into dst and maps expiry
// separately from every other failure.
func (j *JwtUtilImpl) parse(raw string, dst jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, dst, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return j.secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(30*time.Second))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return customErrors.ErrTokenExpired
	case err != nil, !token.Valid:
		return customErrors.ErrInvalidToken
	}
	return nil
}

func (j *JwtUtilImpl) checkIssuerAudience(reg jwt.RegisteredClaims) error {
	if j.issuer != "" && reg.Issuer != j.issuer {
		return customErrors.ErrInvalidToken
	}
	if j.audience != "" {
		ok := false
		for _, a := range reg.Audience {
			if a == j.audience {
				ok = true
				break
			}
		}
		if !ok {
			return customErrors.ErrInvalidToken
		}
	}
	return nil
}

func (j *JwtUtilImpl) ValidateAccessToken(raw string) (jwt2.AccessClaims, error) {
	var claims jwt2.AccessClaims
	if err := j.parse(raw, &claims); err != nil {
		return jwt2.AccessClaims{}, err
	}
	if claims.Kind != jwt2.KindAccess {
		return jwt2.AccessClaims{}, customErrors.ErrInvalidToken
	}
	if err := j.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return jwt2.AccessClaims{}, err
	}
	return claims, nil
}

func (j *JwtUtilImpl) ValidateRefreshToken(raw string) (jwt2.RefreshClaims, error) {
	var claims jwt2.RefreshClaims
	if err := j.parse(raw, &claims); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	if claims.Kind != jwt2.KindRefresh {
		return jwt2.RefreshClaims{}, customErrors.ErrInvalidToken
	}
	if err := j.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	return claims, nil
}

func (j *JwtUtilImpl) ValidateResetToken(raw string) (jwt2.ResetClaims, error) {
	var claims jwt2.ResetClaims
	if err := j.parse(raw, &claims); err != nil {
		return jwt2.ResetClaims{}, err
	}
	if claims.Kind != jwt2.KindReset {
		return jwt2.ResetClaims{}, customErrors.ErrInvalidToken
	}
	if err := j.checkIssuerAudience(claims.RegisteredClaims); err != nil {
		return jwt2.ResetClaims{}, err
	}
	return claims, nil
}
