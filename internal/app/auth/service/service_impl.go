package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobfolio/auth-service/internal/adapters/transport/http/dto"
	customErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/domain/auth/jwt"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
	"github.com/jobfolio/auth-service/internal/domain/auth/repo"
	"github.com/jobfolio/auth-service/internal/infra/config"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

type authService struct {
	userRepo  repo.UserRepo
	tokenRepo repo.TokenRepo
	mailer    repo.Mailer
	jwtUtil   jwt.JWTUtil
	cfg       *config.Config
	v         *validator.Validate
	log       *zap.Logger
}

type Service interface {
	Register(context.Context, dto.RegisterDTO) (model.TokenPair, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Validate(context.Context, dto.ValidateDTO) (model.User, error)
	Refresh(context.Context, dto.RefreshDTO) (model.TokenPair, error)
	Logout(context.Context, dto.LogoutDTO) error
	ForgotPassword(context.Context, dto.ForgotPasswordDTO) error
	ResetPassword(context.Context, dto.ResetPasswordDTO) error
	ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, in dto.UpdateProfileDTO) (model.User, error)
	ChangeRole(ctx context.Context, actor model.User, in dto.ChangeRoleDTO) error
	DeleteUser(ctx context.Context, actor model.User, userID string) error
	ListUsers(ctx context.Context, in dto.ListUsersDTO) ([]model.User, int64, error)
}

func New(
	ur repo.UserRepo,
	tr repo.TokenRepo,
	mailer repo.Mailer,
	jm jwt.JWTUtil,
	cfg *config.Config,
	v *validator.Validate,
	log *zap.Logger,
) Service {
	return &authService{
		userRepo: ur, tokenRepo: tr, mailer: mailer,
		jwtUtil: jm, cfg: cfg, v: v, log: log,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	passwordHash, err := argon2id.CreateHash(in.Password+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Register")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(in.Email),
		PasswordHash: passwordHash,
		FullName:     in.FullName,
		Role:         model.Role(in.Role),
		Enabled:      true,
	}
	// tokens first, insert last: a failed registration must leave nothing behind
	pair, err := a.issueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return model.TokenPair{}, err
	}
	if _, err = a.userRepo.CreateUser(ctx, user); err != nil {
		// the pre-stored refresh JTI never reached the caller
		_ = a.tokenRepo.Revoke(ctx, pair.RefreshTokenJTI, time.Now().Add(a.cfg.RefreshTokenTTL))
		if errors.Is(err, customErrors.ErrAlreadyExists) {
			return model.TokenPair{}, customErrors.ErrAlreadyExists
		}
		return model.TokenPair{}, err
	}

	return pair, nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(in.Email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// same failure as a wrong password so callers cannot probe for accounts
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		return model.TokenPair{}, err
	}

	if !user.Enabled {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	ok, err := argon2id.ComparePasswordAndHash(in.Password+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}
	if !ok {
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}

	return a.issueTokens(ctx, user.ID, user.Role)
}

func (a *authService) Validate(ctx context.Context, in dto.ValidateDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateAccessToken(in.AccessToken)
	if err != nil {
		return model.User{}, err
	}

	revoked, err := a.tokenRepo.IsAccessRevoked(ctx, claims.ID)
	if err != nil {
		return model.User{}, err
	}
	if revoked {
		return model.User{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.User{}, customErrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.User{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.User{}, err
	}
	if !user.Enabled {
		return model.User{}, customErrors.ErrInvalidToken
	}
	return user, nil
}

func (a *authService) Refresh(ctx context.Context, in dto.RefreshDTO) (model.TokenPair, error) {
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	revoked, err := a.tokenRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return model.TokenPair{}, err
	}
	if revoked {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return model.TokenPair{}, customErrors.ErrInvalidToken
	case err != nil:
		return model.TokenPair{}, err
	}
	if !user.Enabled {
		return model.TokenPair{}, customErrors.ErrInvalidToken
	}

	if !a.cfg.RefreshRotation {
		// policy off: the refresh token is reused, only a new access token is minted
		at, atExp, _, err := a.jwtUtil.GenerateAccessToken(uid, user.Role)
		if err != nil {
			return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
		}
		now := time.Now()
		return model.TokenPair{
			AccessToken:     at,
			RefreshToken:    in.RefreshToken,
			AccessTTL:       atExp.Sub(now),
			RefreshTTL:      claims.ExpiresAt.Sub(now),
			UserId:          uid,
			RefreshTokenJTI: claims.ID,
		}, nil
	}

	if err = a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return model.TokenPair{}, err
	}

	if in.AccessToken != "" {
		if acc, errAcc := a.jwtUtil.ValidateAccessToken(in.AccessToken); errAcc == nil {
			_ = a.tokenRepo.RevokeAccess(ctx, acc.ID, acc.ExpiresAt.Time)
		}
	}

	return a.issueTokens(ctx, uid, user.Role)
}

func (a *authService) Logout(ctx context.Context, in dto.LogoutDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateRefreshToken(in.RefreshToken)
	if err != nil {
		return err
	}

	if err := a.tokenRepo.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}

	acc, err := a.jwtUtil.ValidateAccessToken(in.AccessToken)
	if err == nil { // the access token may already be expired, that is fine
		_ = a.tokenRepo.RevokeAccess(ctx, acc.ID, acc.ExpiresAt.Time)
	}
	return nil
}

func (a *authService) ForgotPassword(ctx context.Context, in dto.ForgotPasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByEmail(ctx, strings.ToLower(in.Email))
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		// indistinguishable from the account-exists path
		return nil
	case err != nil:
		return err
	}
	if !user.Enabled {
		return nil
	}

	token, _, _, err := a.jwtUtil.GenerateResetToken(user.ID)
	if err != nil {
		return customErrors.WrapInternal(err, "GenerateResetToken")
	}

	link := a.cfg.ResetURLBase + "?token=" + url.QueryEscape(token)
	body := fmt.Sprintf(
		"Hi,\n\nA password reset was requested for your account. "+
			"Follow this link to set a new password:\n\n%s\n\n"+
			"The link expires in %s. If you did not request this, ignore this mail.\n",
		link, a.cfg.ResetTokenTTL,
	)
	if err := a.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		// delivery is best effort, the response must not change
		a.log.Error("enqueue reset mail",
			zap.String("user", fmt.Sprintf("%x", sha256.Sum256([]byte(user.Email)))),
			zap.Error(err),
		)
	}
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, in dto.ResetPasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	claims, err := a.jwtUtil.ValidateResetToken(in.ResetToken)
	if err != nil {
		return err
	}

	used, err := a.tokenRepo.IsConsumed(ctx, claims.ID)
	if err != nil {
		return err
	}
	if used {
		return customErrors.ErrInvalidToken
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return customErrors.ErrInvalidToken
	}
	user, err := a.userRepo.GetUserByID(ctx, uid)
	switch {
	case errors.Is(err, customErrors.ErrNotFound):
		return customErrors.ErrInvalidToken
	case err != nil:
		return err
	}
	if !user.Enabled {
		// a disabled account keeps its hash until an admin re-enables it
		return customErrors.ErrInvalidToken
	}

	hash, err := argon2id.CreateHash(in.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ResetPassword")
	}
	if err := a.userRepo.UpdatePasswordHash(ctx, uid, hash); err != nil {
		if errors.Is(err, customErrors.ErrNotFound) {
			return customErrors.ErrInvalidToken
		}
		return err
	}

	// mark the JTI used only after the hash is committed
	if err := a.tokenRepo.Consume(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	return nil
}

func (a *authService) ChangePassword(ctx context.Context, userID uuid.UUID, in dto.ChangePasswordDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := argon2id.ComparePasswordAndHash(in.OldPassword+a.cfg.PasswordPepper, user.PasswordHash)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	if !ok {
		return customErrors.ErrInvalidCredentials
	}

	hash, err := argon2id.CreateHash(in.NewPassword+a.cfg.PasswordPepper, argonParams)
	if err != nil {
		return customErrors.WrapInternal(err, "ChangePassword")
	}
	return a.userRepo.UpdatePasswordHash(ctx, userID, hash)
}

func (a *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, in dto.UpdateProfileDTO) (model.User, error) {
	if err := a.v.Struct(in); err != nil {
		return model.User{}, customErrors.NewInvalidArgument(err.Error())
	}

	user, err := a.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	user.FullName = in.FullName
	user.UpdatedAt = time.Now()
	if err := a.userRepo.UpdateUser(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (a *authService) ChangeRole(ctx context.Context, actor model.User, in dto.ChangeRoleDTO) error {
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}
	if actor.Role != model.RoleAdmin {
		return customErrors.ErrPermissionDenied
	}

	uid, err := uuid.Parse(in.UserID)
	if err != nil {
		return customErrors.NewInvalidArgument("malformed user id")
	}
	return a.userRepo.UpdateRole(ctx, uid, model.Role(in.Role))
}

// DeleteUser disables the target account; its row and email stay reserved.
func (a *authService) DeleteUser(ctx context.Context, actor model.User, userID string) error {
	if actor.Role != model.RoleAdmin {
		return customErrors.ErrPermissionDenied
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return customErrors.NewInvalidArgument("malformed user id")
	}
	if uid == actor.ID {
		return customErrors.NewInvalidArgument("cannot delete own account")
	}
	return a.userRepo.DeleteUser(ctx, uid)
}

func (a *authService) ListUsers(ctx context.Context, in dto.ListUsersDTO) ([]model.User, int64, error) {
	if err := a.v.Struct(in); err != nil {
		return nil, 0, customErrors.NewInvalidArgument(err.Error())
	}
	limit := in.Limit
	if limit == 0 {
		limit = 25
	}
	return a.userRepo.ListUsers(ctx, in.Skip, limit)
}

func (a *authService) issueTokens(ctx context.Context, uid uuid.UUID, role model.Role) (model.TokenPair, error) {
	at, atExp, _, err := a.jwtUtil.GenerateAccessToken(uid, role)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateAccessToken")
	}
	rt, rtExp, jti, err := a.jwtUtil.GenerateRefreshToken(uid)
	if err != nil {
		return model.TokenPair{}, customErrors.WrapInternal(err, "GenerateRefreshToken")
	}
	if err = a.tokenRepo.Store(ctx, jti, rtExp); err != nil {
		return model.TokenPair{}, err
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:     at,
		RefreshToken:    rt,
		AccessTTL:       atExp.Sub(now),
		RefreshTTL:      rtExp.Sub(now),
		UserId:          uid,
		RefreshTokenJTI: jti,
	}, nil
}
