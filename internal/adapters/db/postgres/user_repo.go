package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"gorm.io/gorm"

	customErrors "github.com/jobfolio/auth-service/internal/domain/auth/errors"
	"github.com/jobfolio/auth-service/internal/domain/auth/model"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (p *UserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		// sqlite in tests reports the constraint in the message
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapUnavailable(err, "CreateUser")
	}
	return user.ID, nil
}

func (p *UserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapUnavailable(err, "GetUserByEmail")
	}
	return u, nil
}

func (p *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapUnavailable(err, "GetUserByID")
	}
	return u, nil
}

func (p *UserRepo) UpdateUser(ctx context.Context, user model.User) error {
	res := p.db.WithContext(ctx).Save(&user)
	if err := res.Error; err != nil {
		return customErrors.WrapUnavailable(err, "UpdateUser")
	}
	return nil
}

func (p *UserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": hash,
			"updated_at":    time.Now(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapUnavailable(err, "UpdatePasswordHash")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *UserRepo) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":       role,
			"updated_at": time.Now(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapUnavailable(err, "UpdateRole")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

// DeleteUser disables the account instead of removing the row.
func (p *UserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res := p.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"enabled":    false,
			"updated_at": time.Now(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapUnavailable(err, "DeleteUser")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (p *UserRepo) ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := p.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, customErrors.WrapUnavailable(err, "ListUsers")
	}
	res := p.db.WithContext(ctx).Order("created_at").Offset(offset).Limit(limit).Find(&users)
	if err := res.Error; err != nil {
		return nil, 0, customErrors.WrapUnavailable(err, "ListUsers")
	}
	return users, total, nil
}
