package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is assigned at registration and only changes through an admin action.
type Role string

const (
	RoleSeeker   Role = "seeker"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSeeker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	UserId          uuid.UUID
	RefreshTokenJTI string
}
