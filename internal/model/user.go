package model

import (
	"time"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusPending  = "pending"
	UserStatusLocked   = "locked"
)

// User role constants
const (
	UserRoleAdmin   = "admin"
	UserRoleTeacher = "teacher"
	UserRoleStudent = "student"
)

// User represents a system user
type User struct {
	Base
	Email                string     `json:"email" db:"email"`
	Name                 string     `json:"name" db:"name"`
	Password             string     `json:"password,omitempty" db:"-"`
	PasswordHash         string     `json:"-" db:"password_hash"`
	Role                 string     `json:"role" db:"role"`
	Status               string     `json:"status" db:"status"`
	EmailVerified        bool       `json:"email_verified" db:"email_verified"`
	LastLoginAt          *time.Time `json:"last_login_at" db:"last_login_at"`
	LastPasswordChangeAt *time.Time `json:"last_password_change_at" db:"last_password_change_at"`
	LoginAttempts        int        `json:"login_attempts" db:"login_attempts"`
	LastLoginAttempt     time.Time  `json:"last_login_attempt" db:"last_login_attempt"`
	Settings             JSONMap    `json:"settings" db:"settings"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	BaseFilter
	Role string `json:"role" form:"role"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive pending locked"`
	Role   *string `json:"role" binding:"omitempty,oneof=admin teacher student"`
}
