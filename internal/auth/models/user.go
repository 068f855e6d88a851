package models

import (
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	dErrors "kycdesk/pkg/domain-errors"
)

// Role is the dashboard permission level.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is a dashboard operator.
type User struct {
	ID           int64
	Username     string
	PasswordHash []byte
	Role         Role
	CreatedAt    time.Time
}

// Credentials is the body of register and authenticate.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate trims the username and checks length rules.
func (c *Credentials) Validate() error {
	c.Username = strings.TrimSpace(c.Username)
	if !govalidator.StringLength(c.Username, "3", "64") {
		return dErrors.New(dErrors.CodeValidation, "username must be 3-64 characters")
	}
	if !govalidator.StringLength(c.Password, "8", "128") {
		return dErrors.New(dErrors.CodeValidation, "password must be 8-128 characters")
	}
	return nil
}

// AuthResponse is returned by register and authenticate.
type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}
