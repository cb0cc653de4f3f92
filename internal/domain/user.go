package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Login        string    `json:"login"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	TokenUUID    uuid.UUID `json:"-"` // rotation marker, bumped on every login
	CreatedAt    time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *RegisterRequest) Normalize() {
	r.Login = strings.TrimSpace(r.Login)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *RegisterRequest) Validate() error {
	if r.Login == "" {
		return Validationf("login must not be blank")
	}
	if !isValidEmail(r.Email) {
		return Validationf("invalid email address")
	}
	if len(r.Password) < 8 {
		return Validationf("password must be at least 8 characters")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return Validationf("email and password are required")
	}
	return nil
}

type JwtResponse struct {
	Token string `json:"token"`
}

func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	local, dom := parts[0], parts[1]
	return len(local) > 0 && len(dom) > 2 && strings.Contains(dom, ".")
}
