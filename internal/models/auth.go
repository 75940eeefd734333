package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole identifies the caller kind carried in access tokens.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
)

// AdminLoginResponse returns the issued token and the admin.
type AdminLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Admin       Admin     `json:"admin"`
	Device      *Device   `json:"device,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	jwt.RegisteredClaims
}
