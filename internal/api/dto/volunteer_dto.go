package dto

import (
	"time"

	"github.com/careclinic/volunteer-desk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UpdateRoleRequest payload for admin role changes.
type UpdateRoleRequest struct {
	Role domain.VolunteerRole `json:"role"`
}

// VolunteerResponse is the public projection of a volunteer.
type VolunteerResponse struct {
	ID    string               `json:"id"`
	Name  string               `json:"name"`
	Email string               `json:"email"`
	Role  domain.VolunteerRole `json:"role"`
}
