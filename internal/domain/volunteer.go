package domain

import "time"

// VolunteerRole enumerates portal roles. Admins may mutate any ticket and see
// internal notes; coordinators and volunteers only act on tickets they
// submitted or are assigned to.
type VolunteerRole string

const (
	RoleVolunteer   VolunteerRole = "volunteer"
	RoleCoordinator VolunteerRole = "coordinator"
	RoleAdmin       VolunteerRole = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r VolunteerRole) bool {
	switch r {
	case RoleVolunteer, RoleCoordinator, RoleAdmin:
		return true
	}
	return false
}

// Volunteer is a member of the volunteer organization.
type Volunteer struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Role         VolunteerRole `json:"role"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Identity is the directory projection used when resolving assignees.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
