package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/lifecycle"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. The role comes from the
// stored volunteer record, not the token, so demotions take effect on the
// next request.
type Principal struct {
	Volunteer *domain.Volunteer
}

// Actor converts the principal into the engine's actor shape.
func (p *Principal) Actor() lifecycle.Actor {
	return lifecycle.Actor{
		ID:   p.Volunteer.ID,
		Name: p.Volunteer.Name,
		Mode: p.Volunteer.Role,
	}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	volunteers repository.VolunteerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, volunteers repository.VolunteerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, volunteers: volunteers}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	volunteer, err := m.volunteers.GetByID(c.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("volunteer not found")
		}
		return apperrors.MapError(err)
	}
	if !volunteer.Active {
		return apperrors.NewUnauthorized("account inactive")
	}

	c.Locals(principalKey, &Principal{Volunteer: volunteer})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
