package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/careclinic/volunteer-desk/internal/auth"
	"github.com/careclinic/volunteer-desk/internal/config"
	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

// AuthService coordinates volunteer registration and login. It exists to
// produce the authenticated principal the lifecycle engine's permission
// predicate works from; the engine itself never touches credentials.
type AuthService struct {
	volunteers repository.VolunteerRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, volunteers repository.VolunteerRepository) *AuthService {
	return &AuthService{
		volunteers: volunteers,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Register creates a new volunteer account. New registrations always get the
// volunteer role; coordinator/admin promotion is an administrative action.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.Volunteer, string, time.Time, error) {
	if _, err := s.volunteers.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	volunteer := &domain.Volunteer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleVolunteer,
		Active:       true,
	}
	if err := s.volunteers.Create(ctx, volunteer); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(volunteer.ID, volunteer.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return volunteer, token, exp, nil
}

// Login authenticates a volunteer and issues a role-bearing token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Volunteer, string, time.Time, error) {
	volunteer, err := s.volunteers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !volunteer.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account inactive")
	}
	if err := auth.ComparePassword(volunteer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(volunteer.ID, volunteer.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return volunteer, token, exp, nil
}
