package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/persistence"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

const directoryCacheTTL = 5 * time.Minute

// DirectoryService resolves volunteer identities for assignment. Lookups go
// through a Redis look-aside cache when one is configured; cache failures
// fall back to the repository silently.
type DirectoryService struct {
	volunteers repository.VolunteerRepository
	cache      *persistence.Redis
	logger     *zap.Logger
}

// NewDirectoryService constructs the service. cache may be nil.
func NewDirectoryService(volunteers repository.VolunteerRepository, cache *persistence.Redis, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{volunteers: volunteers, cache: cache, logger: logger}
}

// ResolveIdentity returns the display identity for an active volunteer.
// Unknown ids resolve to NOT_FOUND; inactive volunteers to CONFLICT since
// they cannot take assignments.
func (s *DirectoryService) ResolveIdentity(ctx context.Context, volunteerID string) (*domain.Identity, error) {
	if identity := s.cacheGet(ctx, volunteerID); identity != nil {
		return identity, nil
	}

	volunteer, err := s.volunteers.GetByID(ctx, volunteerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("volunteer", map[string]any{"volunteer_id": volunteerID})
		}
		return nil, apperrors.MapError(err)
	}
	if !volunteer.Active {
		return nil, apperrors.NewConflict("volunteer inactive", map[string]any{"volunteer_id": volunteerID})
	}

	identity := &domain.Identity{ID: volunteer.ID, Name: volunteer.Name}
	s.cacheSet(ctx, identity)
	return identity, nil
}

// ListVolunteers returns active volunteers for assignment pickers.
func (s *DirectoryService) ListVolunteers(ctx context.Context, limit, offset int) ([]domain.Volunteer, error) {
	volunteers, err := s.volunteers.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return volunteers, nil
}

// SetRole changes a volunteer's role. Promotion and demotion are admin
// actions; authorization happens at the transport layer.
func (s *DirectoryService) SetRole(ctx context.Context, volunteerID string, role domain.VolunteerRole) (*domain.Volunteer, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	volunteer, err := s.volunteers.GetByID(ctx, volunteerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("volunteer", map[string]any{"volunteer_id": volunteerID})
		}
		return nil, apperrors.MapError(err)
	}
	volunteer.Role = role
	volunteer.UpdatedAt = time.Now()
	if err := s.volunteers.Update(ctx, volunteer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return volunteer, nil
}

func (s *DirectoryService) cacheGet(ctx context.Context, volunteerID string) *domain.Identity {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, directoryKey(volunteerID)).Bytes()
	if err != nil {
		return nil
	}
	var identity domain.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return nil
	}
	return &identity
}

func (s *DirectoryService) cacheSet(ctx context.Context, identity *domain.Identity) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, directoryKey(identity.ID), raw, directoryCacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("directory cache write failed", zap.Error(err))
	}
}

func directoryKey(volunteerID string) string {
	return "directory:volunteer:" + volunteerID
}
