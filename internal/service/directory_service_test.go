package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

type DirectoryServiceSuite struct {
	suite.Suite

	ctx        context.Context
	volunteers *repository.MemoryVolunteerRepository
	svc        *DirectoryService
}

func TestDirectoryServiceSuite(t *testing.T) {
	suite.Run(t, new(DirectoryServiceSuite))
}

func (s *DirectoryServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.volunteers = repository.NewMemoryVolunteerRepository()
	s.svc = NewDirectoryService(s.volunteers, nil, nil)

	s.Require().NoError(s.volunteers.Create(s.ctx, &domain.Volunteer{
		ID: "vol-1", Name: "Dana Reyes", Email: "dana@careclinic.org",
		Role: domain.RoleVolunteer, Active: true,
	}))
	s.Require().NoError(s.volunteers.Create(s.ctx, &domain.Volunteer{
		ID: "vol-2", Name: "Gone", Email: "gone@careclinic.org",
		Role: domain.RoleVolunteer, Active: false,
	}))
}

func (s *DirectoryServiceSuite) assertCode(err error, code string) {
	var de *apperrors.DomainError
	s.Require().True(errors.As(err, &de), "expected DomainError, got %v", err)
	s.Equal(code, de.Code)
}

func (s *DirectoryServiceSuite) TestResolveIdentity() {
	s.Run("active volunteer", func() {
		identity, err := s.svc.ResolveIdentity(s.ctx, "vol-1")
		s.Require().NoError(err)
		s.Equal("vol-1", identity.ID)
		s.Equal("Dana Reyes", identity.Name)
	})

	s.Run("unknown id", func() {
		_, err := s.svc.ResolveIdentity(s.ctx, "nobody")
		s.assertCode(err, "NOT_FOUND")
	})

	s.Run("inactive volunteer", func() {
		_, err := s.svc.ResolveIdentity(s.ctx, "vol-2")
		s.assertCode(err, "CONFLICT")
	})
}

func (s *DirectoryServiceSuite) TestSetRole() {
	volunteer, err := s.svc.SetRole(s.ctx, "vol-1", domain.RoleCoordinator)
	s.Require().NoError(err)
	s.Equal(domain.RoleCoordinator, volunteer.Role)

	stored, err := s.volunteers.GetByID(s.ctx, "vol-1")
	s.Require().NoError(err)
	s.Equal(domain.RoleCoordinator, stored.Role)

	_, err = s.svc.SetRole(s.ctx, "vol-1", domain.VolunteerRole("root"))
	s.assertCode(err, "VALIDATION_FAILED")

	_, err = s.svc.SetRole(s.ctx, "nobody", domain.RoleAdmin)
	s.assertCode(err, "NOT_FOUND")
}

func (s *DirectoryServiceSuite) TestListVolunteers() {
	volunteers, err := s.svc.ListVolunteers(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(volunteers, 1, "inactive accounts are hidden")
	s.Equal("vol-1", volunteers[0].ID)
}
