package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/events"
	"github.com/careclinic/volunteer-desk/internal/lifecycle"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

type TicketServiceSuite struct {
	suite.Suite

	ctx        context.Context
	tickets    *repository.MemoryTicketRepository
	volunteers *repository.MemoryVolunteerRepository
	dispatcher events.Dispatcher
	published  *[]events.Event
	svc        *TicketService

	now       time.Time
	submitter *domain.Volunteer
	admin     lifecycle.Actor
	owner     lifecycle.Actor
	stranger  lifecycle.Actor
}

func TestTicketServiceSuite(t *testing.T) {
	suite.Run(t, new(TicketServiceSuite))
}

func (s *TicketServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.tickets = repository.NewMemoryTicketRepository()
	s.volunteers = repository.NewMemoryVolunteerRepository()
	s.dispatcher = events.NewInMemoryDispatcher()

	published := make([]events.Event, 0)
	s.published = &published
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketPriorityChanged,
		events.EventTicketAssigned,
		events.EventTicketNoteAdded,
	} {
		s.dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			*s.published = append(*s.published, event)
			return nil
		})
	}

	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.submitter = &domain.Volunteer{
		ID:     "vol-1",
		Name:   "Dana Reyes",
		Email:  "dana@careclinic.org",
		Role:   domain.RoleVolunteer,
		Active: true,
	}
	s.Require().NoError(s.volunteers.Create(s.ctx, s.submitter))

	s.admin = lifecycle.Actor{ID: "adm-1", Name: "Pat Okafor", Mode: domain.RoleAdmin}
	s.owner = lifecycle.Actor{ID: "vol-1", Name: "Dana Reyes", Mode: domain.RoleVolunteer}
	s.stranger = lifecycle.Actor{ID: "vol-9", Name: "Sam Lindqvist", Mode: domain.RoleVolunteer}

	directory := NewDirectoryService(s.volunteers, nil, nil)
	s.svc = NewTicketService(TicketDependencies{
		TicketRepo: s.tickets,
		Directory:  directory,
		Dispatcher: s.dispatcher,
		Now:        func() time.Time { return s.now },
	})
}

func (s *TicketServiceSuite) createTicket() *domain.Ticket {
	ticket, err := s.svc.CreateTicket(s.ctx, s.submitter, lifecycle.CreateInput{
		Subject:  "Portal login fails",
		Category: domain.CategoryTechnical,
		Priority: domain.TicketPriorityHigh,
	})
	s.Require().NoError(err)
	return ticket
}

func (s *TicketServiceSuite) assertCode(err error, code string) {
	var de *apperrors.DomainError
	s.Require().True(errors.As(err, &de), "expected DomainError, got %v", err)
	s.Equal(code, de.Code)
}

func (s *TicketServiceSuite) TestCreateTicket() {
	ticket := s.createTicket()

	s.NotEmpty(ticket.ID)
	s.Equal(int64(1), ticket.Version)

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Activity, 1)
	s.Equal(domain.ActivityCreated, stored.Activity[0].Type)

	s.Require().Len(*s.published, 1)
	event := (*s.published)[0]
	s.Equal(events.EventTicketCreated, event.Type)
	s.Equal(ticket.ID, event.TicketID)
	s.Equal("vol-1", event.Actor.ID)
	s.NotEmpty(event.ID)
	s.Equal(s.now, event.Timestamp)
}

func (s *TicketServiceSuite) TestGetTicketNotFound() {
	_, err := s.svc.GetTicket(s.ctx, "missing")
	s.assertCode(err, "NOT_FOUND")
}

func (s *TicketServiceSuite) TestChangeStatusPersistsAndPublishes() {
	ticket := s.createTicket()
	s.now = s.now.Add(time.Hour)

	updated, err := s.svc.ChangeStatus(s.ctx, s.admin, ticket.ID, domain.TicketStatusInProgress)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusInProgress, updated.Status)
	s.Equal(int64(2), updated.Version)

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusInProgress, stored.Status)
	s.Require().Len(stored.Activity, 2)
	s.Equal(domain.ActivityStatusChange, stored.Activity[1].Type)

	event := (*s.published)[len(*s.published)-1]
	s.Equal(events.EventTicketStatusChanged, event.Type)
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	s.Require().True(ok)
	s.Equal(domain.TicketStatusOpen, payload.OldStatus)
	s.Equal(domain.TicketStatusInProgress, payload.NewStatus)
}

func (s *TicketServiceSuite) TestForbiddenMutationLeavesStoreUntouched() {
	ticket := s.createTicket()
	publishedBefore := len(*s.published)

	_, err := s.svc.ChangeStatus(s.ctx, s.stranger, ticket.ID, domain.TicketStatusClosed)
	s.assertCode(err, "FORBIDDEN")

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusOpen, stored.Status)
	s.Equal(int64(1), stored.Version)
	s.Len(stored.Activity, 1)
	s.Len(*s.published, publishedBefore, "no event for a rejected mutation")
}

func (s *TicketServiceSuite) TestCloseAndReopen() {
	ticket := s.createTicket()
	closeTime := s.now.Add(2 * time.Hour)
	s.now = closeTime

	closed, err := s.svc.ChangeStatus(s.ctx, s.owner, ticket.ID, domain.TicketStatusClosed)
	s.Require().NoError(err)
	s.Require().NotNil(closed.ClosedAt)
	s.Equal(closeTime, *closed.ClosedAt)

	s.now = closeTime.Add(time.Hour)
	reopened, err := s.svc.ChangeStatus(s.ctx, s.owner, ticket.ID, domain.TicketStatusOpen)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusOpen, reopened.Status)
	s.Require().NotNil(reopened.ClosedAt)
	s.Equal(closeTime, *reopened.ClosedAt)

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Require().NotNil(stored.ClosedAt)
	s.Equal(closeTime, *stored.ClosedAt)
}

func (s *TicketServiceSuite) TestChangePriority() {
	ticket := s.createTicket()

	updated, err := s.svc.ChangePriority(s.ctx, s.owner, ticket.ID, domain.TicketPriorityUrgent)
	s.Require().NoError(err)
	s.Equal(domain.TicketPriorityUrgent, updated.Priority)

	event := (*s.published)[len(*s.published)-1]
	payload, ok := event.Payload.(events.TicketPriorityChangedPayload)
	s.Require().True(ok)
	s.Equal(domain.TicketPriorityHigh, payload.OldPriority)
	s.Equal(domain.TicketPriorityUrgent, payload.NewPriority)
}

func (s *TicketServiceSuite) TestAssign() {
	assignee := &domain.Volunteer{ID: "vol-9", Name: "Sam Lindqvist", Email: "sam@careclinic.org", Role: domain.RoleVolunteer, Active: true}
	s.Require().NoError(s.volunteers.Create(s.ctx, assignee))
	ticket := s.createTicket()

	s.Run("assign through directory", func() {
		id := "vol-9"
		updated, err := s.svc.Assign(s.ctx, s.admin, ticket.ID, &id)
		s.Require().NoError(err)
		s.Require().NotNil(updated.AssignedTo)
		s.Equal("vol-9", *updated.AssignedTo)
		s.Equal("Sam Lindqvist", *updated.AssignedToName)

		event := (*s.published)[len(*s.published)-1]
		payload, ok := event.Payload.(events.TicketAssignedPayload)
		s.Require().True(ok)
		s.Equal("Sam Lindqvist", payload.AssignedName)
	})

	s.Run("assignee can now mutate", func() {
		_, err := s.svc.ChangeStatus(s.ctx, s.stranger, ticket.ID, domain.TicketStatusInProgress)
		s.NoError(err)
	})

	s.Run("unassign", func() {
		updated, err := s.svc.Assign(s.ctx, s.admin, ticket.ID, nil)
		s.Require().NoError(err)
		s.Nil(updated.AssignedTo)

		event := (*s.published)[len(*s.published)-1]
		payload, ok := event.Payload.(events.TicketAssignedPayload)
		s.Require().True(ok)
		s.Equal(lifecycle.UnassignedLabel, payload.AssignedName)
	})

	s.Run("unknown assignee", func() {
		id := "nobody"
		_, err := s.svc.Assign(s.ctx, s.admin, ticket.ID, &id)
		s.assertCode(err, "NOT_FOUND")
	})

	s.Run("inactive assignee", func() {
		inactive := &domain.Volunteer{ID: "vol-inactive", Name: "Gone", Email: "gone@careclinic.org", Role: domain.RoleVolunteer, Active: false}
		s.Require().NoError(s.volunteers.Create(s.ctx, inactive))
		id := "vol-inactive"
		_, err := s.svc.Assign(s.ctx, s.admin, ticket.ID, &id)
		s.assertCode(err, "CONFLICT")
	})
}

func (s *TicketServiceSuite) TestAddNote() {
	ticket := s.createTicket()

	updated, err := s.svc.AddNote(s.ctx, s.owner, ticket.ID, "Tried clearing cookies", false)
	s.Require().NoError(err)
	s.Require().Len(updated.Notes, 1)

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.Notes, 1)
	s.Equal("Tried clearing cookies", stored.Notes[0].Content)
	s.Len(stored.Activity, 2)

	event := (*s.published)[len(*s.published)-1]
	payload, ok := event.Payload.(events.TicketNoteAddedPayload)
	s.Require().True(ok)
	s.Equal(stored.Notes[0].ID, payload.NoteID)
	s.Equal("Tried clearing cookies", payload.ContentPreview)
}

func (s *TicketServiceSuite) TestVersionConflictSurfacesAsConflict() {
	ticket := s.createTicket()

	// Another writer bumps the version out from under our stale copy.
	stale, err := s.tickets.GetByID(s.ctx, ticket.ID)
	s.Require().NoError(err)
	_, err = s.svc.ChangeStatus(s.ctx, s.owner, ticket.ID, domain.TicketStatusInProgress)
	s.Require().NoError(err)

	stale.Status = domain.TicketStatusClosed
	err = s.tickets.Update(s.ctx, stale)
	s.Require().ErrorIs(err, repository.ErrVersionConflict)

	// Through the service the same race maps to CONFLICT.
	conflicted := NewTicketService(TicketDependencies{
		TicketRepo: staleReadRepository{TicketRepository: s.tickets, stale: stale},
		Dispatcher: s.dispatcher,
		Now:        func() time.Time { return s.now },
	})
	_, err = conflicted.ChangeStatus(s.ctx, s.owner, ticket.ID, domain.TicketStatusClosed)
	s.assertCode(err, "CONFLICT")
}

func (s *TicketServiceSuite) TestStoreFailureSurfacesAsUnavailable() {
	ticket := s.createTicket()

	failing := NewTicketService(TicketDependencies{
		TicketRepo: failingRepository{TicketRepository: s.tickets},
		Dispatcher: s.dispatcher,
		Now:        func() time.Time { return s.now },
	})

	publishedBefore := len(*s.published)
	_, err := failing.ChangeStatus(s.ctx, s.owner, ticket.ID, domain.TicketStatusClosed)
	s.assertCode(err, "UNAVAILABLE")
	s.Len(*s.published, publishedBefore, "no event when the write fails")

	stored, err := s.svc.GetTicket(s.ctx, ticket.ID)
	s.Require().NoError(err)
	s.Equal(domain.TicketStatusOpen, stored.Status, "failed write leaves stored state unchanged")

	_, err = failing.CreateTicket(s.ctx, s.submitter, lifecycle.CreateInput{
		Subject:  "another",
		Category: domain.CategoryOther,
	})
	s.assertCode(err, "UNAVAILABLE")
}

func (s *TicketServiceSuite) TestListAndBoard() {
	first := s.createTicket()
	second := s.createTicket()
	_, err := s.svc.ChangeStatus(s.ctx, s.owner, second.ID, domain.TicketStatusInProgress)
	s.Require().NoError(err)

	s.Run("list by submitter", func() {
		submitter := "vol-1"
		tickets, err := s.svc.ListTickets(s.ctx, TicketListFilter{SubmittedBy: &submitter})
		s.Require().NoError(err)
		s.Len(tickets, 2)
	})

	s.Run("board groups by status", func() {
		board, err := s.svc.Board(s.ctx, TicketListFilter{})
		s.Require().NoError(err)
		s.Require().Len(board[domain.TicketStatusOpen], 1)
		s.Equal(first.ID, board[domain.TicketStatusOpen][0].ID)
		s.Require().Len(board[domain.TicketStatusInProgress], 1)
		s.Equal(second.ID, board[domain.TicketStatusInProgress][0].ID)
		s.Empty(board[domain.TicketStatusClosed])
	})
}

// staleReadRepository serves a pre-loaded stale snapshot on reads while
// delegating writes, reproducing a read-modify-write race.
type staleReadRepository struct {
	repository.TicketRepository
	stale *domain.Ticket
}

func (r staleReadRepository) GetByID(context.Context, string) (*domain.Ticket, error) {
	return r.stale.Clone(), nil
}

// failingRepository delegates reads but fails every write.
type failingRepository struct {
	repository.TicketRepository
}

var errStoreDown = errors.New("store down")

func (failingRepository) Create(context.Context, *domain.Ticket) error { return errStoreDown }

func (failingRepository) Update(context.Context, *domain.Ticket) error { return errStoreDown }

func (failingRepository) AppendNote(context.Context, string, *domain.Note) error {
	return errStoreDown
}

func (failingRepository) AppendActivity(context.Context, string, *domain.ActivityRecord) error {
	return errStoreDown
}
