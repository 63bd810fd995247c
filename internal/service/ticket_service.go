package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careclinic/volunteer-desk/internal/domain"
	"github.com/careclinic/volunteer-desk/internal/events"
	"github.com/careclinic/volunteer-desk/internal/lifecycle"
	"github.com/careclinic/volunteer-desk/internal/repository"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

// TicketService coordinates ticket workflows: it loads the stored ticket,
// applies the pure lifecycle transition to a copy, persists the result, and
// only then publishes the domain event. A store failure surfaces as an
// UNAVAILABLE error and leaves no locally-divergent state behind; a stale
// version surfaces as CONFLICT for the caller to retry against fresh state.
type TicketService struct {
	tickets    repository.TicketRepository
	directory  *DirectoryService
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Directory  *DirectoryService
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		directory:  deps.Directory,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// TicketListFilter describes listing filters for list and board views.
type TicketListFilter struct {
	SubmittedBy *string
	AssignedTo  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	Limit       int
	Offset      int
}

// CreateTicket validates input, seeds the initial "created" activity entry
// and persists the new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, submitter *domain.Volunteer, input lifecycle.CreateInput) (*domain.Ticket, error) {
	ticket, err := lifecycle.NewTicket(input, submitter, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewUnavailable("ticket store write failed", err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorEvent(submitterActor(submitter)),
		Payload: events.TicketCreatedPayload{
			Subject:  ticket.Subject,
			Category: ticket.Category,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// GetTicket loads a ticket with its notes and activity. Note visibility is a
// presentation concern; callers filter with lifecycle.VisibleNotes.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter in store order.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		SubmittedBy: filter.SubmittedBy,
		AssignedTo:  filter.AssignedTo,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Categories:  filter.Categories,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Board partitions tickets into status columns. Within a column tickets keep
// store iteration order; no server-side ordering is mandated.
func (s *TicketService) Board(ctx context.Context, filter TicketListFilter) (map[domain.TicketStatus][]domain.Ticket, error) {
	tickets, err := s.ListTickets(ctx, filter)
	if err != nil {
		return nil, err
	}
	return lifecycle.GroupByStatus(tickets), nil
}

// ChangeStatus applies a status transition. Board drag-and-drop and the
// explicit status control both land here; there is no second write path.
func (s *TicketService) ChangeStatus(ctx context.Context, actor lifecycle.Actor, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	updated := ticket.Clone()
	record, err := lifecycle.ChangeStatus(updated, next, actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistMutation(ctx, updated, record, nil); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: updated.ID,
		Actor:    actorEvent(actor),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: ticket.Status,
			NewStatus: next,
		},
	})
	return updated, nil
}

// ChangePriority applies a priority change.
func (s *TicketService) ChangePriority(ctx context.Context, actor lifecycle.Actor, ticketID string, next domain.TicketPriority) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	updated := ticket.Clone()
	record, err := lifecycle.ChangePriority(updated, next, actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistMutation(ctx, updated, record, nil); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: updated.ID,
		Actor:    actorEvent(actor),
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: ticket.Priority,
			NewPriority: next,
		},
	})
	return updated, nil
}

// Assign resolves the assignee through the directory and sets or clears the
// ticket owner. A nil assigneeID unassigns.
func (s *TicketService) Assign(ctx context.Context, actor lifecycle.Actor, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	var assignee *domain.Identity
	if assigneeID != nil {
		identity, err := s.directory.ResolveIdentity(ctx, *assigneeID)
		if err != nil {
			return nil, err
		}
		assignee = identity
	}

	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	updated := ticket.Clone()
	record, err := lifecycle.Assign(updated, assignee, actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistMutation(ctx, updated, record, nil); err != nil {
		return nil, err
	}

	assignedName := lifecycle.UnassignedLabel
	if assignee != nil {
		assignedName = assignee.Name
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: updated.ID,
		Actor:    actorEvent(actor),
		Payload: events.TicketAssignedPayload{
			AssignedTo:   updated.AssignedTo,
			AssignedName: assignedName,
		},
	})
	return updated, nil
}

// AddNote appends commentary to a ticket along with its audit entry.
func (s *TicketService) AddNote(ctx context.Context, actor lifecycle.Actor, ticketID, content string, isInternal bool) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	updated := ticket.Clone()
	note, record, err := lifecycle.AddNote(updated, content, isInternal, actor, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.persistMutation(ctx, updated, record, note); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: updated.ID,
		Actor:    actorEvent(actor),
		Payload: events.TicketNoteAddedPayload{
			NoteID:         note.ID,
			IsInternal:     note.IsInternal,
			ContentPreview: contentPreview(note.Content, 120),
		},
	})
	return updated, nil
}

// persistMutation writes the mutated ticket fields (version-checked) before
// appending the note and activity rows. The version check runs first, so a
// stale writer fails before anything is stored.
func (s *TicketService) persistMutation(ctx context.Context, ticket *domain.Ticket, record *domain.ActivityRecord, note *domain.Note) error {
	if err := s.tickets.Update(ctx, ticket); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return apperrors.NewConflict("ticket was modified concurrently", map[string]any{"ticket_id": ticket.ID})
		case errors.Is(err, pgx.ErrNoRows):
			return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
		default:
			return apperrors.NewUnavailable("ticket store write failed", err)
		}
	}
	if note != nil {
		if err := s.tickets.AppendNote(ctx, ticket.ID, note); err != nil {
			return apperrors.NewUnavailable("ticket store write failed", err)
		}
	}
	if err := s.tickets.AppendActivity(ctx, ticket.ID, record); err != nil {
		return apperrors.NewUnavailable("ticket store write failed", err)
	}
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func submitterActor(v *domain.Volunteer) lifecycle.Actor {
	return lifecycle.Actor{ID: v.ID, Name: v.Name, Mode: v.Role}
}

func actorEvent(actor lifecycle.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Name: actor.Name, Mode: actor.Mode}
}

func contentPreview(content string, max int) string {
	content = strings.TrimSpace(content)
	if len(content) <= max {
		return content
	}
	if max <= 3 {
		return content[:max]
	}
	return content[:max-3] + "..."
}
