package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/careclinic/volunteer-desk/internal/domain"
)

// MemoryTicketRepository is an in-memory TicketRepository with the same
// version-check semantics as the Postgres implementation. Used by tests and
// local development without a database.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
	order   []string
}

// NewMemoryTicketRepository builds an empty store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	r.tickets[ticket.ID] = ticket.Clone()
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ticket.Clone(), nil
}

func (r *MemoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if !matchesFilter(ticket, filter) {
			continue
		}
		result = append(result, *ticket.Clone())
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Update persists mutable ticket fields only when the incoming version still
// matches the stored one, mirroring the Postgres version check. It does not
// touch notes or activity; those append independently.
func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Version != ticket.Version {
		return ErrVersionConflict
	}
	stored.Priority = ticket.Priority
	stored.Status = ticket.Status
	stored.AssignedTo = copyStr(ticket.AssignedTo)
	stored.AssignedToName = copyStr(ticket.AssignedToName)
	stored.ClosedAt = nil
	if ticket.ClosedAt != nil {
		v := *ticket.ClosedAt
		stored.ClosedAt = &v
	}
	stored.UpdatedAt = ticket.UpdatedAt
	stored.Version++
	ticket.Version++
	return nil
}

func (r *MemoryTicketRepository) AppendNote(_ context.Context, ticketID string, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Notes = append(stored.Notes, *note)
	return nil
}

func (r *MemoryTicketRepository) AppendActivity(_ context.Context, ticketID string, record *domain.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Activity = append(stored.Activity, *record)
	return nil
}

func matchesFilter(ticket *domain.Ticket, filter TicketFilter) bool {
	if filter.SubmittedBy != nil && ticket.SubmittedBy != *filter.SubmittedBy {
		return false
	}
	if filter.AssignedTo != nil {
		if ticket.AssignedTo == nil || *ticket.AssignedTo != *filter.AssignedTo {
			return false
		}
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	if len(filter.Categories) > 0 && !containsCategory(filter.Categories, ticket.Category) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, v domain.TicketPriority) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsCategory(list []domain.TicketCategory, v domain.TicketCategory) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func copyStr(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// MemoryVolunteerRepository is an in-memory VolunteerRepository.
type MemoryVolunteerRepository struct {
	mu         sync.RWMutex
	volunteers map[string]*domain.Volunteer
	order      []string
}

// NewMemoryVolunteerRepository builds an empty store.
func NewMemoryVolunteerRepository() *MemoryVolunteerRepository {
	return &MemoryVolunteerRepository{volunteers: make(map[string]*domain.Volunteer)}
}

func (r *MemoryVolunteerRepository) Create(_ context.Context, volunteer *domain.Volunteer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if volunteer.ID == "" {
		volunteer.ID = uuid.NewString()
	}
	copied := *volunteer
	r.volunteers[volunteer.ID] = &copied
	r.order = append(r.order, volunteer.ID)
	return nil
}

func (r *MemoryVolunteerRepository) Update(_ context.Context, volunteer *domain.Volunteer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.volunteers[volunteer.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *volunteer
	r.volunteers[volunteer.ID] = &copied
	return nil
}

func (r *MemoryVolunteerRepository) GetByID(_ context.Context, id string) (*domain.Volunteer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	volunteer, ok := r.volunteers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *volunteer
	return &copied, nil
}

func (r *MemoryVolunteerRepository) GetByEmail(_ context.Context, email string) (*domain.Volunteer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, volunteer := range r.volunteers {
		if strings.EqualFold(volunteer.Email, email) {
			copied := *volunteer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryVolunteerRepository) List(_ context.Context, limit, offset int) ([]domain.Volunteer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Volunteer
	for _, id := range r.order {
		volunteer := r.volunteers[id]
		if !volunteer.Active {
			continue
		}
		result = append(result, *volunteer)
	}
	if offset > 0 {
		if offset >= len(result) {
			return nil, nil
		}
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
