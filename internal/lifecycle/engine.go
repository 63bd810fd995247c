package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careclinic/volunteer-desk/internal/domain"
	apperrors "github.com/careclinic/volunteer-desk/pkg/util"
)

// UnassignedLabel is the display value recorded when a ticket has no owner.
const UnassignedLabel = "Unassigned"

// Actor identifies the principal performing a mutation.
type Actor struct {
	ID   string
	Name string
	Mode domain.VolunteerRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Mode == domain.RoleAdmin
}

// CanModify is the single permission predicate gating every mutating ticket
// operation: admins, the original submitter, and the current assignee may
// mutate. All write paths route through this function; it is never re-derived
// at call sites.
func CanModify(t *domain.Ticket, actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == t.SubmittedBy {
		return true
	}
	return t.AssignedTo != nil && actor.ID == *t.AssignedTo
}

// CreateInput carries the immutable fields of a new ticket.
type CreateInput struct {
	Subject     string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// NewTicket builds a ticket in the open state with its seed "created"
// activity entry. The store assigns the ticket ID on insert; the activity
// entry ID is assigned here. Every ticket that exists carries at least this
// one entry.
func NewTicket(input CreateInput, submitter *domain.Volunteer, now time.Time) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Subject:        subject,
		Description:    strings.TrimSpace(input.Description),
		Category:       input.Category,
		Priority:       priority,
		Status:         domain.TicketStatusOpen,
		SubmittedBy:    submitter.ID,
		SubmitterName:  submitter.Name,
		SubmitterEmail: submitter.Email,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ticket.Activity = append(ticket.Activity, domain.ActivityRecord{
		ID:              uuid.NewString(),
		Type:            domain.ActivityCreated,
		Description:     "Ticket created",
		PerformedBy:     submitter.ID,
		PerformedByName: submitter.Name,
		Timestamp:       now,
	})
	return ticket, nil
}

// ChangeStatus applies a status transition, stamping UpdatedAt and appending
// the audit entry. Setting the current status again is not guarded: the call
// still appends an entry with oldValue == newValue, matching observed portal
// behavior. Transitioning to closed sets ClosedAt; re-opening preserves the
// previous ClosedAt as "last closed at" history.
func ChangeStatus(t *domain.Ticket, next domain.TicketStatus, actor Actor, now time.Time) (*domain.ActivityRecord, error) {
	if !domain.ValidStatus(next) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": next})
	}
	if !CanModify(t, actor) {
		return nil, apperrors.NewForbidden("not allowed to modify this ticket")
	}

	old := t.Status
	t.Status = next
	t.UpdatedAt = now
	if next == domain.TicketStatusClosed {
		closed := now
		t.ClosedAt = &closed
	}

	record := appendActivity(t, domain.ActivityRecord{
		Type:        domain.ActivityStatusChange,
		Description: fmt.Sprintf("Status changed from %s to %s", old, next),
		OldValue:    strPtr(string(old)),
		NewValue:    strPtr(string(next)),
	}, actor, now)
	return record, nil
}

// ChangePriority applies a priority change with the same recording contract
// as ChangeStatus.
func ChangePriority(t *domain.Ticket, next domain.TicketPriority, actor Actor, now time.Time) (*domain.ActivityRecord, error) {
	if !domain.ValidPriority(next) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": next})
	}
	if !CanModify(t, actor) {
		return nil, apperrors.NewForbidden("not allowed to modify this ticket")
	}

	old := t.Priority
	t.Priority = next
	t.UpdatedAt = now

	record := appendActivity(t, domain.ActivityRecord{
		Type:        domain.ActivityPriorityChange,
		Description: fmt.Sprintf("Priority changed from %s to %s", old, next),
		OldValue:    strPtr(string(old)),
		NewValue:    strPtr(string(next)),
	}, actor, now)
	return record, nil
}

// Assign sets or clears the ticket owner. assignee is the directory-resolved
// identity; nil unassigns. Any actor satisfying CanModify may reassign,
// including the original submitter.
func Assign(t *domain.Ticket, assignee *domain.Identity, actor Actor, now time.Time) (*domain.ActivityRecord, error) {
	if !CanModify(t, actor) {
		return nil, apperrors.NewForbidden("not allowed to modify this ticket")
	}

	oldName := UnassignedLabel
	if t.AssignedToName != nil {
		oldName = *t.AssignedToName
	}
	newName := UnassignedLabel
	description := "Ticket unassigned"
	if assignee != nil {
		t.AssignedTo = strPtr(assignee.ID)
		t.AssignedToName = strPtr(assignee.Name)
		newName = assignee.Name
		description = fmt.Sprintf("Assigned to %s", assignee.Name)
	} else {
		t.AssignedTo = nil
		t.AssignedToName = nil
	}
	t.UpdatedAt = now

	record := appendActivity(t, domain.ActivityRecord{
		Type:        domain.ActivityAssigned,
		Description: description,
		OldValue:    strPtr(oldName),
		NewValue:    strPtr(newName),
	}, actor, now)
	return record, nil
}

// AddNote appends commentary plus its audit entry. Only admins may create
// internal notes; a non-admin requesting isInternal has the flag coerced to
// false rather than rejected. Notes on closed tickets are accepted; the portal
// UI disables the compose control but the engine contract does not forbid it.
func AddNote(t *domain.Ticket, content string, isInternal bool, actor Actor, now time.Time) (*domain.Note, *domain.ActivityRecord, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, apperrors.NewValidationError("note content required", nil)
	}
	if !CanModify(t, actor) {
		return nil, nil, apperrors.NewForbidden("not allowed to modify this ticket")
	}
	if isInternal && !actor.IsAdmin() {
		isInternal = false
	}

	note := domain.Note{
		ID:         uuid.NewString(),
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Content:    content,
		IsInternal: isInternal,
		CreatedAt:  now,
	}
	t.Notes = append(t.Notes, note)
	t.UpdatedAt = now

	description := "Note added"
	if isInternal {
		description = "Internal note added"
	}
	record := appendActivity(t, domain.ActivityRecord{
		Type:        domain.ActivityNoteAdded,
		Description: description,
	}, actor, now)
	return &t.Notes[len(t.Notes)-1], record, nil
}

// VisibleNotes filters internal notes from non-admin viewers. Applied at read
// time only; stored notes are untouched.
func VisibleNotes(t *domain.Ticket, viewerMode domain.VolunteerRole) []domain.Note {
	visible := make([]domain.Note, 0, len(t.Notes))
	for _, note := range t.Notes {
		if note.IsInternal && viewerMode != domain.RoleAdmin {
			continue
		}
		visible = append(visible, note)
	}
	return visible
}

// GroupByStatus partitions tickets into board columns, preserving input order
// within each column.
func GroupByStatus(tickets []domain.Ticket) map[domain.TicketStatus][]domain.Ticket {
	board := map[domain.TicketStatus][]domain.Ticket{
		domain.TicketStatusOpen:       {},
		domain.TicketStatusInProgress: {},
		domain.TicketStatusClosed:     {},
	}
	for _, ticket := range tickets {
		board[ticket.Status] = append(board[ticket.Status], ticket)
	}
	return board
}

func appendActivity(t *domain.Ticket, record domain.ActivityRecord, actor Actor, now time.Time) *domain.ActivityRecord {
	record.ID = uuid.NewString()
	record.PerformedBy = actor.ID
	record.PerformedByName = actor.Name
	record.Timestamp = now
	t.Activity = append(t.Activity, record)
	return &t.Activity[len(t.Activity)-1]
}

func strPtr(v string) *string {
	return &v
}
