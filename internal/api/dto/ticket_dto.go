package dto

import (
	"time"

	"github.com/careclinic/volunteer-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignRequest payload. A null volunteerId unassigns the ticket.
type AssignRequest struct {
	VolunteerID *string `json:"volunteerId"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"isInternal"`
}

// TicketSummary response for list and board views.
type TicketSummary struct {
	ID             string                `json:"id"`
	Subject        string                `json:"subject"`
	Category       domain.TicketCategory `json:"category"`
	Priority       domain.TicketPriority `json:"priority"`
	Status         domain.TicketStatus   `json:"status"`
	SubmittedBy    string                `json:"submittedBy"`
	SubmitterName  string                `json:"submitterName"`
	AssignedTo     *string               `json:"assignedTo"`
	AssignedToName *string               `json:"assignedToName"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// TicketDetailResponse provides full ticket info with the viewer-filtered
// notes and the complete activity trail.
type TicketDetailResponse struct {
	ID             string                 `json:"id"`
	Subject        string                 `json:"subject"`
	Description    string                 `json:"description"`
	Category       domain.TicketCategory  `json:"category"`
	Priority       domain.TicketPriority  `json:"priority"`
	Status         domain.TicketStatus    `json:"status"`
	SubmittedBy    string                 `json:"submittedBy"`
	SubmitterName  string                 `json:"submitterName"`
	SubmitterEmail string                 `json:"submitterEmail"`
	AssignedTo     *string                `json:"assignedTo"`
	AssignedToName *string                `json:"assignedToName"`
	Version        int64                  `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
	ClosedAt       *time.Time             `json:"closedAt"`
	Notes          []NoteResponse         `json:"notes"`
	Activity       []ActivityResponse     `json:"activity"`
}

// NoteResponse represents one note.
type NoteResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ActivityResponse represents one audit trail entry.
type ActivityResponse struct {
	ID              string              `json:"id"`
	Type            domain.ActivityType `json:"type"`
	Description     string              `json:"description"`
	PerformedBy     string              `json:"performedBy"`
	PerformedByName string              `json:"performedByName"`
	OldValue        *string             `json:"oldValue,omitempty"`
	NewValue        *string             `json:"newValue,omitempty"`
	Timestamp       time.Time           `json:"timestamp"`
}

// BoardResponse groups ticket summaries by status column.
type BoardResponse struct {
	Open       []TicketSummary `json:"open"`
	InProgress []TicketSummary `json:"in_progress"`
	Closed     []TicketSummary `json:"closed"`
}
