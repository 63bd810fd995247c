package domain

import "time"

// TicketStatus enumerates lifecycle states; it drives board column placement.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidStatus reports whether s is a known lifecycle state.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory classifies the kind of help requested.
type TicketCategory string

const (
	CategoryTechnical  TicketCategory = "technical"
	CategoryAccount    TicketCategory = "account"
	CategoryTraining   TicketCategory = "training"
	CategoryScheduling TicketCategory = "scheduling"
	CategoryCompliance TicketCategory = "compliance"
	CategoryFeedback   TicketCategory = "feedback"
	CategoryOther      TicketCategory = "other"
)

// ValidCategory reports whether c is a known category.
func ValidCategory(c TicketCategory) bool {
	switch c {
	case CategoryTechnical, CategoryAccount, CategoryTraining, CategoryScheduling,
		CategoryCompliance, CategoryFeedback, CategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for volunteer support requests. Subject, description,
// category and submitter identity are immutable after creation; mutable fields
// change only through the lifecycle engine. Version is a monotonic counter
// checked at the store boundary so stale writes are rejected.
type Ticket struct {
	ID             string           `json:"id"`
	Subject        string           `json:"subject"`
	Description    string           `json:"description"`
	Category       TicketCategory   `json:"category"`
	Priority       TicketPriority   `json:"priority"`
	Status         TicketStatus     `json:"status"`
	SubmittedBy    string           `json:"submittedBy"`
	SubmitterName  string           `json:"submitterName"`
	SubmitterEmail string           `json:"submitterEmail"`
	AssignedTo     *string          `json:"assignedTo"`
	AssignedToName *string          `json:"assignedToName"`
	Version        int64            `json:"version"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	ClosedAt       *time.Time       `json:"closedAt"`
	Notes          []Note           `json:"notes"`
	Activity       []ActivityRecord `json:"activity"`
}

// Clone returns a deep copy so the lifecycle engine can mutate freely while
// the caller keeps the loaded state untouched.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	out := *t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		out.AssignedTo = &v
	}
	if t.AssignedToName != nil {
		v := *t.AssignedToName
		out.AssignedToName = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		out.ClosedAt = &v
	}
	out.Notes = append([]Note(nil), t.Notes...)
	out.Activity = append([]ActivityRecord(nil), t.Activity...)
	return &out
}
