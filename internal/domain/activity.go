package domain

import "time"

// ActivityType captures what kind of mutation an audit entry describes.
type ActivityType string

const (
	ActivityCreated        ActivityType = "created"
	ActivityStatusChange   ActivityType = "status_change"
	ActivityAssigned       ActivityType = "assigned"
	ActivityNoteAdded      ActivityType = "note_added"
	ActivityPriorityChange ActivityType = "priority_change"
)

// ActivityRecord is an immutable audit trail entry. Every ticket mutation
// appends exactly one record; entries are never edited or removed, so a
// ticket's activity grows monotonically from the initial "created" entry.
// OldValue/NewValue are set for status_change, priority_change and assigned.
type ActivityRecord struct {
	ID              string       `json:"id"`
	Type            ActivityType `json:"type"`
	Description     string       `json:"description"`
	PerformedBy     string       `json:"performedBy"`
	PerformedByName string       `json:"performedByName"`
	OldValue        *string      `json:"oldValue,omitempty"`
	NewValue        *string      `json:"newValue,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}
