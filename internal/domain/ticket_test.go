package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTicket(t *testing.T) *Ticket {
	t.Helper()
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	closed := created.Add(3 * time.Hour)
	assignee := "vol-9"
	assigneeName := "Sam Lindqvist"
	oldStatus := "open"
	newStatus := "closed"

	return &Ticket{
		ID:             "t-1",
		Subject:        "Portal login fails",
		Description:    "Password reset loop",
		Category:       CategoryTechnical,
		Priority:       TicketPriorityHigh,
		Status:         TicketStatusClosed,
		SubmittedBy:    "vol-1",
		SubmitterName:  "Dana Reyes",
		SubmitterEmail: "dana@careclinic.org",
		AssignedTo:     &assignee,
		AssignedToName: &assigneeName,
		Version:        3,
		CreatedAt:      created,
		UpdatedAt:      closed,
		ClosedAt:       &closed,
		Notes: []Note{
			{ID: "n-1", AuthorID: "vol-9", AuthorName: "Sam Lindqvist", Content: "resolved", IsInternal: false, CreatedAt: closed},
			{ID: "n-2", AuthorID: "adm-1", AuthorName: "Pat Okafor", Content: "vendor notified", IsInternal: true, CreatedAt: closed},
		},
		Activity: []ActivityRecord{
			{ID: "a-1", Type: ActivityCreated, Description: "Ticket created", PerformedBy: "vol-1", PerformedByName: "Dana Reyes", Timestamp: created},
			{ID: "a-2", Type: ActivityStatusChange, Description: "Status changed from open to closed", PerformedBy: "vol-9", PerformedByName: "Sam Lindqvist", OldValue: &oldStatus, NewValue: &newStatus, Timestamp: closed},
		},
	}
}

func TestTicketJSONRoundTrip(t *testing.T) {
	original := sampleTicket(t)

	raw, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Ticket
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, *original, decoded, "every field survives the round trip")
	require.Len(t, decoded.Activity, 2)
	assert.Equal(t, ActivityCreated, decoded.Activity[0].Type, "activity order preserved")
	assert.True(t, decoded.Notes[1].IsInternal)
}

func TestTicketJSONFieldNames(t *testing.T) {
	raw, err := json.Marshal(sampleTicket(t))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))

	for _, key := range []string{
		"id", "subject", "description", "category", "priority", "status",
		"submittedBy", "submitterName", "submitterEmail", "assignedTo",
		"assignedToName", "version", "createdAt", "updatedAt", "closedAt",
		"notes", "activity",
	} {
		assert.Contains(t, fields, key)
	}
}

func TestVolunteerJSONHidesPasswordHash(t *testing.T) {
	raw, err := json.Marshal(Volunteer{
		ID:           "vol-1",
		Email:        "dana@careclinic.org",
		PasswordHash: "$2a$10$abcdefg",
		Role:         RoleVolunteer,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abcdefg")
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleTicket(t)
	clone := original.Clone()

	require.Equal(t, *original, *clone)

	*clone.AssignedTo = "someone-else"
	clone.Notes[0].Content = "tampered"
	clone.Activity = append(clone.Activity, ActivityRecord{ID: "a-3"})
	later := clone.CreatedAt.Add(time.Hour)
	clone.ClosedAt = &later

	assert.Equal(t, "vol-9", *original.AssignedTo)
	assert.Len(t, original.Activity, 2)
	assert.Equal(t, original.UpdatedAt, *original.ClosedAt)
	assert.Equal(t, "resolved", original.Notes[0].Content)
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidStatus(TicketStatusInProgress))
	assert.False(t, ValidStatus(TicketStatus("archived")))

	assert.True(t, ValidPriority(TicketPriorityUrgent))
	assert.False(t, ValidPriority(TicketPriority("asap")))

	assert.True(t, ValidCategory(CategoryCompliance))
	assert.False(t, ValidCategory(TicketCategory("gardening")))

	assert.True(t, ValidRole(RoleCoordinator))
	assert.False(t, ValidRole(VolunteerRole("root")))
}
