package domain

import "time"

// Note is free-text commentary attached to a ticket. All fields are immutable
// once created. Internal notes are hidden from non-admin viewers at read time;
// the stored data is never altered by visibility filtering.
type Note struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}
