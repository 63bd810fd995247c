package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careclinic/volunteer-desk/internal/domain"
)

// ErrVersionConflict is returned when an update carries a stale ticket
// version. The caller should reload and retry.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures list/board query parameters.
type TicketFilter struct {
	SubmittedBy *string
	AssignedTo  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.TicketCategory
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Update checks the version
// counter so concurrent writers cannot silently overwrite each other; notes
// and activity are appended as independent rows, so audit entries survive
// even when a competing field write wins.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	AppendNote(ctx context.Context, ticketID string, note *domain.Note) error
	AppendActivity(ctx context.Context, ticketID string, record *domain.ActivityRecord) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertTicket = `
        INSERT INTO tickets (subject, description, category, priority, status,
            submitted_by, submitter_name, submitter_email, assigned_to, assigned_to_name,
            version, created_at, updated_at, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id`
	if err := tx.QueryRow(ctx, insertTicket,
		ticket.Subject,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.SubmittedBy,
		ticket.SubmitterName,
		ticket.SubmitterEmail,
		ticket.AssignedTo,
		ticket.AssignedToName,
		ticket.Version,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ClosedAt,
	).Scan(&ticket.ID); err != nil {
		return err
	}

	for i := range ticket.Activity {
		if err := insertActivity(ctx, tx, ticket.ID, &ticket.Activity[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET priority=$1, status=$2, assigned_to=$3, assigned_to_name=$4,
            closed_at=$5, updated_at=$6, version=version+1
        WHERE id=$7 AND version=$8`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.AssignedToName,
		ticket.ClosedAt,
		ticket.UpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionConflict
		}
		return pgx.ErrNoRows
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, subject, description, category, priority, status,
               submitted_by, submitter_name, submitter_email, assigned_to, assigned_to_name,
               version, created_at, updated_at, closed_at
        FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.SubmittedBy,
		&ticket.SubmitterName,
		&ticket.SubmitterEmail,
		&ticket.AssignedTo,
		&ticket.AssignedToName,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}

	notes, err := r.listNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Notes = notes

	activity, err := r.listActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Activity = activity
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, subject, description, category, priority, status,
                    submitted_by, submitter_name, submitter_email, assigned_to, assigned_to_name,
                    version, created_at, updated_at, closed_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.SubmittedBy != nil {
		args = append(args, *filter.SubmittedBy)
		clauses = append(clauses, fmt.Sprintf("submitted_by=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			args = append(args, cat)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Subject,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.Status,
			&ticket.SubmittedBy,
			&ticket.SubmitterName,
			&ticket.SubmitterEmail,
			&ticket.AssignedTo,
			&ticket.AssignedToName,
			&ticket.Version,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&ticket.ClosedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) AppendNote(ctx context.Context, ticketID string, note *domain.Note) error {
	const query = `
        INSERT INTO ticket_notes (id, ticket_id, author_id, author_name, content, is_internal, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		note.ID,
		ticketID,
		note.AuthorID,
		note.AuthorName,
		note.Content,
		note.IsInternal,
		note.CreatedAt,
	)
	return err
}

func (r *ticketRepository) AppendActivity(ctx context.Context, ticketID string, record *domain.ActivityRecord) error {
	return insertActivity(ctx, r.pool, ticketID, record)
}

// execer abstracts pool vs transaction execution for activity inserts.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertActivity(ctx context.Context, db execer, ticketID string, record *domain.ActivityRecord) error {
	const query = `
        INSERT INTO ticket_activity (id, ticket_id, type, description, performed_by, performed_by_name,
            old_value, new_value, timestamp)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := db.Exec(ctx, query,
		record.ID,
		ticketID,
		record.Type,
		record.Description,
		record.PerformedBy,
		record.PerformedByName,
		record.OldValue,
		record.NewValue,
		record.Timestamp,
	)
	return err
}

func (r *ticketRepository) listNotes(ctx context.Context, ticketID string) ([]domain.Note, error) {
	const query = `
        SELECT id, author_id, author_name, content, is_internal, created_at
        FROM ticket_notes WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.AuthorID,
			&note.AuthorName,
			&note.Content,
			&note.IsInternal,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (r *ticketRepository) listActivity(ctx context.Context, ticketID string) ([]domain.ActivityRecord, error) {
	const query = `
        SELECT id, type, description, performed_by, performed_by_name, old_value, new_value, timestamp
        FROM ticket_activity WHERE ticket_id=$1 ORDER BY timestamp ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ActivityRecord
	for rows.Next() {
		var record domain.ActivityRecord
		if err := rows.Scan(
			&record.ID,
			&record.Type,
			&record.Description,
			&record.PerformedBy,
			&record.PerformedByName,
			&record.OldValue,
			&record.NewValue,
			&record.Timestamp,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
