package roomchange

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"hosteldesk/internal/apperr"
)

// Repository persists room-change requests in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const reqCols = `id, student_id, new_room, status, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.StudentID, &req.NewRoom, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	return req, err
}

// Create writes a new pending request.
func (r *Repository) Create(ctx context.Context, req Request) (Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.Status = StatusPending
	req.CreatedAt = now
	req.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO room_change_requests (`+reqCols+`)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, req.ID, req.StudentID, req.NewRoom, req.Status, req.CreatedAt, req.UpdatedAt)
	if err != nil {
		// uniq_room_change_pending: a concurrent submission got there first.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Request{}, apperr.Conflict("room change request already pending")
		}
		return Request{}, err
	}
	return req, nil
}

// Get returns a request by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reqCols+` FROM room_change_requests WHERE id = $1
	`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// PendingFor returns the student's most recent pending request, or nil.
func (r *Repository) PendingFor(ctx context.Context, studentID string) (*Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reqCols+` FROM room_change_requests
		WHERE student_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, studentID, StatusPending)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// LatestTerminalFor returns the student's most recently updated approved or
// rejected request, or nil.
func (r *Repository) LatestTerminalFor(ctx context.Context, studentID string) (*Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+reqCols+` FROM room_change_requests
		WHERE student_id = $1 AND status IN ($2, $3)
		ORDER BY updated_at DESC
		LIMIT 1
	`, studentID, StatusApproved, StatusRejected)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// DeleteTerminalFor removes all of the student's terminal requests.
func (r *Repository) DeleteTerminalFor(ctx context.Context, studentID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM room_change_requests
		WHERE student_id = $1 AND status IN ($2, $3)
	`, studentID, StatusApproved, StatusRejected)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// List returns requests joined with student identity, newest first,
// optionally filtered by status.
func (r *Repository) List(ctx context.Context, status string) ([]ListItem, error) {
	query := `
		SELECT rc.id, a.reg_no, a.name, a.dept, a.room_no, rc.new_room, rc.status, rc.created_at
		FROM room_change_requests rc
		JOIN accounts a ON a.id = rc.student_id
	`
	args := []any{}
	if status != "" {
		query += ` WHERE rc.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY rc.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []ListItem
	for rows.Next() {
		var it ListItem
		if err := rows.Scan(&it.ID, &it.RegNo, &it.Name, &it.Dept, &it.CurrentRoom,
			&it.NewRoom, &it.Status, &it.RequestedAt); err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

// Approve flips a pending request to approved and moves the student's room
// in one transaction. The status flip is conditional on the row still being
// pending, so two racing approvals cannot both succeed. Returns nil when
// the request was not pending.
func (r *Repository) Approve(ctx context.Context, id string) (*Request, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE room_change_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+reqCols+`
	`, id, StatusApproved, StatusPending)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET room_no = $2 WHERE id = $1
	`, req.StudentID, req.NewRoom); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &req, nil
}

// Reject flips a pending request to rejected. No student mutation. Returns
// nil when the request was not pending.
func (r *Repository) Reject(ctx context.Context, id string) (*Request, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE room_change_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING `+reqCols+`
	`, id, StatusRejected, StatusPending)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}
