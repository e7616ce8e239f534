package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository persists attendance records in Postgres. The table carries a
// unique constraint on (student_id, date) which upserts and the sweep both
// rely on.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the record for (studentID, date), overwriting a prior mark
// for the same day. Last write wins.
func (r *Repository) Upsert(ctx context.Context, studentID, date, status string) (Record, error) {
	now := time.Now().UTC()
	rec := Record{StudentID: studentID, Date: date, Status: status, CreatedAt: now, UpdatedAt: now}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (student_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (student_id, date)
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`, studentID, date, status, now)
	if err := row.Scan(&rec.CreatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// InsertIfMissing writes an absent row only when no record exists for the
// pair yet. Reports whether a row was inserted.
func (r *Repository) InsertIfMissing(ctx context.Context, studentID, date, status string) (bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (student_id, date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (student_id, date) DO NOTHING
	`, studentID, date, status, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Get returns the record for (studentID, date), or nil when absent.
func (r *Repository) Get(ctx context.Context, studentID, date string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT student_id, date, status, created_at, updated_at
		FROM attendance_records WHERE student_id = $1 AND date = $2
	`, studentID, date)
	var rec Record
	if err := row.Scan(&rec.StudentID, &rec.Date, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// MapForDate returns all records for a date keyed by student id.
func (r *Repository) MapForDate(ctx context.Context, date string) (map[string]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id, date, status, created_at, updated_at
		FROM attendance_records WHERE date = $1
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := make(map[string]Record)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.StudentID, &rec.Date, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		res[rec.StudentID] = rec
	}
	return res, rows.Err()
}
