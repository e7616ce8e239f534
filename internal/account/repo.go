package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const cols = `id, reg_no, name, parent_mobile, student_mobile, room_no, floor, warden, dept, password_hash, role, created_at`

// Repository persists accounts in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.RegNo, &a.Name, &a.ParentMobile, &a.StudentMobile,
		&a.RoomNo, &a.Floor, &a.Warden, &a.Dept, &a.PasswordHash, &a.Role, &a.CreatedAt)
	return a, err
}

// Insert writes a new account.
func (r *Repository) Insert(ctx context.Context, a Account) (Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (`+cols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, a.ID, a.RegNo, a.Name, a.ParentMobile, a.StudentMobile, a.RoomNo, a.Floor,
		a.Warden, a.Dept, a.PasswordHash, a.Role, a.CreatedAt)
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// Get returns an account by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cols+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// GetByRegNo returns an account by its registration number / login
// identifier, or nil when absent.
func (r *Repository) GetByRegNo(ctx context.Context, regNo string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+cols+` FROM accounts WHERE reg_no = $1`, regNo)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListStudents returns every student account ordered by registration number.
func (r *Repository) ListStudents(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+cols+` FROM accounts WHERE role = $1 ORDER BY reg_no
	`, RoleStudent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// UpdateRoom moves a student to a new room.
func (r *Repository) UpdateRoom(ctx context.Context, id, roomNo string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET room_no = $2 WHERE id = $1`, id, roomNo)
	return err
}
