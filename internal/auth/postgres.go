package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"dishpatch.dev/internal/ids"
)

// PGStore implements UserStore on PostgreSQL. Email uniqueness rides on a
// lower(email) unique index, phone uniqueness on a partial unique index; see
// schema.sql.
type PGStore struct {
	db *sql.DB
}

var _ UserStore = (*PGStore)(nil)

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const userColumns = `id, name, email, phone, password_hash, role, created_at, updated_at`

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *PGStore) FindByPhone(ctx context.Context, phone string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where phone = $1`, phone)
	return scanUser(row)
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id)
	return scanUser(row)
}

func (s *PGStore) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users(id, name, email, phone, password_hash, role)
		values ($1, $2, $3, nullif($4, ''), $5, $6)
		returning created_at, updated_at`,
		user.ID, user.Name, user.Email, user.Phone, user.PasswordHash, string(user.Role),
	)
	if err := row.Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *PGStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $2, updated_at = now() where id = $1`, id, hash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u     User
		phone sql.NullString
		role  string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &phone, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Phone = phone.String
	u.Role = Role(role)
	return &u, nil
}

// 23505 is unique_violation: the insert reports the conflict atomically, so
// Register's existence pre-check never races the write.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
