// Package sqlite keeps registered users in a local SQLite database.
//
// It serves deployments that run without the MotherLink backend API and is
// also used by the simulator.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/motherlink/pkg/domain"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// columns maps updatable fields onto table columns. Nothing outside this
// table ever reaches a statement.
var columns = map[domain.UserField]string{
	domain.FieldLocation:        "location",
	domain.FieldInsurance:       "insurance",
	domain.FieldNationalID:      "national_id",
	domain.FieldHealthCenter:    "health_center",
	domain.FieldPregnancyMonths: "pregnancy_months",
}

// Store implements ports.UserRegistry.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database at path
// with WAL mode and creates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			kind             TEXT NOT NULL,
			name             TEXT NOT NULL DEFAULT '',
			national_id      TEXT NOT NULL DEFAULT '',
			insurance        TEXT NOT NULL DEFAULT '',
			location         TEXT NOT NULL DEFAULT '',
			pregnancy_months TEXT NOT NULL DEFAULT '',
			health_center    TEXT NOT NULL DEFAULT '',
			phone_number     TEXT NOT NULL UNIQUE,
			created_at       TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	return err
}

// Register inserts a user. A second registration for the same phone number
// returns domain.ErrAlreadyRegistered.
func (s *Store) Register(ctx context.Context, kind domain.UserKind, user domain.User) (*domain.User, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (kind, name, national_id, insurance, location, pregnancy_months, health_center, phone_number)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(kind), user.Name, user.NationalID, user.Insurance, user.Location,
		user.PregnancyMonths, user.HealthCenter, user.PhoneNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("sqlite: insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: last insert id: %w", err)
	}

	created := user
	created.ID = fmt.Sprint(id)
	created.Kind = kind
	return &created, nil
}

// GetByPhone returns domain.ErrUserNotFound when no row matches.
func (s *Store) GetByPhone(ctx context.Context, phoneNumber string) (*domain.User, error) {
	var (
		u    domain.User
		id   int64
		kind string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, name, national_id, insurance, location, pregnancy_months, health_center, phone_number
		FROM users WHERE phone_number = ?`, phoneNumber,
	).Scan(&id, &kind, &u.Name, &u.NationalID, &u.Insurance, &u.Location, &u.PregnancyMonths, &u.HealthCenter, &u.PhoneNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get user: %w", err)
	}
	u.ID = fmt.Sprint(id)
	u.Kind = domain.UserKind(kind)
	return &u, nil
}

// UpdateField sets one column. The column name comes from a fixed table.
func (s *Store) UpdateField(ctx context.Context, phoneNumber string, field domain.UserField, value string) error {
	col, ok := columns[field]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownField, field)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET "+col+" = ?, updated_at = datetime('now') WHERE phone_number = ?",
		value, phoneNumber,
	)
	if err != nil {
		return fmt.Errorf("sqlite: update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Count returns the number of registered users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count users: %w", err)
	}
	return n, nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
