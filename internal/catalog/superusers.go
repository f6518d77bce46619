package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// Superuser is an operator credential allowed to perform destructive
// control-surface operations (schedule/playlist writes, the raw /sql
// passthrough). Passwords are never stored in the clear — callers hash with
// bcrypt before calling UpsertSuperuser.
type Superuser struct {
	Username     string
	PasswordHash string
}

// FetchSuperuser returns the stored credential for username, or ErrNotFound.
func (s *Store) FetchSuperuser(username string) (*Superuser, error) {
	var su Superuser
	err := s.db.QueryRow(`SELECT username, password_hash FROM superusers WHERE username = ?`, username).
		Scan(&su.Username, &su.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch superuser %q: %w", username, err)
	}
	return &su, nil
}

// UpsertSuperuser inserts or replaces the stored hash for username.
func (s *Store) UpsertSuperuser(username, passwordHash string) error {
	_, err := s.db.Exec(
		`INSERT INTO superusers (username, password_hash) VALUES (?, ?)
		 ON CONFLICT(username) DO UPDATE SET password_hash = excluded.password_hash`,
		username, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("catalog: upsert superuser %q: %w", username, err)
	}
	return nil
}
