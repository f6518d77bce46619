package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// scheduleLabel is the well-known blob-table key the schedule is persisted
// under.
const scheduleLabel = "schedule"

// SaveBlob writes data under label, replacing any previous value. Used by
// the requirement engine to persist the schedule as an opaque blob; the
// catalog package does not know or care what the bytes mean.
func (s *Store) SaveBlob(label string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO blobs (label, data) VALUES (?, ?)
		 ON CONFLICT(label) DO UPDATE SET data = excluded.data`,
		label, data,
	)
	if err != nil {
		return fmt.Errorf("catalog: save blob %q: %w", label, err)
	}
	return nil
}

// LoadBlob returns the bytes stored under label, or ErrNotFound.
func (s *Store) LoadBlob(label string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM blobs WHERE label = ?`, label).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load blob %q: %w", label, err)
	}
	return data, nil
}

// SaveSchedule persists the schedule blob under its well-known label.
func (s *Store) SaveSchedule(data []byte) error {
	return s.SaveBlob(scheduleLabel, data)
}

// LoadSchedule returns the persisted schedule blob, or ErrNotFound if none
// has ever been saved.
func (s *Store) LoadSchedule() ([]byte, error) {
	return s.LoadBlob(scheduleLabel)
}
