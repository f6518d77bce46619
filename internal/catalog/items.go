package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// scanItem maps a single items row onto a PlayableItem. Hand-written rather
// than reflected: the entity set is small and a generic binder is exactly
// the kind of thing that quietly binds the wrong column to the wrong field.
func scanItem(row interface {
	Scan(dest ...interface{}) error
}) (*PlayableItem, error) {
	var it PlayableItem
	var typ string
	if err := row.Scan(&it.ID, &it.Filename, &it.Duration, &it.Description, &it.PlayCount, &typ, &it.Cache); err != nil {
		return nil, err
	}
	it.Type = ItemType(typ)
	return &it, nil
}

// FetchItemByID returns the item with the given id, or ErrNotFound.
func (s *Store) FetchItemByID(id int64) (*PlayableItem, error) {
	row := s.db.QueryRow(`SELECT id, filename, duration, description, playcount, type, cache FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch item %d: %w", id, err)
	}
	return item, nil
}

// FetchItemByFilename returns the item with the given filename, or
// ErrNotFound.
func (s *Store) FetchItemByFilename(filename string) (*PlayableItem, error) {
	row := s.db.QueryRow(`SELECT id, filename, duration, description, playcount, type, cache FROM items WHERE filename = ?`, filename)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch item by filename %q: %w", filename, err)
	}
	return item, nil
}

// InsertItem persists a new item and returns its assigned id. Filename must
// be unique; a collision surfaces as a *ConstraintError.
func (s *Store) InsertItem(item *PlayableItem) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO items (filename, duration, description, playcount, type, cache) VALUES (?, ?, ?, ?, ?, ?)`,
		item.Filename, item.Duration, item.Description, item.PlayCount, string(item.Type), item.Cache,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &ConstraintError{Field: "filename", Value: item.Filename}
		}
		return 0, fmt.Errorf("catalog: insert item: %w", err)
	}
	return res.LastInsertId()
}

// UpdateItem overwrites the mutable fields of an existing item.
func (s *Store) UpdateItem(item *PlayableItem) error {
	res, err := s.db.Exec(
		`UPDATE items SET filename = ?, duration = ?, description = ?, type = ?, cache = ? WHERE id = ?`,
		item.Filename, item.Duration, item.Description, string(item.Type), item.Cache, item.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &ConstraintError{Field: "filename", Value: item.Filename}
		}
		return fmt.Errorf("catalog: update item %d: %w", item.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: update item %d: %w", item.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementPlaycount bumps an item's playcount by one. Called before
// playback starts (at-least-once semantics, see DESIGN.md).
func (s *Store) IncrementPlaycount(id int64) error {
	res, err := s.db.Exec(`UPDATE items SET playcount = playcount + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalog: increment playcount %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: increment playcount %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// modernc.org/sqlite reports these through a plain *sqlite.Error whose
// message always contains "UNIQUE constraint failed"; matching on that text
// avoids importing the driver's internal error type.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToUpper(err.Error()), "UNIQUE CONSTRAINT FAILED")
}
