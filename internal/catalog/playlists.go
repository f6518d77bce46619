package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
)

// SuperlistName is the synthetic name reported for the all-items playlist
// returned by FetchSuperlist. It is never stored in the playlists table.
const SuperlistName = "__superlist__"

// ListPlaylists returns a summary of every stored playlist.
func (s *Store) ListPlaylists() ([]PlaylistSummary, error) {
	rows, err := s.db.Query(`
		SELECT p.id, p.name, p.weight, COUNT(pi.item_id)
		FROM playlists p
		LEFT JOIN playlist_items pi ON pi.playlist_id = p.id
		GROUP BY p.id
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list playlists: %w", err)
	}
	defer rows.Close()

	var out []PlaylistSummary
	for rows.Next() {
		var sum PlaylistSummary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Weight, &sum.Length); err != nil {
			return nil, fmt.Errorf("catalog: list playlists: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// fetchPlaylistRow loads id/name/weight for a playlist identified by id or
// name (exactly one of which should be non-zero/non-empty).
func (s *Store) fetchPlaylistRow(id int64, name string) (int64, string, int, error) {
	var row *sql.Row
	if name != "" {
		row = s.db.QueryRow(`SELECT id, name, weight FROM playlists WHERE name = ?`, name)
	} else {
		row = s.db.QueryRow(`SELECT id, name, weight FROM playlists WHERE id = ?`, id)
	}
	var gotID int64
	var gotName string
	var weight int
	err := row.Scan(&gotID, &gotName, &weight)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", 0, ErrNotFound
	}
	if err != nil {
		return 0, "", 0, fmt.Errorf("catalog: fetch playlist: %w", err)
	}
	return gotID, gotName, weight, nil
}

// itemIDsOrdered returns the item ids belonging to playlistID ordered by the
// given SQL ORDER BY clause (duration-descending or playcount-ascending,
// each with a random tiebreak, per spec).
func (s *Store) itemIDsOrdered(playlistID int64, orderBy string) ([]int64, error) {
	query := fmt.Sprintf(`
		SELECT i.id
		FROM playlist_items pi
		JOIN items i ON i.id = pi.item_id
		WHERE pi.playlist_id = ?
		ORDER BY %s`, orderBy)
	rows, err := s.db.Query(query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("catalog: load playlist items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("catalog: load playlist items: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FetchPlaylistByID returns a playlist with items ordered
// duration-descending (random tiebreak) — the order pop_with_timelimit
// relies on to find the largest item that still fits.
func (s *Store) FetchPlaylistByID(id int64) (*Playlist, error) {
	gotID, name, weight, err := s.fetchPlaylistRow(id, "")
	if err != nil {
		return nil, err
	}
	ids, err := s.itemIDsOrdered(gotID, "i.duration DESC, RANDOM()")
	if err != nil {
		return nil, err
	}
	return &Playlist{ID: gotID, Name: name, Weight: weight, ItemIDs: ids}, nil
}

// FetchPlaylistByName is FetchPlaylistByID keyed by name instead of id.
func (s *Store) FetchPlaylistByName(name string) (*Playlist, error) {
	gotID, gotName, weight, err := s.fetchPlaylistRow(0, name)
	if err != nil {
		return nil, err
	}
	ids, err := s.itemIDsOrdered(gotID, "i.duration DESC, RANDOM()")
	if err != nil {
		return nil, err
	}
	return &Playlist{ID: gotID, Name: gotName, Weight: weight, ItemIDs: ids}, nil
}

// FetchPlaylistShuffled returns the playlist ordered by playcount ascending
// (random tiebreak), so the least-played items rotate to the front. Used for
// the main show so playback doesn't starve rarely-picked items.
func (s *Store) FetchPlaylistShuffled(name string) (*Playlist, error) {
	gotID, gotName, weight, err := s.fetchPlaylistRow(0, name)
	if err != nil {
		return nil, err
	}
	ids, err := s.itemIDsOrdered(gotID, "i.playcount ASC, RANDOM()")
	if err != nil {
		return nil, err
	}
	return &Playlist{ID: gotID, Name: gotName, Weight: weight, ItemIDs: ids}, nil
}

// FetchRandomWeightedPlaylist returns a playlist chosen with probability
// proportional to its weight. Per SPEC_FULL.md, weighting is computed in Go
// with a cumulative-weight scan rather than a self-joining SQL view: it is
// just as cheap and it sidesteps the degenerate all-zero-weight case
// cleanly (ErrNotFound instead of the store crashing or looping forever).
func (s *Store) FetchRandomWeightedPlaylist() (*Playlist, error) {
	rows, err := s.db.Query(`SELECT id, weight FROM playlists WHERE weight > 0`)
	if err != nil {
		return nil, fmt.Errorf("catalog: weighted playlist scan: %w", err)
	}

	type candidate struct {
		id     int64
		weight int
	}
	var candidates []candidate
	var total int
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.weight); err != nil {
			rows.Close()
			return nil, fmt.Errorf("catalog: weighted playlist scan: %w", err)
		}
		candidates = append(candidates, c)
		total += c.weight
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if total <= 0 {
		return nil, ErrNotFound
	}

	pick := rand.IntN(total)
	var chosen int64
	for _, c := range candidates {
		if pick < c.weight {
			chosen = c.id
			break
		}
		pick -= c.weight
	}

	return s.FetchPlaylistByID(chosen)
}

// FetchSuperlist returns a synthetic playlist containing every catalog item,
// duration-descending, paged by limit/offset.
func (s *Store) FetchSuperlist(limit, offset int) (*Playlist, error) {
	if limit <= 0 {
		limit = -1 // SQLite: negative LIMIT means "no limit"
	}
	rows, err := s.db.Query(
		`SELECT id FROM items ORDER BY duration DESC, RANDOM() LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch superlist: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("catalog: fetch superlist: %w", err)
		}
		ids = append(ids, id)
	}
	return &Playlist{Name: SuperlistName, ItemIDs: ids}, rows.Err()
}

// LockPlaylistByName records that a playlist name is referenced by the
// engine (legal-id, bumpers), preventing its deletion through the control
// surface. Locks are process-scoped: Open clears them all on startup.
func (s *Store) LockPlaylistByName(name string) error {
	_, err := s.db.Exec(`INSERT OR IGNORE INTO playlist_locks (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("catalog: lock playlist %q: %w", name, err)
	}
	return nil
}

// IsPlaylistLocked reports whether name is currently locked.
func (s *Store) IsPlaylistLocked(name string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM playlist_locks WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("catalog: check playlist lock %q: %w", name, err)
	}
	return n > 0, nil
}

// CreatePlaylist inserts a new, empty playlist.
func (s *Store) CreatePlaylist(name string, weight int) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO playlists (name, weight) VALUES (?, ?)`, name, weight)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &ConstraintError{Field: "name", Value: name}
		}
		return 0, fmt.Errorf("catalog: create playlist: %w", err)
	}
	return res.LastInsertId()
}

// ReplacePlaylistItems overwrites a playlist's ordered item sequence.
func (s *Store) ReplacePlaylistItems(playlistID int64, itemIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: replace playlist items: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM playlist_items WHERE playlist_id = ?`, playlistID); err != nil {
		return fmt.Errorf("catalog: replace playlist items: %w", err)
	}
	if err := insertPlaylistItems(tx, playlistID, itemIDs, 0); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendPlaylistItems appends ids to the end of a playlist's sequence.
func (s *Store) AppendPlaylistItems(playlistID int64, itemIDs []int64) error {
	var maxPos sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(position) FROM playlist_items WHERE playlist_id = ?`, playlistID).Scan(&maxPos); err != nil {
		return fmt.Errorf("catalog: append playlist items: %w", err)
	}
	start := int64(0)
	if maxPos.Valid {
		start = maxPos.Int64 + 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("catalog: append playlist items: %w", err)
	}
	defer tx.Rollback()

	if err := insertPlaylistItems(tx, playlistID, itemIDs, start); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPlaylistItems(tx *sql.Tx, playlistID int64, itemIDs []int64, startPos int64) error {
	stmt, err := tx.Prepare(`INSERT INTO playlist_items (playlist_id, position, item_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalog: insert playlist items: %w", err)
	}
	defer stmt.Close()

	for i, id := range itemIDs {
		if _, err := stmt.Exec(playlistID, startPos+int64(i), id); err != nil {
			return fmt.Errorf("catalog: insert playlist items: %w", err)
		}
	}
	return nil
}
