// Package playlistview implements the in-memory working copy of a catalog
// playlist that the automation loop draws candidates from during a single
// play session. Items consumed from a view are tombstoned in place rather
// than removed or mutated in the backing catalog, so the same playlist can
// be reloaded fresh the next time it is rotated in.
package playlistview

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
)

// ItemFetcher loads a single item by id from the catalog. Accepted as a
// function value, the same cycle-avoidance idiom used across this codebase,
// so this package depends only on catalog's types, never automation or
// control.
type ItemFetcher func(id int64) (*catalog.PlayableItem, error)

// entry is one ordinal slot in the view: an item id plus whether it has
// already been popped this session.
type entry struct {
	id         int64
	tombstoned bool
}

// View is a thin, mutex-guarded wrapper over an ordered id sequence. The
// zero value is not usable; construct with New.
type View struct {
	mu        sync.Mutex
	name      string
	entries   []entry
	fetch     ItemFetcher
	neverSave bool
}

// New builds a View over ids, pre-sorted by the caller the way the source
// playlist demands (duration-descending for pop_with_timelimit's
// largest-fit behavior, playcount-ascending for round-robin rotation).
// neverSave marks ephemeral runtime state — the override queue, bumpers,
// main show — so a generic store-back path can refuse to persist it.
func New(name string, ids []int64, fetch ItemFetcher, neverSave bool) *View {
	entries := make([]entry, len(ids))
	for i, id := range ids {
		entries[i] = entry{id: id}
	}
	return &View{name: name, entries: entries, fetch: fetch, neverSave: neverSave}
}

// Name reports the view's label (typically the backing playlist's name).
func (v *View) Name() string {
	return v.name
}

// NeverSave reports whether this view represents ephemeral runtime state
// that a generic persistence path must refuse to write back.
func (v *View) NeverSave() bool {
	return v.neverSave
}

// Size counts non-tombstoned entries.
func (v *View) Size() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sizeLocked()
}

func (v *View) sizeLocked() int {
	n := 0
	for _, e := range v.entries {
		if !e.tombstoned {
			n++
		}
	}
	return n
}

// PopWithTimeLimit scans in order, fetching each live candidate from the
// catalog, and returns the first whose duration fits within seconds,
// tombstoning it in place. The view is expected to already be sorted so the
// first fit is typically the largest that still fits within the budget. A
// zero-length result (ok == false) means nothing in the view fits.
func (v *View) PopWithTimeLimit(seconds int) (item *catalog.PlayableItem, ok bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.entries {
		if v.entries[i].tombstoned {
			continue
		}
		it, ferr := v.fetch(v.entries[i].id)
		if ferr != nil {
			return nil, false, fmt.Errorf("playlistview %q: fetch item %d: %w", v.name, v.entries[i].id, ferr)
		}
		if it.Duration >= 0 && it.Duration <= seconds {
			v.entries[i].tombstoned = true
			return it, true, nil
		}
	}
	return nil, false, nil
}

// PopFront unconditionally pops the first non-tombstoned entry, regardless
// of its duration.
func (v *View) PopFront() (item *catalog.PlayableItem, ok bool, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i := range v.entries {
		if v.entries[i].tombstoned {
			continue
		}
		it, ferr := v.fetch(v.entries[i].id)
		if ferr != nil {
			return nil, false, fmt.Errorf("playlistview %q: fetch item %d: %w", v.name, v.entries[i].id, ferr)
		}
		v.entries[i].tombstoned = true
		return it, true, nil
	}
	return nil, false, nil
}

// Filter returns a fresh View containing only the non-tombstoned entries
// whose description or filename matches pattern, case-insensitively. The
// new view shares this view's neverSave flag and fetcher.
func (v *View) Filter(pattern string) (*View, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("playlistview: invalid filter pattern %q: %w", pattern, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var ids []int64
	for _, e := range v.entries {
		if e.tombstoned {
			continue
		}
		it, ferr := v.fetch(e.id)
		if ferr != nil {
			return nil, fmt.Errorf("playlistview %q: fetch item %d: %w", v.name, e.id, ferr)
		}
		if re.MatchString(it.Description) || re.MatchString(it.Filename) {
			ids = append(ids, e.id)
		}
	}
	return New(v.name+":filtered", ids, v.fetch, v.neverSave), nil
}

// ApplyMergeRequest appends ids to the view, or — if replace is true —
// discards the current sequence (tombstones and all) and replaces it
// wholesale. sharedstate.State.PushOverride appends to the override queue
// through it. The control surface's /playlist/update does not use it: that
// resource writes the stored playlist through the catalog.
func (v *View) ApplyMergeRequest(ids []int64, replace bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if replace {
		v.entries = make([]entry, len(ids))
		for i, id := range ids {
			v.entries[i] = entry{id: id}
		}
		return
	}

	for _, id := range ids {
		v.entries = append(v.entries, entry{id: id})
	}
}

// ItemIDs returns the ids of every non-tombstoned entry, in order. Used to
// rebuild a View's snapshot for persistence or inspection.
func (v *View) ItemIDs() []int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]int64, 0, len(v.entries))
	for _, e := range v.entries {
		if !e.tombstoned {
			ids = append(ids, e.id)
		}
	}
	return ids
}
