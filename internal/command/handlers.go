package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/playlistview"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
)

// contextBackground is the context handlers hand to Player Session plays.
// Handlers run synchronously from the automation loop's dispatch and carry
// no per-request cancellation of their own.
func contextBackground() context.Context { return context.Background() }

// ErrLegalIDExhausted signals the legal-id playlist was empty (or had
// nothing short enough) when a LEGAL_ID requirement fired. Fatal — a
// regulatory invariant the operator opted into by enabling implicit legal
// ids. Returned wrapped in requirement.ErrFatal so requirement.RunBlock
// recognizes it and aborts the batch instead of logging and continuing.
var ErrLegalIDExhausted = errors.New("command: legal id playlist exhausted")

// RegisterBuiltins installs the four built-in handlers against state.
// Called once at startup after both the registry and shared state exist.
func RegisterBuiltins(reg *Registry, state *sharedstate.State) {
	reg.Register(requirement.NoOp, handleNoOp)
	reg.Register(requirement.PlayFiles, handlePlayFiles(state))
	reg.Register(requirement.LegalID, handleLegalID(state))
	reg.Register(requirement.SetMainshow, handleSetMainshow(state))
}

func handleNoOp(int64, requirement.Requirement) error {
	return nil
}

// handlePlayFiles plays every item in the requirement's embedded inline
// playlist in order, on the main player. An entry carrying a catalog id is
// fetched fresh (so playcount bookkeeping flows through the normal path);
// an entry with no id is played directly from its embedded data.
func handlePlayFiles(state *sharedstate.State) HandlerFunc {
	return func(_ int64, req requirement.Requirement) error {
		return playFilesOn(state.MainPlayer, state.Catalog, req)
	}
}

// playFilesOn is handlePlayFiles' body, parameterized on the player session
// to play through — the main player for scheduled dispatch, or a
// caller-owned isolated session for a one-off run that must not touch the
// session the automation loop is driving.
func playFilesOn(player *playersession.Session, store *catalog.Store, req requirement.Requirement) error {
	for _, inline := range req.Files {
		item := inline.ToPlayableItem()
		onSpawned := func() {}
		if inline.ItemID != 0 {
			fetched, err := store.FetchItemByID(inline.ItemID)
			if err != nil {
				slog.Error("play_files: item lookup failed", "id", inline.ItemID, "error", err)
				continue
			}
			item = fetched
			id := fetched.ID
			onSpawned = func() {
				if err := store.IncrementPlaycount(id); err != nil {
					slog.Warn("play_files: playcount increment failed", "id", id, "error", err)
				}
			}
		}
		if _, err := player.Play(contextBackground(), item, onSpawned); err != nil {
			slog.Error("play_files: play failed", "filename", item.Filename, "error", err)
		}
	}
	return nil
}

// handleLegalID fetches the configured legal-id playlist shuffled, locks it
// by name against deletion, and attempts to play the first candidate whose
// duration is within the configured max, trying the next on failure. An
// empty or all-too-long playlist is ErrLegalIDExhausted, which the caller
// must treat as fatal.
func handleLegalID(state *sharedstate.State) HandlerFunc {
	return func(int64, requirement.Requirement) error {
		return legalIDOn(state.MainPlayer, state)
	}
}

// legalIDOn is handleLegalID's body, parameterized on the player session to
// play through, same reasoning as playFilesOn.
func legalIDOn(player *playersession.Session, state *sharedstate.State) error {
	name := state.Config.LegalID
	if name == "" {
		return fmt.Errorf("%w: %w: no legal id playlist configured", requirement.ErrFatal, ErrLegalIDExhausted)
	}
	if err := state.Catalog.LockPlaylistByName(name); err != nil {
		slog.Warn("legal_id: lock playlist failed", "name", name, "error", err)
	}

	pl, err := state.Catalog.FetchPlaylistShuffled(name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: %w: playlist %q not found", requirement.ErrFatal, ErrLegalIDExhausted, name)
		}
		return err
	}

	maxLen := state.Config.LegalIDMaxLength
	fetch := func(id int64) (*catalog.PlayableItem, error) { return state.Catalog.FetchItemByID(id) }
	view := playlistview.New(name, pl.ItemIDs, fetch, true)

	for {
		item, ok, err := view.PopWithTimeLimit(maxLen)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %w: no candidate within %ds in %q", requirement.ErrFatal, ErrLegalIDExhausted, maxLen, name)
		}
		onSpawned := func() {
			if err := state.Catalog.IncrementPlaycount(item.ID); err != nil {
				slog.Warn("legal_id: playcount increment failed", "id", item.ID, "error", err)
			}
		}
		started, err := player.Play(contextBackground(), item, onSpawned)
		if err != nil || !started {
			slog.Warn("legal_id: candidate failed to play, trying next", "filename", item.Filename, "error", err)
			continue
		}
		return nil
	}
}

// handleSetMainshow sets the automation loop's main show to the named
// playlist, or — if the name is empty or not found — rotates to a new one
// chosen by weighted random.
func handleSetMainshow(state *sharedstate.State) HandlerFunc {
	return func(_ int64, req requirement.Requirement) error {
		view, err := PickMainShow(state, req.SetMainshowName)
		if err != nil {
			return err
		}
		state.SetMainshowView(view)
		return nil
	}
}

// PickMainShow resolves name to a playlist view, falling back to a
// weighted-random pick when name is empty or unknown. Exported so the
// automation loop's rotation step (triggered by the bumper-cutoff rule, not
// by a SET_MAINSHOW requirement) can reuse the same selection logic.
func PickMainShow(state *sharedstate.State, name string) (*playlistview.View, error) {
	fetch := func(id int64) (*catalog.PlayableItem, error) { return state.Catalog.FetchItemByID(id) }

	var pl *catalog.Playlist
	var err error
	if name != "" {
		pl, err = state.Catalog.FetchPlaylistShuffled(name)
	}
	if name == "" || errors.Is(err, catalog.ErrNotFound) {
		pl, err = state.Catalog.FetchRandomWeightedPlaylist()
	}
	if err != nil {
		return nil, err
	}
	return playlistview.New(pl.Name, pl.ItemIDs, fetch, true), nil
}
