package automation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/command"
	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/playlistview"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
	"github.com/stretchr/testify/require"
)

// noopFatal is the Loop's fatal callback for tests that don't exercise the
// fatal path — it must never be invoked by a passing scenario.
func noopFatal(error) {}

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := catalog.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestState(t *testing.T, cfg sharedstate.EngineConfig) (*sharedstate.State, *command.Registry) {
	t.Helper()
	store := newTestStore(t)
	engine := requirement.New(requirement.Config{}, time.Now())
	playerCfg := playersession.Config{Binary: "/bin/true"}
	player := playersession.New(playerCfg)
	state := sharedstate.New(store, engine, player, playerCfg, cfg)

	reg := command.NewRegistry()
	command.RegisterBuiltins(reg, state)
	return state, reg
}

// Scenario: mainshow empty, deadline far away and past the bumper cutoff —
// the loop must rotate the main show and report false rather than reach for
// bumpers.
func TestRunOnceRotatesMainshowWhenCutoffExceeded(t *testing.T) {
	state, reg := newTestState(t, sharedstate.EngineConfig{BumperCutoff: 200, SleepCutoff: 4})

	// A weighted playlist to rotate into, so PickMainShow has something to
	// find instead of ErrNotFound.
	plID, err := state.Catalog.CreatePlaylist("rotation-target", 1)
	require.NoError(t, err)
	itemID, err := state.Catalog.InsertItem(&catalog.PlayableItem{Filename: "a.mp3", Duration: 30})
	require.NoError(t, err)
	require.NoError(t, state.Catalog.AppendPlaylistItems(plID, []int64{itemID}))

	// Far-future requirement: deadline - now comfortably exceeds 200s, and
	// mainshow starts out empty (sharedstate.New builds it with no ids), so the cutoff branch
	// fires regardless of which condition the loop checks first.
	state.Engine.CopyFrom(requirement.Schedule{Requirements: []requirement.Requirement{
		{Type: requirement.NoOp, When: requirement.TimeSpec{OnlyAtTimes: []int64{time.Now().Unix() + 10000}}},
	}})

	loop := New(state, reg, noopFatal)
	got := loop.RunOnce(context.Background())

	require.False(t, got)
	require.Equal(t, "rotation-target", state.MainshowView().Name())
}

// Scenario: mainshow and bumpers both empty, deadline a few seconds out —
// the loop must pad with silence (sleep) and report true, not an error
// fallthrough.
func TestRunOnceSleepsOffShortGapWithNoCandidates(t *testing.T) {
	state, reg := newTestState(t, sharedstate.EngineConfig{BumperCutoff: 200, SleepCutoff: 4})

	// Both views carry an item too long to fit the 3s budget, so Size()
	// stays non-zero and the "mainshow empty" unconditional-rotate branch
	// does not fire — only the silence path is left.
	tooLong := map[int64]*catalog.PlayableItem{1: {ID: 1, Filename: "long.mp3", Duration: 50}}
	fetch := func(id int64) (*catalog.PlayableItem, error) {
		it, ok := tooLong[id]
		if !ok {
			return nil, catalog.ErrNotFound
		}
		return it, nil
	}
	state.SetMainshowView(playlistview.New("mainshow", []int64{1}, fetch, true))
	state.SetBumperView(playlistview.New("bumpers", []int64{1}, fetch, true))

	deadline := time.Now().Unix() + 3
	state.Engine.CopyFrom(requirement.Schedule{Requirements: []requirement.Requirement{
		{Type: requirement.NoOp, When: requirement.TimeSpec{OnlyAtTimes: []int64{deadline}}},
	}})

	loop := New(state, reg, noopFatal)
	start := time.Now()
	got := loop.RunOnce(context.Background())
	elapsed := time.Since(start)

	require.True(t, got)
	require.GreaterOrEqual(t, elapsed, 2*time.Second)
}

// Scenario: the deadline has already arrived — the loop must run the due
// requirement block instead of trying to fill any gap.
func TestRunOnceRunsDueRequirementsAtDeadline(t *testing.T) {
	state, reg := newTestState(t, sharedstate.EngineConfig{})
	state.Engine.SetTime(time.Now().Unix() - 1)
	state.Engine.CopyFrom(requirement.Schedule{Requirements: []requirement.Requirement{
		{Type: requirement.NoOp, When: requirement.TimeSpec{}, Advance: 5},
	}})

	before := state.Engine.InternalTime()
	loop := New(state, reg, noopFatal)
	got := loop.RunOnce(context.Background())

	require.True(t, got)
	require.Greater(t, state.Engine.InternalTime(), before)
}

// Scenario: a due LEGAL_ID requirement fires with no legal-id playlist
// configured — spec §7 requires this to be fatal, not a logged-and-skipped
// playback failure. The loop must invoke its fatal callback exactly once
// with an error wrapping requirement.ErrFatal.
func TestRunOnceReportsFatalOnLegalIDExhausted(t *testing.T) {
	state, reg := newTestState(t, sharedstate.EngineConfig{LegalID: ""})
	state.Engine.SetTime(time.Now().Unix() - 1)
	state.Engine.CopyFrom(requirement.Schedule{Requirements: []requirement.Requirement{
		{Type: requirement.LegalID, When: requirement.TimeSpec{}},
	}})

	var gotErr error
	loop := New(state, reg, func(err error) { gotErr = err })
	got := loop.RunOnce(context.Background())

	require.True(t, got)
	require.Error(t, gotErr)
	require.ErrorIs(t, gotErr, requirement.ErrFatal)
}
