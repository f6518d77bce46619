// Package automation implements the decision loop that ties the Player
// Session, Playlist Views, Requirement Engine, and Command Registry into the
// "play continuously, honor deadlines" behavior: given a deadline, choose
// what to play next from a hierarchy of sources (override, main show,
// bumpers, silence) and block on playback.
package automation

import (
	"context"
	"log/slog"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/command"
	"github.com/arung-agamani/denpa-radio/internal/metrics"
	"github.com/arung-agamani/denpa-radio/internal/playlistview"
	"github.com/arung-agamani/denpa-radio/internal/sharedstate"
)

// overrideDrainPoll is how often the loop rechecks the override queue while
// it is empty but the override flag is still set.
const overrideDrainPoll = 250 * time.Millisecond

// Defaults for the two config knobs that shape the gap-filling hierarchy,
// used when sharedstate.EngineConfig leaves them at their zero value.
const (
	defaultBumperCutoff = 200
	defaultSleepCutoff  = 4
)

// Loop drives one Player Session (the "main player") through repeated calls
// to RunOnce. It exclusively owns the three active Playlist Views reached
// through state; command handlers only borrow them.
type Loop struct {
	state    *sharedstate.State
	registry *command.Registry
	fatal    func(error)
}

// New builds a Loop over state, dispatching due requirements through
// registry. fatal is invoked when RunBlock reports an operator-level
// invariant violation (requirement.ErrFatal, e.g. an exhausted legal-id
// playlist) — per spec §7 such a failure must abort the process rather than
// be logged and skipped like an ordinary playback failure.
func New(state *sharedstate.State, registry *command.Registry, fatal func(error)) *Loop {
	return &Loop{state: state, registry: registry, fatal: fatal}
}

// Run calls RunOnce repeatedly until ctx is cancelled. A false return from
// RunOnce (mainshow rotation, or a dead-air refusal) means "reconsider
// immediately" rather than "wait" — the loop does not sleep between
// iterations on its own; pacing comes from blocking inside Play and from the
// deliberate silence-padding sleep in step 7.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		l.RunOnce(ctx)
	}
}

// RunOnce executes a single iteration of the automation algorithm (spec
// §4.6): drain any pending manual override, refresh the bumper view if
// empty, ask the Requirement Engine for the next deadline, and either run
// the due requirements or fill the gap with main show, bumpers, or silence,
// in that preference order.
func (l *Loop) RunOnce(ctx context.Context) bool {
	if l.drainOverride(ctx) {
		// Stale requirements from the override interval must not replay;
		// resync the engine's internal clock to wall time.
		l.state.Engine.SetTime(time.Now().Unix())
	}
	if l.state.OverrideEnabled() {
		metrics.OverrideActive.Set(1)
	} else {
		metrics.OverrideActive.Set(0)
	}

	l.refreshBumpers()

	due, deadline, gap := l.state.Engine.FillNext()
	now := time.Now().Unix()

	if now >= deadline {
		if err := l.state.Engine.RunBlock(deadline, due, l.registry.Dispatch, l.registry.HasHandler); err != nil {
			l.fatal(err)
			return true
		}
		return true
	}

	budget := int(deadline-now) + gap

	metrics.MainshowSize.Set(float64(l.state.MainshowView().Size()))
	metrics.BumperSize.Set(float64(l.state.BumperView().Size()))

	if item, ok, err := l.state.MainshowView().PopWithTimeLimit(budget); err != nil {
		slog.Error("automation: mainshow pop failed", "error", err)
	} else if ok {
		l.play(item, "mainshow")
		return true
	}

	cutoff := l.state.Config.BumperCutoff
	if cutoff <= 0 {
		cutoff = defaultBumperCutoff
	}
	if int(deadline-now) >= cutoff || l.state.MainshowView().Size() == 0 {
		l.rotateMainshow()
		return false
	}

	if item, ok, err := l.state.BumperView().PopWithTimeLimit(budget); err != nil {
		slog.Error("automation: bumper pop failed", "error", err)
	} else if ok {
		l.play(item, "bumpers")
		return true
	}

	remaining := deadline - now
	sleepCutoff := int64(l.state.Config.SleepCutoff)
	if sleepCutoff <= 0 {
		sleepCutoff = defaultSleepCutoff
	}
	switch {
	case remaining <= 0:
		return true
	case remaining <= sleepCutoff:
		time.Sleep(time.Duration(remaining) * time.Second)
		metrics.SilencePaddedSecondsTotal.Add(float64(remaining))
		return true
	default:
		slog.Error("automation: refusing to generate dead air", "remaining_seconds", remaining)
		return false
	}
}

// drainOverride pops the override queue item by item, playing each to
// completion, for as long as the override flag is set or the queue still
// has entries. It reports whether any draining happened at all, so the
// caller knows whether the engine's clock needs resyncing. A ctx
// cancellation observed mid-drain returns immediately so shutdown isn't
// blocked on an operator never clearing the override flag.
func (l *Loop) drainOverride(ctx context.Context) bool {
	drained := false
	for l.state.OverridePending() {
		drained = true

		item, ok, err := l.state.OverrideView().PopFront()
		if err != nil {
			slog.Error("automation: override pop failed", "error", err)
			continue
		}
		if ok && item.Filename != "" {
			l.play(item, "override")
			continue
		}

		select {
		case <-ctx.Done():
			return drained
		case <-time.After(overrideDrainPoll):
		}
	}
	return drained
}

// refreshBumpers reloads the bumper view when it has run dry: from the
// configured bumpers playlist (locked by name against deletion), or from the
// superlist of every catalog item if none is configured.
func (l *Loop) refreshBumpers() {
	if l.state.BumperView().Size() > 0 {
		return
	}

	name := l.state.Config.Bumpers
	var pl *catalog.Playlist
	var err error
	if name != "" {
		if lockErr := l.state.Catalog.LockPlaylistByName(name); lockErr != nil {
			slog.Warn("automation: lock bumpers playlist failed", "name", name, "error", lockErr)
		}
		pl, err = l.state.Catalog.FetchPlaylistByName(name)
	} else {
		pl, err = l.state.Catalog.FetchSuperlist(0, 0)
	}
	if err != nil {
		slog.Error("automation: bumper refresh failed", "name", name, "error", err)
		return
	}

	fetch := func(id int64) (*catalog.PlayableItem, error) { return l.state.Catalog.FetchItemByID(id) }
	l.state.SetBumperView(playlistview.New(pl.Name, pl.ItemIDs, fetch, true))
}

// rotateMainshow picks a new main show by weighted random, the same
// selection SET_MAINSHOW falls back to when given no name.
func (l *Loop) rotateMainshow() {
	view, err := command.PickMainShow(l.state, "")
	if err != nil {
		slog.Error("automation: mainshow rotation failed", "error", err)
		return
	}
	l.state.SetMainshowView(view)
}

// play plays item on the main player, incrementing its catalog playcount
// before playback starts (at-least-once semantics, matching the handlers in
// internal/command). Items with no catalog id (inline PLAY_FILES entries
// reached some other way) skip the bookkeeping. source labels the metrics
// emitted for this play (override, mainshow, bumpers).
func (l *Loop) play(item *catalog.PlayableItem, source string) {
	onSpawned := func() {}
	if item.ID != 0 {
		id := item.ID
		onSpawned = func() {
			if err := l.state.Catalog.IncrementPlaycount(id); err != nil {
				slog.Warn("automation: playcount increment failed", "id", id, "error", err)
			}
		}
	}
	if _, err := l.state.MainPlayer.Play(context.Background(), item, onSpawned); err != nil {
		slog.Error("automation: play failed", "filename", item.Filename, "error", err)
		metrics.PlayFailuresTotal.WithLabelValues(source).Inc()
		return
	}
	metrics.PlaysTotal.WithLabelValues(source).Inc()
}
