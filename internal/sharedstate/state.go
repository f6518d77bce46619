// Package sharedstate holds the process-wide handle exposing the catalog,
// requirement engine, main player session, and the three ephemeral
// playlist views to command handlers and the control surface. Per design
// notes, this is an explicitly constructed context value passed around —
// never a package-level singleton or thread-local.
package sharedstate

import (
	"sync"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/arung-agamani/denpa-radio/internal/playersession"
	"github.com/arung-agamani/denpa-radio/internal/playlistview"
	"github.com/arung-agamani/denpa-radio/internal/requirement"
)

// EngineConfig mirrors the configuration options in the spec that the
// automation loop and command handlers both need to consult.
type EngineConfig struct {
	Bumpers             string
	LegalID             string
	LegalIDMaxLength    int
	BumperCutoff        int
	SleepCutoff         int
	ImplicitLegalID     bool
	ImplicitLegalIDGap  int
	DefaultHuman        bool
	DoInit              bool
	FastShutdown        bool
}

// State is the process-wide handle. Construct once at startup with New and
// tear down at shutdown; never copy by value (it embeds a mutex-guarded
// override queue).
type State struct {
	Catalog     *catalog.Store
	Engine      *requirement.Engine
	MainPlayer  *playersession.Session
	Config      EngineConfig

	// PlayerConfig is the same Config the main player was constructed
	// with. Control-surface handlers that must not touch MainPlayer (a
	// one-off requirement run) use it to build their own isolated
	// playersession.Session rather than borrowing the main one.
	PlayerConfig playersession.Config

	viewsMu   sync.Mutex
	mainshow  *playlistview.View
	bumpers   *playlistview.View
	override  *playlistview.View

	overrideMu   sync.Mutex
	overrideFlag bool
}

// New constructs a State. The three playlist views start empty; the
// automation loop populates them on its first iterations (mainshow via
// SET_MAINSHOW / rotation, bumpers via its refresh step).
func New(store *catalog.Store, engine *requirement.Engine, player *playersession.Session, playerCfg playersession.Config, cfg EngineConfig) *State {
	fetch := func(id int64) (*catalog.PlayableItem, error) { return store.FetchItemByID(id) }
	return &State{
		Catalog:      store,
		Engine:       engine,
		MainPlayer:   player,
		PlayerConfig: playerCfg,
		Config:       cfg,
		mainshow:     playlistview.New("mainshow", nil, fetch, true),
		bumpers:      playlistview.New("bumpers", nil, fetch, true),
		override:     playlistview.New("override", nil, fetch, true),
	}
}

// MainshowView returns the currently active main show view.
func (s *State) MainshowView() *playlistview.View {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.mainshow
}

// SetMainshowView replaces the active main show view, e.g. after rotation.
func (s *State) SetMainshowView(v *playlistview.View) {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	s.mainshow = v
}

// BumperView returns the currently active bumpers view.
func (s *State) BumperView() *playlistview.View {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.bumpers
}

// SetBumperView replaces the active bumpers view, e.g. on refresh when
// empty.
func (s *State) SetBumperView(v *playlistview.View) {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	s.bumpers = v
}

// OverrideView returns the operator-supplied override queue view.
func (s *State) OverrideView() *playlistview.View {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.override
}

// PushOverride appends ids to the override queue, which the automation loop
// drains. No control-surface resource calls it: the override resources only
// set or clear the override flag.
func (s *State) PushOverride(ids []int64) {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	s.override.ApplyMergeRequest(ids, false)
}

// OverrideEnabled reports the override flag.
func (s *State) OverrideEnabled() bool {
	s.overrideMu.Lock()
	defer s.overrideMu.Unlock()
	return s.overrideFlag
}

// SetOverride sets or clears the override flag.
func (s *State) SetOverride(enabled bool) {
	s.overrideMu.Lock()
	defer s.overrideMu.Unlock()
	s.overrideFlag = enabled
}

// OverridePending reports whether the loop should keep draining: the flag
// is set, or the queue still has unconsumed entries.
func (s *State) OverridePending() bool {
	return s.OverrideEnabled() || s.OverrideView().Size() > 0
}
