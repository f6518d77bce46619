package requirement

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/metrics"
)

// sevenDayHorizonSeconds bounds fill_next's linear second-by-second scan.
const sevenDayHorizonSeconds = 7 * 24 * 3600

// farSentinelGap is returned as the gap when fill_next finds nothing in the
// horizon — "a very large sentinel (one year)" per spec.
const farSentinelGap = 365 * 24 * 3600

// Store is the subset of the catalog persistence API the engine needs to
// load and save its schedule. Accepted as an interface rather than a
// concrete *catalog.Store so this package stays testable without a real
// database and never needs to know about catalog's SQL internals.
type Store interface {
	SaveSchedule(data []byte) error
	LoadSchedule() ([]byte, error)
}

// Config controls the implicit prefix synthesized into the effective
// schedule and how the internal clock advances.
type Config struct {
	ImplicitLegalID    bool
	ImplicitLegalIDGap int
}

// Engine owns the Schedule and the internal clock (internal_time, epoch
// seconds). Only the schedule and clock are guarded — fill_next and
// run_block compute against a consistent snapshot for the duration of one
// call, taken while holding the lock, released before handler dispatch runs
// (handlers may themselves want to call back into the engine, e.g. for
// run-once evaluation).
type Engine struct {
	cfg Config

	mu           sync.Mutex
	internalTime int64
	schedule     Schedule
}

// New constructs an Engine with internal_time initialized to wall time.
func New(cfg Config, now time.Time) *Engine {
	return &Engine{cfg: cfg, internalTime: now.Unix()}
}

// effectiveSchedule returns the implicit prefix (if enabled) concatenated
// with the stored schedule. Must be called with mu held.
func (e *Engine) effectiveScheduleLocked() []Requirement {
	if !e.cfg.ImplicitLegalID {
		return e.schedule.Requirements
	}
	out := make([]Requirement, 0, len(e.schedule.Requirements)+1)
	out = append(out, legalIDRequirement(e.cfg.ImplicitLegalIDGap))
	out = append(out, e.schedule.Requirements...)
	return out
}

// InternalTime reports the engine's current internal clock value.
func (e *Engine) InternalTime() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.internalTime
}

// SetTime overrides the internal clock, e.g. to resync to wall time after a
// manual-override drain.
func (e *Engine) SetTime(t int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.internalTime = t
}

// CopyFrom replaces the stored schedule wholesale.
func (e *Engine) CopyFrom(s Schedule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.schedule = s
}

// CopyTo returns a copy of the stored schedule (not the effective one).
func (e *Engine) CopyTo() Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Requirement, len(e.schedule.Requirements))
	copy(out, e.schedule.Requirements)
	return Schedule{Requirements: out}
}

// Save persists the stored schedule to store under the well-known label.
func (e *Engine) Save(store Store) error {
	data, err := encodeSchedule(e.CopyTo())
	if err != nil {
		return fmt.Errorf("requirement: save schedule: %w", err)
	}
	return store.SaveSchedule(data)
}

// Load restores the stored schedule from store. ErrNotFound from the store
// (no schedule ever saved) leaves the engine with an empty schedule.
func (e *Engine) Load(store Store) error {
	data, err := store.LoadSchedule()
	if err != nil {
		if isNotFound(err) {
			e.CopyFrom(Schedule{})
			return nil
		}
		return fmt.Errorf("requirement: load schedule: %w", err)
	}
	sched, err := decodeSchedule(data)
	if err != nil {
		return fmt.Errorf("requirement: decode schedule: %w", err)
	}
	e.CopyFrom(sched)
	return nil
}

// FillNext scans candidate times starting at the internal clock for the
// earliest t at which any effective requirement is due, linearly, one
// second at a time, across a seven-day horizon. This is intentionally not a
// calendar solver — see the design notes on schedule density.
func (e *Engine) FillNext() (due []Requirement, deadline int64, gap int) {
	e.mu.Lock()
	effective := e.effectiveScheduleLocked()
	start := e.internalTime
	e.mu.Unlock()

	for t := start; t <= start+sevenDayHorizonSeconds; t++ {
		var matched []Requirement
		minGap := -1
		for _, req := range effective {
			if isDue(req.When, t) {
				matched = append(matched, req)
				if minGap < 0 || req.When.Gap < minGap {
					minGap = req.When.Gap
				}
			}
		}
		if len(matched) > 0 {
			return matched, t, minGap
		}
	}

	return nil, time.Now().Unix() + 3600, farSentinelGap
}

// RunBlock resolves each due requirement's command to a handler via
// dispatch and invokes it, then advances the internal clock. dispatch is a
// function value rather than a direct import of the command registry: the
// registry in turn needs requirement's types to shape handler signatures,
// so an import here would cycle.
//
// Unknown command names are logged and skipped, per spec §4.4. A handler
// error wrapping ErrFatal (e.g. an exhausted legal-id playlist, spec §7
// "LegalIdExhausted … fatal") aborts the batch immediately and is returned
// to the caller without advancing the internal clock — the caller is
// expected to treat a non-nil return as fatal to the process, the same way
// CheckValidity's ErrSchemaIntegrity is fatal at startup. Any other handler
// error is logged and the batch continues.
func (e *Engine) RunBlock(deadline int64, due []Requirement, dispatch func(cmd Command, deadline int64, req Requirement) error, hasHandler func(Command) bool) error {
	advance := 1
	for _, req := range due {
		if !hasHandler(req.Type) {
			slog.Error("requirement: no handler registered for due command", "command", req.Type)
			continue
		}
		if err := dispatch(req.Type, deadline, req); err != nil {
			if errors.Is(err, ErrFatal) {
				slog.Error("requirement: fatal handler error, aborting batch", "command", req.Type, "error", err)
				return err
			}
			slog.Error("requirement: handler error", "command", req.Type, "error", err)
			continue
		}
		metrics.RequirementFiresTotal.WithLabelValues(string(req.Type)).Inc()
		if req.Advance < 0 && advance > 0 {
			advance = -1
		} else if req.Advance > advance {
			advance = req.Advance
		}
	}

	e.mu.Lock()
	if advance < 0 {
		e.internalTime = time.Now().Unix()
	} else {
		e.internalTime += int64(advance)
	}
	e.mu.Unlock()
	return nil
}

// HandleReboot collects every requirement with Reboot set from the
// effective schedule, forces their advance to -1 (snap to wall clock), and
// runs them through RunBlock with deadline 0. Returns RunBlock's error
// unchanged so a fatal reboot requirement (e.g. an exhausted legal id run at
// startup) aborts the process the same way it would mid-run.
func (e *Engine) HandleReboot(dispatch func(cmd Command, deadline int64, req Requirement) error, hasHandler func(Command) bool) error {
	e.mu.Lock()
	effective := e.effectiveScheduleLocked()
	e.mu.Unlock()

	var due []Requirement
	for _, req := range effective {
		if req.Reboot {
			req.Advance = -1
			due = append(due, req)
		}
	}
	return e.RunBlock(0, due, dispatch, hasHandler)
}

// CheckValidity verifies every Command enumerator has a registered handler,
// per hasHandler. Returns ErrSchemaIntegrity naming the first unhandled
// command if any is missing.
func CheckValidity(hasHandler func(Command) bool) error {
	for _, cmd := range []Command{NoOp, PlayFiles, LegalID, SetMainshow} {
		if !hasHandler(cmd) {
			return fmt.Errorf("%w: %s", ErrSchemaIntegrity, cmd)
		}
	}
	return nil
}
