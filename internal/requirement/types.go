// Package requirement implements the time-pattern-driven scheduler that
// resolves the next obligation deadline and the set of commands due at that
// deadline, from a stored, persistable Schedule.
package requirement

import "github.com/arung-agamani/denpa-radio/internal/catalog"

// Command names the kind of obligation a Requirement fires. Closed set:
// every value must have a registered handler, checked at startup by
// CheckValidity.
type Command string

const (
	NoOp        Command = "NO_OP"
	PlayFiles   Command = "PLAY_FILES"
	LegalID     Command = "LEGAL_ID"
	SetMainshow Command = "SET_MAINSHOW"
)

// InlineItem is an item embedded directly in a PLAY_FILES requirement
// instead of referenced by catalog id.
type InlineItem struct {
	ItemID   int64  `json:"item_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// TimeSpec is the evaluation predicate over a point in time. Either an
// explicit allowlist of absolute epoch seconds (OnlyAtTimes, which
// short-circuits every other field), or a cron-like conjunction of
// broken-down-time allowlists. An empty allowlist on any field is a
// wildcard.
type TimeSpec struct {
	OnlyAtTimes []int64 `json:"only_at_times,omitempty"`

	ConstrainedDOM     []int `json:"constrained_dom,omitempty"`
	ConstrainedDOW     []int `json:"constrained_dow,omitempty"`
	ConstrainedHours   []int `json:"constrained_hours,omitempty"`
	ConstrainedMinutes []int `json:"constrained_minutes,omitempty"`
	ConstrainedSeconds []int `json:"constrained_seconds,omitempty"`

	// Gap is how many seconds before the deadline it is still acceptable
	// to start a shorter item.
	Gap int `json:"gap"`
}

// Requirement is a single scheduled obligation.
type Requirement struct {
	Type    Command      `json:"type"`
	Files   []InlineItem `json:"files,omitempty"`
	When    TimeSpec     `json:"when"`
	Reboot  bool         `json:"reboot"`
	Advance int          `json:"internal_time_advance"`

	// SetMainshowName is the playlist name for a SET_MAINSHOW
	// requirement. Empty means "pick a new one by weighted random".
	SetMainshowName string `json:"set_mainshow_name,omitempty"`
}

// Schedule is an ordered sequence of Requirements, persisted as a single
// opaque blob in the catalog store.
type Schedule struct {
	Requirements []Requirement `json:"requirements"`
}

// legalIDRequirement builds the implicit top-of-hour LEGAL_ID requirement
// synthesized into the effective schedule when implicit_legalid is enabled.
func legalIDRequirement(gap int) Requirement {
	return Requirement{
		Type: LegalID,
		When: TimeSpec{
			ConstrainedMinutes: []int{0},
			ConstrainedSeconds: []int{0},
			Gap:                gap,
		},
		Advance: 1,
	}
}

// ToPlayableItem builds a transient PlayableItem from an inline entry not
// backed by a catalog id. Kept here rather than in catalog to avoid that
// package depending on requirement's types.
func (it InlineItem) ToPlayableItem() *catalog.PlayableItem {
	return &catalog.PlayableItem{
		ID:       it.ItemID,
		Filename: it.Filename,
		Duration: it.Duration,
		Type:     catalog.ItemLocal,
	}
}
