package requirement

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data []byte
	set  bool
}

func (m *memStore) SaveSchedule(data []byte) error {
	m.data = data
	m.set = true
	return nil
}

func (m *memStore) LoadSchedule() ([]byte, error) {
	if !m.set {
		return nil, catalog.ErrNotFound
	}
	return m.data, nil
}

func mustAnswer(Command) bool { return true }

func TestIsDueOnlyAtTimesShortCircuits(t *testing.T) {
	spec := TimeSpec{OnlyAtTimes: []int64{1000}, ConstrainedHours: []int{23}}
	assert.True(t, isDue(spec, 1000))
	assert.False(t, isDue(spec, 1001))
}

func TestIsDueEmptySpecMatchesEverything(t *testing.T) {
	assert.True(t, isDue(TimeSpec{}, 0))
	assert.True(t, isDue(TimeSpec{}, 1771000000))
}

func TestFillNextFindsEarliestDueTime(t *testing.T) {
	start := time.Date(2026, 3, 2, 13, 59, 0, 0, time.Local)
	e := New(Config{}, start)
	e.CopyFrom(Schedule{Requirements: []Requirement{
		{Type: NoOp, When: TimeSpec{ConstrainedMinutes: []int{0}, ConstrainedSeconds: []int{0}}},
	}})

	due, deadline, _ := e.FillNext()
	require.Len(t, due, 1)
	assert.GreaterOrEqual(t, deadline, start.Unix())

	got := time.Unix(deadline, 0)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, 0, got.Second())
}

func TestFillNextNoMatchUsesSentinels(t *testing.T) {
	e := New(Config{}, time.Now())
	due, _, gap := e.FillNext()
	assert.Empty(t, due)
	assert.Equal(t, farSentinelGap, gap)
}

func TestFillNextImplicitLegalID(t *testing.T) {
	start := time.Date(2026, 3, 2, 13, 59, 30, 0, time.Local)
	e := New(Config{ImplicitLegalID: true, ImplicitLegalIDGap: 180}, start)

	due, deadline, gap := e.FillNext()
	require.Len(t, due, 1)
	assert.Equal(t, LegalID, due[0].Type)
	assert.Equal(t, 180, gap)

	got := time.Unix(deadline, 0)
	assert.Equal(t, 0, got.Minute())
	assert.Equal(t, 0, got.Second())
}

func TestRunBlockAdvancesInternalTimeForward(t *testing.T) {
	e := New(Config{}, time.Unix(1000, 0))
	before := e.InternalTime()

	e.RunBlock(1000, []Requirement{{Type: NoOp, Advance: 5}},
		func(Command, int64, Requirement) error { return nil }, mustAnswer)

	assert.Equal(t, before+5, e.InternalTime())
}

func TestRunBlockLatchesToWallClockOnNegativeAdvance(t *testing.T) {
	e := New(Config{}, time.Unix(1000, 0))

	e.RunBlock(1000, []Requirement{{Type: NoOp, Advance: -1}},
		func(Command, int64, Requirement) error { return nil }, mustAnswer)

	assert.InDelta(t, time.Now().Unix(), e.InternalTime(), 2)
}

func TestRunBlockSkipsUnknownHandlers(t *testing.T) {
	e := New(Config{}, time.Unix(1000, 0))
	called := false

	e.RunBlock(1000, []Requirement{{Type: "BOGUS", Advance: 5}},
		func(Command, int64, Requirement) error { called = true; return nil },
		func(Command) bool { return false })

	assert.False(t, called)
	assert.Equal(t, int64(1001), e.InternalTime())
}

func TestRunBlockAbortsOnFatalHandlerErrorWithoutAdvancing(t *testing.T) {
	e := New(Config{}, time.Unix(1000, 0))
	before := e.InternalTime()
	fatalErr := fmt.Errorf("%w: legal id playlist exhausted", ErrFatal)

	called := 0
	err := e.RunBlock(1000, []Requirement{
		{Type: LegalID, Advance: 5},
		{Type: NoOp, Advance: 5},
	},
		func(cmd Command, _ int64, _ Requirement) error {
			called++
			if cmd == LegalID {
				return fatalErr
			}
			return nil
		}, mustAnswer)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFatal))
	assert.Equal(t, 1, called, "batch must abort before reaching later requirements")
	assert.Equal(t, before, e.InternalTime(), "internal clock must not advance on a fatal abort")
}

func TestHandleRebootRunsOnlyRebootRequirements(t *testing.T) {
	e := New(Config{}, time.Unix(1000, 0))
	e.CopyFrom(Schedule{Requirements: []Requirement{
		{Type: NoOp, Reboot: true},
		{Type: PlayFiles, Reboot: false},
	}})

	var fired []Command
	e.HandleReboot(func(cmd Command, _ int64, _ Requirement) error {
		fired = append(fired, cmd)
		return nil
	}, mustAnswer)

	assert.Equal(t, []Command{NoOp}, fired)
}

func TestCheckValidityFailsOnMissingHandler(t *testing.T) {
	err := CheckValidity(func(c Command) bool { return c != LegalID })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaIntegrity))
}

func TestCheckValiditySucceedsWhenAllRegistered(t *testing.T) {
	assert.NoError(t, CheckValidity(mustAnswer))
}

func TestScheduleSaveLoadRoundTrip(t *testing.T) {
	store := &memStore{}
	e := New(Config{}, time.Now())
	sched := Schedule{Requirements: []Requirement{
		{Type: PlayFiles, Files: []InlineItem{{Filename: "a.mp3"}}},
	}}
	e.CopyFrom(sched)

	require.NoError(t, e.Save(store))

	e2 := New(Config{}, time.Now())
	require.NoError(t, e2.Load(store))
	assert.Equal(t, sched, e2.CopyTo())
}

func TestLoadWithNoPriorSaveLeavesEmptySchedule(t *testing.T) {
	store := &memStore{}
	e := New(Config{}, time.Now())
	require.NoError(t, e.Load(store))
	assert.Empty(t, e.CopyTo().Requirements)
}
