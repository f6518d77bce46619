package playersession

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, "mplayer", cfg.Binary)
	assert.Equal(t, 6*time.Second, cfg.LivenessTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.LivenessPoll)
}

func TestConfigDefaultsPreservesOverrides(t *testing.T) {
	cfg := Config{Binary: "custom-player", LivenessPoll: time.Second}.withDefaults()
	assert.Equal(t, "custom-player", cfg.Binary)
	assert.Equal(t, time.Second, cfg.LivenessPoll)
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:     "idle",
		StateSpawning: "spawning",
		StateRunning:  "running",
		StateDying:    "dying",
		State(99):     "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}

func TestNewSessionStartsIdle(t *testing.T) {
	s := New(Config{})
	assert.Equal(t, StateIdle, s.CurrentState())

	var out PlayerState
	s.MergeState(&out)
	assert.Nil(t, out.NowPlaying)
}

func TestStopWithoutRunningChildIsNoop(t *testing.T) {
	s := New(Config{})
	assert.NoError(t, s.Stop())
	assert.NoError(t, s.Pause())
	assert.NoError(t, s.Unpause())
	assert.NoError(t, s.SetSpeed(1.5))
	assert.NoError(t, s.Seek(10))
}
