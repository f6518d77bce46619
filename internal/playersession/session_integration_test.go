//go:build linux

package playersession

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arung-agamani/denpa-radio/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakePlayer writes an executable shell script standing in for mplayer:
// it speaks just enough of the slave protocol to answer liveness polls (or
// deliberately not, for the hang scenario), ignoring the mplayer-style flags
// spawn() always passes ($1.. are never referenced). /dev/fd/3 is the same
// slave-pipe descriptor convention spawn() wires up via cmd.ExtraFiles.
func writeFakePlayer(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-mplayer")
	script := "#!/bin/sh\n" + body
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// Exercises the liveness poll's steady-state path end to end: a real child
// process, a real slave pipe, and runLiveness/queryProperties reading actual
// ANS_ replies off real stdout — the path the re-spawned-reader-goroutine
// race lived in.
func TestPlayPollsLivenessAgainstRealChild(t *testing.T) {
	script := writeFakePlayer(t, `
while IFS= read -r line <&3; do
  case "$line" in
    *" pause") printf 'ANS_pause=no\n' ;;
    *" time_pos") printf 'ANS_time_pos=1.0\n' ;;
    *" length") printf 'ANS_length=100.0\n' ;;
    *" metadata") printf 'ANS_metadata=test\n' ;;
  esac
done
`)

	s := New(Config{Binary: script, LivenessPoll: 20 * time.Millisecond, LivenessTimeout: 2 * time.Second})
	item := &catalog.PlayableItem{Filename: "/does/not/matter", Duration: 100}

	done := make(chan struct{})
	var started bool
	go func() {
		defer close(done)
		var err error
		started, err = s.Play(context.Background(), item, nil)
		assert.NoError(t, err)
	}()

	// Let several healthy poll rounds land, then confirm the cached state
	// reflects real ANS_ replies rather than a timed-out liveness probe.
	// Metadata starts empty and only a live ANS_metadata reply sets it
	// (Length is seeded from item.Duration before the first poll).
	require.Eventually(t, func() bool {
		var out PlayerState
		s.MergeState(&out)
		return out.Metadata == "test"
	}, time.Second, 10*time.Millisecond, "liveness poll never merged a live reply")

	require.NoError(t, s.Stop())
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after Stop")
	}
	assert.True(t, started)
	assert.Equal(t, StateIdle, s.CurrentState())
}

// Scenario: a child that never answers get_property. Spec §8 scenario 5 —
// after LivenessTimeout of silence the supervisor kills and reaps it, Play
// returns true, and the session is clean (idle) afterward.
func TestPlayKillsHungChildAfterLivenessTimeout(t *testing.T) {
	script := writeFakePlayer(t, `
while true; do sleep 0.05; done
`)

	s := New(Config{Binary: script, LivenessPoll: 20 * time.Millisecond, LivenessTimeout: 80 * time.Millisecond})
	item := &catalog.PlayableItem{Filename: "/does/not/matter", Duration: 100}

	start := time.Now()
	started, err := s.Play(context.Background(), item, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, started)
	assert.Less(t, elapsed, 2*time.Second, "supervisor should kill the hung child promptly, not hang indefinitely")
	assert.Equal(t, StateIdle, s.CurrentState())
}
