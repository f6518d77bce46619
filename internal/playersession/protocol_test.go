package playersession

import (
	"bufio"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueryPropertiesSingleReaderServesConsecutiveRounds exercises the fix
// for the re-spawned-per-round reader goroutine: a single startLineReader
// goroutine must serve every liveness poll round off the same channel, so a
// second round's replies are never stolen by an orphaned reader left over
// from the first. Two full rounds are run back to back against the same
// lines channel, as runLiveness now does every tick.
func TestQueryPropertiesSingleReaderServesConsecutiveRounds(t *testing.T) {
	cmdRead, cmdWrite, err := os.Pipe()
	require.NoError(t, err)
	defer cmdRead.Close()
	defer cmdWrite.Close()

	ansRead, ansWrite, err := os.Pipe()
	require.NoError(t, err)
	defer ansRead.Close()
	defer ansWrite.Close()

	// Drain commands so writeCommand never blocks on a full pipe buffer.
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := cmdRead.Read(buf); err != nil {
				return
			}
		}
	}()

	lines := startLineReader(bufio.NewReader(ansRead))

	for round := 0; round < 2; round++ {
		go func() {
			for _, name := range livenessProperties {
				_, _ = ansWrite.WriteString("ANS_" + name + "=ok\n")
			}
		}()

		results, err := queryProperties(cmdWrite, lines, livenessProperties, time.Second)
		require.NoError(t, err, "round %d", round)
		assert.Len(t, results, len(livenessProperties), "round %d", round)
		for _, name := range livenessProperties {
			assert.Equal(t, "ok", results[name], "round %d property %s", round, name)
		}
	}
}

// A round that only gets a partial set of replies before the timeout must
// return what it collected, not block the next round behind it.
func TestQueryPropertiesPartialRoundTimesOutAndRecovers(t *testing.T) {
	cmdRead, cmdWrite, err := os.Pipe()
	require.NoError(t, err)
	defer cmdRead.Close()
	defer cmdWrite.Close()

	ansRead, ansWrite, err := os.Pipe()
	require.NoError(t, err)
	defer ansRead.Close()
	defer ansWrite.Close()

	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := cmdRead.Read(buf); err != nil {
				return
			}
		}
	}()

	lines := startLineReader(bufio.NewReader(ansRead))

	go func() { _, _ = ansWrite.WriteString("ANS_pause=no\n") }()
	_, err = queryProperties(cmdWrite, lines, livenessProperties, 50*time.Millisecond)
	require.Error(t, err)

	go func() {
		for _, name := range livenessProperties {
			_, _ = ansWrite.WriteString("ANS_" + name + "=ok\n")
		}
	}()
	results, err := queryProperties(cmdWrite, lines, livenessProperties, time.Second)
	require.NoError(t, err)
	assert.Len(t, results, len(livenessProperties))
}
