package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// DurationProber invokes the media subprocess against a file and reports its
// play length in whole seconds, or an error if the subprocess could not
// determine it. Implemented by internal/playersession; accepted here as a
// function value so this package never imports the subprocess supervisor.
type DurationProber func(path string) (int, error)

// BuildItem constructs a PlayableItem for a local file: it probes the
// duration by invoking the media subprocess (the same way the original
// engine does it — not by trusting file metadata) and falls back to tag
// metadata only for the human-readable description.
//
// The returned item is not yet persisted; call Store.InsertItem with it.
func BuildItem(path string, probe DurationProber) (*PlayableItem, error) {
	duration, err := probe(path)
	if err != nil {
		slog.Warn("Duration probe failed, ingesting with unknown duration", "path", path, "error", err)
		duration = UnknownDuration
	}

	return &PlayableItem{
		Filename:    path,
		Duration:    duration,
		Description: describeFile(path),
		Type:        ItemLocal,
	}, nil
}

// BuildWebstreamItem constructs a PlayableItem for a network stream. unlike
// a local file, duration is never probed — it is the operator-supplied play
// cap, and cache is an advisory size hint for whatever fetches the stream.
func BuildWebstreamItem(url, description string, playDurationCap, cache int) (*PlayableItem, error) {
	if url == "" {
		return nil, fmt.Errorf("catalog: webstream item requires a URL")
	}
	return &PlayableItem{
		Filename:    url,
		Duration:    playDurationCap,
		Description: description,
		Cache:       cache,
		Type:        ItemWebstream,
	}, nil
}

// describeFile reads ID3/Vorbis/etc. tag metadata to build a one-line
// description. Tag reading failures are non-fatal — the description just
// falls back to the bare filename.
func describeFile(path string) string {
	base := filepath.Base(path)
	nameOnly := strings.TrimSuffix(base, filepath.Ext(base))

	f, err := os.Open(path)
	if err != nil {
		return nameOnly
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return nameOnly
	}

	if m.Artist() != "" && m.Title() != "" {
		return fmt.Sprintf("%s - %s", m.Artist(), m.Title())
	}
	if m.Title() != "" {
		return m.Title()
	}
	return nameOnly
}
