// Package catalog implements the durable, thread-safe store of playable
// items, playlists, and the schedule blob that the rest of the automation
// engine is built on.
package catalog

// ItemType distinguishes catalog entries backed by a local file from those
// backed by a network stream.
type ItemType string

const (
	ItemLocal     ItemType = "LOCAL"
	ItemWebstream ItemType = "WEBSTREAM"
)

// UnknownDuration marks a PlayableItem whose duration could not be
// determined at ingestion time.
const UnknownDuration = -1

// PlayableItem is a single catalog entry. For ItemWebstream, Duration is the
// intended play-duration cap rather than a measured length, and Cache is an
// advisory cache size in bytes; both are zero-value-meaningless for
// ItemLocal.
type PlayableItem struct {
	ID          int64
	Filename    string
	Duration    int
	Description string
	PlayCount   int64
	Type        ItemType
	Cache       int
}

// PlaylistSummary is the lightweight projection returned by ListPlaylists.
type PlaylistSummary struct {
	ID     int64
	Name   string
	Weight int
	Length int
}

// Playlist is a named ordered collection of item ids as stored in the
// catalog. It is the on-disk representation; callers that need to pop items
// during a play session work against a playlistview.View built from it.
type Playlist struct {
	ID      int64
	Name    string
	Weight  int
	ItemIDs []int64
}
