package player

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidState is returned for commands that need a current track
	// when none is loaded (e.g. Favorite).
	ErrInvalidState = errors.New("no active track")

	// ErrNoTracks is returned when playback is requested with an empty
	// catalog.
	ErrNoTracks = errors.New("no tracks available")
)

// MediaLoadError reports a file the backend could not decode or open.
// It is non-fatal: the arbiter skips to the next track.
type MediaLoadError struct {
	Path string
	Err  error
}

func (e *MediaLoadError) Error() string {
	return fmt.Sprintf("cannot load media %q: %v", e.Path, e.Err)
}

func (e *MediaLoadError) Unwrap() error { return e.Err }

// Backend is the media decode/output collaborator. Implementations must
// not block in any method; decoding and output run on their own
// threads. Callbacks may fire from arbitrary goroutines.
type Backend interface {
	// Load prepares path for playback, replacing any current track.
	// Returns *MediaLoadError for unreadable or undecodable files.
	Load(path string) error
	Play() error
	Pause()
	Stop()
	Seek(pos time.Duration) error
	// SetVolume takes a linear volume in [0,1]; 0 is silence.
	SetVolume(v float64)
	// Duration of the loaded track, 0 if none.
	Duration() time.Duration
	// Position of the playhead in the loaded track.
	Position() time.Duration
	// OnTrackEnded registers a callback fired when a track finishes
	// naturally (not on Stop or track replacement).
	OnTrackEnded(fn func())
	Close() error
}

// Tracks provides track selection to the arbiter. Implemented by the
// catalog.
type Tracks interface {
	// Next returns the track after current (wrapping), or a random one.
	// ok is false when no tracks are available.
	Next(current string, random bool) (path string, ok bool)
}

// FavoriteStore persists the favorite set. Implemented by the catalog.
type FavoriteStore interface {
	// Add marks path as favorite and flushes. A flush failure is for the
	// implementation to log; in-memory state stays authoritative.
	Add(path string)
}
