//go:build !((linux && cgo) || windows || darwin)

package backend

import (
	"os"
	"sync"
	"time"

	"github.com/soniclab/aural/cmd/play/player"
)

// AudioAvailable indicates whether audio playback is supported in this build.
// Audio requires CGO for native sound libraries.
const AudioAvailable = false

// Player is a no-op backend for builds without audio support.
type Player struct {
	mu      sync.Mutex
	loaded  string
	level   float64
	onEnded func()
}

// New returns a silent player. The tap is never fed.
func New(tap Tap) *Player {
	return &Player{level: 1}
}

// Load verifies the file exists but decodes nothing.
func (p *Player) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &player.MediaLoadError{Path: path, Err: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = path
	return nil
}

func (p *Player) Play() error { return nil }

func (p *Player) Pause() {}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = ""
}

func (p *Player) Seek(pos time.Duration) error { return nil }

func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = v
}

func (p *Player) Duration() time.Duration { return 0 }

func (p *Player) Position() time.Duration { return 0 }

func (p *Player) OnTrackEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

func (p *Player) Close() error { return nil }
