//go:build (linux && cgo) || windows || darwin

package backend

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"

	"github.com/soniclab/aural/cmd/play/player"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

// Player is the beep-backed playback backend. Decoding and output run
// on beep's own goroutine; every method here is non-blocking apart
// from file open and decode setup.
type Player struct {
	mu sync.Mutex

	initialized bool
	tap         Tap

	streamer beep.StreamSeekCloser
	format   beep.Format
	volume   *effects.Volume
	ctrl     *beep.Ctrl

	level      float64
	generation uint64 // bumped per load, stale end callbacks are dropped
	onEnded    func()
}

// New returns a player. tap may be nil.
func New(tap Tap) *Player {
	return &Player{tap: tap, level: 1}
}

func (p *Player) initSpeakerLocked() error {
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return err
	}
	p.initialized = true
	return nil
}

// Load replaces the current track with the file at path.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return &player.MediaLoadError{Path: path, Err: err}
	}

	var streamer beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	default:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return &player.MediaLoadError{Path: path, Err: err}
	}

	if err := p.initSpeakerLocked(); err != nil {
		streamer.Close()
		f.Close()
		return err
	}

	p.stopLocked()
	p.streamer = streamer
	p.format = format
	p.generation++
	gen := p.generation

	var chain beep.Streamer = beep.Resample(4, format.SampleRate, SampleRate, streamer)
	if p.tap != nil {
		chain = p.tap(chain)
	}
	p.volume = &effects.Volume{Streamer: chain, Base: 2}
	p.applyLevelLocked()
	p.ctrl = &beep.Ctrl{Streamer: p.volume, Paused: true}

	speaker.Clear()
	speaker.Play(beep.Seq(p.ctrl, beep.Callback(p.endCallback(gen))))
	return nil
}

// endCallback returns the end-of-track hook for the load at gen. Beep
// invokes it on the speaker goroutine with the speaker mutex held, so
// it must never take p.mu there: every other method locks p.mu before
// the speaker, and the opposite order deadlocks. Run in separate
// goroutine to avoid that.
func (p *Player) endCallback(gen uint64) func() {
	return func() {
		go p.trackEnded(gen)
	}
}

func (p *Player) trackEnded(gen uint64) {
	p.mu.Lock()
	stale := gen != p.generation
	fn := p.onEnded
	p.mu.Unlock()
	if stale || fn == nil {
		return
	}
	fn()
}

// Play starts or resumes output.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return player.ErrInvalidState
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause suspends output, keeping the playhead.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctrl == nil {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

// Stop tears down the current track.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	if p.ctrl != nil {
		speaker.Clear()
	}
	if p.streamer != nil {
		// The decoder owns and closes the underlying file.
		p.streamer.Close()
		p.streamer = nil
	}
	p.generation++
	p.ctrl = nil
	p.volume = nil
}

// Seek moves the playhead.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return nil
	}
	speaker.Lock()
	defer speaker.Unlock()
	return p.streamer.Seek(p.format.SampleRate.N(pos))
}

// SetVolume applies a linear volume in [0,1]. Zero mutes.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = v
	if p.volume == nil {
		return
	}
	speaker.Lock()
	p.applyLevelLocked()
	speaker.Unlock()
}

// applyLevelLocked maps the linear level onto the exponential volume
// effect: log2 of the level with base 2 yields a plain multiplier.
func (p *Player) applyLevelLocked() {
	if p.level <= 0 {
		p.volume.Silent = true
		p.volume.Volume = 0
		return
	}
	p.volume.Silent = false
	p.volume.Volume = math.Log2(p.level)
}

// Duration of the loaded track, 0 when nothing is loaded.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	return p.format.SampleRate.D(p.streamer.Len())
}

// Position of the playhead.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := p.streamer.Position()
	speaker.Unlock()
	return p.format.SampleRate.D(pos)
}

// OnTrackEnded registers the natural-completion callback.
func (p *Player) OnTrackEnded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEnded = fn
}

// Close releases the audio device.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	if p.initialized {
		speaker.Close()
		p.initialized = false
	}
	return nil
}
