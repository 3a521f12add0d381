package player

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// maxLoadAttempts bounds how many unplayable files the arbiter skips
// over before giving up on an advance.
const maxLoadAttempts = 8

// Event names reported to the EventFunc hook.
const (
	EventTrackChange    = "track_change"
	EventHoorayStart    = "hooray_start"
	EventHoorayComplete = "hooray_complete"
	EventHoldStart      = "hold_start"
	EventCancelled      = "sequence_cancelled"
)

// EventFunc receives notable playback events with the state after the
// event applied. Used by the metrics logger.
type EventFunc func(event string, s State)

// Config tunes the arbiter beyond the store defaults.
type Config struct {
	Fade FadeConfig
	// WaitTime overrides the difficulty preset hold duration when > 0.
	WaitTime time.Duration
	// HoldDrop overrides the difficulty preset hold drop when > 0.
	HoldDrop float64
}

// Arbiter is the single serialization point for playback state
// mutations. UI, voice and fade-sequence ticks all enter through
// Submit; one mutex keeps command application atomic and in submission
// order.
type Arbiter struct {
	mu sync.Mutex

	store     *Store
	backend   Backend
	tracks    Tracks
	favorites FavoriteStore
	engine    *fadeEngine
	cfg       Config
	events    EventFunc

	active *sequence
	nextID uint64
}

// NewArbiter wires the store, backend and catalog together. events may
// be nil.
func NewArbiter(store *Store, backend Backend, tracks Tracks, favorites FavoriteStore, clock Clock, cfg Config, events EventFunc) *Arbiter {
	a := &Arbiter{
		store:     store,
		backend:   backend,
		tracks:    tracks,
		favorites: favorites,
		cfg:       cfg,
		events:    events,
	}
	a.engine = newFadeEngine(clock, cfg.Fade, a)
	backend.OnTrackEnded(a.onTrackEnded)
	return a
}

// Submit validates and applies one command. Commands are applied in
// submission order; an active fade sequence is cancelled synchronously
// before an interrupting command takes effect.
func (a *Arbiter) Submit(cmd Command, source Source) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	slog.Debug("command", "op", cmd.Op.String(), "source", source.String())

	if interrupting(cmd.Op) {
		a.cancelActiveLocked()
	}

	switch cmd.Op {
	case OpPlay:
		return a.playLocked()
	case OpPause:
		a.backend.Pause()
		a.store.apply(func(s *State) { s.Paused = true })
		return nil
	case OpStop:
		a.backend.Stop()
		a.store.apply(func(s *State) {
			s.Playing = false
			s.Paused = false
			s.Position = 0
		})
		return nil
	case OpSetVolume:
		a.setVolumeLocked(a.resolveVolume(cmd))
		return nil
	case OpSeek:
		return a.seekLocked(cmd.Position)
	case OpNextTrack:
		return a.nextTrackLocked(cmd.Random)
	case OpToggleLoop:
		a.store.apply(func(s *State) { s.Looping = !s.Looping })
		return nil
	case OpToggleRandom:
		a.store.apply(func(s *State) { s.Random = !s.Random })
		return nil
	case OpFavorite:
		return a.favoriteLocked()
	case OpSetDifficulty:
		a.store.apply(func(s *State) { s.Difficulty = cmd.Difficulty })
		return nil
	case OpTriggerHooray:
		a.startSequenceLocked(KindHooray)
		return nil
	case OpTriggerHold:
		a.startSequenceLocked(KindHold)
		return nil
	default:
		return errors.New("unknown command")
	}
}

// interrupting reports whether op supersedes an active fade sequence.
// Read-only and bookkeeping ops leave a running sequence alone.
func interrupting(op Op) bool {
	switch op {
	case OpPlay, OpPause, OpStop, OpSetVolume, OpSeek, OpNextTrack, OpTriggerHooray, OpTriggerHold:
		return true
	default:
		return false
	}
}

func (a *Arbiter) playLocked() error {
	st := a.store.Read()

	if st.Paused {
		if err := a.backend.Play(); err != nil {
			return err
		}
		a.store.apply(func(s *State) { s.Paused = false })
		return nil
	}
	if st.Playing {
		return nil
	}
	if st.TrackPath != "" {
		if err := a.backend.Play(); err != nil {
			return err
		}
		a.store.apply(func(s *State) {
			s.Playing = true
			s.Paused = false
		})
		return nil
	}
	return a.advanceLocked("", st.Random)
}

func (a *Arbiter) resolveVolume(cmd Command) float64 {
	if cmd.Absolute {
		return cmd.Volume
	}
	return a.store.Read().Volume + cmd.VolumeDelta
}

func (a *Arbiter) setVolumeLocked(v float64) {
	snapshot := a.store.apply(func(s *State) { s.Volume = v })
	a.backend.SetVolume(snapshot.Volume)
}

func (a *Arbiter) seekLocked(pos time.Duration) error {
	st := a.store.Read()
	if st.TrackPath == "" {
		return ErrInvalidState
	}
	if pos < 0 {
		pos = 0
	}
	if d := a.backend.Duration(); d > 0 && pos > d {
		pos = d
	}
	if err := a.backend.Seek(pos); err != nil {
		return err
	}
	a.store.apply(func(s *State) { s.Position = pos })
	return nil
}

func (a *Arbiter) nextTrackLocked(random bool) error {
	st := a.store.Read()
	return a.advanceLocked(st.TrackPath, random || st.Random)
}

// advanceLocked loads and plays the next track, skipping over files the
// backend rejects.
func (a *Arbiter) advanceLocked(current string, random bool) error {
	var mediaErr *MediaLoadError
	for range maxLoadAttempts {
		path, ok := a.tracks.Next(current, random)
		if !ok {
			return ErrNoTracks
		}

		err := a.backend.Load(path)
		if err == nil {
			if err := a.backend.Play(); err != nil {
				return err
			}
			a.backend.SetVolume(a.store.Read().Volume)
			snapshot := a.store.apply(func(s *State) {
				s.TrackID = path
				s.TrackPath = path
				s.Position = 0
				s.Duration = a.backend.Duration()
				s.Playing = true
				s.Paused = false
			})
			a.emit(EventTrackChange, snapshot)
			return nil
		}

		if errors.As(err, &mediaErr) {
			slog.Warn("skipping unplayable media", "path", path, "error", err)
			current = path
			continue
		}
		return err
	}
	return ErrNoTracks
}

func (a *Arbiter) favoriteLocked() error {
	st := a.store.Read()
	if st.TrackPath == "" {
		return ErrInvalidState
	}
	a.favorites.Add(st.TrackPath)
	// FavoriteStore owns persistence; re-notify so subscribers can
	// refresh favorite markers.
	a.store.apply(func(s *State) {})
	return nil
}

func (a *Arbiter) startSequenceLocked(kind SequenceKind) {
	st := a.store.Read()

	seq := &sequence{
		kind:        kind,
		startVolume: st.Volume,
		cancelled:   make(chan struct{}),
	}
	a.nextID++
	seq.id = a.nextID

	switch kind {
	case KindHold:
		drop := a.cfg.HoldDrop
		if drop <= 0 {
			drop = st.Difficulty.HoldDrop()
		}
		seq.targetVolume = clampVolume(st.Volume * (1 - drop))
		seq.wait = 0
	default:
		seq.targetVolume = 0
		seq.wait = a.cfg.WaitTime
		if seq.wait <= 0 {
			seq.wait = st.Difficulty.WaitTime()
		}
	}

	a.active = seq
	snapshot := a.store.apply(func(s *State) { s.FadePhase = PhaseDropping })
	if kind == KindHold {
		a.emit(EventHoldStart, snapshot)
	} else {
		a.emit(EventHoorayStart, snapshot)
	}
	a.engine.start(seq)
}

// cancelActiveLocked supersedes the running sequence, leaving volume at
// whatever the last applied tick set.
func (a *Arbiter) cancelActiveLocked() {
	if a.active == nil {
		return
	}
	a.active.cancel()
	a.active = nil
	snapshot := a.store.apply(func(s *State) { s.FadePhase = PhaseIdle })
	a.emit(EventCancelled, snapshot)
}

// sequenceVolume applies one fade tick. Returns false if the sequence
// is no longer active so the engine goroutine can exit.
func (a *Arbiter) sequenceVolume(seq *sequence, v float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active != seq || seq.isCancelled() {
		return false
	}
	a.setVolumeLocked(v)
	return true
}

func (a *Arbiter) sequencePhase(seq *sequence, phase Phase) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active != seq || seq.isCancelled() {
		return
	}
	a.store.apply(func(s *State) { s.FadePhase = phase })
}

// sequenceCompleted finishes a naturally completed sequence. Hooray
// completions bump the counter exactly once.
func (a *Arbiter) sequenceCompleted(seq *sequence) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active != seq || seq.isCancelled() {
		return
	}
	a.active = nil
	snapshot := a.store.apply(func(s *State) {
		s.FadePhase = PhaseIdle
		if seq.kind == KindHooray {
			s.HoorayCount++
		}
	})
	if seq.kind == KindHooray {
		a.emit(EventHoorayComplete, snapshot)
	}
}

func (a *Arbiter) onTrackEnded() {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.store.Read()
	if !st.Playing || st.TrackPath == "" {
		return
	}
	if st.Looping {
		if err := a.backend.Load(st.TrackPath); err == nil {
			_ = a.backend.Play()
			a.backend.SetVolume(st.Volume)
			a.store.apply(func(s *State) { s.Position = 0 })
			return
		}
	}
	if err := a.advanceLocked(st.TrackPath, st.Random); err != nil {
		slog.Warn("auto-advance failed", "error", err)
		a.store.apply(func(s *State) {
			s.Playing = false
			s.Paused = false
		})
	}
}

// SyncPosition refreshes position and duration from the backend. The
// UI calls this on its render tick; like every other state mutation it
// is serialized under a.mu.
func (a *Arbiter) SyncPosition() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.apply(func(s *State) {
		s.Position = a.backend.Position()
		s.Duration = a.backend.Duration()
	})
}

func (a *Arbiter) emit(event string, s State) {
	if a.events != nil {
		a.events(event, s)
	}
}
