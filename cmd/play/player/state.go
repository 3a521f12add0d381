package player

import (
	"sync"
	"time"
)

// Difficulty selects the preset wait time and hold drop for fade
// sequences.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// WaitTime returns the hold duration a hooray sequence spends at its
// dropped volume for this difficulty.
func (d Difficulty) WaitTime() time.Duration {
	switch d {
	case Easy:
		return 10 * time.Second
	case Hard:
		return 2 * time.Second
	default:
		return 5 * time.Second
	}
}

// HoldDrop returns the fraction of the current volume a hold sequence
// drops, in [0,1].
func (d Difficulty) HoldDrop() float64 {
	switch d {
	case Easy:
		return 0.10
	case Hard:
		return 0.40
	default:
		return 0.20
	}
}

// State is a consistent snapshot of the playback state. Copies are
// handed to subscribers; only the arbiter mutates the live instance.
type State struct {
	TrackID   string
	TrackPath string
	Position  time.Duration
	Duration  time.Duration

	Volume  float64 // always in [0,1]
	Playing bool
	Paused  bool

	Looping bool
	Random  bool

	Difficulty  Difficulty
	HoorayCount int

	// FadePhase reflects the active fade sequence, PhaseIdle when none.
	FadePhase Phase
}

// Store owns the single mutable playback state. All mutation goes
// through the arbiter; everyone else sees immutable snapshots.
type Store struct {
	mu    sync.Mutex
	state State

	subMu sync.Mutex
	subs  []func(State)
}

// NewStore returns a store with the given initial volume.
func NewStore(volume float64) *Store {
	return &Store{state: State{Volume: clampVolume(volume), Difficulty: Medium}}
}

// Read returns a snapshot of the current state. Never blocks on
// in-flight mutations longer than the copy itself.
func (s *Store) Read() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with a snapshot after every
// applied mutation. Callbacks run on the mutating goroutine and must
// not call back into the arbiter.
func (s *Store) Subscribe(fn func(State)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

// apply runs mutate against the live state atomically and notifies
// subscribers with the resulting snapshot.
func (s *Store) apply(mutate func(*State)) State {
	s.mu.Lock()
	mutate(&s.state)
	s.state.Volume = clampVolume(s.state.Volume)
	snapshot := s.state
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot
}

func (s *Store) notify(snapshot State) {
	s.subMu.Lock()
	subs := make([]func(State), len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
