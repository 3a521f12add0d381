package player

import (
	"sync"
	"time"
)

// Phase is the fade sequence state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDropping
	PhaseHolding
	PhaseRamping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDropping:
		return "dropping"
	case PhaseHolding:
		return "holding"
	case PhaseRamping:
		return "ramping"
	default:
		return "unknown"
	}
}

// SequenceKind distinguishes the two fade routines.
type SequenceKind int

const (
	// KindHooray drops volume to zero, holds for the configured wait
	// time and ramps back to the pre-sequence volume.
	KindHooray SequenceKind = iota
	// KindHold drops volume by the difficulty's hold fraction and stays
	// there until any further command cancels the sequence.
	KindHold
)

func (k SequenceKind) String() string {
	if k == KindHold {
		return "hold"
	}
	return "hooray"
}

// FadeConfig tunes sequence timing. The zero value of DropDuration
// means the drop is applied in a single step.
type FadeConfig struct {
	DropDuration time.Duration
	RampDuration time.Duration
	TickInterval time.Duration
}

// DefaultFadeConfig matches the historical behavior: immediate drop,
// 2.5s ramp in 100ms steps.
func DefaultFadeConfig() FadeConfig {
	return FadeConfig{
		DropDuration: 0,
		RampDuration: 2500 * time.Millisecond,
		TickInterval: 100 * time.Millisecond,
	}
}

func (c FadeConfig) withDefaults() FadeConfig {
	if c.TickInterval <= 0 {
		c.TickInterval = 100 * time.Millisecond
	}
	if c.RampDuration <= 0 {
		c.RampDuration = 2500 * time.Millisecond
	}
	return c
}

// sequence is one running fade routine. At most one exists at a time;
// the arbiter cancels the previous one before starting a new one.
type sequence struct {
	id           uint64
	kind         SequenceKind
	startVolume  float64
	targetVolume float64
	wait         time.Duration

	cancelOnce sync.Once
	cancelled  chan struct{}
}

// cancel stops the sequence. Safe to call more than once and from the
// arbiter while it holds its own lock: no sequence goroutine ever holds
// a lock the arbiter needs.
func (s *sequence) cancel() {
	s.cancelOnce.Do(func() { close(s.cancelled) })
}

func (s *sequence) isCancelled() bool {
	select {
	case <-s.cancelled:
		return true
	default:
		return false
	}
}

// fadeEngine runs sequences on their own goroutine, driving volume
// through the arbiter so the single-entry-point invariant holds.
type fadeEngine struct {
	clock Clock
	cfg   FadeConfig
	arb   *Arbiter
}

func newFadeEngine(clock Clock, cfg FadeConfig, arb *Arbiter) *fadeEngine {
	return &fadeEngine{clock: clock, cfg: cfg.withDefaults(), arb: arb}
}

// start launches the sequence goroutine. Called by the arbiter after it
// has registered the sequence as active.
func (e *fadeEngine) start(seq *sequence) {
	go e.run(seq)
}

func (e *fadeEngine) run(seq *sequence) {
	if !e.ramp(seq, PhaseDropping, seq.startVolume, seq.targetVolume, e.cfg.DropDuration) {
		return
	}

	if !e.hold(seq) {
		return
	}

	if seq.kind == KindHold {
		// Unreachable: hold never leaves the holding phase on its own.
		return
	}

	if !e.ramp(seq, PhaseRamping, seq.targetVolume, seq.startVolume, e.cfg.RampDuration) {
		return
	}

	e.arb.sequenceCompleted(seq)
}

// ramp moves volume linearly from from to to over d, one tick at a
// time. Returns false if the sequence was cancelled mid-ramp.
func (e *fadeEngine) ramp(seq *sequence, phase Phase, from, to float64, d time.Duration) bool {
	e.arb.sequencePhase(seq, phase)

	steps := int(d / e.cfg.TickInterval)
	if steps <= 0 {
		return e.arb.sequenceVolume(seq, to)
	}

	ticker := e.clock.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-seq.cancelled:
			return false
		case <-ticker.C():
			v := from + (to-from)*float64(i)/float64(steps)
			if !e.arb.sequenceVolume(seq, v) {
				return false
			}
		}
	}
	return true
}

// hold parks the sequence at its dropped volume. Hooray sequences wake
// after the wait duration; hold sequences wait for cancellation.
func (e *fadeEngine) hold(seq *sequence) bool {
	e.arb.sequencePhase(seq, PhaseHolding)

	if seq.kind == KindHold {
		<-seq.cancelled
		return false
	}

	select {
	case <-seq.cancelled:
		return false
	case <-e.clock.After(seq.wait):
		return true
	}
}
