package voice

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/soniclab/aural/cmd/play/player"
)

// DefaultDebounceWindow suppresses recognition echoes: a recognizer
// often reports the same phrase twice in quick succession, and a
// double-triggered fade is audible.
const DefaultDebounceWindow = 750 * time.Millisecond

// Submitter is the slice of the arbiter the controller needs.
type Submitter interface {
	Submit(cmd player.Command, source player.Source) error
}

// Debouncer coalesces identical commands arriving within a refractory
// window.
type Debouncer struct {
	mu     sync.Mutex
	clock  player.Clock
	window time.Duration
	last   player.Command
	lastAt time.Time
	primed bool
}

func NewDebouncer(clock player.Clock, window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{clock: clock, window: window}
}

// Allow reports whether cmd should pass through, recording it as the
// most recent command when it does.
func (d *Debouncer) Allow(cmd player.Command) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	if d.primed && cmd.Equal(d.last) && now.Sub(d.lastAt) < d.window {
		return false
	}
	d.last = cmd
	d.lastAt = now
	d.primed = true
	return true
}

// Controller feeds recognized text through the mapper and debouncer
// into the arbiter.
type Controller struct {
	submitter Submitter
	debounce  *Debouncer
}

func NewController(submitter Submitter, clock player.Clock, window time.Duration) *Controller {
	return &Controller{
		submitter: submitter,
		debounce:  NewDebouncer(clock, window),
	}
}

// Handle processes one utterance. Unmatched text and recognition
// echoes are dropped without error.
func (c *Controller) Handle(utterance string) {
	cmd, ok := Map(utterance)
	if !ok {
		slog.Debug("unmatched utterance", "text", utterance)
		return
	}
	if !c.debounce.Allow(cmd) {
		slog.Debug("debounced voice command", "op", cmd.Op.String())
		return
	}
	if err := c.submitter.Submit(cmd, player.SourceVoice); err != nil {
		slog.Warn("voice command rejected", "op", cmd.Op.String(), "error", err)
	}
}

// Listen reads newline-delimited transcripts from r until EOF or ctx
// cancellation. The recognizer process writes one recognized utterance
// per line.
func (c *Controller) Listen(ctx context.Context, r io.Reader) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			slog.Warn("voice transcript stream failed", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				slog.Info("voice transcript stream ended")
				return
			}
			c.Handle(line)
		}
	}
}
