package voice

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/soniclab/aural/cmd/play/player"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *stubClock) After(time.Duration) <-chan time.Time  { return nil }
func (c *stubClock) NewTicker(time.Duration) player.Ticker { return nil }

type recordingSubmitter struct {
	mu   sync.Mutex
	cmds []player.Command
}

func (r *recordingSubmitter) Submit(cmd player.Command, source player.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if source != player.SourceVoice {
		panic("voice controller must submit as SourceVoice")
	}
	r.cmds = append(r.cmds, cmd)
	return nil
}

func (r *recordingSubmitter) ops() []player.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]player.Op, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.Op
	}
	return out
}

func TestDebounceCoalescesEchoes(t *testing.T) {
	clk := &stubClock{now: time.Unix(0, 0)}
	sub := &recordingSubmitter{}
	c := NewController(sub, clk, 750*time.Millisecond)

	// Recognition echo: same phrase twice within the window.
	c.Handle("hooray")
	clk.advance(100 * time.Millisecond)
	c.Handle("hooray")

	if got := sub.ops(); len(got) != 1 {
		t.Fatalf("submitted %v, want single hooray", got)
	}

	// Past the window the command passes again.
	clk.advance(time.Second)
	c.Handle("hooray")
	if got := sub.ops(); len(got) != 2 {
		t.Errorf("submitted %v, want two hoorays", got)
	}
}

func TestDebounceAllowsDifferentCommands(t *testing.T) {
	clk := &stubClock{now: time.Unix(0, 0)}
	sub := &recordingSubmitter{}
	c := NewController(sub, clk, 750*time.Millisecond)

	c.Handle("up")
	c.Handle("pause")
	c.Handle("up")

	want := []player.Op{player.OpSetVolume, player.OpPause, player.OpSetVolume}
	got := sub.ops()
	if len(got) != len(want) {
		t.Fatalf("submitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestHandleDropsUnmatched(t *testing.T) {
	clk := &stubClock{now: time.Unix(0, 0)}
	sub := &recordingSubmitter{}
	c := NewController(sub, clk, 0)

	c.Handle("complete gibberish")
	if got := sub.ops(); len(got) != 0 {
		t.Errorf("submitted %v for unmatched utterance", got)
	}
}

func TestListenFeedsTranscriptLines(t *testing.T) {
	clk := &stubClock{now: time.Unix(0, 0)}
	sub := &recordingSubmitter{}
	c := NewController(sub, clk, 750*time.Millisecond)

	input := "hooray\nnot a command\nskip\n"
	c.Listen(context.Background(), strings.NewReader(input))

	want := []player.Op{player.OpTriggerHooray, player.OpNextTrack}
	got := sub.ops()
	if len(got) != len(want) {
		t.Fatalf("submitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("op[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	clk := &stubClock{now: time.Unix(0, 0)}
	sub := &recordingSubmitter{}
	c := NewController(sub, clk, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := newBlockingPipe()
	defer pw.close()

	done := make(chan struct{})
	go func() {
		c.Listen(ctx, pr)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return on context cancellation")
	}
}

// blockingPipe is a reader that blocks until closed, standing in for a
// silent microphone stream.
type blockingPipe struct {
	ch chan struct{}
}

func newBlockingPipe() (*blockingPipe, *blockingPipe) {
	p := &blockingPipe{ch: make(chan struct{})}
	return p, p
}

func (p *blockingPipe) Read([]byte) (int, error) {
	<-p.ch
	return 0, context.Canceled
}

func (p *blockingPipe) close() {
	select {
	case <-p.ch:
	default:
		close(p.ch)
	}
}
