package player

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend records calls and lets tests mark paths as unplayable.
type fakeBackend struct {
	mu       sync.Mutex
	loaded   string
	playing  bool
	paused   bool
	volume   float64
	position time.Duration
	duration time.Duration
	bad      map[string]bool
	ended    func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{volume: 1, duration: 3 * time.Minute, bad: map[string]bool{}}
}

func (b *fakeBackend) Load(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bad[path] {
		return &MediaLoadError{Path: path, Err: errors.New("bad file")}
	}
	b.loaded = path
	b.position = 0
	return nil
}

func (b *fakeBackend) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = true
	b.paused = false
	return nil
}

func (b *fakeBackend) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = true
}

func (b *fakeBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = false
	b.paused = false
	b.position = 0
}

func (b *fakeBackend) Seek(pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.position = pos
	return nil
}

func (b *fakeBackend) SetVolume(v float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.volume = v
}

func (b *fakeBackend) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.duration
}

func (b *fakeBackend) Position() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *fakeBackend) OnTrackEnded(fn func()) { b.ended = fn }

func (b *fakeBackend) Close() error { return nil }

// fakeTracks serves a fixed ordered list.
type fakeTracks struct {
	paths []string
}

func (f *fakeTracks) Next(current string, random bool) (string, bool) {
	if len(f.paths) == 0 {
		return "", false
	}
	for i, p := range f.paths {
		if p == current {
			return f.paths[(i+1)%len(f.paths)], true
		}
	}
	return f.paths[0], true
}

type fakeFavorites struct {
	mu    sync.Mutex
	added []string
}

func (f *fakeFavorites) Add(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, path)
}

func (f *fakeFavorites) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.added)
}

type fixture struct {
	store     *Store
	backend   *fakeBackend
	tracks    *fakeTracks
	favorites *fakeFavorites
	clock     *testClock
	arb       *Arbiter
	states    chan State
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{
		store:     NewStore(0.8),
		backend:   newFakeBackend(),
		tracks:    &fakeTracks{paths: []string{"a.mp3", "b.mp3", "c.wav"}},
		favorites: &fakeFavorites{},
		clock:     newTestClock(),
		states:    make(chan State, 256),
	}
	f.store.Subscribe(func(s State) { f.states <- s })
	f.arb = NewArbiter(f.store, f.backend, f.tracks, f.favorites, f.clock, cfg, nil)
	return f
}

// waitState consumes snapshots until pred matches or times out.
func (f *fixture) waitState(t *testing.T, what string, pred func(State) bool) State {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-f.states:
			if pred(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s, state now: %+v", what, f.store.Read())
		}
	}
}

// advanceUntil steps the clock until pred holds, giving the sequence
// goroutine time to drain each tick.
func (f *fixture) advanceUntil(t *testing.T, step time.Duration, what string, pred func(State) bool) State {
	t.Helper()
	for range 200 {
		// Keep the subscription channel drained; this loop inspects the
		// store directly.
		for {
			select {
			case <-f.states:
				continue
			default:
			}
			break
		}
		if s := f.store.Read(); pred(s) {
			return s
		}
		f.clock.Advance(step)
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out advancing toward %s, state now: %+v", what, f.store.Read())
	return State{}
}

func TestVolumeAlwaysClamped(t *testing.T) {
	f := newFixture(t, Config{})

	deltas := []Command{
		SetVolume(0.5),
		AdjustVolume(0.9),
		AdjustVolume(0.9),
		SetVolume(2.5),
		AdjustVolume(-3),
		AdjustVolume(-0.1),
		SetVolume(-1),
		AdjustVolume(0.1),
	}
	for _, cmd := range deltas {
		if err := f.arb.Submit(cmd, SourceUI); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		v := f.store.Read().Volume
		if v < 0 || v > 1 {
			t.Fatalf("volume %v out of range after %v", v, cmd.Op)
		}
	}
	if got := f.store.Read().Volume; got != 0.1 {
		t.Errorf("volume = %v, want 0.1", got)
	}
}

func TestPlayStartsFirstTrack(t *testing.T) {
	f := newFixture(t, Config{})

	if err := f.arb.Submit(Play(), SourceUI); err != nil {
		t.Fatalf("Play: %v", err)
	}
	st := f.store.Read()
	if !st.Playing || st.TrackPath != "a.mp3" {
		t.Errorf("state = %+v, want playing a.mp3", st)
	}
	if f.backend.loaded != "a.mp3" {
		t.Errorf("backend loaded %q", f.backend.loaded)
	}
}

func TestPauseResume(t *testing.T) {
	f := newFixture(t, Config{})

	mustSubmit(t, f.arb, Play())
	mustSubmit(t, f.arb, Pause())
	if st := f.store.Read(); !st.Paused {
		t.Fatalf("not paused: %+v", st)
	}
	mustSubmit(t, f.arb, Play())
	st := f.store.Read()
	if st.Paused || !st.Playing {
		t.Errorf("resume left state %+v", st)
	}
}

func TestNextTrackSkipsUnplayable(t *testing.T) {
	f := newFixture(t, Config{})
	f.backend.bad["b.mp3"] = true

	mustSubmit(t, f.arb, Play()) // a.mp3
	mustSubmit(t, f.arb, NextTrack(false))

	if st := f.store.Read(); st.TrackPath != "c.wav" {
		t.Errorf("track = %q, want c.wav (b.mp3 unplayable)", st.TrackPath)
	}
}

func TestNextTrackEmptyCatalog(t *testing.T) {
	f := newFixture(t, Config{})
	f.tracks.paths = nil

	if err := f.arb.Submit(Play(), SourceUI); !errors.Is(err, ErrNoTracks) {
		t.Errorf("err = %v, want ErrNoTracks", err)
	}
}

func TestSeekClampedToDuration(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())

	mustSubmit(t, f.arb, Seek(10*time.Minute))
	if got := f.store.Read().Position; got != 3*time.Minute {
		t.Errorf("position = %v, want clamp to 3m", got)
	}

	mustSubmit(t, f.arb, Seek(-5*time.Second))
	if got := f.store.Read().Position; got != 0 {
		t.Errorf("position = %v, want 0", got)
	}
}

func TestSeekWithoutTrack(t *testing.T) {
	f := newFixture(t, Config{})
	if err := f.arb.Submit(Seek(time.Second), SourceUI); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestFavoriteWithoutTrack(t *testing.T) {
	f := newFixture(t, Config{})

	err := f.arb.Submit(Favorite(), SourceVoice)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if f.favorites.count() != 0 {
		t.Error("favorites mutated on invalid state")
	}
}

func TestFavoriteCurrentTrack(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())

	mustSubmit(t, f.arb, Favorite())
	if f.favorites.count() != 1 || f.favorites.added[0] != "a.mp3" {
		t.Errorf("favorites = %v", f.favorites.added)
	}
}

func TestToggles(t *testing.T) {
	f := newFixture(t, Config{})

	mustSubmit(t, f.arb, ToggleLoop())
	mustSubmit(t, f.arb, ToggleRandom())
	st := f.store.Read()
	if !st.Looping || !st.Random {
		t.Errorf("toggles not applied: %+v", st)
	}
	mustSubmit(t, f.arb, ToggleLoop())
	if f.store.Read().Looping {
		t.Error("loop did not toggle off")
	}
}

func TestSetDifficulty(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, SetDifficulty(Hard))
	if got := f.store.Read().Difficulty; got != Hard {
		t.Errorf("difficulty = %v", got)
	}
}

func TestTrackEndedAdvances(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())

	f.backend.ended()
	if st := f.store.Read(); st.TrackPath != "b.mp3" {
		t.Errorf("track = %q, want b.mp3", st.TrackPath)
	}
}

func TestTrackEndedLoops(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())
	mustSubmit(t, f.arb, ToggleLoop())

	f.backend.ended()
	if st := f.store.Read(); st.TrackPath != "a.mp3" {
		t.Errorf("track = %q, want looped a.mp3", st.TrackPath)
	}
}

func TestSyncPositionReflectsBackend(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())

	if err := f.backend.Seek(42 * time.Second); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	st := f.arb.SyncPosition()
	if st.Position != 42*time.Second {
		t.Errorf("position = %v, want 42s", st.Position)
	}
	if st.Duration != 3*time.Minute {
		t.Errorf("duration = %v, want 3m", st.Duration)
	}
}

// SyncPosition mutates state just like a command, so it runs under the
// arbiter mutex and must stay safe against concurrent submissions.
func TestSyncPositionSerializedWithSubmit(t *testing.T) {
	f := newFixture(t, Config{})
	mustSubmit(t, f.arb, Play())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			f.arb.SyncPosition()
		}
	}()
	for range 100 {
		mustSubmit(t, f.arb, AdjustVolume(0))
	}
	<-done
}

func mustSubmit(t *testing.T, a *Arbiter, cmd Command) {
	t.Helper()
	if err := a.Submit(cmd, SourceUI); err != nil {
		t.Fatalf("Submit(%v): %v", cmd.Op, err)
	}
}
