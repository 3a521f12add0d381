// Package analyzer observes the decoded sample stream and derives a
// windowed RMS level plus the dominant frequency of the signal. The
// player UI uses it for the level meter and the metrics logger records
// the frequency alongside playback events.
package analyzer

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/mjibson/go-dsp/fft"
)

// windowSize is the number of mono samples per analysis window. At
// 44.1kHz a 2048 sample window updates roughly 21 times per second,
// with ~21.5Hz frequency resolution.
const windowSize = 2048

// Snapshot is one analysis result for the most recently completed
// window.
type Snapshot struct {
	// RMS is the root mean square level of the window, 0..1 for
	// full-scale input.
	RMS float64
	// DominantHz is the frequency of the strongest FFT bin, in Hz.
	// Zero when the window is silent.
	DominantHz float64
}

// Analyzer accumulates mono samples into fixed windows and runs an FFT
// over each completed window. Safe for concurrent use: the audio
// goroutine writes through Tap while readers call Latest.
type Analyzer struct {
	sampleRate float64

	mu      sync.Mutex
	buf     []float64
	latest  Snapshot
	hasData bool
}

func New(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate: float64(sampleRate),
		buf:        make([]float64, 0, windowSize),
	}
}

// Latest returns the result for the most recent completed window and
// whether any window has completed yet.
func (a *Analyzer) Latest() (Snapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest, a.hasData
}

// Reset discards buffered samples and the last snapshot. Called on
// track changes so a stale reading never bleeds into the next track.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = a.buf[:0]
	a.latest = Snapshot{}
	a.hasData = false
}

// Tap wraps the given streamer so every sample that passes through is
// also fed into the analyzer. The wrapped streamer is what the caller
// plays; the audio itself is unmodified.
func (a *Analyzer) Tap(s beep.Streamer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		if n > 0 {
			a.consume(samples[:n])
		}
		return n, ok
	})
}

func (a *Analyzer) consume(samples [][2]float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range samples {
		a.buf = append(a.buf, (s[0]+s[1])/2)
		if len(a.buf) == windowSize {
			a.latest = analyze(a.buf, a.sampleRate)
			a.hasData = true
			a.buf = a.buf[:0]
		}
	}
}

func analyze(window []float64, sampleRate float64) Snapshot {
	var sumSquares float64
	for _, v := range window {
		sumSquares += v * v
	}
	rms := math.Sqrt(sumSquares / float64(len(window)))

	coeffs := fft.FFTReal(window)

	// Only the first half of the spectrum is meaningful for real
	// input; skip the DC bin so a constant offset never wins.
	bestIdx := 0
	bestMag := 0.0
	for i := 1; i < len(coeffs)/2; i++ {
		mag := cmplx.Abs(coeffs[i])
		if mag > bestMag {
			bestMag = mag
			bestIdx = i
		}
	}

	snap := Snapshot{RMS: rms}
	if bestIdx > 0 && rms > 1e-9 {
		snap.DominantHz = float64(bestIdx) * sampleRate / float64(len(window))
	}
	return snap
}
