package synth

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/soniclab/aural/cmd/common"
	"github.com/spf13/cobra"
)

const sampleRate = 44100

type Params struct {
	Waveforms []string `pos:"true" optional:"true" help:"Waveforms to mix." alts:"sine,square,sawtooth,triangle"`
	Frequency float64  `short:"f" help:"Tone frequency in Hz." default:"440"`
	Duration  float64  `short:"d" help:"Tone duration in seconds." default:"2"`
	Amplitude float64  `short:"a" help:"Amplitude before the envelope, 0..1." default:"0.8"`
	Attack    float64  `help:"Envelope attack time in seconds." default:"0.1"`
	Decay     float64  `help:"Envelope decay time in seconds." default:"0.1"`
	Sustain   float64  `help:"Envelope sustain level, 0..1." default:"0.7"`
	Release   float64  `help:"Envelope release time in seconds." default:"0.2"`
	Out       string   `short:"o" optional:"true" help:"Write a WAV file instead of playing."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "synth",
		Short:       "Generate and play a synthesized tone",
		Long:        "Mix one or more oscillator waveforms into a tone, shape it with an ADSR envelope, and play it or write it to a WAV file.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params) error {
	samples, err := Render(params)
	if err != nil {
		return err
	}

	if params.Out != "" {
		return writeWav(params.Out, samples)
	}
	return play(samples)
}

// Render synthesizes the tone described by params as stereo samples.
func Render(params *Params) ([][2]float64, error) {
	waveforms := params.Waveforms
	if len(waveforms) == 0 {
		waveforms = []string{"sine"}
	}
	if params.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %v", params.Duration)
	}
	if params.Frequency <= 0 {
		return nil, fmt.Errorf("frequency must be positive, got %v", params.Frequency)
	}

	n := int(float64(sampleRate) * params.Duration)
	mono := make([]float64, n)
	for _, w := range waveforms {
		osc, err := oscillator(w)
		if err != nil {
			return nil, err
		}
		for i := range mono {
			phase := params.Frequency * float64(i) / sampleRate
			mono[i] += osc(phase)
		}
	}

	normalize(mono)
	applyEnvelope(mono, envelope{
		attack:  params.Attack,
		decay:   params.Decay,
		sustain: params.Sustain,
		release: params.Release,
	})

	out := make([][2]float64, n)
	for i, v := range mono {
		v *= params.Amplitude
		out[i] = [2]float64{v, v}
	}
	return out, nil
}

// oscillator returns a function producing one sample for the given
// phase measured in whole cycles.
func oscillator(waveform string) (func(phase float64) float64, error) {
	switch strings.ToLower(waveform) {
	case "sine":
		return func(phase float64) float64 {
			return math.Sin(2 * math.Pi * phase)
		}, nil
	case "square":
		return func(phase float64) float64 {
			if phase-math.Floor(phase) < 0.5 {
				return 1
			}
			return -1
		}, nil
	case "sawtooth":
		return func(phase float64) float64 {
			return 2*(phase-math.Floor(phase)) - 1
		}, nil
	case "triangle":
		return func(phase float64) float64 {
			p := phase - math.Floor(phase)
			if p < 0.5 {
				return 4*p - 1
			}
			return 3 - 4*p
		}, nil
	default:
		return nil, fmt.Errorf("unknown waveform %q", waveform)
	}
}

func normalize(samples []float64) {
	peak := 0.0
	for _, v := range samples {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 1 {
		for i := range samples {
			samples[i] /= peak
		}
	}
}

type envelope struct {
	attack  float64
	decay   float64
	sustain float64
	release float64
}

// applyEnvelope shapes samples with a linear ADSR curve: ramp to full
// level over attack, down to the sustain level over decay, hold, then
// ramp to silence over the final release seconds.
func applyEnvelope(samples []float64, env envelope) {
	n := len(samples)
	attack := int(env.attack * sampleRate)
	decay := int(env.decay * sampleRate)
	release := int(env.release * sampleRate)

	for i := range samples {
		level := env.sustain
		switch {
		case i < attack:
			level = float64(i) / float64(attack)
		case i < attack+decay:
			progress := float64(i-attack) / float64(decay)
			level = 1 - progress*(1-env.sustain)
		}
		if fromEnd := n - i; fromEnd <= release {
			tail := env.sustain * float64(fromEnd) / float64(release)
			if tail < level {
				level = tail
			}
		}
		samples[i] *= level
	}
}

type bufferStreamer struct {
	samples [][2]float64
	pos     int
}

func (b *bufferStreamer) Stream(samples [][2]float64) (int, bool) {
	if b.pos >= len(b.samples) {
		return 0, false
	}
	n := copy(samples, b.samples[b.pos:])
	b.pos += n
	return n, true
}

func (b *bufferStreamer) Err() error { return nil }

func writeWav(path string, samples [][2]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create '%s': %w", path, err)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(sampleRate),
		NumChannels: 2,
		Precision:   2,
	}
	if err := wav.Encode(f, &bufferStreamer{samples: samples}, format); err != nil {
		f.Close()
		return fmt.Errorf("cannot encode '%s': %w", path, err)
	}
	return f.Close()
}
