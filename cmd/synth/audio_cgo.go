//go:build (linux && cgo) || windows || darwin

package synth

import (
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var speakerInitialized = false

func play(samples [][2]float64) error {
	if !speakerInitialized {
		if err := speaker.Init(beep.SampleRate(sampleRate), sampleRate/10); err != nil {
			return err
		}
		speakerInitialized = true
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(&bufferStreamer{samples: samples}, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}
