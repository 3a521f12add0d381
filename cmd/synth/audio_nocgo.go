//go:build !((linux && cgo) || windows || darwin)

package synth

import "fmt"

func play(samples [][2]float64) error {
	return fmt.Errorf("audio playback requires CGO on Linux; use --out to write a WAV file instead")
}
