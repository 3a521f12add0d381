// Package backend adapts the beep speaker to the player.Backend
// contract. Builds without native audio support get a silent no-op
// player so the rest of the application keeps working.
package backend

import "github.com/gopxl/beep/v2"

// SampleRate is the fixed mixer rate; every track is resampled to it.
const SampleRate = beep.SampleRate(44100)

// Tap lets the analyzer observe the sample stream between the decoder
// and the volume stage.
type Tap func(beep.Streamer) beep.Streamer
