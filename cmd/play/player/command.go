package player

import "time"

// Op identifies a playback command.
type Op int

const (
	OpPlay Op = iota
	OpPause
	OpStop
	OpSetVolume
	OpSeek
	OpNextTrack
	OpToggleLoop
	OpToggleRandom
	OpFavorite
	OpSetDifficulty
	OpTriggerHooray
	OpTriggerHold
)

var opNames = map[Op]string{
	OpPlay:          "play",
	OpPause:         "pause",
	OpStop:          "stop",
	OpSetVolume:     "set-volume",
	OpSeek:          "seek",
	OpNextTrack:     "next-track",
	OpToggleLoop:    "toggle-loop",
	OpToggleRandom:  "toggle-random",
	OpFavorite:      "favorite",
	OpSetDifficulty: "set-difficulty",
	OpTriggerHooray: "trigger-hooray",
	OpTriggerHold:   "trigger-hold",
}

func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "unknown"
}

// Source identifies who submitted a command.
type Source int

const (
	SourceUI Source = iota
	SourceVoice
	SourceSequence
)

func (s Source) String() string {
	switch s {
	case SourceUI:
		return "ui"
	case SourceVoice:
		return "voice"
	case SourceSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// Command is an immutable playback command. Construct one with the
// helpers below; the zero values of unused fields are ignored.
type Command struct {
	Op Op

	// SetVolume: exactly one of Volume (absolute) or VolumeDelta applies.
	Volume      float64
	VolumeDelta float64
	Absolute    bool

	// Seek.
	Position time.Duration

	// NextTrack: pick a random track instead of the next in order.
	Random bool

	// SetDifficulty.
	Difficulty Difficulty

	// Internal: sequence ticks carry the id of the sequence that issued
	// them so stale ticks can be rejected after cancellation.
	seqID uint64
}

func Play() Command  { return Command{Op: OpPlay} }
func Pause() Command { return Command{Op: OpPause} }
func Stop() Command  { return Command{Op: OpStop} }

// SetVolume sets the volume to an absolute value in [0,1]. Out of range
// values are clamped on application, not rejected.
func SetVolume(v float64) Command { return Command{Op: OpSetVolume, Volume: v, Absolute: true} }

// AdjustVolume changes the volume by delta, clamped to [0,1].
func AdjustVolume(delta float64) Command { return Command{Op: OpSetVolume, VolumeDelta: delta} }

func Seek(pos time.Duration) Command { return Command{Op: OpSeek, Position: pos} }

func NextTrack(random bool) Command { return Command{Op: OpNextTrack, Random: random} }

func ToggleLoop() Command   { return Command{Op: OpToggleLoop} }
func ToggleRandom() Command { return Command{Op: OpToggleRandom} }

// Favorite marks the current track as a favorite.
func Favorite() Command { return Command{Op: OpFavorite} }

func SetDifficulty(d Difficulty) Command { return Command{Op: OpSetDifficulty, Difficulty: d} }

func TriggerHooray() Command { return Command{Op: OpTriggerHooray} }
func TriggerHold() Command   { return Command{Op: OpTriggerHold} }

// Equal reports whether two commands would have the same effect. Used by
// the voice debouncer to coalesce recognition echoes.
func (c Command) Equal(other Command) bool {
	c.seqID = 0
	other.seqID = 0
	return c == other
}
