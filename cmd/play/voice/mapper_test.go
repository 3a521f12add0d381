package voice

import (
	"testing"

	"github.com/soniclab/aural/cmd/play/player"
)

func TestMapVocabulary(t *testing.T) {
	cases := []struct {
		utterance string
		want      player.Command
	}{
		{"hooray", player.TriggerHooray()},
		{"edge", player.TriggerHooray()},
		{"now", player.TriggerHooray()},
		{"hold", player.TriggerHold()},
		{"skip", player.NextTrack(true)},
		{"up", player.AdjustVolume(0.10)},
		{"more", player.AdjustVolume(0.10)},
		{"down", player.AdjustVolume(-0.10)},
		{"less", player.AdjustVolume(-0.10)},
		{"max", player.SetVolume(1.0)},
		{"half", player.SetVolume(0.5)},
		{"pause", player.Pause()},
		{"playback", player.Play()},
		{"resume", player.Play()},
		{"stop", player.Stop()},
		{"favorite", player.Favorite()},
		{"easy", player.SetDifficulty(player.Easy)},
		{"hard", player.SetDifficulty(player.Hard)},
	}
	for _, c := range cases {
		got, ok := Map(c.utterance)
		if !ok {
			t.Errorf("Map(%q) unmatched", c.utterance)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("Map(%q) = %v, want %v", c.utterance, got.Op, c.want.Op)
		}
	}
}

func TestMapCaseInsensitive(t *testing.T) {
	got, ok := Map("HOORAY")
	if !ok || !got.Equal(player.TriggerHooray()) {
		t.Errorf("Map(HOORAY) = %v, %v", got.Op, ok)
	}
}

// "now" alone triggers a hooray, but in "please MAX now" the word max
// comes first and must win.
func TestMapAmbiguousMaxNow(t *testing.T) {
	got, ok := Map("please MAX now")
	if !ok {
		t.Fatal("unmatched")
	}
	if !got.Equal(player.SetVolume(1.0)) {
		t.Errorf("Map(please MAX now) = %v, want set-volume 1.0", got.Op)
	}

	got, ok = Map("now")
	if !ok || !got.Equal(player.TriggerHooray()) {
		t.Errorf("Map(now) = %v, want trigger-hooray", got.Op)
	}
}

func TestMapInsideSentence(t *testing.T) {
	got, ok := Map("could you pause that")
	if !ok || !got.Equal(player.Pause()) {
		t.Errorf("Map = %v, %v, want pause", got.Op, ok)
	}
}

func TestMapUnmatched(t *testing.T) {
	for _, text := range []string{"", "   ", "hello there", "turn it off"} {
		if cmd, ok := Map(text); ok {
			t.Errorf("Map(%q) = %v, want no match", text, cmd.Op)
		}
	}
}
