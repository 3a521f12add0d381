// Package voice maps recognized utterances to playback commands. The
// speech engine itself is an external collaborator: transcripts arrive
// as plain text lines.
package voice

import (
	"strings"

	"github.com/soniclab/aural/cmd/play/player"
)

// rule binds a spoken keyword to the command it triggers.
type rule struct {
	keyword string
	command player.Command
}

// vocabulary is the fixed phrase table. Order matters only for the
// substring fallback; the primary policy matches the earliest known
// keyword in the utterance, which makes "max now" resolve to max while
// "now" alone still triggers a hooray.
var vocabulary = []rule{
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
	{"medium", player.SetDifficulty(player.Medium)},
	{"hard", player.SetDifficulty(player.Hard)},
}

var keywordIndex = buildIndex()

func buildIndex() map[string]player.Command {
	m := make(map[string]player.Command, len(vocabulary))
	for _, r := range vocabulary {
		m[r.keyword] = r.command
	}
	return m
}

// Map resolves an utterance to a command. Matching is case-insensitive;
// the first word of the utterance that is a known keyword wins. When no
// whole word matches, keywords are searched as substrings in table
// order. Unmatched utterances return ok=false and are dropped by the
// caller.
func Map(utterance string) (player.Command, bool) {
	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return player.Command{}, false
	}

	for _, word := range strings.FieldsFunc(text, isWordSeparator) {
		if cmd, ok := keywordIndex[word]; ok {
			return cmd, true
		}
	}

	for _, r := range vocabulary {
		if strings.Contains(text, r.keyword) {
			return r.command, true
		}
	}

	return player.Command{}, false
}

func isWordSeparator(r rune) bool {
	return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
}
