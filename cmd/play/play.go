package play

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/soniclab/aural/cmd/common"
	"github.com/soniclab/aural/cmd/play/analyzer"
	"github.com/soniclab/aural/cmd/play/backend"
	"github.com/soniclab/aural/cmd/play/catalog"
	"github.com/soniclab/aural/cmd/play/metrics"
	"github.com/soniclab/aural/cmd/play/player"
	"github.com/soniclab/aural/cmd/play/voice"
	"github.com/spf13/cobra"
)

type Params struct {
	Dir        string  `pos:"true" optional:"true" help:"Directory of media files to play." default:"."`
	Volume     float64 `short:"v" help:"Initial volume, 0..1." default:"0.8"`
	Difficulty string  `short:"d" help:"Fade sequence difficulty." default:"medium" alts:"easy,medium,hard"`
	Loop       bool    `short:"l" help:"Start with loop enabled." default:"false"`
	Random     bool    `short:"r" help:"Start with random track order." default:"false"`
	Favorites  bool    `short:"f" help:"Only play favorite tracks." default:"false"`
	VoiceFrom  string  `optional:"true" help:"Read newline-delimited voice transcripts from this file or FIFO."`
	NoMetrics  bool    `long:"no-metrics" help:"Disable the session metrics log." default:"false"`
	NoNotify   bool    `long:"no-notify" help:"Disable desktop notifications." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:   "play",
		Short: "Play local audio files interactively",
		Long: `Play MP3/WAV files from a directory with an interactive terminal UI.

Key bindings:
  SPACE          Pause / resume
  n              Next track
  h / H          Trigger a fade sequence: hooray drops to silence and
                 ramps back after the difficulty's wait; hold drops by
                 the difficulty's percentage and stays until cancelled
  + / -          Volume up / down
  m              Mute / unmute
  LEFT / RIGHT   Seek 5 seconds
  l / r          Toggle loop / random order
  f              Favorite the current track
  F              Toggle favorites-only filter
  c              Copy the current track path to the clipboard
  1 / 2 / 3      Difficulty easy / medium / hard
  ? , q          Help, quit

Voice commands can be fed through --voice-from as one recognized
utterance per line, e.g. from a speech-recognizer process writing to a
FIFO.`,
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := runPlay(params); err != nil {
				fmt.Fprintf(os.Stderr, "play: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func parseDifficulty(s string) (player.Difficulty, error) {
	switch strings.ToLower(s) {
	case "easy":
		return player.Easy, nil
	case "medium", "":
		return player.Medium, nil
	case "hard":
		return player.Hard, nil
	default:
		return player.Medium, fmt.Errorf("unknown difficulty %q", s)
	}
}

func runPlay(params *Params) error {
	difficulty, err := parseDifficulty(params.Difficulty)
	if err != nil {
		return err
	}

	cat, err := catalog.New(params.Dir, catalog.DefaultFavoritesPath())
	if err != nil {
		return fmt.Errorf("cannot scan '%s': %w", params.Dir, err)
	}
	cat.SetFavoritesOnly(params.Favorites)
	if cat.Len() == 0 {
		return fmt.Errorf("no media files in '%s'", params.Dir)
	}

	an := analyzer.New(int(backend.SampleRate))
	be := backend.New(an.Tap)
	defer be.Close()

	store := player.NewStore(params.Volume)

	sink := &eventSink{notify: !params.NoNotify}
	if !params.NoMetrics {
		logger, err := metrics.NewLogger(filepath.Join(common.CacheDir(), "metrics"))
		if err != nil {
			slog.Warn("metrics disabled", "error", err)
		} else {
			sink.logger = logger
			defer logger.Close()
		}
	}

	arb := player.NewArbiter(store, be, cat, cat, player.RealClock(), player.Config{
		Fade: player.DefaultFadeConfig(),
	}, sink.handle)

	_ = arb.Submit(player.SetDifficulty(difficulty), player.SourceUI)
	if params.Loop {
		_ = arb.Submit(player.ToggleLoop(), player.SourceUI)
	}
	if params.Random {
		_ = arb.Submit(player.ToggleRandom(), player.SourceUI)
	}
	if err := arb.Submit(player.Play(), player.SourceUI); err != nil {
		return err
	}

	m := newModel(arb, cat, an, sink, store.Read())
	p := tea.NewProgram(m, tea.WithAltScreen())

	store.Subscribe(func(s player.State) {
		p.Send(stateMsg(s))
	})

	watcher, err := catalog.NewWatcher(cat, func() {
		p.Send(libraryChangedMsg{})
	})
	if err != nil {
		slog.Warn("library watching disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if params.VoiceFrom != "" {
		transcripts, err := os.Open(params.VoiceFrom)
		if err != nil {
			return fmt.Errorf("cannot open voice transcript source: %w", err)
		}
		defer transcripts.Close()
		controller := voice.NewController(arb, player.RealClock(), voice.DefaultDebounceWindow)
		go controller.Listen(ctx, transcripts)
	}

	_, err = p.Run()
	return err
}

// eventSink fans playback events out to the metrics log and the
// desktop notifier. Runs on the arbiter goroutine, so anything slow
// goes to its own goroutine.
type eventSink struct {
	logger *metrics.Logger
	notify bool
}

func (e *eventSink) handle(event string, st player.State) {
	if e.logger != nil {
		switch event {
		case player.EventTrackChange:
			e.logger.SetTrack(filepath.Base(st.TrackPath))
		case player.EventHoorayComplete:
			e.logger.SetCycle(st.HoorayCount)
		}
		if err := e.logger.Event(event, st.Position); err != nil {
			slog.Warn("metrics write failed", "error", err)
		}
	}
	if e.notify && event == player.EventHoorayComplete {
		go func() {
			if err := beeep.Notify("aural", fmt.Sprintf("Hooray #%d complete", st.HoorayCount), ""); err != nil {
				slog.Debug("notification failed", "error", err)
			}
		}()
	}
}

func (e *eventSink) sample(st player.State, snap analyzer.Snapshot) {
	if e.logger == nil || !st.Playing || st.Paused {
		return
	}
	if err := e.logger.Sample(st.Volume, snap.DominantHz, st.Position); err != nil {
		slog.Warn("metrics write failed", "error", err)
	}
}
