package play

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/soniclab/aural/cmd/play/analyzer"
	"github.com/soniclab/aural/cmd/play/catalog"
	"github.com/soniclab/aural/cmd/play/player"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	trackStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	pausedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	stoppedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	meterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	fadeStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	favoriteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// stateMsg carries a playback state snapshot from the store
// subscription into the bubbletea loop.
type stateMsg player.State

// libraryChangedMsg signals that the media directory changed on disk.
type libraryChangedMsg struct{}

type tickMsg time.Time

type model struct {
	arb  *player.Arbiter
	cat  *catalog.Catalog
	an   *analyzer.Analyzer
	sink *eventSink

	state  player.State
	width  int
	height int

	// volume remembered across a mute toggle
	premute float64
	muted   bool

	status   string // transient one-line message
	helpView bool
}

func newModel(arb *player.Arbiter, cat *catalog.Catalog, an *analyzer.Analyzer, sink *eventSink, initial player.State) model {
	return model{
		arb:   arb,
		cat:   cat,
		an:    an,
		sink:  sink,
		state: initial,
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.helpView {
			m.helpView = false
			return m, nil
		}
		return m.handleKey(msg)

	case stateMsg:
		m.state = player.State(msg)
		return m, nil

	case libraryChangedMsg:
		m.status = fmt.Sprintf("library changed, %d tracks", m.cat.Len())
		return m, nil

	case tickMsg:
		st := m.arb.SyncPosition()
		m.state = st
		if snap, ok := m.an.Latest(); ok {
			m.sink.sample(st, snap)
		}
		return m, tickCmd()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	submit := func(cmd player.Command) {
		if err := m.arb.Submit(cmd, player.SourceUI); err != nil {
			m.status = err.Error()
		}
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		if m.state.Playing && !m.state.Paused {
			submit(player.Pause())
		} else {
			submit(player.Play())
		}
	case "s":
		submit(player.Stop())
	case "n":
		submit(player.NextTrack(false))
	case "h":
		submit(player.TriggerHooray())
	case "H":
		submit(player.TriggerHold())
	case "+", "=":
		submit(player.AdjustVolume(0.05))
		m.muted = false
	case "-", "_":
		submit(player.AdjustVolume(-0.05))
	case "m":
		if m.muted {
			submit(player.SetVolume(m.premute))
			m.muted = false
		} else {
			m.premute = m.state.Volume
			submit(player.SetVolume(0))
			m.muted = true
		}
	case "left":
		submit(player.Seek(m.state.Position - 5*time.Second))
	case "right":
		submit(player.Seek(m.state.Position + 5*time.Second))
	case "l":
		submit(player.ToggleLoop())
	case "r":
		submit(player.ToggleRandom())
	case "f":
		submit(player.Favorite())
		if m.status == "" {
			m.status = "favorited " + filepath.Base(m.state.TrackPath)
		}
	case "F":
		m.cat.SetFavoritesOnly(!m.cat.FavoritesOnly())
		if m.cat.FavoritesOnly() {
			m.status = fmt.Sprintf("favorites only, %d tracks", len(m.cat.Tracks()))
		} else {
			m.status = fmt.Sprintf("all tracks, %d total", m.cat.Len())
		}
	case "c":
		if m.state.TrackPath == "" {
			m.status = "no track to copy"
		} else if err := clipboard.WriteAll(m.state.TrackPath); err != nil {
			m.status = "clipboard: " + err.Error()
		} else {
			m.status = "copied track path"
		}
	case "1":
		submit(player.SetDifficulty(player.Easy))
	case "2":
		submit(player.SetDifficulty(player.Medium))
	case "3":
		submit(player.SetDifficulty(player.Hard))
	case "?":
		m.helpView = true
	}

	return m, nil
}

func (m model) View() string {
	if m.helpView {
		return m.renderHelp()
	}

	width := m.width
	if width < 40 {
		width = 80
	}

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(titleStyle.Render("aural"))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(m.cat.Dir()))
	b.WriteString("\n\n")

	// Track line
	b.WriteString("  ")
	if m.state.TrackPath == "" {
		b.WriteString(stoppedStyle.Render("no track loaded"))
	} else {
		name := runewidth.Truncate(filepath.Base(m.state.TrackPath), width-10, "…")
		if m.cat.IsFavorite(m.state.TrackPath) {
			b.WriteString(favoriteStyle.Render("★ "))
		} else {
			b.WriteString("  ")
		}
		switch {
		case m.state.Paused:
			b.WriteString(pausedStyle.Render("⏸ " + name))
		case m.state.Playing:
			b.WriteString(trackStyle.Render("▶ " + name))
		default:
			b.WriteString(stoppedStyle.Render("■ " + name))
		}
	}
	b.WriteString("\n\n")

	// Progress
	b.WriteString("  ")
	b.WriteString(renderProgress(m.state.Position, m.state.Duration, min(width-24, 50)))
	b.WriteString(fmt.Sprintf("  %s / %s", formatDuration(m.state.Position), formatDuration(m.state.Duration)))
	b.WriteString("\n")

	// Volume and level meter
	b.WriteString(fmt.Sprintf("  vol %3.0f%% ", m.state.Volume*100))
	b.WriteString(renderBar(m.state.Volume, 20))
	level := 0.0
	if snap, ok := m.an.Latest(); ok {
		level = snap.RMS * m.state.Volume
		if level > 1 {
			level = 1
		}
	}
	b.WriteString("   level ")
	b.WriteString(meterStyle.Render(renderBar(level, 20)))
	b.WriteString("\n\n")

	// Flags line
	var flags []string
	flags = append(flags, m.state.Difficulty.String())
	if m.state.Looping {
		flags = append(flags, "loop")
	}
	if m.state.Random {
		flags = append(flags, "random")
	}
	if m.cat.FavoritesOnly() {
		flags = append(flags, "favorites")
	}
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(strings.Join(flags, " • ")))
	b.WriteString(helpStyle.Render(fmt.Sprintf("  hoorays: %d", m.state.HoorayCount)))
	if m.state.FadePhase != player.PhaseIdle {
		b.WriteString("  ")
		b.WriteString(fadeStyle.Render(m.state.FadePhase.String()))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n  ")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(helpStyle.Render("space pause • n next • h hooray • H hold • +/- volume • f favorite • ? help • q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m model) renderHelp() string {
	help := `
  aural key bindings

    SPACE          pause / resume
    s              stop
    n              next track
    h              trigger hooray (drop, hold, ramp back)
    H              trigger hold (drop by the difficulty's percentage and stay)
    + / -          volume up / down 5%
    m              mute / unmute
    LEFT / RIGHT   seek 5 seconds
    l              toggle loop
    r              toggle random order
    f              favorite the current track
    F              toggle favorites-only filter
    c              copy track path to clipboard
    1 / 2 / 3      difficulty easy / medium / hard
    q              quit

  press any key to return
`
	return helpStyle.Render(help)
}

func renderProgress(pos, total time.Duration, width int) string {
	if width < 4 {
		width = 4
	}
	filled := 0
	if total > 0 {
		filled = int(float64(width) * float64(pos) / float64(total))
		if filled > width {
			filled = width
		}
	}
	return "[" + strings.Repeat("━", filled) + strings.Repeat("─", width-filled) + "]"
}

func renderBar(level float64, width int) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
