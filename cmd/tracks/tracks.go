package tracks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/soniclab/aural/cmd/common"
	"github.com/soniclab/aural/cmd/play/catalog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type Params struct {
	Dir       string `pos:"true" optional:"true" help:"Directory to scan for media files." default:"."`
	Favorites bool   `short:"f" optional:"true" help:"Only list favorite tracks."`
	JSON      bool   `long:"json" help:"Output as JSON"`
}

type trackInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size_bytes"`
	Modified time.Time `json:"modified"`
	Favorite bool      `json:"favorite"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "tracks",
		Short:       "List media files in a library directory",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params, stdout io.Writer) error {
	cat, err := catalog.New(params.Dir, catalog.DefaultFavoritesPath())
	if err != nil {
		return fmt.Errorf("failed to scan '%s': %w", params.Dir, err)
	}
	cat.SetFavoritesOnly(params.Favorites)

	infos := collect(cat)

	if params.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	if len(infos) == 0 {
		fmt.Fprintln(stdout, "No tracks found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetStyle(table.StyleLight)
	t.SetAllowedRowLength(getTermWidth())

	t.AppendHeader(table.Row{"", "Track", "Size", "Modified"})
	for _, info := range infos {
		marker := " "
		if info.Favorite {
			marker = "★"
		}
		t.AppendRow(table.Row{
			marker,
			info.Name,
			formatSize(info.Size),
			info.Modified.Format("2006-01-02 15:04"),
		})
	}
	t.Render()
	fmt.Fprintf(stdout, "%d tracks\n", len(infos))
	return nil
}

func collect(cat *catalog.Catalog) []trackInfo {
	infos := make([]trackInfo, 0, cat.Len())
	for _, path := range cat.Tracks() {
		info := trackInfo{
			Name:     filepath.Base(path),
			Favorite: cat.IsFavorite(path),
		}
		if fi, err := os.Stat(path); err == nil {
			info.Size = fi.Size()
			info.Modified = fi.ModTime()
		}
		infos = append(infos, info)
	}
	return infos
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func getTermWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
