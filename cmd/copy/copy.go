package copy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/soniclab/aural/cmd/common"
	"github.com/soniclab/aural/cmd/play/catalog"
	"github.com/spf13/cobra"
)

type Params struct {
	Source      string `pos:"true" required:"true" help:"Directory to copy media files from."`
	Destination string `pos:"true" required:"true" help:"Directory to copy media files into."`
	AllFiles    bool   `short:"a" optional:"true" help:"Copy all files, not just media files."`
	DryRun      bool   `short:"n" optional:"true" help:"Show what would be copied without copying."`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "copy",
		Short:       "Copy new media files into a library directory",
		Long:        "Copy files from SOURCE to DEST, skipping any file whose name already exists in DEST under any letter casing.",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			exitCode := Run(params, os.Stdout, os.Stderr)
			os.Exit(exitCode)
		},
	}.ToCobra()
}

func Run(params *Params, stdout, stderr io.Writer) int {
	srcEntries, err := os.ReadDir(params.Source)
	if err != nil {
		fmt.Fprintf(stderr, "copy: cannot read source '%s': %v\n", params.Source, err)
		return 1
	}

	if err := os.MkdirAll(params.Destination, 0o755); err != nil {
		fmt.Fprintf(stderr, "copy: cannot create destination '%s': %v\n", params.Destination, err)
		return 1
	}
	destEntries, err := os.ReadDir(params.Destination)
	if err != nil {
		fmt.Fprintf(stderr, "copy: cannot read destination '%s': %v\n", params.Destination, err)
		return 1
	}

	// Names already present in the destination, compared without
	// regard to case. Updated as files copy so two source files that
	// differ only in casing never both land.
	present := lo.SliceToMap(destEntries, func(e os.DirEntry) (string, struct{}) {
		return strings.ToLower(e.Name()), struct{}{}
	})

	copied := 0
	skipped := 0
	hadError := false
	for _, entry := range srcEntries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !params.AllFiles && !catalog.IsMediaFile(name) {
			continue
		}
		if _, exists := present[strings.ToLower(name)]; exists {
			skipped++
			fmt.Fprintf(stdout, "skipped %s (already present)\n", name)
			continue
		}

		target := filepath.Join(params.Destination, name)
		if params.DryRun {
			fmt.Fprintf(stdout, "would copy %s -> %s\n", name, target)
		} else {
			if err := copyFile(filepath.Join(params.Source, name), target); err != nil {
				fmt.Fprintf(stderr, "copy: %v\n", err)
				hadError = true
				continue
			}
			fmt.Fprintf(stdout, "copied %s -> %s\n", name, target)
		}
		present[strings.ToLower(name)] = struct{}{}
		copied++
	}

	if params.DryRun {
		fmt.Fprintf(stdout, "%d would be copied, %d skipped\n", copied, skipped)
	} else {
		fmt.Fprintf(stdout, "%d copied, %d skipped\n", copied, skipped)
	}
	if hadError {
		return 1
	}
	return 0
}

func copyFile(src, dest string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open '%s': %v", src, err)
	}
	defer srcFile.Close()

	destFile, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("cannot create '%s': %v", dest, err)
	}

	if _, err := io.Copy(destFile, srcFile); err != nil {
		destFile.Close()
		return fmt.Errorf("error copying to '%s': %v", dest, err)
	}
	return destFile.Close()
}
