package main

import (
	"runtime/debug"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/soniclab/aural/cmd/copy"
	"github.com/soniclab/aural/cmd/play"
	"github.com/soniclab/aural/cmd/synth"
	"github.com/soniclab/aural/cmd/tracks"
	"github.com/spf13/cobra"
)

func main() {
	boa.CmdT[boa.NoParams]{
		Use:     "aural",
		Short:   "Local audio player with fades, favorites and voice control",
		Version: appVersion(),
		SubCmds: []*cobra.Command{
			play.Cmd(),
			tracks.Cmd(),
			copy.Cmd(),
			synth.Cmd(),
		},
	}.Run()
}

func appVersion() string {
	bi, hasBuilInfo := debug.ReadBuildInfo()
	if !hasBuilInfo {
		return "unknown-(no build info)"
	}

	versionString := bi.Main.Version
	if versionString == "" {
		versionString = "unknown-(no version)"
	}

	return versionString
}
