package main

import (
	"github.com/alecthomas/kong"

	"subtone/batch"
	"subtone/parallel"
)

var cli struct {
	Tonemap batch.CLICmd `cmd:"" default:"withargs" help:"Tonemap PGS subtitles"`
	Workers int          `help:"Number of parallel workers, 0 for one per CPU" short:"w" default:"0"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("subtone"),
		kong.Description("Darken palette-indexed (PGS) subtitle streams so they sit comfortably over tonemapped video."),
		kong.UsageOnError(),
	)

	pool := parallel.Start(cli.Workers)
	kctx.FatalIfErrorf(kctx.Run(pool))
}
