// Command opusgain normalizes the loudness of Ogg Opus files by rewriting
// their output-gain field and R128 comment tags, without re-encoding audio.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/interrupt"
	"github.com/opustools/zoog/internal/loudness"
	"github.com/opustools/zoog/internal/oggstream"
	"github.com/opustools/zoog/internal/outputfile"
	"github.com/opustools/zoog/internal/rewriter"
	"github.com/opustools/zoog/internal/volumerewrite"
	"github.com/opustools/zoog/internal/worker"
)

var log = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

func main() {
	app := &cli.App{
		Name:      "opusgain",
		Usage:     "Normalize the loudness of Ogg Opus files",
		ArgsUsage: "INPUT-FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "album", Aliases: []string{"a"}, Usage: "Enable album mode"},
			&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Value: "rg", Usage: "rg, r128, original, or no-change"},
			&cli.StringFlag{Name: "output-gain-mode", Aliases: []string{"o"}, Value: "auto", Usage: "auto or track"},
			&cli.IntFlag{Name: "num-threads", Aliases: []string{"j"}, Value: 0, Usage: "Worker thread count (0 = CPU count)"},
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Display output without performing any file modification"},
			&cli.BoolFlag{Name: "clear", Aliases: []string{"c"}, Usage: "Strip all R128 tags (forces preset to no-change, disables album mode)"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func parsePreset(s string) (volumerewrite.Target, error) {
	switch s {
	case "rg":
		return volumerewrite.LUFS(zoog.ReplayGainLUFS), nil
	case "r128":
		return volumerewrite.LUFS(zoog.R128LUFS), nil
	case "original":
		return volumerewrite.ZeroGain(), nil
	case "no-change":
		return volumerewrite.NoChangeTarget(), nil
	default:
		return volumerewrite.Target{}, cli.Exit(fmt.Sprintf("unrecognized preset %q", s), 1)
	}
}

func parseOutputGainMode(s string, album bool) (volumerewrite.Mode, error) {
	switch s {
	case "auto":
		if album {
			return volumerewrite.Album, nil
		}
		return volumerewrite.Track, nil
	case "track":
		return volumerewrite.Track, nil
	default:
		return 0, cli.Exit(fmt.Sprintf("unrecognized output-gain-mode %q", s), 1)
	}
}

func run(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return cli.Exit("at least one input file is required", 1)
	}

	clear := c.Bool("clear")
	album := c.Bool("album") && !clear

	presetName := c.String("preset")
	if clear {
		presetName = "no-change"
	}
	target, err := parsePreset(presetName)
	if err != nil {
		return err
	}
	mode, err := parseOutputGainMode(c.String("output-gain-mode"), album)
	if err != nil {
		return err
	}

	numThreads, err := worker.NumThreads(c.Int("num-threads"))
	if err != nil {
		return err
	}
	dryRun := c.Bool("dry-run")
	paths := c.Args().Slice()

	sig, stop := interrupt.NewSignalFlag()
	defer stop()

	log.Debug().Int("threads", numThreads).Int("files", len(paths)).Msg("starting gain normalization")

	var albumVolume *zoog.Decibels
	trackVolumes := make([]zoog.Decibels, len(paths))

	if album {
		fmt.Println("Computing album loudness...")
		mean, tracks, err := computeAlbumVolume(numThreads, paths, sig)
		if err != nil {
			return err
		}
		albumVolume = &mean
		trackVolumes = tracks
	}

	var rewriteGate worker.RewriteGate

	perFile, err := worker.Pool(numThreads, paths, func(ctx context.Context, inputPath string, index int) (fileOutcome, error) {
		console := &worker.DelayedConsole{}

		var trackVolume *zoog.Decibels
		switch {
		case clear:
			trackVolume = nil
		case album:
			v := trackVolumes[index]
			trackVolume = &v
		default:
			v, err := measureTrackVolume(inputPath, sig)
			if err != nil {
				return fileOutcome{}, err
			}
			trackVolume = &v
		}

		fmt.Fprintf(console.Stdout(), "Processing file %s with target loudness of %s...\n", inputPath, presetName)

		cfg := volumerewrite.Config{Target: target, Mode: mode, TrackVolume: trackVolume, AlbumVolume: albumVolume}
		if clear {
			cfg.TrackVolume = nil
			cfg.AlbumVolume = nil
		}

		var result rewriter.StreamResult
		gateErr := rewriteGate.Do(func() error {
			var err error
			result, err = processFile(inputPath, cfg, dryRun, sig)
			return err
		})
		if gateErr != nil {
			fmt.Fprintf(os.Stderr, "Failure during processing of %s.\n", inputPath)
			return fileOutcome{}, gateErr
		}

		switch result.Outcome {
		case rewriter.HeadersUnchanged:
			fmt.Fprintln(console.Stdout(), "All gains are already correct so doing nothing.")
		case rewriter.HeadersChanged:
			fmt.Fprintln(console.Stdout(), "Gains updated.")
		}
		fmt.Fprintln(console.Stdout())

		return fileOutcome{result: result, console: console}, nil
	})
	if err != nil {
		return err
	}

	numProcessed, numAlreadyNormalized := 0, 0
	for _, fo := range perFile {
		numProcessed++
		if err := fo.console.Drain(os.Stdout, os.Stderr); err != nil {
			return err
		}
		if fo.result.Outcome == rewriter.HeadersUnchanged {
			numAlreadyNormalized++
		}
	}

	fmt.Println("Processing complete.")
	fmt.Printf("Total files processed: %d\n", numProcessed)
	fmt.Printf("Files processed but already normalized: %d\n", numAlreadyNormalized)
	return nil
}

// fileOutcome carries one worker's rewrite result plus its buffered console
// output, so the caller can replay every file's stdout/stderr in input
// order once the parallel pass completes instead of interleaving workers'
// output as they finish.
type fileOutcome struct {
	result  rewriter.StreamResult
	console *worker.DelayedConsole
}

// fileWindows is one file's measured track loudness plus its raw 100ms
// power windows, carried out of the parallel measurement pass so the album
// mean can be computed from a single concatenation afterward.
type fileWindows struct {
	track   zoog.Decibels
	windows []float64
}

func measureFile(path string, sig interrupt.Source) (fileWindows, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileWindows{}, &zoog.Error{Kind: zoog.IO, Op: "measureFile", Err: err}
	}
	defer f.Close()

	analyzer := loudness.NewAnalyzer()
	reader := oggstream.NewReader(f)
	for {
		if sig != nil && sig.IsSet() {
			return fileWindows{}, &zoog.Error{Kind: zoog.Control, Op: "measureFile", Err: zoog.ErrInterrupted}
		}
		pkt, err := reader.ReadPacket()
		if err != nil {
			return fileWindows{}, err
		}
		if pkt == nil {
			break
		}
		if err := analyzer.Submit(*pkt); err != nil {
			return fileWindows{}, err
		}
	}
	analyzer.FileComplete()
	return fileWindows{track: analyzer.LastTrackLUFS(), windows: analyzer.Windows()}, nil
}

func measureTrackVolume(path string, sig interrupt.Source) (zoog.Decibels, error) {
	fw, err := measureFile(path, sig)
	if err != nil {
		return 0, err
	}
	return fw.track, nil
}

// computeAlbumVolume measures every file's loudness in parallel (bounded by
// numThreads), landing each result at its input-order index via an
// AlbumCollector so the final cross-file window concatenation respects the
// user-supplied path order regardless of which worker finished first.
func computeAlbumVolume(numThreads int, paths []string, sig interrupt.Source) (zoog.Decibels, []zoog.Decibels, error) {
	collector := worker.NewAlbumCollector[fileWindows](len(paths))
	var collectGate worker.RewriteGate

	_, err := worker.Pool(numThreads, paths, func(ctx context.Context, path string, index int) (struct{}, error) {
		fw, err := measureFile(path, sig)
		if err != nil {
			return struct{}{}, err
		}
		err = collectGate.Do(func() error {
			collector.Put(index, fw)
			return nil
		})
		return struct{}{}, err
	})
	if err != nil {
		return 0, nil, err
	}

	ordered := collector.Drain()
	allWindows := make([]float64, 0)
	trackVolumes := make([]zoog.Decibels, len(ordered))
	for i, fw := range ordered {
		trackVolumes[i] = fw.track
		allWindows = append(allWindows, fw.windows...)
	}
	albumMean := loudness.GatedMeanLUFS(allWindows)
	return albumMean, trackVolumes, nil
}

func processFile(path string, cfg volumerewrite.Config, dryRun bool, sig interrupt.Source) (rewriter.StreamResult, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return rewriter.StreamResult{}, &zoog.Error{Kind: zoog.IO, Op: "processFile", Err: err}
	}
	defer inputFile.Close()

	out, err := outputfile.NewTargetOrDiscard(path, dryRun)
	if err != nil {
		return rewriter.StreamResult{}, err
	}

	reader := oggstream.NewReader(inputFile)
	writer := oggstream.NewWriter(out.Writer())

	result, err := rewriter.RewriteStream(cfg.Rewrite(), nil, reader, writer, false, sig)
	if err != nil {
		_ = out.Abort()
		return rewriter.StreamResult{}, err
	}

	if result.Outcome == rewriter.HeadersChanged {
		return result, out.Commit()
	}
	return result, out.Abort()
}
