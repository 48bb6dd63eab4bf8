// Command opuscomment lists or edits the comment header of an Ogg Opus or
// Ogg Vorbis file without re-encoding audio.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/commentrewrite"
	"github.com/opustools/zoog/internal/escaping"
	"github.com/opustools/zoog/internal/interrupt"
	"github.com/opustools/zoog/internal/oggstream"
	"github.com/opustools/zoog/internal/outputfile"
	"github.com/opustools/zoog/internal/pathutil"
	"github.com/opustools/zoog/internal/rewriter"
)

const standardStreamName = "-"

var log = zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Logger()

func main() {
	app := &cli.App{
		Name:      "opuscomment",
		Usage:     "List or edit comments in Ogg Opus and Ogg Vorbis files",
		ArgsUsage: "INPUT-FILE [OUTPUT-FILE]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "list", Aliases: []string{"l"}, Usage: "List comments in the file"},
			&cli.BoolFlag{Name: "modify", Aliases: []string{"m"}, Usage: "Delete specific comments and append new ones"},
			&cli.BoolFlag{Name: "replace", Aliases: []string{"r"}, Usage: "Replace all comments"},
			&cli.StringSliceFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Specify a tag NAME=VALUE"},
			&cli.StringSliceFlag{Name: "delete", Aliases: []string{"d"}, Usage: "Specify a tag NAME or NAME=VALUE to delete"},
			&cli.BoolFlag{Name: "escapes", Aliases: []string{"e"}, Usage: `Use escapes \n, \r, \0 and \\ for tag value I/O`},
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Display output without modifying any file"},
			&cli.StringFlag{Name: "tags-in", Aliases: []string{"I"}, Usage: `File to read tags from ("-" for stdin)`},
			&cli.StringFlag{Name: "tags-out", Aliases: []string{"O"}, Usage: `File to write tags to ("-" for stdout)`},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Aborted due to error: %s\n", err)
		os.Exit(1)
	}
}

type operationMode int

const (
	modeList operationMode = iota
	modeModify
	modeReplace
)

func resolveMode(c *cli.Context) (operationMode, error) {
	list, modify, replace := c.Bool("list"), c.Bool("modify"), c.Bool("replace")
	switch {
	case modify && replace:
		return 0, cli.Exit("--modify and --replace are mutually exclusive", 1)
	case list && (modify || replace):
		return 0, cli.Exit("--list conflicts with --modify/--replace", 1)
	case replace:
		return modeReplace, nil
	case modify:
		return modeModify, nil
	default:
		return modeList, nil
	}
}

func validateConflicts(c *cli.Context, mode operationMode) error {
	nargs := c.Args().Len()
	if mode == modeList && nargs > 1 {
		return cli.Exit("an output file cannot be specified in list mode", 1)
	}
	if mode == modeList && c.String("tags-in") != "" {
		return cli.Exit("--tags-in conflicts with --list", 1)
	}
	if mode == modeList && len(c.StringSlice("tag")) > 0 {
		return cli.Exit("--tag conflicts with --list", 1)
	}
	if mode == modeList && len(c.StringSlice("delete")) > 0 {
		return cli.Exit("--delete conflicts with --list", 1)
	}
	if mode == modeReplace && len(c.StringSlice("delete")) > 0 {
		return cli.Exit("--delete conflicts with --replace", 1)
	}
	if (mode == modeModify || mode == modeReplace) && c.String("tags-out") != "" {
		return cli.Exit("--tags-out conflicts with --modify/--replace", 1)
	}
	return nil
}

func validateCommentFilename(path string) error {
	if path == "" || path == standardStreamName {
		return nil
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if pathutil.IsOggExtension(path, zoog.OggOpusExtensions[:]) {
		return fmt.Errorf("%q looks like a media file (extension %q); refusing to use it for tags", path, ext)
	}
	return nil
}

func parseNewCommentArgs(tags []string, escaped bool) (*comment.DiscreteCommentList, error) {
	list := comment.NewDiscreteCommentList(len(tags))
	for _, tag := range tags {
		key, value, err := comment.ParseComment(tag)
		if err != nil {
			return nil, err
		}
		if escaped {
			value, err = escaping.Unescape(value)
			if err != nil {
				return nil, err
			}
		}
		if err := list.Push(key, value); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func parseDeleteArgs(patterns []string, escaped bool) (*commentrewrite.DeleteMatcher, error) {
	matcher := commentrewrite.NewDeleteMatcher()
	for _, pattern := range patterns {
		key, value, err := comment.ParseComment(pattern)
		if err != nil {
			if err2 := comment.ValidateFieldName(pattern); err2 != nil {
				return nil, err2
			}
			matcher.Add(pattern, commentrewrite.MatchAll())
			continue
		}
		if escaped {
			value, err = escaping.Unescape(value)
			if err != nil {
				return nil, err
			}
		}
		matcher.Add(key, commentrewrite.MatchValues(value))
	}
	return matcher, nil
}

func readCommentsFrom(r io.Reader, escaped bool) (*comment.DiscreteCommentList, error) {
	list := comment.NewDiscreteCommentList(0)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, err := comment.ParseComment(line)
		if err != nil {
			return nil, err
		}
		if escaped {
			value, err = escaping.Unescape(value)
			if err != nil {
				return nil, err
			}
		}
		if err := list.Push(key, value); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &zoog.Error{Kind: zoog.IO, Op: "readCommentsFrom", Err: err}
	}
	return list, nil
}

func readCommentsFromPath(path string, escaped bool) (*comment.DiscreteCommentList, error) {
	if path == standardStreamName {
		return readCommentsFrom(os.Stdin, escaped)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.IO, Op: "readCommentsFromPath", Err: err}
	}
	defer f.Close()
	return readCommentsFrom(f, escaped)
}

func run(c *cli.Context) error {
	if c.Args().Len() < 1 {
		return cli.Exit("an input file is required", 1)
	}

	mode, err := resolveMode(c)
	if err != nil {
		return err
	}
	if err := validateConflicts(c, mode); err != nil {
		return err
	}

	tagsIn, tagsOut := c.String("tags-in"), c.String("tags-out")
	if err := validateCommentFilename(tagsIn); err != nil {
		return err
	}
	if err := validateCommentFilename(tagsOut); err != nil {
		return err
	}

	escape := c.Bool("escapes")
	dryRun := c.Bool("dry-run")

	appendList, err := parseNewCommentArgs(c.StringSlice("tag"), escape)
	if err != nil {
		return err
	}
	if tagsIn != "" {
		fromFile, err := readCommentsFromPath(tagsIn, escape)
		if err != nil {
			return err
		}
		appendList.Extend(fromFile)
	}

	var action commentrewrite.Action
	switch mode {
	case modeList:
		action = commentrewrite.NoChange()
	case modeReplace:
		action = commentrewrite.Replace(appendList)
	case modeModify:
		deleteMatcher, err := parseDeleteArgs(c.StringSlice("delete"), escape)
		if err != nil {
			return err
		}
		action = commentrewrite.Modify(deleteMatcher.Retain(), appendList)
	}

	inputPath := c.Args().Get(0)
	outputPath := inputPath
	if c.Args().Len() > 1 {
		outputPath = c.Args().Get(1)
	}

	inputFile, err := os.Open(inputPath)
	if err != nil {
		return &zoog.Error{Kind: zoog.IO, Op: "run", Err: err}
	}
	defer inputFile.Close()

	var out *outputfile.OutputFile
	if mode == modeList {
		out = outputfile.NewSink()
	} else {
		out, err = outputfile.NewTargetOrDiscard(outputPath, dryRun)
		if err != nil {
			return err
		}
	}

	log.Debug().Str("input", inputPath).Str("mode", fmt.Sprintf("%d", mode)).Msg("starting rewrite")

	reader := oggstream.NewReader(inputFile)
	writer := oggstream.NewWriter(out.Writer())

	sig, stop := interrupt.NewSignalFlag()
	defer stop()

	var capturedHeaders *rewriter.Headers
	summarize := func(h *rewriter.Headers) any {
		capturedHeaders = h
		return nil
	}

	result, rewriteErr := rewriter.RewriteStream(action.Rewrite(), summarize, reader, writer, true, sig)
	if rewriteErr != nil {
		fmt.Fprintf(os.Stderr, "Failure during processing of %s.\n", inputPath)
		_ = out.Abort()
		return rewriteErr
	}

	commit := false
	switch result.Outcome {
	case rewriter.HeadersUnchanged:
		switch mode {
		case modeList:
			if err := writeListedComments(capturedHeaders.Comments(), tagsOut, escape, dryRun); err != nil {
				return err
			}
		case modeModify, modeReplace:
			if err := out.Abort(); err != nil {
				return err
			}
			out, err = outputfile.NewTargetOrDiscard(outputPath, dryRun)
			if err != nil {
				return err
			}
			if _, err := inputFile.Seek(0, io.SeekStart); err != nil {
				return &zoog.Error{Kind: zoog.IO, Op: "run", Err: err}
			}
			if _, err := io.Copy(out.Writer(), inputFile); err != nil {
				return &zoog.Error{Kind: zoog.IO, Op: "run", Err: err}
			}
			commit = true
		}
	case rewriter.HeadersChanged:
		commit = true
	}

	if commit {
		return out.Commit()
	}
	return out.Abort()
}

// writeListedComments writes comments as text to tags-out if given, else
// stdout.
func writeListedComments(comments *comment.DiscreteCommentList, tagsOut string, escape, dryRun bool) error {
	if tagsOut != "" && tagsOut != standardStreamName {
		out, err := outputfile.NewTargetOrDiscard(tagsOut, dryRun)
		if err != nil {
			return err
		}
		if err := comments.WriteAsText(out.Writer(), escape); err != nil {
			_ = out.Abort()
			return &zoog.Error{Kind: zoog.IO, Op: "writeListedComments", Err: err}
		}
		return out.Commit()
	}
	return comments.WriteAsText(os.Stdout, escape)
}
