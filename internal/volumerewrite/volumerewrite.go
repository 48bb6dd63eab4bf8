// Package volumerewrite implements the rewrite callback used by the gain
// normalizer: set the Opus output-gain field and the R128_TRACK_GAIN /
// R128_ALBUM_GAIN comment tags from precomputed loudness measurements.
package volumerewrite

import (
	"strconv"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/rewriter"
)

// Target selects the loudness goal of a gain-normalize run.
type Target struct {
	kind   targetKind
	lufs   zoog.Decibels
}

type targetKind int

const (
	targetZeroGain targetKind = iota
	targetLUFS
	targetNoChange
)

// ZeroGain targets an output-gain of 0 (the "original" preset).
func ZeroGain() Target { return Target{kind: targetZeroGain} }

// LUFS targets the given absolute loudness, in LUFS.
func LUFS(target zoog.Decibels) Target { return Target{kind: targetLUFS, lufs: target} }

// NoChangeTarget leaves the output-gain field as-is.
func NoChangeTarget() Target { return Target{kind: targetNoChange} }

// Mode selects which precomputed volume measurement feeds the output-gain
// calculation.
type Mode int

const (
	// Track uses the per-file track volume.
	Track Mode = iota
	// Album uses the cross-file album volume when present, else falls
	// back to the track volume.
	Album
)

// Config bundles the inputs to the volume rewrite.
type Config struct {
	Target       Target
	Mode         Mode
	TrackVolume  *zoog.Decibels // measured LUFS for this file, if known
	AlbumVolume  *zoog.Decibels // measured LUFS across the album, if computed
}

// Rewrite returns a rewriter.RewriteFunc applying cfg. Vorbis headers are
// not supported and yield ErrUnsupportedCodecForOp.
func (cfg Config) Rewrite() rewriter.RewriteFunc {
	return func(h *rewriter.Headers) error {
		if h.Codec != zoog.Opus {
			return &zoog.Error{Kind: zoog.Semantics, Op: "VolumeRewrite", Err: zoog.ErrUnsupportedCodecForOp}
		}

		volumeForOutputGain := cfg.TrackVolume
		if cfg.Mode == Album && cfg.AlbumVolume != nil {
			volumeForOutputGain = cfg.AlbumVolume
		}

		newGain, err := computeOutputGain(cfg.Target, h.OpusID.OutputGain, volumeForOutputGain)
		if err != nil {
			return err
		}
		h.OpusID.OutputGain = newGain

		if err := rewriteR128Tag(h, zoog.TagTrackGain, cfg.TrackVolume, newGain); err != nil {
			return err
		}
		if err := rewriteR128Tag(h, zoog.TagAlbumGain, cfg.AlbumVolume, newGain); err != nil {
			return err
		}
		return nil
	}
}

func computeOutputGain(target Target, current zoog.FixedPointGain, volume *zoog.Decibels) (zoog.FixedPointGain, error) {
	switch target.kind {
	case targetZeroGain:
		return 0, nil
	case targetNoChange:
		return current, nil
	case targetLUFS:
		if volume == nil {
			panic("volumerewrite: LUFS target requires a measured volume")
		}
		return zoog.FixedPointGainFromDecibels(target.lufs.Sub(*volume))
	default:
		panic("volumerewrite: unknown target kind")
	}
}

func rewriteR128Tag(h *rewriter.Headers, tag string, sourceVolume *zoog.Decibels, outputGain zoog.FixedPointGain) error {
	list := h.Comments()
	if sourceVolume == nil {
		list.RemoveAll(tag)
		return nil
	}
	tagDecibels := zoog.R128LUFS.Sub(*sourceVolume).Sub(outputGain.AsDecibels())
	tagGain, err := zoog.FixedPointGainFromDecibels(tagDecibels)
	if err != nil {
		return err
	}
	return list.Replace(tag, strconv.Itoa(int(tagGain)))
}
