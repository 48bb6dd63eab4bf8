package volumerewrite

import (
	"testing"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/opusheader"
	"github.com/opustools/zoog/internal/rewriter"
)

func opusHeaders(t *testing.T) *rewriter.Headers {
	t.Helper()
	id := &opusheader.IdHeader{Version: 1, Channels: 2, ChannelMappingRaw: []byte{0}}
	tags := &opusheader.CommentHeader{Vendor: "libopus", Comments: comment.NewDiscreteCommentList(0)}
	return &rewriter.Headers{Codec: zoog.Opus, OpusID: id, OpusTags: tags}
}

// Scenario D from the test plan: a single file measured at -30 LUFS,
// targeting -23 LUFS (R128), should get output-gain 1792 (7.0 dB in Q7.8)
// and an R128_TRACK_GAIN tag of "0".
func TestScenarioD_R128Target(t *testing.T) {
	h := opusHeaders(t)
	track := zoog.Decibels(-30)
	cfg := Config{Target: LUFS(zoog.R128LUFS), Mode: Track, TrackVolume: &track}
	if err := cfg.Rewrite()(h); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if h.OpusID.OutputGain != 1792 {
		t.Errorf("OutputGain = %d, want 1792", h.OpusID.OutputGain)
	}
	v, ok := h.OpusTags.Comments.GetFirst(zoog.TagTrackGain)
	if !ok || v != "0" {
		t.Errorf("R128_TRACK_GAIN = %q, %v, want \"0\"", v, ok)
	}
	if _, ok := h.OpusTags.Comments.GetFirst(zoog.TagAlbumGain); ok {
		t.Error("expected no R128_ALBUM_GAIN tag")
	}
}

// Scenario E: album mode, same output-gain across files, differing track
// tags, identical album tags.
func TestScenarioE_AlbumMode(t *testing.T) {
	album := zoog.Decibels(-23)
	for _, tc := range []struct {
		track       zoog.Decibels
		wantTrackTag string
	}{
		{track: -25, wantTrackTag: "-768"},
		{track: -21, wantTrackTag: "-1792"},
	} {
		h := opusHeaders(t)
		cfg := Config{Target: LUFS(zoog.ReplayGainLUFS), Mode: Album, TrackVolume: &tc.track, AlbumVolume: &album}
		if err := cfg.Rewrite()(h); err != nil {
			t.Fatalf("Rewrite: %v", err)
		}
		if h.OpusID.OutputGain != 1280 {
			t.Errorf("OutputGain = %d, want 1280 for track %v", h.OpusID.OutputGain, tc.track)
		}
		trackTag, ok := h.OpusTags.Comments.GetFirst(zoog.TagTrackGain)
		if !ok || trackTag != tc.wantTrackTag {
			t.Errorf("R128_TRACK_GAIN = %q, %v, want %q", trackTag, ok, tc.wantTrackTag)
		}
		albumTag, ok := h.OpusTags.Comments.GetFirst(zoog.TagAlbumGain)
		if !ok || albumTag != "-1280" {
			t.Errorf("R128_ALBUM_GAIN = %q, %v, want \"-1280\"", albumTag, ok)
		}
	}
}

func TestZeroGainTarget(t *testing.T) {
	h := opusHeaders(t)
	h.OpusID.OutputGain = 500
	cfg := Config{Target: ZeroGain(), Mode: Track}
	if err := cfg.Rewrite()(h); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if h.OpusID.OutputGain != 0 {
		t.Errorf("OutputGain = %d, want 0", h.OpusID.OutputGain)
	}
}

func TestVorbisUnsupported(t *testing.T) {
	h := &rewriter.Headers{Codec: zoog.Vorbis}
	cfg := Config{Target: ZeroGain(), Mode: Track}
	err := cfg.Rewrite()(h)
	if err == nil {
		t.Fatal("expected ErrUnsupportedCodecForOp")
	}
}

func TestMissingSourceVolumeRemovesTag(t *testing.T) {
	h := opusHeaders(t)
	if err := h.OpusTags.Comments.Push(zoog.TagTrackGain, "999"); err != nil {
		t.Fatal(err)
	}
	cfg := Config{Target: ZeroGain(), Mode: Track}
	if err := cfg.Rewrite()(h); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if _, ok := h.OpusTags.Comments.GetFirst(zoog.TagTrackGain); ok {
		t.Error("expected R128_TRACK_GAIN removed when track volume is absent")
	}
}
