package opusheader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/comment"
)

func sampleIdHeader() []byte {
	buf := []byte(idMagic)
	buf = append(buf, 1)          // version
	buf = append(buf, 2)          // channels
	buf = appendLE16(buf, 312)    // pre-skip
	buf = appendLE32(buf, 44100)  // input sample rate
	buf = appendLE16(buf, 0)      // output gain
	buf = append(buf, 0)          // mapping family
	return buf
}

func TestParseIdHeaderRoundTrip(t *testing.T) {
	data := sampleIdHeader()
	h, err := ParseIdHeader(data)
	if err != nil {
		t.Fatalf("ParseIdHeader: %v", err)
	}
	if h.ChannelCount() != 2 || h.InputSampleRateHz() != 44100 || h.OutputSampleRateHz() != 48000 {
		t.Errorf("unexpected header: %+v", h)
	}
	if out := h.Serialize(); !bytes.Equal(out, data) {
		t.Errorf("serialize mismatch:\ngot  %x\nwant %x", out, data)
	}
}

func TestParseIdHeaderRejectsUnsupportedVersion(t *testing.T) {
	for _, version := range []byte{0, 2, 16, 255} {
		data := sampleIdHeader()
		data[8] = version
		if _, err := ParseIdHeader(data); !errors.Is(err, zoog.ErrUnsupportedCodecVersion) {
			t.Errorf("version %d: err = %v, want ErrUnsupportedCodecVersion", version, err)
		}
	}
}

func TestOutputGainMutation(t *testing.T) {
	data := sampleIdHeader()
	h, err := ParseIdHeader(data)
	if err != nil {
		t.Fatalf("ParseIdHeader: %v", err)
	}
	h.OutputGain = 1792
	out := h.Serialize()
	reparsed, err := ParseIdHeader(out)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.OutputGain != 1792 {
		t.Errorf("OutputGain = %d, want 1792", reparsed.OutputGain)
	}
	if reparsed.InputSampleRateHz() != 44100 {
		t.Errorf("unrelated fields disturbed")
	}
}

func TestCommentHeaderExperimentalTailPreserved(t *testing.T) {
	list := comment.NewDiscreteCommentList(1)
	if err := list.Push("ARTIST", "Alice"); err != nil {
		t.Fatal(err)
	}
	ch := &CommentHeader{Vendor: "libopus", Comments: list, Experimental: []byte{0x01, 0xAB, 0xCD}}
	out, err := ch.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := ParseCommentHeader(out)
	if err != nil {
		t.Fatalf("ParseCommentHeader: %v", err)
	}
	if !bytes.Equal(reparsed.Experimental, ch.Experimental) {
		t.Errorf("experimental tail = %x, want %x", reparsed.Experimental, ch.Experimental)
	}
	if reparsed.Vendor != "libopus" {
		t.Errorf("vendor = %q", reparsed.Vendor)
	}
}

func TestCommentHeaderTailWithoutLSBDiscarded(t *testing.T) {
	list := comment.NewDiscreteCommentList(0)
	ch := &CommentHeader{Vendor: "libopus", Comments: list}
	out, err := ch.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	out = append(out, 0xF0, 0xAB) // tail with LSB clear: padding, should be discarded on parse
	reparsed, err := ParseCommentHeader(out)
	if err != nil {
		t.Fatalf("ParseCommentHeader: %v", err)
	}
	if reparsed.Experimental != nil {
		t.Errorf("expected padding tail discarded, got %x", reparsed.Experimental)
	}
}
