package vorbisheader

import (
	"testing"

	"github.com/opustools/zoog/internal/comment"
)

func sampleIdHeader() []byte {
	buf := []byte(idMagic)
	buf = appendLE32(buf, 0)     // vorbis_version
	buf = append(buf, 2)         // channels
	buf = appendLE32(buf, 44100) // sample rate
	buf = appendLE32(buf, 0)     // bitrate maximum
	buf = appendLE32(buf, 128000)// bitrate nominal
	buf = appendLE32(buf, 0)     // bitrate minimum
	buf = append(buf, 0xBB)      // blocksize byte
	buf = append(buf, 0x01)      // framing byte
	return buf
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

func TestParseIdHeader(t *testing.T) {
	data := sampleIdHeader()
	h, err := ParseIdHeader(data)
	if err != nil {
		t.Fatalf("ParseIdHeader: %v", err)
	}
	if h.ChannelCount() != 2 || h.SampleRateHz() != 44100 {
		t.Errorf("unexpected header: %+v", h)
	}
}

func TestParseIdHeaderRejectsMissingFramingBit(t *testing.T) {
	data := sampleIdHeader()
	data[len(data)-1] = 0x00
	if _, err := ParseIdHeader(data); err == nil {
		t.Error("expected malformed identification header error")
	}
}

func TestCommentHeaderRoundTrip(t *testing.T) {
	list := comment.NewDiscreteCommentList(1)
	if err := list.Push("TITLE", "Song"); err != nil {
		t.Fatal(err)
	}
	ch := &CommentHeader{Vendor: "libvorbis", Comments: list}
	out, err := ch.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := ParseCommentHeader(out)
	if err != nil {
		t.Fatalf("ParseCommentHeader: %v", err)
	}
	if reparsed.Vendor != "libvorbis" {
		t.Errorf("vendor = %q", reparsed.Vendor)
	}
	v, ok := reparsed.Comments.GetFirst("title")
	if !ok || v != "Song" {
		t.Errorf("GetFirst(title) = %q, %v", v, ok)
	}
}

func TestCommentHeaderMissingFramingByteRejected(t *testing.T) {
	list := comment.NewDiscreteCommentList(0)
	ch := &CommentHeader{Vendor: "libvorbis", Comments: list}
	out, err := ch.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	out = out[:len(out)-1] // drop the framing byte
	if _, err := ParseCommentHeader(out); err == nil {
		t.Error("expected malformed comment header error")
	}
}
