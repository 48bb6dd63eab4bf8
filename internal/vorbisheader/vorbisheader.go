// Package vorbisheader parses and serializes the Vorbis identification
// and comment header packets.
package vorbisheader

import (
	"bytes"

	"github.com/opustools/zoog"
	zbinary "github.com/opustools/zoog/internal/binary"
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/header"
)

const (
	idMagic   = "\x01vorbis"
	tagsMagic = "\x03vorbis"
)

// IdHeader is the parsed Vorbis identification header. Read-only: this
// system never mutates Vorbis identification headers.
type IdHeader struct {
	VorbisVersion   uint32
	Channels        uint8
	SampleRate      uint32
	BitrateMaximum  int32
	BitrateNominal  int32
	BitrateMinimum  int32
	BlockSizeByte   uint8
	FramingByte     uint8
}

// ChannelCount returns the channel count.
func (h *IdHeader) ChannelCount() int { return int(h.Channels) }

// SampleRateHz returns the declared sample rate.
func (h *IdHeader) SampleRateHz() uint32 { return h.SampleRate }

// ParseIdHeader parses a Vorbis identification header packet.
func ParseIdHeader(data []byte) (*IdHeader, error) {
	const fixedSize = 7 + 4 + 1 + 4 + 4 + 4 + 4 + 1 + 1
	if len(data) < fixedSize || string(data[:7]) != idMagic {
		return nil, malformedID(nil)
	}
	sr := zbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "Vorbis identification header")

	version, err := zbinary.ReadLE[uint32](sr, 7, "vorbis version")
	if err != nil {
		return nil, malformedID(err)
	}
	if version != 0 {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseIdHeader", Err: zoog.ErrUnsupportedCodecVersion}
	}
	channels, err := zbinary.ReadLE[uint8](sr, 11, "channels")
	if err != nil {
		return nil, malformedID(err)
	}
	sampleRate, err := zbinary.ReadLE[uint32](sr, 12, "sample rate")
	if err != nil {
		return nil, malformedID(err)
	}
	maxRate, err := zbinary.ReadLE[uint32](sr, 16, "bitrate maximum")
	if err != nil {
		return nil, malformedID(err)
	}
	nomRate, err := zbinary.ReadLE[uint32](sr, 20, "bitrate nominal")
	if err != nil {
		return nil, malformedID(err)
	}
	minRate, err := zbinary.ReadLE[uint32](sr, 24, "bitrate minimum")
	if err != nil {
		return nil, malformedID(err)
	}
	blockSize, err := zbinary.ReadLE[uint8](sr, 28, "block size byte")
	if err != nil {
		return nil, malformedID(err)
	}
	framing, err := zbinary.ReadLE[uint8](sr, 29, "framing byte")
	if err != nil {
		return nil, malformedID(err)
	}
	if framing&0x01 == 0 {
		return nil, malformedID(nil)
	}

	return &IdHeader{
		VorbisVersion:  version,
		Channels:       channels,
		SampleRate:     sampleRate,
		BitrateMaximum: int32(maxRate),
		BitrateNominal: int32(nomRate),
		BitrateMinimum: int32(minRate),
		BlockSizeByte:  blockSize,
		FramingByte:    framing,
	}, nil
}

// CommentHeader is the parsed Vorbis comment header.
type CommentHeader struct {
	Vendor   string
	Comments *comment.DiscreteCommentList
}

// ParseCommentHeader parses a Vorbis comment header packet, including its
// trailing framing byte (whose LSB must be 1).
func ParseCommentHeader(data []byte) (*CommentHeader, error) {
	if len(data) < 7 || string(data[:7]) != tagsMagic {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseCommentHeader", Err: zoog.ErrMalformedCommentHeader}
	}
	body, tailOff, err := header.ParseBody(data, 7)
	if err != nil {
		return nil, err
	}
	if tailOff >= int64(len(data)) {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseCommentHeader", Err: zoog.ErrMalformedCommentHeader}
	}
	framing := data[tailOff]
	if framing&0x01 == 0 {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseCommentHeader", Err: zoog.ErrMalformedCommentHeader}
	}
	return &CommentHeader{Vendor: body.Vendor, Comments: body.Comments}, nil
}

// Serialize writes the Vorbis comment header packet, including a
// single 0x01 framing byte.
func (h *CommentHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(tagsMagic)
	sw := zbinary.NewSafeWriter(&buf)
	if err := header.WriteBody(sw, &header.CommentHeader{Vendor: h.Vendor, Comments: h.Comments}); err != nil {
		return nil, err
	}
	buf.WriteByte(0x01)
	return buf.Bytes(), nil
}

func malformedID(cause error) error {
	return &zoog.Error{Kind: zoog.Format, Op: "ParseIdHeader", Err: zoog.ErrMalformedIdentificationHeader, Cause: cause}
}
