// Package opusheader parses and serializes the Opus identification
// ("OpusHead") and comment ("OpusTags") header packets.
package opusheader

import (
	"bytes"

	"github.com/opustools/zoog"
	zbinary "github.com/opustools/zoog/internal/binary"
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/header"
)

const (
	idMagic   = "OpusHead"
	tagsMagic = "OpusTags"
)

// IdHeader is the parsed Opus identification header. Every byte outside
// the OutputGain field is preserved verbatim on serialize via the parsed
// fields and the ChannelMappingRaw bytes captured at parse time.
type IdHeader struct {
	Version           uint8
	Channels          uint8
	PreSkip           uint16
	InputSampleRate   uint32
	OutputGain        zoog.FixedPointGain
	ChannelMappingRaw []byte // mapping family byte + any channel mapping table bytes
}

// ChannelCount returns the output channel count.
func (h *IdHeader) ChannelCount() int { return int(h.Channels) }

// InputSampleRateHz returns the original input sample rate, or 0 if unknown.
func (h *IdHeader) InputSampleRateHz() uint32 { return h.InputSampleRate }

// OutputSampleRateHz is fixed by RFC 7845 regardless of input sample rate.
func (h *IdHeader) OutputSampleRateHz() uint32 { return 48000 }

// ParseIdHeader parses an OpusHead packet.
func ParseIdHeader(data []byte) (*IdHeader, error) {
	if len(data) < 19 || string(data[:8]) != idMagic {
		return nil, malformedID(nil)
	}
	sr := zbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "OpusHead")

	version, err := zbinary.ReadLE[uint8](sr, 8, "version")
	if err != nil {
		return nil, malformedID(err)
	}
	if version != 1 {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseIdHeader", Err: zoog.ErrUnsupportedCodecVersion}
	}
	channels, err := zbinary.ReadLE[uint8](sr, 9, "channel count")
	if err != nil {
		return nil, malformedID(err)
	}
	if channels < 1 {
		return nil, malformedID(nil)
	}
	preSkip, err := zbinary.ReadLE[uint16](sr, 10, "pre-skip")
	if err != nil {
		return nil, malformedID(err)
	}
	inputRate, err := zbinary.ReadLE[uint32](sr, 12, "input sample rate")
	if err != nil {
		return nil, malformedID(err)
	}
	outputGainRaw, err := zbinary.ReadLE[uint16](sr, 16, "output gain")
	if err != nil {
		return nil, malformedID(err)
	}

	return &IdHeader{
		Version:           version,
		Channels:          channels,
		PreSkip:           preSkip,
		InputSampleRate:   inputRate,
		OutputGain:        zoog.FixedPointGain(int16(outputGainRaw)),
		ChannelMappingRaw: append([]byte(nil), data[18:]...),
	}, nil
}

// Serialize writes the OpusHead packet back out, preserving every byte
// outside the output-gain field verbatim.
func (h *IdHeader) Serialize() []byte {
	buf := make([]byte, 0, 19+len(h.ChannelMappingRaw))
	buf = append(buf, idMagic...)
	buf = append(buf, h.Version)
	buf = append(buf, h.Channels)
	buf = appendLE16(buf, h.PreSkip)
	buf = appendLE32(buf, h.InputSampleRate)
	buf = appendLE16(buf, uint16(h.OutputGain))
	buf = append(buf, h.ChannelMappingRaw...)
	return buf
}

// CommentHeader is the parsed OpusTags packet: the generic vendor/comment
// body plus any preserved experimental-data tail.
type CommentHeader struct {
	Vendor         string
	Comments       *comment.DiscreteCommentList
	Experimental   []byte // nil if the tail was discarded as padding
}

// ParseCommentHeader parses an OpusTags packet.
func ParseCommentHeader(data []byte) (*CommentHeader, error) {
	if len(data) < 8 || string(data[:8]) != tagsMagic {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "ParseCommentHeader", Err: zoog.ErrMalformedCommentHeader}
	}
	body, tailOff, err := header.ParseBody(data, 8)
	if err != nil {
		return nil, err
	}
	var experimental []byte
	if tailOff < int64(len(data)) {
		tail := data[tailOff:]
		if len(tail) > 0 && tail[0]&0x01 != 0 {
			experimental = append([]byte(nil), tail...)
		}
	}
	return &CommentHeader{Vendor: body.Vendor, Comments: body.Comments, Experimental: experimental}, nil
}

// Serialize writes the OpusTags packet back out.
func (h *CommentHeader) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(tagsMagic)
	sw := zbinary.NewSafeWriter(&buf)
	if err := header.WriteBody(sw, &header.CommentHeader{Vendor: h.Vendor, Comments: h.Comments}); err != nil {
		return nil, err
	}
	if len(h.Experimental) > 0 {
		buf.Write(h.Experimental)
	}
	return buf.Bytes(), nil
}

func malformedID(cause error) error {
	return &zoog.Error{Kind: zoog.Format, Op: "ParseIdHeader", Err: zoog.ErrMalformedIdentificationHeader, Cause: cause}
}

func appendLE16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendLE32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
