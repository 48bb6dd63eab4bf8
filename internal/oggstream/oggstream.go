// Package oggstream implements streaming Ogg page/packet framing: a
// sequential packet reader and writer that preserve granule position,
// stream serial, and the last_in_page/last_in_stream flags a packet needs
// to round-trip losslessly through the header rewrite driver.
//
// This generalizes the teacher's internal/ogg page scanner from a
// read-only metadata extractor into a bidirectional, write-capable
// implementation: no pure-Go, packet-granular, write-capable Ogg muxer
// exists in the reference pack, so the page header layout and packet
// reassembly rules are grounded on the teacher's own container.go/
// parser.go and generalized to streaming + writing.
package oggstream

import (
	"errors"

	"github.com/opustools/zoog"
)

var (
	errInvalidMagic       = errors.New("oggstream: invalid page magic")
	errUnsupportedVersion = errors.New("oggstream: unsupported page version")
)

const (
	magic             = "OggS"
	pageHeaderFixedSize = 27
	maxSegments         = 255
	maxSegmentSize      = 255
	maxPageDataSize     = maxSegments * maxSegmentSize

	flagContinued = 0x01
	flagBOS       = 0x02
	flagEOS       = 0x04
)

// Packet is one Ogg packet as emitted by Reader or consumed by Writer.
// GranulePosition and LastInStream are only meaningful when LastInPage is
// true: they describe the page the packet completed in.
type Packet struct {
	Data            []byte
	Serial          uint32
	GranulePosition int64
	LastInPage      bool
	LastInStream    bool
}

func wrapErr(op string, err error) error {
	return &zoog.Error{Kind: zoog.Format, Op: op, Err: zoog.ErrOggDecode, Cause: err}
}
