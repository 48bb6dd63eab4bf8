// Package rewriter implements the codec-agnostic header rewrite driver: a
// packet-granular state machine that detects the codec of a logical Ogg
// stream, lets a pluggable rewrite callback mutate the parsed headers, and
// forwards every other packet untouched.
package rewriter

import (
	"bytes"

	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/comment"
	"github.com/opustools/zoog/internal/oggstream"
	"github.com/opustools/zoog/internal/opusheader"
	"github.com/opustools/zoog/internal/vorbisheader"
)

// Headers is the tagged union of parsed identification+comment headers for
// the active codec.
type Headers struct {
	Codec zoog.Codec

	OpusID      *opusheader.IdHeader
	OpusTags    *opusheader.CommentHeader
	VorbisID    *vorbisheader.IdHeader
	VorbisTags  *vorbisheader.CommentHeader
}

// Comments returns the comment list of whichever codec is active.
func (h *Headers) Comments() *comment.DiscreteCommentList {
	if h.Codec == zoog.Opus {
		return h.OpusTags.Comments
	}
	return h.VorbisTags.Comments
}

// Outcome is the classification submit returns for the header packet pair.
type Outcome int

const (
	// Good is returned for every packet that isn't the header pair.
	Good Outcome = iota
	// HeadersUnchanged is returned when the rewrite produced
	// byte-identical headers.
	HeadersUnchanged
	// HeadersChanged is returned when the rewrite altered the headers.
	HeadersChanged
)

// RewriteFunc mutates parsed headers in place.
type RewriteFunc func(h *Headers) error

// SummarizeFunc captures a before/after snapshot of interest to the caller
// (e.g. Opus gains); the concrete type is caller-defined.
type SummarizeFunc func(h *Headers) any

// Result is returned by Submit for the packet that completes header
// processing; for all other packets Outcome is Good and the rest are zero.
type Result struct {
	Outcome      Outcome
	SummaryBefore any
	SummaryAfter  any
}

type state int

const (
	stateAwaitingHeader state = iota
	stateAwaitingComments
	stateForwarding
)

// Driver is the packet-granular rewrite state machine. It owns no I/O: the
// caller feeds it packets via Submit and receives the (possibly mutated)
// packet back plus a Result.
type Driver struct {
	state    state
	serial   uint32
	idPacket *oggstream.Packet

	rewrite   RewriteFunc
	summarize SummarizeFunc
}

// New returns a Driver that will invoke rewrite and summarize once, on the
// first logical stream it observes.
func New(rewrite RewriteFunc, summarize SummarizeFunc) *Driver {
	return &Driver{rewrite: rewrite, summarize: summarize}
}

// Submit advances the driver by one packet. The returned packet is the
// packet to forward (identical to the input except for the two header
// packets, whose Data may have been reserialized).
func (d *Driver) Submit(pkt oggstream.Packet) (oggstream.Packet, Result, error) {
	switch d.state {
	case stateAwaitingHeader:
		d.serial = pkt.Serial
		d.idPacket = &pkt
		d.state = stateAwaitingComments
		return pkt, Result{Outcome: Good}, nil

	case stateAwaitingComments:
		if pkt.Serial != d.serial {
			// Nested logical stream: forward immediately, stay awaiting.
			return pkt, Result{Outcome: Good}, nil
		}
		return d.processHeaderPair(*d.idPacket, pkt)

	default: // stateForwarding
		return pkt, Result{Outcome: Good}, nil
	}
}

func (d *Driver) processHeaderPair(idPkt, tagsPkt oggstream.Packet) (oggstream.Packet, Result, error) {
	headers, err := detectAndParse(idPkt.Data, tagsPkt.Data)
	if err != nil {
		return tagsPkt, Result{}, err
	}

	origID, origTags := serializeFor(headers)

	var before any
	if d.summarize != nil {
		before = d.summarize(headers)
	}
	if d.rewrite != nil {
		if err := d.rewrite(headers); err != nil {
			return tagsPkt, Result{}, err
		}
	}
	var after any
	if d.summarize != nil {
		after = d.summarize(headers)
	}

	newID, newTags, err := reserialize(headers)
	if err != nil {
		return tagsPkt, Result{}, err
	}

	if newID != nil {
		d.idPacket.Data = newID
	}
	tagsPkt.Data = newTags
	d.state = stateForwarding

	outcome := HeadersUnchanged
	if !bytes.Equal(origID, newID) || !bytes.Equal(origTags, newTags) {
		outcome = HeadersChanged
	}

	return tagsPkt, Result{Outcome: outcome, SummaryBefore: before, SummaryAfter: after}, nil
}

// IDPacket returns the (possibly rewritten) identification packet after a
// header pair has been processed; the caller must write it before the
// returned comment packet.
func (d *Driver) IDPacket() oggstream.Packet {
	return *d.idPacket
}

func detectAndParse(idData, tagsData []byte) (*Headers, error) {
	if opusID, err := opusheader.ParseIdHeader(idData); err == nil {
		tags, err := opusheader.ParseCommentHeader(tagsData)
		if err != nil {
			return nil, err
		}
		return &Headers{Codec: zoog.Opus, OpusID: opusID, OpusTags: tags}, nil
	}
	if vorbisID, err := vorbisheader.ParseIdHeader(idData); err == nil {
		tags, err := vorbisheader.ParseCommentHeader(tagsData)
		if err != nil {
			return nil, err
		}
		return &Headers{Codec: zoog.Vorbis, VorbisID: vorbisID, VorbisTags: tags}, nil
	}
	return nil, &zoog.Error{Kind: zoog.Format, Op: "detectAndParse", Err: zoog.ErrUnknownCodec}
}

func serializeFor(h *Headers) (id, tags []byte) {
	if h.Codec == zoog.Opus {
		id = h.OpusID.Serialize()
		tags, _ = h.OpusTags.Serialize()
		return id, tags
	}
	// Vorbis identification headers are read-only: re-emit the bytes the
	// parser itself never mutates by reconstructing via its own fields is
	// unnecessary since Vorbis ID headers are never rewritten; callers
	// never compare Vorbis ID bytes for change detection beyond tags.
	tags, _ = h.VorbisTags.Serialize()
	return nil, tags
}

func reserialize(h *Headers) (id, tags []byte, err error) {
	if h.Codec == zoog.Opus {
		id = h.OpusID.Serialize()
		tags, err = h.OpusTags.Serialize()
		return id, tags, err
	}
	tags, err = h.VorbisTags.Serialize()
	return nil, tags, err
}
