// Package header implements the generic comment-header parse/serialize
// core shared by Opus and Vorbis: magic bytes, vendor string, and the
// ordered comment record list. Codec-specific suffix handling (Opus
// experimental data, Vorbis framing byte) is layered on top by the
// opusheader and vorbisheader packages.
package header

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	zbinary "github.com/opustools/zoog/internal/binary"
	"github.com/opustools/zoog/internal/comment"

	"github.com/opustools/zoog"
)

// CommentHeader is the generic parsed form: magic is consumed by the
// caller before ParseBody is invoked, and not retained here.
type CommentHeader struct {
	Vendor   string
	Comments *comment.DiscreteCommentList
}

// ParseBody parses the vendor string and comment records from data
// starting at offset off (immediately after the magic bytes), and returns
// the header plus the offset of the first byte past the last comment
// record (where a codec-specific suffix, if any, begins).
func ParseBody(data []byte, off int64) (*CommentHeader, int64, error) {
	size := int64(len(data))
	sr := zbinary.NewSafeReader(bytes.NewReader(data), size, "comment header")

	readString := func(length int, what string) (string, error) {
		buf := make([]byte, length)
		if err := sr.ReadAt(buf, off, what); err != nil {
			return "", err
		}
		off += int64(length)
		return string(buf), nil
	}

	vendorLen, err := zbinary.ReadLE[uint32](sr, off, "vendor length")
	if err != nil {
		return nil, 0, malformed(err)
	}
	off += 4
	vendor, err := readString(int(vendorLen), "vendor string")
	if err != nil {
		return nil, 0, malformed(err)
	}
	if !utf8.ValidString(vendor) {
		return nil, 0, &zoog.Error{Kind: zoog.Format, Op: "ParseBody", Err: zoog.ErrInvalidUTF8}
	}

	count, err := zbinary.ReadLE[uint32](sr, off, "comment count")
	if err != nil {
		return nil, 0, malformed(err)
	}
	off += 4

	list := comment.NewDiscreteCommentList(int(count))
	for i := uint32(0); i < count; i++ {
		recLen, err := zbinary.ReadLE[uint32](sr, off, "comment length")
		if err != nil {
			return nil, 0, malformed(err)
		}
		off += 4
		rec, err := readString(int(recLen), "comment record")
		if err != nil {
			return nil, 0, malformed(err)
		}
		if !utf8.ValidString(rec) {
			return nil, 0, &zoog.Error{Kind: zoog.Format, Op: "ParseBody", Err: zoog.ErrInvalidUTF8}
		}
		key, value, err := comment.ParseComment(rec)
		if err != nil {
			return nil, 0, err
		}
		if err := list.Push(key, value); err != nil {
			return nil, 0, err
		}
	}

	return &CommentHeader{Vendor: vendor, Comments: list}, off, nil
}

// WriteBody serializes the vendor string and comment records (but not the
// magic bytes or any codec-specific suffix) into sw.
func WriteBody(sw *zbinary.SafeWriter, h *CommentHeader) error {
	if err := zbinary.WriteLE[uint32](sw, uint32(len(h.Vendor))); err != nil {
		return wrapIO(err)
	}
	if err := sw.WriteString(h.Vendor); err != nil {
		return wrapIO(err)
	}
	entries := h.Comments.Entries()
	if err := zbinary.WriteLE[uint32](sw, uint32(len(entries))); err != nil {
		return wrapIO(err)
	}
	for _, e := range entries {
		rec := fmt.Sprintf("%s=%s", e.Key, e.Value)
		if err := zbinary.WriteLE[uint32](sw, uint32(len(rec))); err != nil {
			return wrapIO(err)
		}
		if err := sw.WriteString(rec); err != nil {
			return wrapIO(err)
		}
	}
	return nil
}

func malformed(err error) error {
	return &zoog.Error{Kind: zoog.Format, Op: "ParseBody", Err: zoog.ErrMalformedCommentHeader, Cause: err}
}

func wrapIO(err error) error {
	return &zoog.Error{Kind: zoog.IO, Op: "WriteBody", Err: err}
}
