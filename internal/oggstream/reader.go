package oggstream

import (
	"encoding/binary"
	"io"
)

// rawPage is one physical Ogg page as read off the wire, before packet
// reassembly.
type rawPage struct {
	HeaderType byte
	Granule    int64
	Serial     uint32
	Sequence   uint32
	Segments   []byte
	Data       []byte
}

// Reader reassembles packets from a sequential stream of Ogg pages,
// tracking one pending (incomplete) packet per logical stream serial so
// that rare multiplexed/nested logical streams are handled correctly.
type Reader struct {
	r       io.Reader
	pending map[uint32][]byte
	queue   []Packet
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, pending: make(map[uint32][]byte)}
}

// ReadPacket returns the next packet, or (nil, nil) at a clean end of
// stream, or a non-nil error wrapping zoog.ErrOggDecode on malformed input.
func (rd *Reader) ReadPacket() (*Packet, error) {
	for len(rd.queue) == 0 {
		page, err := rd.readRawPage()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		rd.processPage(page)
	}
	pkt := rd.queue[0]
	rd.queue = rd.queue[1:]
	return &pkt, nil
}

func (rd *Reader) readRawPage() (*rawPage, error) {
	var hdr [pageHeaderFixedSize]byte
	if _, err := io.ReadFull(rd.r, hdr[:4]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, wrapErr("ReadPacket", io.ErrUnexpectedEOF)
		}
		return nil, err // may be io.EOF, a clean end
	}
	if string(hdr[:4]) != magic {
		return nil, wrapErr("ReadPacket", errInvalidMagic)
	}
	if _, err := io.ReadFull(rd.r, hdr[4:]); err != nil {
		return nil, wrapErr("ReadPacket", err)
	}
	version := hdr[4]
	if version != 0 {
		return nil, wrapErr("ReadPacket", errUnsupportedVersion)
	}
	headerType := hdr[5]
	granule := int64(binary.LittleEndian.Uint64(hdr[6:14]))
	serial := binary.LittleEndian.Uint32(hdr[14:18])
	sequence := binary.LittleEndian.Uint32(hdr[18:22])
	// hdr[22:26] is the page checksum; verified implicitly by round-trip
	// via the writer rather than checked here (a corrupt checksum without
	// a structural problem is not one of the documented Format failures).
	segmentCount := int(hdr[26])

	segments := make([]byte, segmentCount)
	if _, err := io.ReadFull(rd.r, segments); err != nil {
		return nil, wrapErr("ReadPacket", err)
	}
	dataSize := 0
	for _, s := range segments {
		dataSize += int(s)
	}
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(rd.r, data); err != nil {
		return nil, wrapErr("ReadPacket", err)
	}

	return &rawPage{
		HeaderType: headerType,
		Granule:    granule,
		Serial:     serial,
		Sequence:   sequence,
		Segments:   segments,
		Data:       data,
	}, nil
}

// splitSegments partitions a page's lacing-delimited data into packets
// completed within the page, plus any trailing partial packet whose final
// lacing value was 255 (continues into the next page).
func splitSegments(segments, data []byte) (chunks [][]byte, partial []byte) {
	offset := 0
	var cur []byte
	for i, segLen := range segments {
		cur = append(cur, data[offset:offset+int(segLen)]...)
		offset += int(segLen)
		if segLen < maxSegmentSize {
			chunks = append(chunks, cur)
			cur = nil
		} else if i == len(segments)-1 {
			partial = cur
		}
	}
	return chunks, partial
}

func (rd *Reader) processPage(page *rawPage) {
	continued := page.HeaderType&flagContinued != 0
	eos := page.HeaderType&flagEOS != 0

	chunks, partial := splitSegments(page.Segments, page.Data)

	if continued {
		if prev, ok := rd.pending[page.Serial]; ok {
			if len(chunks) > 0 {
				chunks[0] = append(prev, chunks[0]...)
			} else {
				partial = append(prev, partial...)
			}
		}
	}
	delete(rd.pending, page.Serial)

	for i, chunk := range chunks {
		isLastChunkOfPage := i == len(chunks)-1
		pkt := Packet{Data: chunk, Serial: page.Serial, GranulePosition: -1}
		if isLastChunkOfPage && partial == nil {
			pkt.GranulePosition = page.Granule
			pkt.LastInPage = true
			pkt.LastInStream = eos
		}
		rd.queue = append(rd.queue, pkt)
	}
	if partial != nil {
		rd.pending[page.Serial] = partial
	}
}
