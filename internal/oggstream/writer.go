package oggstream

import (
	"encoding/binary"
	"io"
)

// crcTable is the Ogg page checksum: a non-reflected CRC-32 with
// polynomial 0x04c11db7, MSB-first. This is NOT the IEEE polynomial used
// by hash/crc32, so it is built by hand from the documented Ogg algorithm
// rather than reused from the standard library's table.
var crcTable = buildCRCTable()

const crcPoly uint32 = 0x04c11db7

func buildCRCTable() [256]uint32 {
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ crcPoly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func updateCRC(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = (crc << 8) ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}

// Writer serializes packets into Ogg pages, handling lacing of packets
// larger than 255 bytes and the sequence/flag bookkeeping.
type Writer struct {
	w        io.Writer
	sequence map[uint32]uint32
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, sequence: make(map[uint32]uint32)}
}

// WritePage writes one packet as a single Ogg page. bos marks the first
// page of a logical stream; packet.LastInPage/LastInStream (when true)
// supply the page's granule position and EOS flag.
func (wr *Writer) WritePage(packet Packet, bos bool) error {
	seq := wr.sequence[packet.Serial]
	wr.sequence[packet.Serial] = seq + 1

	var headerType byte
	if bos {
		headerType |= flagBOS
	}
	if packet.LastInPage && packet.LastInStream {
		headerType |= flagEOS
	}

	granule := int64(-1)
	if packet.LastInPage {
		granule = packet.GranulePosition
	}

	segments := lace(len(packet.Data))

	header := make([]byte, pageHeaderFixedSize+len(segments))
	copy(header[0:4], magic)
	header[4] = 0 // version
	header[5] = headerType
	binary.LittleEndian.PutUint64(header[6:14], uint64(granule))
	binary.LittleEndian.PutUint32(header[14:18], packet.Serial)
	binary.LittleEndian.PutUint32(header[18:22], seq)
	// header[22:26] checksum filled below
	header[26] = byte(len(segments))
	copy(header[27:], segments)

	crc := updateCRC(0, header)
	crc = updateCRC(crc, packet.Data)
	binary.LittleEndian.PutUint32(header[22:26], crc)

	if _, err := wr.w.Write(header); err != nil {
		return wrapErr("WritePage", err)
	}
	if _, err := wr.w.Write(packet.Data); err != nil {
		return wrapErr("WritePage", err)
	}
	return nil
}

// lace computes the lacing table for a packet of the given byte length,
// including the terminating value (< 255, possibly 0) required so the
// packet boundary is unambiguous even when len is an exact multiple of 255.
func lace(length int) []byte {
	segments := make([]byte, 0, length/maxSegmentSize+1)
	for length >= maxSegmentSize {
		segments = append(segments, maxSegmentSize)
		length -= maxSegmentSize
	}
	segments = append(segments, byte(length))
	return segments
}
