package zoog

// Codec identifies which header byte layout a logical Ogg stream uses.
type Codec int

const (
	// Opus identifies a stream beginning with an "OpusHead" packet.
	Opus Codec = iota
	// Vorbis identifies a stream beginning with a Vorbis identification packet.
	Vorbis
)

func (c Codec) String() string {
	switch c {
	case Opus:
		return "Opus"
	case Vorbis:
		return "Vorbis"
	default:
		return "unknown"
	}
}
