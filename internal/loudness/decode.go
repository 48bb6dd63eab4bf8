package loudness

import (
	"github.com/thesyncim/gopus"

	"github.com/opustools/zoog"
)

// maxPacketDurationMS is RFC 6716's OPUS_MAX_PACKET_DURATION_MS, the
// largest frame an Opus packet can encode.
const maxPacketDurationMS = 120

// decoder wraps a gopus.Decoder sized for the channel count declared by an
// Opus identification header, with a PCM scratch buffer large enough for
// the longest possible Opus frame.
type decoder struct {
	dec        *gopus.Decoder
	channels   int
	sampleRate int
	pcm        []float32
}

func newDecoder(sampleRate, channels int) (*decoder, error) {
	dec, err := gopus.NewDecoder(sampleRate, channels)
	if err != nil {
		if channels < 1 || channels > 2 {
			return nil, &zoog.Error{Kind: zoog.Semantics, Op: "newDecoder", Err: zoog.ErrInvalidChannelCount, Cause: err}
		}
		return nil, &zoog.Error{Kind: zoog.Format, Op: "newDecoder", Err: zoog.ErrOggDecode, Cause: err}
	}
	maxSamples := channels * sampleRate * maxPacketDurationMS / 1000
	return &decoder{dec: dec, channels: channels, sampleRate: sampleRate, pcm: make([]float32, maxSamples)}, nil
}

// decode decodes one Opus audio packet, returning interleaved PCM sliced
// to the actual number of samples produced.
func (d *decoder) decode(data []byte) ([]float32, error) {
	n, err := d.dec.Decode(data, d.pcm)
	if err != nil {
		return nil, &zoog.Error{Kind: zoog.Format, Op: "decode", Err: zoog.ErrOggDecode, Cause: err}
	}
	return d.pcm[:n*d.channels], nil
}

// deinterleave splits interleaved PCM into one slice per channel.
func deinterleave(pcm []float32, channels int) [][]float32 {
	frames := len(pcm) / channels
	out := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = pcm[i*channels+c]
		}
	}
	return out
}
