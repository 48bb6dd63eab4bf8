package loudness

import (
	"github.com/opustools/zoog"
	"github.com/opustools/zoog/internal/oggstream"
	"github.com/opustools/zoog/internal/opusheader"
)

type analyzerState int

const (
	stateAwaitingHeader analyzerState = iota
	stateAwaitingComments
	stateAnalyzing
	stateDone
)

// Analyzer decodes the Opus audio of one or more concatenated logical
// streams and accumulates BS.1770 power windows, mirroring the rewrite
// driver's own packet-granular state machine.
type Analyzer struct {
	state  analyzerState
	serial uint32

	sampleRate int
	channels   int

	dec    *decoder
	meters []*ChannelMeter

	// windows holds the channel-combined 100ms power windows for every
	// file submitted to this analyzer so far, in submission order.
	windows []float64

	// lastFileWindowStart marks where the most recently completed file's
	// windows begin in windows, so TrackLUFS and Windows can report just
	// that file.
	lastFileWindowStart int
	lastFileWindowEnd    int
}

// NewAnalyzer returns an empty analyzer, ready to submit packets to.
func NewAnalyzer() *Analyzer {
	return &Analyzer{state: stateAwaitingHeader}
}

// Submit feeds one Ogg packet to the analyzer. It returns an error for a
// malformed header, a second distinct logical stream (UnexpectedLogicalStream),
// or a mid-stream change of channel count/sample rate
// (UnexpectedAudioParamsChange).
func (a *Analyzer) Submit(pkt oggstream.Packet) error {
	switch a.state {
	case stateAwaitingHeader:
		a.serial = pkt.Serial
		id, err := opusheader.ParseIdHeader(pkt.Data)
		if err != nil {
			return err
		}
		if id.ChannelCount() < 1 || id.ChannelCount() > 2 {
			return &zoog.Error{Kind: zoog.Semantics, Op: "Submit", Err: zoog.ErrInvalidChannelCount}
		}
		if err := a.resetForStream(id.ChannelCount(), int(id.OutputSampleRateHz())); err != nil {
			return err
		}
		a.state = stateAwaitingComments
		return nil

	case stateAwaitingComments:
		if pkt.Serial != a.serial {
			return &zoog.Error{Kind: zoog.Format, Op: "Submit", Err: zoog.ErrUnexpectedLogicalStream}
		}
		if _, err := opusheader.ParseCommentHeader(pkt.Data); err != nil {
			return err
		}
		a.state = stateAnalyzing
		a.lastFileWindowStart = len(a.windows)
		return nil

	case stateAnalyzing:
		if pkt.Serial != a.serial {
			return &zoog.Error{Kind: zoog.Format, Op: "Submit", Err: zoog.ErrUnexpectedLogicalStream}
		}
		if err := a.decodeAndMeter(pkt.Data); err != nil {
			return err
		}
		if pkt.LastInPage && pkt.LastInStream {
			a.finishFile()
		}
		return nil

	default: // stateDone
		return &zoog.Error{Kind: zoog.Format, Op: "Submit", Err: zoog.ErrUnexpectedLogicalStream}
	}
}

func (a *Analyzer) resetForStream(channels, sampleRate int) error {
	if a.dec != nil {
		if channels != a.channels || sampleRate != a.sampleRate {
			return &zoog.Error{Kind: zoog.Format, Op: "resetForStream", Err: zoog.ErrUnexpectedAudioParamsChange}
		}
		dec, err := newDecoder(sampleRate, channels)
		if err != nil {
			return err
		}
		a.dec = dec
		return nil
	}
	dec, err := newDecoder(sampleRate, channels)
	if err != nil {
		return err
	}
	a.dec = dec
	a.channels = channels
	a.sampleRate = sampleRate
	a.meters = make([]*ChannelMeter, channels)
	for i := range a.meters {
		a.meters[i] = NewChannelMeter()
	}
	return nil
}

func (a *Analyzer) decodeAndMeter(data []byte) error {
	pcm, err := a.dec.decode(data)
	if err != nil {
		return err
	}
	channels := deinterleave(pcm, a.channels)
	for i, ch := range channels {
		a.meters[i].AddSamples(ch)
	}
	return nil
}

// FileComplete signals that no more packets will arrive for the current
// logical stream (used when the driving loop detects EOF rather than a
// LastInStream-flagged packet). It is a no-op if analysis hasn't started.
func (a *Analyzer) FileComplete() {
	if a.state == stateAnalyzing {
		a.finishFile()
	}
}

func (a *Analyzer) finishFile() {
	perChannel := make([][]float64, len(a.meters))
	for i, m := range a.meters {
		perChannel[i] = m.Windows()
	}
	combined := CombineChannels(perChannel)
	a.windows = append(a.windows, combined...)
	a.lastFileWindowEnd = len(a.windows)
	a.meters = make([]*ChannelMeter, a.channels)
	for i := range a.meters {
		a.meters[i] = NewChannelMeter()
	}
	a.state = stateDone
}

// TrackLUFS returns the gated-mean LUFS over just the most recently
// completed file's windows.
func (a *Analyzer) TrackLUFS() zoog.Decibels {
	return GatedMeanLUFS(a.windows[a.lastFileWindowStart:a.lastFileWindowEnd])
}

// LastTrackLUFS is an alias of TrackLUFS kept for call-site clarity when
// reading results after a sequence of files.
func (a *Analyzer) LastTrackLUFS() zoog.Decibels { return a.TrackLUFS() }

// Windows returns the raw 100ms power windows of the most recently
// completed file, letting a caller fold several single-file analyzers'
// windows together (e.g. an album pass run one analyzer per worker) before
// computing a cross-file gated mean.
func (a *Analyzer) Windows() []float64 {
	return a.windows[a.lastFileWindowStart:a.lastFileWindowEnd]
}

// MeanLUFSAcrossAll returns the gated-mean LUFS over every window
// accumulated across every file submitted to this analyzer so far.
func (a *Analyzer) MeanLUFSAcrossAll() zoog.Decibels {
	return GatedMeanLUFS(a.windows)
}

// ReadyForNextFile allows submitting a new logical stream to the same
// analyzer (concatenated-file / album accumulation), provided the new
// stream's channel count and sample rate match the first.
func (a *Analyzer) ReadyForNextFile() {
	if a.state == stateDone {
		a.state = stateAwaitingHeader
	}
}
