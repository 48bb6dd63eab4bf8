// Package loudness implements ITU-R BS.1770-4 integrated loudness
// measurement: per-channel K-weighting and power-window accumulation, plus
// the two-stage gated mean used to report LUFS for a track or an album.
package loudness

import (
	"math"

	"github.com/opustools/zoog"
)

// biquad is a direct-form-1 IIR stage: y[n] = b0*x[n] + b1*x[n-1] +
// b2*x[n-2] - a1*y[n-1] - a2*y[n-2].
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	x1, x2     float64
	y1, y2     float64
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// newKWeightingCascade returns the two-stage K-weighting filter
// (high-shelf then RLB high-pass) with the standard BS.1770 coefficients
// for 48 kHz audio. Opus always decodes to 48 kHz per RFC 7845, so no
// per-sample-rate bilinear-transform coefficient derivation is needed.
func newKWeightingCascade() [2]*biquad {
	return [2]*biquad{
		{ // stage 1: high shelf
			b0: 1.53512485958697, b1: -2.69169618940638, b2: 1.19839281085285,
			a1: -1.69065929318241, a2: 0.73248077421585,
		},
		{ // stage 2: RLB high-pass
			b0: 1.0, b1: -2.0, b2: 1.0,
			a1: -1.99004745483398, a2: 0.99007225036621,
		},
	}
}

// windowSamples is the number of samples in one 100ms power window at
// 48kHz.
const windowSamples = 48000 / 10

// ChannelMeter accumulates mean-square power over successive 100ms windows
// for one audio channel.
type ChannelMeter struct {
	cascade    [2]*biquad
	windows    []float64
	accum      float64
	accumCount int
}

// NewChannelMeter returns a meter for one channel.
func NewChannelMeter() *ChannelMeter {
	return &ChannelMeter{cascade: newKWeightingCascade()}
}

// AddSamples feeds interleaved-free (single channel) samples to the meter,
// flushing completed 100ms windows as it goes. Any incomplete trailing
// window is carried over to the next call.
func (m *ChannelMeter) AddSamples(samples []float32) {
	for _, s := range samples {
		x := float64(s)
		x = m.cascade[0].process(x)
		x = m.cascade[1].process(x)
		m.accum += x * x
		m.accumCount++
		if m.accumCount == windowSamples {
			m.windows = append(m.windows, m.accum/float64(windowSamples))
			m.accum = 0
			m.accumCount = 0
		}
	}
}

// Windows returns the completed 100ms power windows accumulated so far.
// Any incomplete trailing window (less than 100ms of audio) is dropped.
func (m *ChannelMeter) Windows() []float64 {
	return m.windows
}

// CombineChannels sums per-channel 100ms power windows into a single
// channel-weighted sequence, scaling mono by 2.0 to match stereo reference
// level and stereo by 1.0, per BS.1770's channel weighting for the
// two-channel case.
func CombineChannels(perChannel [][]float64) []float64 {
	if len(perChannel) == 0 {
		return nil
	}
	n := len(perChannel[0])
	for _, ch := range perChannel {
		if len(ch) < n {
			n = len(ch)
		}
	}
	scale := 1.0
	if len(perChannel) == 1 {
		scale = 2.0
	}
	combined := make([]float64, n)
	for _, ch := range perChannel {
		for i := 0; i < n; i++ {
			combined[i] += ch[i] * scale
		}
	}
	return combined
}

// loudnessLKFS converts a mean-square power value to LKFS/LUFS.
func loudnessLKFS(power float64) float64 {
	return -0.691 + 10*math.Log10(power)
}

const (
	blockWindows   = 4 // 400ms blocks are 4 overlapping 100ms windows
	absoluteGateLKFS = -70.0
	relativeGateOffsetDB = -10.0
)

// GatedMeanLUFS computes the BS.1770 two-stage gated mean over 100ms power
// windows, grouped into 400ms blocks via a stride-1 sliding window. A
// result that would be NaN (near silence, no block survives gating) is
// reported as 0 LUFS rather than -Inf, so no absurd gain is ever computed
// downstream.
func GatedMeanLUFS(windows []float64) zoog.Decibels {
	if len(windows) < blockWindows {
		return 0
	}

	blockPowers := make([]float64, 0, len(windows)-blockWindows+1)
	for i := 0; i+blockWindows <= len(windows); i++ {
		sum := 0.0
		for _, w := range windows[i : i+blockWindows] {
			sum += w
		}
		blockPowers = append(blockPowers, sum/float64(blockWindows))
	}

	absoluteGated := make([]float64, 0, len(blockPowers))
	for _, p := range blockPowers {
		if p > 0 && loudnessLKFS(p) >= absoluteGateLKFS {
			absoluteGated = append(absoluteGated, p)
		}
	}
	if len(absoluteGated) == 0 {
		return 0
	}

	ungatedMean := mean(absoluteGated)
	relativeThreshold := loudnessLKFS(ungatedMean) + relativeGateOffsetDB

	relativeGated := make([]float64, 0, len(absoluteGated))
	for _, p := range absoluteGated {
		if loudnessLKFS(p) >= relativeThreshold {
			relativeGated = append(relativeGated, p)
		}
	}
	if len(relativeGated) == 0 {
		return 0
	}

	result := loudnessLKFS(mean(relativeGated))
	if math.IsNaN(result) {
		return 0
	}
	return zoog.Decibels(result)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
