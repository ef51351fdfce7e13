// Package audiolevel measures microphone volume for voice-activity gating
// and UI feedback.
//
// The central abstraction is Source: anything that can report the RMS level
// of its most recent audio buffer on a 0.0–1.0 scale, queryable at any time
// independent of dictation state. Meter is the standard implementation over
// raw PCM buffers.
package audiolevel

import (
	"encoding/binary"
	"math"
	"sync"
)

// Source reports the current audio input level.
type Source interface {
	// Level returns the RMS volume of the most recent audio buffer,
	// normalized to 0.0–1.0. A source that has seen no audio returns 0.
	Level() float64
}

// RMS computes the root mean square of 16-bit PCM samples, normalized to
// 0.0–1.0. An empty slice yields 0.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// RMSBytes computes RMS over raw little-endian 16-bit PCM bytes. A trailing
// odd byte is ignored.
func RMSBytes(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}

// Meter is a Source fed with raw PCM buffers from the capture pipeline. It
// retains only the level of the most recent buffer. Safe for concurrent use.
type Meter struct {
	mu    sync.Mutex
	level float64
}

// NewMeter returns a silent meter.
func NewMeter() *Meter {
	return &Meter{}
}

// Write updates the meter with the latest little-endian 16-bit PCM buffer.
func (m *Meter) Write(pcm []byte) {
	level := RMSBytes(pcm)
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
}

// WriteSamples updates the meter with the latest 16-bit samples.
func (m *Meter) WriteSamples(samples []int16) {
	level := RMS(samples)
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
}

// Level returns the RMS of the most recent buffer.
func (m *Meter) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Ensure Meter implements Source at compile time.
var _ Source = (*Meter)(nil)
