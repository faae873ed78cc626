// Package audio provides the audio primitives under the control engine:
// frame conversion, RMS energy, WAV encoding, pre-roll buffering, output
// pacing, and the capture/playback device abstractions.
package audio

import (
	"math"
	"time"
)

// Frame is one fixed-size block of mono 16-bit PCM samples.
type Frame struct {
	Data       []byte // little-endian int16 samples
	SampleRate int
	Timestamp  time.Time
}

// Samples returns the number of samples in the frame.
func (f Frame) Samples() int {
	return len(f.Data) / 2
}

// Duration returns the real-time length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.Samples()) * time.Second / time.Duration(f.SampleRate)
}

// BytesToInt16 converts little-endian PCM bytes to int16 samples.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[2*i]) | int16(data[2*i+1])<<8
	}
	return samples
}

// Int16ToBytes converts int16 samples to little-endian PCM bytes.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}
	return data
}

// Int16ToFloat32 converts int16 samples to normalized float32 in [-1, 1].
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// RMS computes the root-mean-square amplitude of 16-bit PCM bytes,
// normalized to [0, 1].
func RMS(data []byte) float64 {
	if len(data) < 2 {
		return 0
	}

	var sum float64
	count := 0
	for i := 0; i+1 < len(data); i += 2 {
		s := int16(data[i]) | int16(data[i+1])<<8
		normalized := float64(s) / 32768.0
		sum += normalized * normalized
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}
