package wakeword

import (
	"github.com/glasskit/glasskit/pkg/audio"
)

const (
	// energyFloor is the absolute RMS a frame must clear, roughly 3000
	// on the int16 scale.
	energyFloor = 0.09

	// energyWindowLen is the number of recent frame energies averaged.
	energyWindowLen = 5

	// energySpikeRatio is how far above the rolling average a frame must
	// be to count as a sudden loud event.
	energySpikeRatio = 2.0
)

// EnergyStrategy triggers on any sudden loud sound relative to recent
// ambient noise. It has no understanding of the keyword and exists for
// testing audio setups and as the last rung of the fallback chain.
type EnergyStrategy struct {
	window []float64
}

// NewEnergyStrategy creates the energy-threshold detector.
func NewEnergyStrategy() *EnergyStrategy {
	return &EnergyStrategy{
		window: make([]float64, 0, energyWindowLen),
	}
}

// Name returns the strategy's method name.
func (s *EnergyStrategy) Name() string {
	return MethodEnergy
}

// Detect reports a trigger when the frame's RMS exceeds both the
// absolute floor and twice the rolling average. The window is cleared
// on trigger so trailing energy from the same event cannot re-fire.
func (s *EnergyStrategy) Detect(frame audio.Frame) (bool, error) {
	rms := audio.RMS(frame.Data)

	s.window = append(s.window, rms)
	if len(s.window) > energyWindowLen {
		s.window = s.window[1:]
	}

	if rms <= energyFloor {
		return false, nil
	}

	var sum float64
	for _, e := range s.window {
		sum += e
	}
	avg := sum / float64(len(s.window))

	if rms > avg*energySpikeRatio {
		s.window = s.window[:0]
		return true, nil
	}
	return false, nil
}

// FrameSize accepts any frame length.
func (s *EnergyStrategy) FrameSize() int {
	return 0
}

// Close is a no-op.
func (s *EnergyStrategy) Close() error {
	return nil
}

var _ Strategy = (*EnergyStrategy)(nil)
