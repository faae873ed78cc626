//go:build !porcupine

package wakeword

import "fmt"

// NewModelStrategy fails without the porcupine build tag, so the engine
// falls back to the energy strategy.
func NewModelStrategy(accessKey, keyword string, sensitivity float64) (Strategy, error) {
	return nil, fmt.Errorf("spotting model not available: build with -tags porcupine")
}
