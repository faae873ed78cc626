//go:build porcupine

package wakeword

import (
	"fmt"
	"strings"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"

	"github.com/glasskit/glasskit/pkg/audio"
)

// Configured phrases map onto Porcupine's built-in keyword vocabulary.
// Unmapped phrases use "computer".
var keywordMap = map[string]porcupine.BuiltInKeyword{
	"hey glasses": porcupine.COMPUTER,
	"hey jarvis":  porcupine.JARVIS,
	"ok google":   porcupine.OK_GOOGLE,
	"hey google":  porcupine.HEY_GOOGLE,
	"alexa":       porcupine.ALEXA,
	"computer":    porcupine.COMPUTER,
	"porcupine":   porcupine.PORCUPINE,
}

// ModelStrategy delegates each frame to the Porcupine keyword-spotting
// model. Porcupine dictates its own frame length and sample rate; the
// capture loop must honor FrameSize exactly.
type ModelStrategy struct {
	engine  porcupine.Porcupine
	builtIn porcupine.BuiltInKeyword
}

// NewModelStrategy initializes the Porcupine backend. A missing access
// key fails construction, which the engine's fallback chain absorbs.
func NewModelStrategy(accessKey, keyword string, sensitivity float64) (*ModelStrategy, error) {
	if accessKey == "" {
		return nil, fmt.Errorf("PORCUPINE_ACCESS_KEY not set")
	}

	builtIn, ok := keywordMap[strings.ToLower(keyword)]
	if !ok {
		builtIn = porcupine.COMPUTER
	}

	s := &ModelStrategy{
		engine: porcupine.Porcupine{
			AccessKey:       accessKey,
			BuiltInKeywords: []porcupine.BuiltInKeyword{builtIn},
			Sensitivities:   []float32{float32(sensitivity)},
		},
		builtIn: builtIn,
	}
	if err := s.engine.Init(); err != nil {
		return nil, fmt.Errorf("porcupine init: %w", err)
	}
	return s, nil
}

// Name returns the strategy's method name.
func (s *ModelStrategy) Name() string {
	return MethodModel
}

// Detect classifies one frame. A non-negative keyword index is a match.
func (s *ModelStrategy) Detect(frame audio.Frame) (bool, error) {
	pcm := audio.BytesToInt16(frame.Data)
	if len(pcm) != porcupine.FrameLength {
		return false, fmt.Errorf("porcupine requires %d-sample frames, got %d", porcupine.FrameLength, len(pcm))
	}

	keywordIndex, err := s.engine.Process(pcm)
	if err != nil {
		return false, fmt.Errorf("porcupine process: %w", err)
	}
	return keywordIndex >= 0, nil
}

// FrameSize returns Porcupine's required frame length.
func (s *ModelStrategy) FrameSize() int {
	return porcupine.FrameLength
}

// Close releases the model.
func (s *ModelStrategy) Close() error {
	return s.engine.Delete()
}

var _ Strategy = (*ModelStrategy)(nil)
