//go:build vad

package vad

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamer45/silero-vad-go/speech"

	"github.com/glasskit/glasskit/pkg/audio"
)

// silero processes audio in fixed 512-sample windows at 16kHz.
const sileroChunkSize = 512

// NewDetector returns the Silero-based detector for builds with the "vad"
// tag. threshold is the model's speech probability threshold. The model
// path is read from SILERO_MODEL_PATH or resolved from common locations.
func NewDetector(threshold float64) (Detector, error) {
	modelPath := findModel()
	if modelPath == "" {
		return nil, fmt.Errorf("silero model not found; set SILERO_MODEL_PATH")
	}
	return NewSileroDetector(modelPath, float32(threshold))
}

// SileroDetector wraps the Silero VAD model behind the Detector interface.
type SileroDetector struct {
	detector *speech.Detector

	buffer   []int16
	inSpeech bool
}

// NewSileroDetector loads the Silero model from modelPath.
func NewSileroDetector(modelPath string, threshold float32) (*SileroDetector, error) {
	if threshold <= 0 {
		threshold = 0.5
	}

	detector, err := speech.NewDetector(speech.DetectorConfig{
		ModelPath:            modelPath,
		SampleRate:           16000,
		Threshold:            threshold,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
	})
	if err != nil {
		return nil, fmt.Errorf("create silero detector: %w", err)
	}

	return &SileroDetector{
		detector: detector,
		buffer:   make([]int16, 0, sileroChunkSize),
	}, nil
}

// IsSpeech implements Detector. Samples are accumulated until a full model
// window is available; partial windows keep the previous speech state.
func (d *SileroDetector) IsSpeech(pcm []int16) bool {
	d.buffer = append(d.buffer, pcm...)

	for len(d.buffer) >= sileroChunkSize {
		chunk := d.buffer[:sileroChunkSize]
		d.buffer = d.buffer[sileroChunkSize:]

		segments, err := d.detector.Detect(audio.Int16ToFloat32(chunk))
		if err != nil {
			continue
		}
		for _, segment := range segments {
			if segment.SpeechStartAt > 0 {
				d.inSpeech = true
			}
			if segment.SpeechEndAt > 0 {
				d.inSpeech = false
			}
		}
	}

	return d.inSpeech
}

// Reset implements Detector.
func (d *SileroDetector) Reset() {
	d.buffer = d.buffer[:0]
	d.inSpeech = false
	d.detector.Reset()
}

// Destroy implements Detector.
func (d *SileroDetector) Destroy() error {
	if d.detector != nil {
		if err := d.detector.Destroy(); err != nil {
			return err
		}
		d.detector = nil
	}
	return nil
}

func findModel() string {
	paths := []string{
		os.Getenv("SILERO_MODEL_PATH"),
		"silero_vad.onnx",
		filepath.Join("models", "silero_vad.onnx"),
		"/usr/local/share/silero/silero_vad.onnx",
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var _ Detector = (*SileroDetector)(nil)
