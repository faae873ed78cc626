// Package vad provides voice activity detection for the capture and
// barge-in paths.
//
// Two implementations exist: a pure-Go RMS detector with hysteresis
// (default), and a Silero-based detector behind the "vad" build tag for
// deployments that ship the ONNX model.
package vad

// Detector reports whether audio frames contain speech.
// This interface allows for mock implementations in testing.
type Detector interface {
	// IsSpeech feeds one frame of 16-bit mono PCM samples and returns
	// whether the stream is currently inside a speech segment. Detectors
	// keep internal state across calls (hysteresis, model context).
	IsSpeech(pcm []int16) bool

	// Reset clears internal state. Call when starting a new listen window.
	Reset()

	// Destroy releases any resources held by the detector.
	Destroy() error
}
