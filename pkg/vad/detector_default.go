//go:build !vad

package vad

// NewDetector returns the default detector for builds without the "vad"
// tag: the pure-Go RMS energy detector. threshold is the normalized RMS
// level in [0, 1] above which a frame counts as speech.
func NewDetector(threshold float64) (Detector, error) {
	return NewRMSDetector(threshold), nil
}
