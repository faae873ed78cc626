package vad

import "math"

// RMSDetector is a voice activity detector based on RMS energy with
// hysteresis, so the speech state does not flicker at segment edges.
type RMSDetector struct {
	speechThreshold  float64
	silenceThreshold float64
	speechFrames     int // consecutive speech frames needed to enter speech
	silenceFrames    int // consecutive silence frames needed to leave it

	inSpeech     bool
	speechCount  int
	silenceCount int
}

// NewRMSDetector creates an RMS detector tuned for 16kHz frames of
// 20-32ms. The silence exit threshold sits below the entry threshold.
func NewRMSDetector(threshold float64) *RMSDetector {
	if threshold <= 0 {
		threshold = 0.015
	}
	return &RMSDetector{
		speechThreshold:  threshold,
		silenceThreshold: threshold * 0.55,
		speechFrames:     2,
		silenceFrames:    8,
	}
}

// IsSpeech implements Detector.
func (d *RMSDetector) IsSpeech(pcm []int16) bool {
	level := rms(pcm)

	if d.inSpeech {
		if level < d.silenceThreshold {
			d.silenceCount++
			d.speechCount = 0
			if d.silenceCount >= d.silenceFrames {
				d.inSpeech = false
				d.silenceCount = 0
			}
		} else {
			d.silenceCount = 0
		}
	} else {
		if level >= d.speechThreshold {
			d.speechCount++
			if d.speechCount >= d.speechFrames {
				d.inSpeech = true
				d.speechCount = 0
			}
		} else {
			d.speechCount = 0
		}
	}

	return d.inSpeech
}

// Reset implements Detector.
func (d *RMSDetector) Reset() {
	d.inSpeech = false
	d.speechCount = 0
	d.silenceCount = 0
}

// Destroy implements Detector.
func (d *RMSDetector) Destroy() error {
	return nil
}

func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		n := float64(s) / 32768.0
		sum += n * n
	}
	return math.Sqrt(sum / float64(len(pcm)))
}

var _ Detector = (*RMSDetector)(nil)
