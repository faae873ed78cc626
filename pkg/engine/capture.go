package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/logging"
	"github.com/glasskit/glasskit/pkg/stt"
	"github.com/glasskit/glasskit/pkg/vad"
)

// recognizeTimeout bounds one transcription call independently of the
// listen deadlines.
const recognizeTimeout = 10 * time.Second

// CaptureConfig bounds one listen attempt.
type CaptureConfig struct {
	// ListenTimeout is the longest to wait for speech to begin.
	ListenTimeout time.Duration

	// PhraseLimit caps the length of a single utterance.
	PhraseLimit time.Duration

	// MaxSilence is the trailing-silence duration that ends the
	// utterance.
	MaxSilence time.Duration

	// PreRollMs of audio kept from before speech onset so leading
	// phonemes are not lost.
	PreRollMs int
}

// DefaultCaptureConfig mirrors the listen bounds used for command
// capture.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		ListenTimeout: 5 * time.Second,
		PhraseLimit:   10 * time.Second,
		MaxSilence:    700 * time.Millisecond,
		PreRollMs:     300,
	}
}

// UtteranceCapture records one utterance from the microphone: it waits
// for speech onset (VAD), collects audio until trailing silence or the
// phrase limit, then hands the window to the recognizer. It owns the
// microphone for the duration of a Capture call and must not run
// concurrently with the wake-word poll or the interruption monitor.
type UtteranceCapture struct {
	in       audio.Input
	detector vad.Detector
	rec      stt.Recognizer
	cfg      CaptureConfig
	preRoll  *audio.RingBuffer
	log      zerolog.Logger
}

// NewUtteranceCapture wires a capture pipeline over the given devices.
func NewUtteranceCapture(in audio.Input, detector vad.Detector, rec stt.Recognizer, cfg CaptureConfig) *UtteranceCapture {
	preRollMs := cfg.PreRollMs
	if preRollMs == 0 {
		preRollMs = 300
	}
	return &UtteranceCapture{
		in:       in,
		detector: detector,
		rec:      rec,
		cfg:      cfg,
		preRoll:  audio.NewRingBuffer(in.SampleRate(), preRollMs),
		log:      logging.Component("capture"),
	}
}

// Capture performs one bounded listen attempt. An empty string with a
// nil error means no speech was heard; the loop simply retries on its
// next tick. Only a dead input device is a real error.
func (c *UtteranceCapture) Capture(ctx context.Context) (string, error) {
	c.preRoll.Clear()
	c.detector.Reset()

	listenCtx, cancel := context.WithTimeout(ctx, c.cfg.ListenTimeout)
	defer cancel()

	// Phase 1: wait for speech onset, keeping a pre-roll of ambience.
	var utterance []byte
	for {
		frame, err := c.in.ReadFrame(listenCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, audio.ErrReadTimeout) {
				return "", nil // no speech within the listen window
			}
			if errors.Is(err, context.Canceled) {
				return "", nil
			}
			return "", err
		}

		if c.detector.IsSpeech(audio.BytesToInt16(frame.Data)) {
			utterance = append(utterance, c.preRoll.ReadAll()...)
			utterance = append(utterance, frame.Data...)
			break
		}
		c.preRoll.Write(frame.Data)
	}

	// Phase 2: collect until trailing silence or the phrase limit.
	phraseCtx, cancelPhrase := context.WithTimeout(ctx, c.cfg.PhraseLimit)
	defer cancelPhrase()

	var silence time.Duration
	for silence < c.cfg.MaxSilence {
		frame, err := c.in.ReadFrame(phraseCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, audio.ErrReadTimeout) ||
				errors.Is(err, context.Canceled) {
				break // phrase limit reached; transcribe what we have
			}
			return "", err
		}

		utterance = append(utterance, frame.Data...)
		if c.detector.IsSpeech(audio.BytesToInt16(frame.Data)) {
			silence = 0
		} else {
			silence += frame.Duration()
		}
	}

	// The listen deadline bounds audio collection, not transcription: a
	// barge-in that fills its whole window must still get a transcript,
	// so recognition runs on its own clock.
	recCtx, cancelRec := context.WithTimeout(context.WithoutCancel(ctx), recognizeTimeout)
	defer cancelRec()

	result, err := c.rec.Recognize(recCtx, utterance)
	if err != nil {
		// Transient: one failed transcription is retried on the next
		// tick, never propagated.
		c.log.Warn().Err(err).Msg("transcription failed")
		return "", nil
	}

	text := result.Text
	if text != "" {
		c.log.Info().Str("text", text).Msg("utterance recognized")
	}
	return text, nil
}
