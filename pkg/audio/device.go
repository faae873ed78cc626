package audio

import (
	"context"
	"errors"
)

// Common device errors.
var (
	// ErrInputUnavailable means the capture device could not be opened.
	// This is fatal for the engine: it cannot operate without a microphone.
	ErrInputUnavailable = errors.New("audio input device unavailable")
	// ErrOutputUnavailable means the playback device could not be opened.
	ErrOutputUnavailable = errors.New("audio output device unavailable")
	// ErrReadTimeout is returned by ReadFrame when no frame arrived within
	// the context deadline.
	ErrReadTimeout = errors.New("audio read timed out")
	// ErrDeviceClosed is returned after Close.
	ErrDeviceClosed = errors.New("audio device closed")
)

// Input is the microphone abstraction.
//
// The engine guarantees the stream has exactly one active consumer at any
// instant (wake polling, utterance capture, or the interruption monitor),
// so implementations do not need to multiplex readers.
type Input interface {
	// ReadFrame returns the next captured frame, blocking until one is
	// available or ctx expires (ErrReadTimeout).
	ReadFrame(ctx context.Context) (Frame, error)

	// SampleRate returns the capture sample rate in Hz.
	SampleRate() int

	// Close releases the device.
	Close() error
}

// Output is the speaker abstraction beneath the playback controller.
type Output interface {
	// PlayChunk queues one chunk of 16-bit mono PCM for rendering. It
	// returns once the chunk is accepted, not once it is audible.
	PlayChunk(pcm []byte) error

	// Cancel drops any queued, not-yet-rendered audio.
	Cancel()

	// Drain blocks until queued audio has been rendered or ctx expires.
	Drain(ctx context.Context) error

	// Close releases the device.
	Close() error
}
