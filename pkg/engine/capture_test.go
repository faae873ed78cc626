package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/stt"
	"github.com/glasskit/glasskit/pkg/vad"
)

func testCaptureConfig() CaptureConfig {
	return CaptureConfig{
		ListenTimeout: 100 * time.Millisecond,
		PhraseLimit:   500 * time.Millisecond,
		MaxSilence:    64 * time.Millisecond, // two 32ms frames
		PreRollMs:     100,
	}
}

func pcmFrame(fill byte, samples int) audio.Frame {
	data := make([]byte, samples*audio.BytesPerSample)
	for i := range data {
		data[i] = fill
	}
	return audio.Frame{Data: data, SampleRate: 16000, Timestamp: time.Now()}
}

func TestCaptureNoSpeechReturnsEmpty(t *testing.T) {
	in := &audio.MockInput{}
	rec := &stt.MockRecognizer{Transcripts: []string{"should not be called"}}
	c := NewUtteranceCapture(in, vad.NewMockDetector(), rec, testCaptureConfig())

	start := time.Now()
	text, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Empty(t, text)
	assert.Zero(t, rec.Calls, "no transcription without speech")
	assert.Less(t, time.Since(start), time.Second, "listen must end at the timeout")
}

func TestCaptureRecognizesUtterance(t *testing.T) {
	in := &audio.MockInput{}
	detector := vad.NewMockDetectorWithSequence([]bool{true, true, true, false})
	rec := &stt.MockRecognizer{Transcripts: []string{"what time is it"}}
	c := NewUtteranceCapture(in, detector, rec, testCaptureConfig())

	text, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "what time is it", text)
	assert.Equal(t, 1, rec.Calls)
}

func TestCaptureIncludesPreRoll(t *testing.T) {
	// Two distinct ambience frames precede speech onset; their bytes
	// must appear at the front of the recognized window.
	in := &audio.MockInput{Frames: []audio.Frame{
		pcmFrame(0x11, 512),
		pcmFrame(0x22, 512),
		pcmFrame(0x33, 512),
	}}

	calls := 0
	detector := &vad.MockDetector{IsSpeechFunc: func(pcm []int16) bool {
		calls++
		return calls >= 3 && calls <= 4 // speech starts on the third frame
	}}

	var captured []byte
	rec := &stt.MockRecognizer{RecognizeFunc: func(ctx context.Context, pcm []byte) (*stt.Result, error) {
		captured = append([]byte{}, pcm...)
		return &stt.Result{Text: "hello", IsFinal: true}, nil
	}}

	c := NewUtteranceCapture(in, detector, rec, testCaptureConfig())
	text, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	require.NotEmpty(t, captured)
	assert.Equal(t, byte(0x11), captured[0], "pre-roll must lead the window")

	sawSpeechFrame := false
	for _, b := range captured {
		if b == 0x33 {
			sawSpeechFrame = true
			break
		}
	}
	assert.True(t, sawSpeechFrame, "onset frame must be in the window")
}

func TestCaptureEndsOnTrailingSilence(t *testing.T) {
	in := &audio.MockInput{}
	// One speech frame, then silence; capture must stop after
	// MaxSilence worth of silent frames, not run to the phrase limit.
	detector := vad.NewMockDetectorWithSequence([]bool{true, false})
	rec := &stt.MockRecognizer{Transcripts: []string{"ok"}}
	c := NewUtteranceCapture(in, detector, rec, testCaptureConfig())

	start := time.Now()
	text, err := c.Capture(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestCaptureTranscribesAfterListenDeadline(t *testing.T) {
	// A short per-listen deadline (the monitor uses one) ends audio
	// collection, but the collected speech must still reach the
	// recognizer on a live context.
	in := &audio.MockInput{}
	detector := vad.NewMockDetectorWithSequence([]bool{true})

	rec := &stt.MockRecognizer{RecognizeFunc: func(ctx context.Context, pcm []byte) (*stt.Result, error) {
		require.NoError(t, ctx.Err(), "recognition must not run on a dead context")
		return &stt.Result{Text: "stop", IsFinal: true}, nil
	}}
	c := NewUtteranceCapture(in, detector, rec, testCaptureConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	text, err := c.Capture(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stop", text)
}

func TestCaptureTranscriptionFailureIsTransient(t *testing.T) {
	in := &audio.MockInput{}
	detector := vad.NewMockDetectorWithSequence([]bool{true, false})
	rec := &stt.MockRecognizer{Err: &stt.Error{Code: stt.ErrCodeProviderError, Message: "api down"}}
	c := NewUtteranceCapture(in, detector, rec, testCaptureConfig())

	text, err := c.Capture(context.Background())
	require.NoError(t, err, "a failed transcription is retried next tick, not propagated")
	assert.Empty(t, text)
}

func TestCaptureDeadInputIsFatal(t *testing.T) {
	in := &audio.MockInput{}
	in.Close()
	c := NewUtteranceCapture(in, vad.NewMockDetector(), &stt.MockRecognizer{}, testCaptureConfig())

	_, err := c.Capture(context.Background())
	assert.ErrorIs(t, err, audio.ErrDeviceClosed)
}
