package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasskit/glasskit/pkg/assistant"
	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/stt"
	"github.com/glasskit/glasskit/pkg/tts"
	"github.com/glasskit/glasskit/pkg/vad"
	"github.com/glasskit/glasskit/pkg/wakeword"
)

// testRig bundles the engine with its scriptable collaborators.
type testRig struct {
	engine    *Engine
	input     *audio.MockInput
	output    *audio.MockOutput
	tts       *tts.MockProvider
	stt       *stt.MockRecognizer
	vad       *vad.MockDetector
	assistant *assistant.MockAssistant
}

type rigOptions struct {
	frames       []audio.Frame
	vadAnswers   []bool
	transcripts  []string
	replies      []string
	sleepTimeout time.Duration
	camera       Camera
}

func newTestRig(t *testing.T, opts rigOptions) *testRig {
	t.Helper()

	input := &audio.MockInput{Frames: opts.frames}
	output := audio.NewMockOutput()
	ttsMock := &tts.MockProvider{PCMBytesPerCall: chunkBytes}
	sttMock := &stt.MockRecognizer{Transcripts: opts.transcripts}
	vadMock := vad.NewMockDetectorWithSequence(opts.vadAnswers)
	asst := &assistant.MockAssistant{Replies: opts.replies}

	wake, err := wakeword.NewEngine(wakeword.Config{Method: wakeword.MethodEnergy})
	require.NoError(t, err)

	capture := NewUtteranceCapture(input, vadMock, sttMock, testCaptureConfig())
	playback := NewPlaybackController(ttsMock, output)

	sleepTimeout := opts.sleepTimeout
	if sleepTimeout == 0 {
		sleepTimeout = time.Minute
	}

	e, err := New(Options{
		Input:        input,
		Wake:         wake,
		Capture:      capture,
		Playback:     playback,
		Assistant:    asst,
		Camera:       opts.camera,
		SleepTimeout: sleepTimeout,
	})
	require.NoError(t, err)

	return &testRig{
		engine:    e,
		input:     input,
		output:    output,
		tts:       ttsMock,
		stt:       sttMock,
		vad:       vadMock,
		assistant: asst,
	}
}

func silenceFrames(n int) []audio.Frame {
	frames := make([]audio.Frame, n)
	for i := range frames {
		frames[i] = pcmFrame(0, 512)
	}
	return frames
}

func loudFrame() audio.Frame {
	pcm := make([]int16, 512)
	for i := range pcm {
		pcm[i] = 16000
	}
	return audio.Frame{Data: audio.Int16ToBytes(pcm), SampleRate: 16000, Timestamp: time.Now()}
}

func TestNewRequiresInput(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, audio.ErrInputUnavailable)
}

// Scenario: silence while asleep produces no wake events.
func TestSleepStaysAsleepOnSilence(t *testing.T) {
	rig := newTestRig(t, rigOptions{})

	for i := 0; i < 150; i++ {
		require.NoError(t, rig.engine.tick(context.Background()))
	}

	assert.Equal(t, StateSleep, rig.engine.State())
	assert.Empty(t, rig.tts.Texts(), "no announcements while asleep")
}

// Scenario: a sudden loud burst triggers exactly one wake event and the
// transition to ACTIVE.
func TestWakeOnEnergySpike(t *testing.T) {
	frames := append(silenceFrames(4), loudFrame())
	rig := newTestRig(t, rigOptions{frames: frames})

	for i := 0; i < 5; i++ {
		require.NoError(t, rig.engine.tick(context.Background()))
	}

	assert.Equal(t, StateActive, rig.engine.State())
	assert.Equal(t, []string{announceWake}, rig.tts.Texts())
	assert.Less(t, rig.engine.clock.Elapsed(), time.Second, "wake must refresh the activity clock")
}

// Scenario: a captured utterance flows to the assistant and the reply
// is spoken; the loop stays ACTIVE.
func TestActiveUtteranceRoundTrip(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"what time is it"},
		replies:     []string{"it is noon"},
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	assert.Equal(t, []string{"what time is it"}, rig.assistant.Utterances())
	assert.Contains(t, rig.tts.Texts(), "it is noon")
	assert.NotEmpty(t, rig.output.Chunks())
	assert.Equal(t, StateActive, rig.engine.State())
}

// Scenario: mid-playback barge-in cancels the session before the new
// utterance reaches the assistant.
func TestBargeInCancelsPlaybackBeforeDispatch(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"stop"},
	})
	// Long first response so the monitor wins the race.
	rig.tts.PCMBytesPerCall = chunkBytes * 300

	playbackCancelled := atomic.Bool{}
	rig.assistant.ProcessFunc = func(ctx context.Context, text string) (string, error) {
		// By the time the barge-in text is dispatched, the prior
		// session must already be cancelled.
		playbackCancelled.Store(!rig.engine.playback.Speaking())
		rig.tts.PCMBytesPerCall = chunkBytes // short follow-up reply
		return "stopping", nil
	}

	rig.engine.setState(StateActive)
	rig.engine.clock.Touch()
	rig.engine.respond(context.Background(), "a very long story about nothing")

	assert.Equal(t, []string{"stop"}, rig.assistant.Utterances())
	assert.True(t, playbackCancelled.Load())
	assert.GreaterOrEqual(t, rig.output.Cancels(), 1)
}

// Scenario: inactivity past the timeout regresses to SLEEP with a
// farewell, exactly once.
func TestInactivityTimeoutSleepsOnce(t *testing.T) {
	rig := newTestRig(t, rigOptions{sleepTimeout: 10 * time.Millisecond})
	rig.engine.setState(StateActive)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, rig.engine.tick(context.Background()))
	assert.Equal(t, StateSleep, rig.engine.State())

	farewells := 0
	for _, text := range rig.tts.Texts() {
		if text == announceFarewell {
			farewells++
		}
	}
	assert.Equal(t, 1, farewells)

	// Further sleep ticks must not announce again.
	for i := 0; i < 10; i++ {
		require.NoError(t, rig.engine.tick(context.Background()))
	}
	assert.Equal(t, 1, len(rig.tts.Texts()))
}

// Scenario: an explicit sleep phrase bypasses the timeout.
func TestSleepPhraseForcesRegression(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"go to sleep"},
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	assert.Equal(t, StateSleep, rig.engine.State())
	assert.Equal(t, []string{announceFarewell}, rig.tts.Texts())
	assert.Empty(t, rig.assistant.Utterances(), "sleep phrases never reach the assistant")
	assert.Equal(t, 1, rig.assistant.Resets())
}

type fakeCamera struct {
	photos int32
	videos int32
	err    error
}

func (c *fakeCamera) TakePhoto(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	atomic.AddInt32(&c.photos, 1)
	return nil
}

func (c *fakeCamera) RecordVideo(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	atomic.AddInt32(&c.videos, 1)
	return nil
}

func TestPhotoCommand(t *testing.T) {
	cam := &fakeCamera{}
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"take a photo"},
		camera:      cam,
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	assert.Equal(t, int32(1), atomic.LoadInt32(&cam.photos))
	assert.Equal(t, []string{announcePhoto, announcePhotoOK}, rig.tts.Texts())
	assert.Empty(t, rig.assistant.Utterances())
	assert.Equal(t, StateActive, rig.engine.State())
}

func TestCameraFailureSpeaksError(t *testing.T) {
	cam := &fakeCamera{err: errors.New("lens is busy")}
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"take a photo"},
		camera:      cam,
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	assert.Equal(t, []string{announcePhoto, announceCamError}, rig.tts.Texts())
	assert.Equal(t, StateActive, rig.engine.State(), "a camera fault must not sleep the session")
}

func TestCameraCommandWithoutCamera(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"record video"},
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))
	assert.Contains(t, rig.tts.Texts(), announceCamError)
}

func TestShutdownCommandStopsEngine(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"please shutdown"},
	})
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	select {
	case <-rig.engine.stopped:
	default:
		t.Fatal("shutdown command must stop the engine")
	}
	assert.Contains(t, rig.tts.Texts(), announceShutdown)
}

// Assistant failures surface as a spoken apology and keep the loop
// ACTIVE with the activity clock refreshed.
func TestAssistantFailureSpeaksApology(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"tell me something"},
	})
	rig.assistant.Err = assert.AnError
	rig.engine.setState(StateActive)

	require.NoError(t, rig.engine.tick(context.Background()))

	assert.Contains(t, rig.tts.Texts(), assistant.Apology)
	assert.Equal(t, StateActive, rig.engine.State())
	assert.Less(t, rig.engine.clock.Elapsed(), time.Second)
}

func TestUpdateSettingsRebuildsWakeEngine(t *testing.T) {
	rig := newTestRig(t, rigOptions{})
	original := rig.engine.wake

	rig.engine.UpdateSettings(wakeword.Config{
		Method:      wakeword.MethodEnergy,
		Sensitivity: 0.9,
	})
	require.NoError(t, rig.engine.tick(context.Background()))

	assert.NotSame(t, original, rig.engine.wake)
	assert.Equal(t, 0.9, rig.engine.wake.Config().Sensitivity)
}

// guardInput fails the test if two consumers ever read concurrently.
type guardInput struct {
	inner    audio.Input
	inFlight atomic.Int32
	violated atomic.Bool
}

func (g *guardInput) ReadFrame(ctx context.Context) (audio.Frame, error) {
	if g.inFlight.Add(1) > 1 {
		g.violated.Store(true)
	}
	defer g.inFlight.Add(-1)
	return g.inner.ReadFrame(ctx)
}

func (g *guardInput) SampleRate() int { return g.inner.SampleRate() }
func (g *guardInput) Close() error    { return g.inner.Close() }

// The microphone has one consumer per phase: wake polling, capture, or
// the interruption monitor, never two at once.
func TestMicrophoneSingleConsumer(t *testing.T) {
	rig := newTestRig(t, rigOptions{
		vadAnswers:  []bool{true, false},
		transcripts: []string{"what time is it"},
		replies:     []string{"noon"},
	})

	guard := &guardInput{inner: rig.input}
	rig.engine.in = guard
	rig.engine.capture.in = guard
	rig.engine.setState(StateActive)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// First tick runs capture, dispatch, playback and the monitor;
		// the rest are empty capture attempts.
		for i := 0; i < 5; i++ {
			rig.engine.tick(context.Background())
		}
	}()
	wg.Wait()

	assert.False(t, guard.violated.Load(), "two microphone consumers ran concurrently")
}
