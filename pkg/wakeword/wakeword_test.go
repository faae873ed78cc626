package wakeword

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/stt"
)

// makeFrame builds a frame of constant-amplitude samples.
func makeFrame(amplitude int16, samples int) audio.Frame {
	pcm := make([]int16, samples)
	for i := range pcm {
		pcm[i] = amplitude
	}
	return audio.Frame{
		Data:       audio.Int16ToBytes(pcm),
		SampleRate: 16000,
		Timestamp:  time.Now(),
	}
}

func TestEnergyStrategySilenceNeverTriggers(t *testing.T) {
	s := NewEnergyStrategy()

	for i := 0; i < 100; i++ {
		fired, err := s.Detect(makeFrame(0, 512))
		require.NoError(t, err)
		assert.False(t, fired)
	}
}

func TestEnergyStrategyQuietSpeechBelowFloor(t *testing.T) {
	s := NewEnergyStrategy()

	// Amplitude 1000 is a clear spike over silence but under the
	// absolute floor, so it must not trigger.
	for i := 0; i < 4; i++ {
		s.Detect(makeFrame(0, 512))
	}
	fired, err := s.Detect(makeFrame(1000, 512))
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEnergyStrategySingleTriggerPerBurst(t *testing.T) {
	s := NewEnergyStrategy()

	// Ambient silence, then one sustained loud burst.
	for i := 0; i < 4; i++ {
		fired, err := s.Detect(makeFrame(0, 512))
		require.NoError(t, err)
		require.False(t, fired)
	}

	triggers := 0
	for i := 0; i < 10; i++ {
		fired, err := s.Detect(makeFrame(16000, 512))
		require.NoError(t, err)
		if fired {
			triggers++
		}
	}
	assert.Equal(t, 1, triggers, "one burst must yield exactly one trigger")
}

func TestEnergyStrategyRetriggersAfterQuiet(t *testing.T) {
	s := NewEnergyStrategy()

	trigger := func() bool {
		for i := 0; i < 4; i++ {
			s.Detect(makeFrame(0, 512))
		}
		fired, err := s.Detect(makeFrame(16000, 512))
		require.NoError(t, err)
		return fired
	}

	assert.True(t, trigger())
	assert.True(t, trigger(), "a second spike after ambient quiet must trigger again")
}

func TestEngineRefractorySuppression(t *testing.T) {
	now := time.Unix(1000, 0)
	clock := func() time.Time { return now }

	e, err := NewEngine(Config{Method: MethodEnergy}, WithClock(clock))
	require.NoError(t, err)
	e.strategy = &MockStrategy{Answers: []bool{true}}

	ev, err := e.Detect(makeFrame(0, 512))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "hey glasses", ev.Keyword)

	// Inside the refractory window the strategy's trigger is dropped.
	now = now.Add(1 * time.Second)
	ev, err = e.Detect(makeFrame(0, 512))
	require.NoError(t, err)
	assert.Nil(t, ev)

	// After the window it fires again.
	now = now.Add(2 * time.Second)
	ev, err = e.Detect(makeFrame(0, 512))
	require.NoError(t, err)
	assert.NotNil(t, ev)
}

func TestEngineFallsBackToEnergyWhenModelUnavailable(t *testing.T) {
	// Without the porcupine build tag the model constructor always
	// fails; the engine must come up on the energy strategy.
	e, err := NewEngine(Config{
		Method:      MethodModel,
		Keyword:     "hey glasses",
		Sensitivity: 0.5,
	})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, MethodEnergy, e.Method())
	assert.True(t, e.FellBack())
}

func TestEngineUnknownMethodFallsBack(t *testing.T) {
	// Config validation lets unrecognized methods through; startup must
	// still come up on the energy strategy rather than fail.
	e, err := NewEngine(Config{Method: "vosk", Keyword: "hey glasses"})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, MethodEnergy, e.Method())
	assert.True(t, e.FellBack())
}

func TestEngineStreamingRequiresProvider(t *testing.T) {
	e, err := NewEngine(Config{Method: MethodStreaming})
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, MethodEnergy, e.Method())
	assert.True(t, e.FellBack())
}

type fakeStreamingProvider struct {
	stream *stt.MockStream
}

func (f *fakeStreamingProvider) Name() string { return "fake" }

func (f *fakeStreamingProvider) Recognize(ctx context.Context, pcm []byte) (*stt.Result, error) {
	return &stt.Result{IsFinal: true}, nil
}

func (f *fakeStreamingProvider) OpenStream(ctx context.Context) (stt.TranscriptStream, error) {
	return f.stream, nil
}

func (f *fakeStreamingProvider) Close() error { return nil }

func TestTranscriptStrategyMatchesKeyword(t *testing.T) {
	provider := &fakeStreamingProvider{stream: stt.NewMockStream()}

	s, err := NewTranscriptStrategy("Hey Glasses", provider)
	require.NoError(t, err)
	defer s.Close()

	fired, err := s.Detect(makeFrame(0, 512))
	require.NoError(t, err)
	assert.False(t, fired)

	provider.stream.Emit("well, hey, glasses! what's up", false)

	require.Eventually(t, func() bool {
		fired, err := s.Detect(makeFrame(0, 512))
		require.NoError(t, err)
		return fired
	}, time.Second, 10*time.Millisecond)

	// The match is consumed once.
	fired, err = s.Detect(makeFrame(0, 512))
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestNormalizePhrase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hey, Glasses!", "hey glasses"},
		{"  go   to sleep.  ", "go to sleep"},
		{"STOP", "stop"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizePhrase(tt.in))
	}
}
