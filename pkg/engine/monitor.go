package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/logging"
)

// monitorListenTimeout bounds each listen attempt so cancellation
// propagates promptly; the monitor must never block past playback.
const monitorListenTimeout = 1500 * time.Millisecond

// InterruptionMonitor listens for barge-in speech while a response is
// being played. It owns the microphone for the playback phase.
type InterruptionMonitor struct {
	capture *UtteranceCapture
	log     zerolog.Logger
}

// NewInterruptionMonitor wraps an utterance capture with short listen
// bounds suitable for running alongside playback.
func NewInterruptionMonitor(capture *UtteranceCapture) *InterruptionMonitor {
	return &InterruptionMonitor{
		capture: capture,
		log:     logging.Component("monitor"),
	}
}

// Watch runs bounded listen attempts until the session ends or the
// context is cancelled. The returned channel delivers at most one
// recognized utterance and is closed when the monitor stops, so the
// caller can join on it.
func (m *InterruptionMonitor) Watch(ctx context.Context, session *PlaybackSession) <-chan string {
	out := make(chan string, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-session.Done():
				return
			default:
			}

			listenCtx, cancel := context.WithTimeout(ctx, monitorListenTimeout)
			text, err := m.capture.Capture(listenCtx)
			cancel()
			if err != nil {
				m.log.Warn().Err(err).Msg("barge-in listen failed")
				return
			}
			if text != "" {
				m.log.Info().Str("text", text).Msg("barge-in detected")
				out <- text
				return
			}
		}
	}()

	return out
}
