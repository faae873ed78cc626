package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/logging"
	"github.com/glasskit/glasskit/pkg/tts"
)

// PlaybackSession is one in-flight spoken response. Cancellation is
// terminal: a cancelled session never resumes.
type PlaybackSession struct {
	ID        uuid.UUID
	Text      string
	StartedAt time.Time

	cancelled atomic.Bool
	done      chan struct{}
}

// Cancelled reports whether the session was cancelled.
func (s *PlaybackSession) Cancelled() bool {
	return s.cancelled.Load()
}

// Done is closed when the playback worker has fully stopped, whether
// the session completed or was cancelled.
func (s *PlaybackSession) Done() <-chan struct{} {
	return s.done
}

const fadeOutMs = 20

// PlaybackController renders spoken responses. Speak is non-blocking;
// at most one session is alive at a time, enforced by cancelling any
// prior session before starting a new one.
type PlaybackController struct {
	provider tts.Provider
	out      audio.Output
	log      zerolog.Logger

	voice string
	speed float64

	mu      sync.Mutex
	session *PlaybackSession
}

// NewPlaybackController creates a controller for the given synthesis
// provider and output device.
func NewPlaybackController(provider tts.Provider, out audio.Output) *PlaybackController {
	return &PlaybackController{
		provider: provider,
		out:      out,
		log:      logging.Component("playback"),
	}
}

// SetVoice selects the synthesis voice and speed for subsequent
// sessions. Zero values keep the provider defaults.
func (p *PlaybackController) SetVoice(voice string, speed float64) {
	p.mu.Lock()
	p.voice = voice
	p.speed = speed
	p.mu.Unlock()
}

// Speak starts a new PlaybackSession and returns without waiting for
// completion. Any prior session is cancelled first.
func (p *PlaybackController) Speak(ctx context.Context, text string) *PlaybackSession {
	p.StopSpeaking()

	session := &PlaybackSession{
		ID:        uuid.New(),
		Text:      text,
		StartedAt: time.Now(),
		done:      make(chan struct{}),
	}

	p.mu.Lock()
	prev := p.session
	p.session = session
	p.mu.Unlock()

	go func() {
		defer close(session.done)
		// The previous worker must be gone before touching the output
		// device; only one writer is allowed.
		if prev != nil {
			<-prev.done
		}
		p.render(ctx, session)
	}()

	return session
}

// SpeakAndWait renders the text and blocks until playback finishes or
// the context is cancelled. Used for announcements.
func (p *PlaybackController) SpeakAndWait(ctx context.Context, text string) {
	session := p.Speak(ctx, text)
	select {
	case <-session.Done():
	case <-ctx.Done():
		p.StopSpeaking()
		<-session.Done()
	}
}

// StopSpeaking cancels the current session if one is alive. Returns
// whether a cancellation actually occurred.
func (p *PlaybackController) StopSpeaking() bool {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()

	if session == nil {
		return false
	}
	select {
	case <-session.done:
		return false
	default:
	}
	if session.cancelled.CompareAndSwap(false, true) {
		p.log.Debug().Str("session", session.ID.String()).Msg("playback cancelled")
		return true
	}
	return false
}

// Speaking reports whether a session is alive and un-cancelled.
func (p *PlaybackController) Speaking() bool {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()

	if session == nil || session.Cancelled() {
		return false
	}
	select {
	case <-session.done:
		return false
	default:
		return true
	}
}

// render synthesizes the text and feeds it to the output device one
// chunk per tick. Chunk boundaries are the cancellation checkpoints: a
// cancelled session emits no further audio past the current chunk.
func (p *PlaybackController) render(ctx context.Context, session *PlaybackSession) {
	p.mu.Lock()
	voice, speed := p.voice, p.speed
	p.mu.Unlock()

	resp, err := p.provider.Synthesize(ctx, &tts.SynthesizeRequest{
		Text:  session.Text,
		Voice: voice,
		Speed: speed,
	})
	if err != nil {
		p.log.Error().Err(err).Msg("synthesis failed")
		session.cancelled.Store(true)
		return
	}
	if session.Cancelled() {
		return
	}

	pacer := audio.NewPacer(resp.SampleRate)
	pacer.Write(resp.PCM)

	ticker := time.NewTicker(audio.ChunkDurationMs * time.Millisecond)
	defer ticker.Stop()

	for {
		if session.Cancelled() || ctx.Err() != nil {
			session.cancelled.Store(true)
			p.out.Cancel()
			// Emit a short faded tail so the cut is click-free, then stop.
			pacer.DiscardWithFadeOut(fadeOutMs)
			if tail := pacer.NextChunk(); tail != nil {
				p.out.PlayChunk(tail)
			}
			return
		}

		chunk := pacer.NextChunk()
		if chunk == nil {
			drainCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			p.out.Drain(drainCtx)
			cancel()
			return
		}

		if err := p.out.PlayChunk(chunk); err != nil {
			// Output backend failure ends the session as if cancelled;
			// the loop must not block on a dead speaker.
			p.log.Error().Err(err).Msg("audio output failed mid-speech")
			session.cancelled.Store(true)
			return
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
	}
}
