package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/glasskit/glasskit/pkg/assistant"
	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/logging"
	"github.com/glasskit/glasskit/pkg/trace"
	"github.com/glasskit/glasskit/pkg/wakeword"
)

// Spoken announcements. Short enough that playback finishes before the
// next tick matters.
const (
	announceReady    = "Glasses ready."
	announceWake     = "Yes?"
	announceFarewell = "Going to sleep."
	announcePhoto    = "Taking photo."
	announcePhotoOK  = "Photo saved."
	announceVideo    = "Recording video."
	announceVideoOK  = "Video saved."
	announceShutdown = "Shutting down."
	announceCamError = "Sorry, the camera is not responding."
)

// DefaultSleepTimeout is how long ACTIVE persists without activity.
const DefaultSleepTimeout = 60 * time.Second

// WakeBuilder constructs a wake-word engine from a config snapshot.
// Settings updates rebuild through the same builder.
type WakeBuilder func(cfg wakeword.Config) (*wakeword.Engine, error)

// Options wires the control loop's collaborators.
type Options struct {
	// Input is the microphone. Required; the loop cannot run without it.
	Input audio.Input

	// Wake detects the wake phrase while asleep. Required.
	Wake *wakeword.Engine

	// Capture records and transcribes utterances while active. Required.
	Capture *UtteranceCapture

	// Playback renders spoken responses. Required.
	Playback *PlaybackController

	// Assistant handles recognized utterances. Wrapped so its failures
	// become spoken apologies. Required.
	Assistant assistant.Assistant

	// Monitor listens for barge-in during playback. Defaults to one
	// built over Capture.
	Monitor *InterruptionMonitor

	// Camera backs photo and video commands. Optional; without it the
	// commands report a camera error.
	Camera Camera

	// SleepTimeout overrides DefaultSleepTimeout.
	SleepTimeout time.Duration

	// WakeBuilder rebuilds the wake engine on settings updates.
	// Defaults to wakeword.NewEngine.
	WakeBuilder WakeBuilder
}

// Engine owns the SLEEP/ACTIVE state machine and drives one tick at a
// time. State is mutated only from the Run goroutine.
type Engine struct {
	in        audio.Input
	wake      *wakeword.Engine
	capture   *UtteranceCapture
	monitor   *InterruptionMonitor
	playback  *PlaybackController
	assistant assistant.Assistant
	camera    Camera

	sleepTimeout time.Duration
	wakeBuilder  WakeBuilder
	clock        *ActivityClock
	log          zerolog.Logger

	mu          sync.Mutex
	state       SessionState
	pendingWake *wakeword.Config

	stopOnce sync.Once
	stopped  chan struct{}
}

// New validates the wiring and creates a stopped engine in SLEEP.
func New(opts Options) (*Engine, error) {
	if opts.Input == nil {
		return nil, fmt.Errorf("engine: %w", audio.ErrInputUnavailable)
	}
	if opts.Wake == nil || opts.Capture == nil || opts.Playback == nil || opts.Assistant == nil {
		return nil, fmt.Errorf("engine: missing collaborator")
	}

	monitor := opts.Monitor
	if monitor == nil {
		monitor = NewInterruptionMonitor(opts.Capture)
	}
	sleepTimeout := opts.SleepTimeout
	if sleepTimeout == 0 {
		sleepTimeout = DefaultSleepTimeout
	}
	builder := opts.WakeBuilder
	if builder == nil {
		builder = func(cfg wakeword.Config) (*wakeword.Engine, error) {
			return wakeword.NewEngine(cfg)
		}
	}

	return &Engine{
		in:           opts.Input,
		wake:         opts.Wake,
		capture:      opts.Capture,
		monitor:      monitor,
		playback:     opts.Playback,
		assistant:    assistant.NewResilient(opts.Assistant),
		camera:       opts.Camera,
		sleepTimeout: sleepTimeout,
		wakeBuilder:  builder,
		clock:        NewActivityClock(),
		log:          logging.Component("engine"),
		state:        StateSleep,
		stopped:      make(chan struct{}),
	}, nil
}

// State returns the current session state.
func (e *Engine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s SessionState) {
	e.mu.Lock()
	prev := e.state
	e.state = s
	e.mu.Unlock()
	if prev != s {
		e.log.Info().Stringer("from", prev).Stringer("to", s).Msg("state transition")
	}
}

// Stop asks the loop to exit after the current tick.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopped) })
}

// UpdateSettings schedules a wake-engine rebuild from a new immutable
// config snapshot. Applied at the top of the next tick, never mid-frame.
func (e *Engine) UpdateSettings(cfg wakeword.Config) {
	e.mu.Lock()
	e.pendingWake = &cfg
	e.mu.Unlock()
	e.log.Info().Float64("sensitivity", cfg.Sensitivity).Str("method", cfg.Method).Msg("settings update scheduled")
}

// Run drives the loop until the context ends, Stop is called, or the
// input device dies. Only a dead microphone is a fatal error.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info().Str("wake_method", e.wake.Method()).Msg("control loop starting")
	e.playback.SpeakAndWait(ctx, announceReady)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.stopped:
			return nil
		default:
		}

		if err := e.tick(ctx); err != nil {
			if isFatal(err) {
				e.log.Error().Err(err).Msg("audio input lost, shutting down")
				return err
			}
			// Transient: no tick failure escapes the loop.
			e.log.Warn().Err(err).Msg("tick failed")
		}
	}
}

func isFatal(err error) bool {
	return errors.Is(err, audio.ErrDeviceClosed) || errors.Is(err, audio.ErrInputUnavailable)
}

// tick runs one iteration of the state machine.
func (e *Engine) tick(ctx context.Context) error {
	e.applyPendingSettings()

	switch e.State() {
	case StateSleep:
		return e.tickSleep(ctx)
	case StateActive:
		return e.tickActive(ctx)
	default:
		return nil
	}
}

func (e *Engine) applyPendingSettings() {
	e.mu.Lock()
	pending := e.pendingWake
	e.pendingWake = nil
	e.mu.Unlock()
	if pending == nil {
		return
	}

	rebuilt, err := e.wakeBuilder(*pending)
	if err != nil {
		e.log.Error().Err(err).Msg("wake engine rebuild failed, keeping previous")
		return
	}
	e.wake.Close()
	e.wake = rebuilt
	e.log.Info().Str("method", rebuilt.Method()).Msg("wake engine rebuilt")
}

// tickSleep polls the wake-word engine with one frame.
func (e *Engine) tickSleep(ctx context.Context) error {
	frame, err := e.in.ReadFrame(ctx)
	if err != nil {
		if errors.Is(err, audio.ErrReadTimeout) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	event, err := e.wake.Detect(frame)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}

	_, span := trace.StartSpan(ctx, "session.wake")
	span.SetAttributes(
		attribute.String(trace.AttrWakeStrategy, event.Strategy),
		attribute.String(trace.AttrWakeKeyword, event.Keyword),
	)
	span.End()

	e.log.Info().Str("strategy", event.Strategy).Msg("wake word detected")
	e.clock.Touch()
	e.setState(StateActive)
	e.playback.SpeakAndWait(ctx, announceWake)
	return nil
}

// tickActive checks the inactivity timeout, then runs one bounded
// capture attempt.
func (e *Engine) tickActive(ctx context.Context) error {
	if e.clock.Elapsed() > e.sleepTimeout {
		e.goToSleep(ctx)
		return nil
	}

	text, err := e.capture.Capture(ctx)
	if err != nil {
		return err
	}
	if text == "" {
		// No speech this tick; activity clock deliberately untouched.
		return nil
	}

	e.handleUtterance(ctx, text)
	return nil
}

// goToSleep announces the farewell and regresses to SLEEP. Runs at most
// once per ACTIVE period: the state flips before the announcement.
func (e *Engine) goToSleep(ctx context.Context) {
	e.setState(StateSleep)
	e.assistant.Reset()
	e.playback.SpeakAndWait(ctx, announceFarewell)
}

// handleUtterance processes one recognized utterance: special commands
// first, then the assistant. Every utterance counts as activity.
func (e *Engine) handleUtterance(ctx context.Context, text string) {
	e.clock.Touch()

	ctx, span := trace.StartSpan(ctx, "assistant.turn")
	defer span.End()
	span.SetAttributes(attribute.Int(trace.AttrUtteranceLength, len(text)))

	switch parseCommand(text) {
	case cmdSleep:
		trace.AddEvent(span, "sleep.phrase")
		e.goToSleep(ctx)
		return

	case cmdPhoto:
		trace.AddEvent(span, "command.photo")
		e.playback.SpeakAndWait(ctx, announcePhoto)
		e.runCameraCommand(ctx, func(c Camera) error { return c.TakePhoto(ctx) }, announcePhotoOK)
		return

	case cmdVideo:
		trace.AddEvent(span, "command.video")
		e.playback.SpeakAndWait(ctx, announceVideo)
		e.runCameraCommand(ctx, func(c Camera) error { return c.RecordVideo(ctx) }, announceVideoOK)
		return

	case cmdShutdown:
		trace.AddEvent(span, "command.shutdown")
		e.playback.SpeakAndWait(ctx, announceShutdown)
		e.Stop()
		return
	}

	reply, _ := e.assistant.Process(ctx, text) // Resilient: never errors
	e.respond(ctx, reply)
}

func (e *Engine) runCameraCommand(ctx context.Context, fn func(Camera) error, confirmation string) {
	if e.camera == nil {
		e.playback.SpeakAndWait(ctx, announceCamError)
		return
	}
	if err := fn(e.camera); err != nil {
		trace.RecordError(trace.SpanFromContext(ctx), err)
		e.log.Error().Err(err).Msg("camera command failed")
		e.playback.SpeakAndWait(ctx, announceCamError)
		return
	}
	e.playback.SpeakAndWait(ctx, confirmation)
}

// respond speaks the reply while the interruption monitor listens for
// barge-in. Both workers are joined before the method returns, so no
// response cycle leaves a dangling goroutine.
func (e *Engine) respond(ctx context.Context, reply string) {
	session := e.playback.Speak(ctx, reply)

	monCtx, cancelMonitor := context.WithCancel(ctx)
	interrupts := e.monitor.Watch(monCtx, session)

	var next string
	select {
	case text, ok := <-interrupts:
		if ok && text != "" {
			// Barge-in: cancel playback before the new utterance is
			// dispatched anywhere.
			stopped := e.playback.StopSpeaking()
			e.log.Info().Bool("stopped", stopped).Msg("playback interrupted by speech")
			next = text
		}
	case <-session.Done():
	}

	cancelMonitor()
	<-session.Done()
	for range interrupts {
	}

	if next != "" {
		e.handleUtterance(ctx, next)
	}
}
