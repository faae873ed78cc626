// Package wakeword detects the configured wake phrase in a stream of
// audio frames. Three interchangeable strategies share one Detect
// contract: a keyword-spotting model, a streaming transcript scan, and
// an energy-threshold fallback. The Engine wraps the active strategy
// with refractory suppression and a construction-time fallback chain.
package wakeword

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/logging"
	"github.com/glasskit/glasskit/pkg/stt"
)

// Detection methods.
const (
	MethodModel     = "model"     // keyword-spotting model (Porcupine)
	MethodStreaming = "streaming" // streaming transcript scan
	MethodEnergy    = "energy"    // loudness spike, test-only
)

// DefaultRefractory is the window after a trigger during which the
// engine suppresses further events, so one loud phrase cannot fire twice.
const DefaultRefractory = 2 * time.Second

// Config selects and parameterizes a detection strategy. It is immutable
// after engine construction; changing sensitivity rebuilds the engine.
type Config struct {
	// Method is one of MethodModel, MethodStreaming, MethodEnergy.
	Method string

	// Keyword is the wake phrase (e.g., "hey glasses").
	Keyword string

	// Sensitivity in [0,1]. Only the spotting model uses it.
	Sensitivity float64

	// SampleRate of incoming frames in Hz.
	SampleRate int

	// FrameSize in samples. The spotting model overrides this with its
	// own required frame length.
	FrameSize int

	// AccessKey licenses the spotting model backend.
	AccessKey string
}

// Event is the boundary signal emitted when the wake phrase is heard.
type Event struct {
	// Keyword that was configured, not necessarily what was said.
	Keyword string

	// Strategy that fired.
	Strategy string

	// Timestamp of the detection.
	Timestamp time.Time
}

// Strategy examines one audio frame at a time and reports a trigger.
// Implementations are not safe for concurrent use; the engine is the
// only caller.
type Strategy interface {
	// Name returns the strategy's method name.
	Name() string

	// Detect consumes one frame and reports whether the wake phrase was
	// observed. Errors are per-frame and recoverable.
	Detect(frame audio.Frame) (bool, error)

	// FrameSize returns the required samples per frame, or 0 when any
	// size is accepted.
	FrameSize() int

	// Close releases backend resources.
	Close() error
}

// Engine wraps the active strategy with refractory suppression. A
// trigger within the refractory window of the previous one is dropped.
type Engine struct {
	cfg        Config
	strategy   Strategy
	refractory time.Duration
	lastFire   time.Time
	fellBack   bool
	streaming  stt.StreamingProvider
	now        func() time.Time
	log        zerolog.Logger
}

// Option customizes engine construction.
type Option func(*Engine)

// WithRefractory overrides the suppression window.
func WithRefractory(d time.Duration) Option {
	return func(e *Engine) { e.refractory = d }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithStreamingProvider supplies the transcription backend the
// streaming strategy needs.
func WithStreamingProvider(provider stt.StreamingProvider) Option {
	return func(e *Engine) { e.streaming = provider }
}

// NewEngine builds the configured strategy, falling back to the energy
// strategy when the preferred backend cannot be constructed. Startup
// never hard-fails on a wake backend: the chain ends at energy, which
// has no external dependencies.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Keyword == "" {
		cfg.Keyword = "hey glasses"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.FrameSize == 0 {
		cfg.FrameSize = 512
	}

	e := &Engine{
		cfg:        cfg,
		refractory: DefaultRefractory,
		now:        time.Now,
		log:        logging.Component("wakeword"),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, method := range fallbackChain(cfg.Method) {
		strategy, err := e.build(method)
		if err != nil {
			e.log.Warn().Err(err).Str("method", method).Msg("wake strategy unavailable")
			continue
		}
		if method != cfg.Method {
			e.fellBack = true
			e.log.Warn().
				Str("configured", cfg.Method).
				Str("active", method).
				Msg("wake backend degraded: detection now fires on any loud sound, not the keyword")
		}
		e.strategy = strategy
		e.log.Info().Str("method", method).Str("keyword", cfg.Keyword).Msg("wake word engine ready")
		return e, nil
	}

	// Unreachable in practice: the energy strategy cannot fail.
	return nil, fmt.Errorf("no wake strategy could be constructed")
}

// fallbackChain returns the ordered constructor list for a method.
func fallbackChain(method string) []string {
	switch method {
	case MethodModel, MethodStreaming:
		return []string{method, MethodEnergy}
	case MethodEnergy, "":
		return []string{MethodEnergy}
	default:
		return []string{MethodEnergy}
	}
}

func (e *Engine) build(method string) (Strategy, error) {
	switch method {
	case MethodModel:
		return NewModelStrategy(e.cfg.AccessKey, e.cfg.Keyword, e.cfg.Sensitivity)
	case MethodStreaming:
		if e.streaming == nil {
			return nil, fmt.Errorf("streaming strategy requires a transcription backend")
		}
		return NewTranscriptStrategy(e.cfg.Keyword, e.streaming)
	case MethodEnergy:
		return NewEnergyStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown wake method %q", method)
	}
}

// Detect feeds one frame to the active strategy. It returns a non-nil
// event at most once per refractory window.
func (e *Engine) Detect(frame audio.Frame) (*Event, error) {
	fired, err := e.strategy.Detect(frame)
	if err != nil {
		return nil, err
	}
	if !fired {
		return nil, nil
	}

	now := e.now()
	if !e.lastFire.IsZero() && now.Sub(e.lastFire) < e.refractory {
		e.log.Debug().Msg("wake trigger suppressed inside refractory window")
		return nil, nil
	}
	e.lastFire = now

	return &Event{
		Keyword:   e.cfg.Keyword,
		Strategy:  e.strategy.Name(),
		Timestamp: now,
	}, nil
}

// Method returns the active strategy's method name, which differs from
// the configured one after a fallback.
func (e *Engine) Method() string {
	return e.strategy.Name()
}

// FellBack reports whether the engine substituted the energy strategy.
func (e *Engine) FellBack() bool {
	return e.fellBack
}

// FrameSize returns the frame length the capture loop must honor.
func (e *Engine) FrameSize() int {
	if n := e.strategy.FrameSize(); n > 0 {
		return n
	}
	return e.cfg.FrameSize
}

// SampleRate returns the rate frames must be captured at.
func (e *Engine) SampleRate() int {
	return e.cfg.SampleRate
}

// Config returns the snapshot the engine was built from.
func (e *Engine) Config() Config {
	return e.cfg
}

// Close releases the active strategy.
func (e *Engine) Close() error {
	return e.strategy.Close()
}
