// Package assistant wraps the conversational backends the control loop
// dispatches recognized utterances to. An assistant receives the user's
// text and returns the text to speak back.
package assistant

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/logging"
)

// DefaultSystemPrompt keeps answers short enough to be spoken.
const DefaultSystemPrompt = "You are a voice assistant running on smart glasses. " +
	"Answer in one or two short spoken sentences. Never use markdown or lists."

// Apology is spoken when the backend fails.
const Apology = "Sorry, I had trouble with that. Please try again."

// Assistant processes one user utterance and returns the reply text.
type Assistant interface {
	// Name returns the backend name (e.g., "openai", "gemini").
	Name() string

	// Process handles one utterance. Implementations may keep
	// conversation history between calls.
	Process(ctx context.Context, text string) (string, error)

	// Reset drops any accumulated conversation history.
	Reset()
}

// Resilient wraps an Assistant so a backend failure becomes a spoken
// apology instead of an error. The control loop never sees assistant
// errors; a failed turn still counts as activity.
type Resilient struct {
	inner Assistant
	log   zerolog.Logger
}

// NewResilient wraps an assistant with apology-on-failure semantics.
func NewResilient(inner Assistant) *Resilient {
	return &Resilient{
		inner: inner,
		log:   logging.Component("assistant"),
	}
}

// Name returns the wrapped backend's name.
func (r *Resilient) Name() string {
	return r.inner.Name()
}

// Process never fails: backend errors are logged and replaced with a
// short apology the user can hear.
func (r *Resilient) Process(ctx context.Context, text string) (string, error) {
	reply, err := r.inner.Process(ctx, text)
	if err != nil {
		r.log.Error().Err(err).Str("backend", r.inner.Name()).Msg("assistant call failed")
		return Apology, nil
	}
	if reply == "" {
		return Apology, nil
	}
	return reply, nil
}

// Reset drops the wrapped assistant's history.
func (r *Resilient) Reset() {
	r.inner.Reset()
}

var _ Assistant = (*Resilient)(nil)
