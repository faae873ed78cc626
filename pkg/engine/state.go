// Package engine runs the voice-interaction control loop: wake-word
// polling while asleep, utterance capture and assistant dispatch while
// active, and interruptible playback of spoken responses.
package engine

// SessionState is the control loop's current mode. It is owned
// exclusively by the loop; collaborators react to it but never mutate
// it.
type SessionState int

const (
	// StateSleep is the initial mode: only the wake-word engine
	// consumes the microphone.
	StateSleep SessionState = iota

	// StateActive is the conversation mode: utterance capture and the
	// interruption monitor take turns on the microphone.
	StateActive
)

func (s SessionState) String() string {
	switch s {
	case StateSleep:
		return "SLEEP"
	case StateActive:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}
