package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys used throughout the application
const (
	// Session attributes
	AttrSessionState = "session.state"
	AttrTurnID       = "turn.id"

	// Wake word attributes
	AttrWakeStrategy = "wake.strategy"
	AttrWakeKeyword  = "wake.keyword"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioChannels   = "audio.channels"
	AttrAudioDataSize   = "audio.data_size"

	// Utterance attributes
	AttrUtteranceLength = "utterance.length"

	// Provider attributes
	AttrSTTProvider = "stt.provider"
	AttrTTSProvider = "tts.provider"
	AttrLLMProvider = "llm.provider"
	AttrLLMModel    = "llm.model"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// AudioAttrs creates attributes for audio data
func AudioAttrs(sampleRate, channels, dataSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioChannels, channels),
		attribute.Int(AttrAudioDataSize, dataSize),
	}
}

// LLMAttrs creates attributes for assistant calls
func LLMAttrs(provider, model string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrLLMProvider, provider),
		attribute.String(AttrLLMModel, model),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(errType, errMsg string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, errMsg),
	}
}
