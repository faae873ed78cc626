package stt

import (
	"context"
	"time"

	azureaudio "github.com/Microsoft/cognitive-services-speech-sdk-go/audio"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/common"
	"github.com/Microsoft/cognitive-services-speech-sdk-go/speech"
)

const (
	azureSilenceTimeoutMs        = "700"
	azureInitialSilenceTimeoutMs = "5000"
)

// AzureRecognizer implements Recognizer using the Azure Speech SDK.
// Each Recognize call opens a push stream, feeds the buffered utterance
// and waits for the first final recognition.
type AzureRecognizer struct {
	subscriptionKey string
	region          string
	language        string
	audioConfig     AudioConfig
}

// NewAzureRecognizer creates an Azure-backed recognizer. The audio config
// must be 16kHz mono, the only format the default push stream accepts.
func NewAzureRecognizer(subscriptionKey, region, language string, audioConfig AudioConfig) (*AzureRecognizer, error) {
	if subscriptionKey == "" || region == "" {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "Azure Speech credentials not set",
		}
	}
	if audioConfig.SampleRate != 16000 || audioConfig.Channels != 1 {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "Azure push stream requires 16kHz mono audio",
		}
	}
	if language == "" {
		language = "en-US"
	}
	return &AzureRecognizer{
		subscriptionKey: subscriptionKey,
		region:          region,
		language:        language,
		audioConfig:     audioConfig,
	}, nil
}

// Name returns the provider name.
func (a *AzureRecognizer) Name() string {
	return "azure"
}

// Recognize transcribes a complete PCM segment.
func (a *AzureRecognizer) Recognize(ctx context.Context, pcm []byte) (*Result, error) {
	if len(pcm) == 0 {
		return nil, &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "audio data is empty",
		}
	}

	// Default push stream format is 16kHz 16-bit mono.
	pushStream, err := azureaudio.CreatePushAudioInputStream()
	if err != nil {
		return nil, &Error{Code: ErrCodeProviderError, Message: "failed to create push stream", Err: err}
	}
	defer pushStream.Close()

	streamConfig, err := azureaudio.NewAudioConfigFromStreamInput(pushStream)
	if err != nil {
		return nil, &Error{Code: ErrCodeProviderError, Message: "failed to create audio config", Err: err}
	}
	defer streamConfig.Close()

	speechConfig, err := speech.NewSpeechConfigFromSubscription(a.subscriptionKey, a.region)
	if err != nil {
		return nil, &Error{Code: ErrCodeAuthenticationFailed, Message: "failed to create speech config", Err: err}
	}
	defer speechConfig.Close()

	speechConfig.SetSpeechRecognitionLanguage(a.language)
	speechConfig.SetProperty(common.SegmentationSilenceTimeoutMs, azureSilenceTimeoutMs)
	speechConfig.SetProperty(common.ConversationInitialSilenceTimeout, azureInitialSilenceTimeoutMs)

	recognizer, err := speech.NewSpeechRecognizerFromConfig(speechConfig, streamConfig)
	if err != nil {
		return nil, &Error{Code: ErrCodeProviderError, Message: "failed to create recognizer", Err: err}
	}
	defer recognizer.Close()

	if err := pushStream.Write(pcm); err != nil {
		return nil, &Error{Code: ErrCodeInvalidAudio, Message: "failed to write audio data", Err: err}
	}
	pushStream.CloseStream()

	start := time.Now()
	outcomeChan := recognizer.RecognizeOnceAsync()
	select {
	case outcome := <-outcomeChan:
		defer outcome.Close()
		if outcome.Error != nil {
			return nil, &Error{Code: ErrCodeProviderError, Message: "recognition failed", Err: outcome.Error}
		}
		if outcome.Result.Reason != common.RecognizedSpeech {
			// No speech in the segment; treat as an empty transcript.
			return &Result{
				Text:       "",
				IsFinal:    true,
				Confidence: -1,
				Language:   a.language,
				Duration:   time.Since(start),
				Timestamp:  time.Now(),
			}, nil
		}
		return &Result{
			Text:       outcome.Result.Text,
			IsFinal:    true,
			Confidence: -1,
			Language:   a.language,
			Duration:   time.Since(start),
			Timestamp:  time.Now(),
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases any resources held by the recognizer.
func (a *AzureRecognizer) Close() error {
	return nil
}

var _ Recognizer = (*AzureRecognizer)(nil)
