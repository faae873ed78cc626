package stt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/glasskit/glasskit/pkg/logging"
)

const (
	scribeRealtimeWSURL = "wss://api.elevenlabs.io/v1/speech-to-text/realtime"
	scribeDefaultModel  = "scribe_v2_realtime"

	// Scribe only accepts 16kHz mono.
	scribeRequiredSampleRate = 16000

	scribeMaxRetryAttempts  = 3
	scribeInitialRetryDelay = 1 * time.Second
	scribeMaxRetryDelay     = 4 * time.Second
	scribeConnectTimeout    = 10 * time.Second
)

// ScribeRecognizer implements StreamingProvider using the ElevenLabs
// Scribe realtime API over WebSocket. The streaming path backs the
// transcript wake-word strategy; batch recognition is served by opening
// a short-lived stream and committing once.
type ScribeRecognizer struct {
	apiKey      string
	model       string
	language    string
	audioConfig AudioConfig
	log         zerolog.Logger
}

// NewScribeRecognizer creates an ElevenLabs Scribe recognizer.
func NewScribeRecognizer(apiKey, language string, audioConfig AudioConfig) (*ScribeRecognizer, error) {
	if apiKey == "" {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: "ElevenLabs API key is required",
		}
	}
	if audioConfig.SampleRate != scribeRequiredSampleRate {
		return nil, &Error{
			Code:    ErrCodeInvalidConfig,
			Message: fmt.Sprintf("Scribe requires 16kHz sample rate, got %dHz", audioConfig.SampleRate),
		}
	}
	return &ScribeRecognizer{
		apiKey:      apiKey,
		model:       scribeDefaultModel,
		language:    language,
		audioConfig: audioConfig,
		log:         logging.Component("stt.scribe"),
	}, nil
}

// Name returns the provider name.
func (s *ScribeRecognizer) Name() string {
	return "elevenlabs-scribe"
}

// Recognize transcribes a complete PCM segment by streaming it and
// committing immediately.
func (s *ScribeRecognizer) Recognize(ctx context.Context, pcm []byte) (*Result, error) {
	if len(pcm) == 0 {
		return nil, &Error{
			Code:    ErrCodeInvalidAudio,
			Message: "audio data is empty",
		}
	}

	stream, err := s.OpenStream(ctx)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.SendAudio(ctx, pcm); err != nil {
		return nil, err
	}
	if err := stream.(*scribeStream).Commit(ctx); err != nil {
		return nil, err
	}

	timeout := time.After(30 * time.Second)
	for {
		select {
		case result, ok := <-stream.Results():
			if !ok {
				return emptyResult(s.language), nil
			}
			if result.IsFinal {
				return result, nil
			}
		case <-timeout:
			return emptyResult(s.language), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// OpenStream starts a continuous transcription session.
func (s *ScribeRecognizer) OpenStream(ctx context.Context) (TranscriptStream, error) {
	stream := &scribeStream{
		provider:    s,
		resultsChan: make(chan *Result, 10),
		sendChan:    make(chan []byte, 100),
		commitChan:  make(chan struct{}, 1),
		log:         s.log,
	}
	if err := stream.connect(ctx); err != nil {
		return nil, err
	}
	return stream, nil
}

// Close releases any resources held by the recognizer.
func (s *ScribeRecognizer) Close() error {
	return nil
}

func emptyResult(language string) *Result {
	return &Result{
		Text:       "",
		IsFinal:    true,
		Confidence: -1,
		Language:   language,
		Timestamp:  time.Now(),
	}
}

// scribeStream implements TranscriptStream over a Scribe WebSocket.
type scribeStream struct {
	provider     *ScribeRecognizer
	resultsChan  chan *Result
	sendChan     chan []byte
	commitChan   chan struct{}
	conn         *websocket.Conn
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	mu           sync.Mutex
	closed       atomic.Bool
	sessionReady atomic.Bool
	startTime    time.Time
	log          zerolog.Logger
}

type scribeMessage struct {
	MessageType string       `json:"message_type"`
	Text        string       `json:"text,omitempty"`
	Confidence  *float32     `json:"confidence,omitempty"`
	Error       *scribeError `json:"error,omitempty"`
}

type scribeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type scribeAudioChunk struct {
	MessageType string `json:"message_type"`
	AudioBase64 string `json:"audio_base_64"`
	Commit      bool   `json:"commit"`
	SampleRate  int    `json:"sample_rate"`
}

// connect establishes the WebSocket connection with retry and backoff.
func (r *scribeStream) connect(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.startTime = time.Now()

	var lastErr error
	retryDelay := scribeInitialRetryDelay

	for attempt := 0; attempt < scribeMaxRetryAttempts; attempt++ {
		if err := r.doConnect(); err != nil {
			lastErr = err
			r.log.Warn().Err(err).Int("attempt", attempt+1).Msg("connection attempt failed")

			if attempt < scribeMaxRetryAttempts-1 {
				select {
				case <-time.After(retryDelay):
					retryDelay *= 2
					if retryDelay > scribeMaxRetryDelay {
						retryDelay = scribeMaxRetryDelay
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		return nil
	}

	return &Error{
		Code:    ErrCodeNetworkError,
		Message: fmt.Sprintf("failed to connect after %d attempts", scribeMaxRetryAttempts),
		Err:     lastErr,
	}
}

func (r *scribeStream) doConnect() error {
	params := url.Values{}
	params.Set("model_id", r.provider.model)
	params.Set("commit_strategy", "manual")
	if r.provider.language != "" && r.provider.language != "auto" {
		params.Set("language_code", r.provider.language)
	}

	wsURL := fmt.Sprintf("%s?%s", scribeRealtimeWSURL, params.Encode())

	dialer := websocket.Dialer{
		HandshakeTimeout: scribeConnectTimeout,
	}
	headers := map[string][]string{
		"xi-api-key": {r.provider.apiKey},
	}

	conn, _, err := dialer.DialContext(r.ctx, wsURL, headers)
	if err != nil {
		return fmt.Errorf("websocket dial failed: %w", err)
	}
	r.conn = conn
	r.log.Debug().Msg("websocket connected")

	r.wg.Add(2)
	go r.readLoop()
	go r.writeLoop()

	// Wait for session_started before accepting audio.
	deadline := time.Now().Add(scribeConnectTimeout)
	for time.Now().Before(deadline) {
		if r.sessionReady.Load() {
			return nil
		}
		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	r.Close()
	return fmt.Errorf("session start timeout")
}

// SendAudio pushes raw PCM into the stream.
func (r *scribeStream) SendAudio(ctx context.Context, pcm []byte) error {
	if r.closed.Load() {
		return &Error{Code: ErrCodeProviderError, Message: "stream is closed"}
	}
	select {
	case r.sendChan <- pcm:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Commit asks the server to finalize the current segment.
func (r *scribeStream) Commit(ctx context.Context) error {
	select {
	case r.commitChan <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}
}

// Results returns the transcript channel.
func (r *scribeStream) Results() <-chan *Result {
	return r.resultsChan
}

// Close tears down the stream.
func (r *scribeStream) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.cancel()

	r.mu.Lock()
	if r.conn != nil {
		r.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		r.conn.Close()
	}
	r.mu.Unlock()

	r.wg.Wait()
	close(r.resultsChan)
	return nil
}

func (r *scribeStream) readLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		_, message, err := r.conn.ReadMessage()
		if err != nil {
			if !r.closed.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		r.handleMessage(message)
	}
}

func (r *scribeStream) writeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return

		case pcm, ok := <-r.sendChan:
			if !ok {
				return
			}
			if !r.sessionReady.Load() {
				continue
			}
			r.sendAudioChunk(pcm, false)

		case <-r.commitChan:
			if !r.sessionReady.Load() {
				continue
			}
			r.sendAudioChunk(nil, true)
		}
	}
}

func (r *scribeStream) sendAudioChunk(pcm []byte, commit bool) {
	chunk := scribeAudioChunk{
		MessageType: "input_audio_chunk",
		AudioBase64: base64.StdEncoding.EncodeToString(pcm),
		Commit:      commit,
		SampleRate:  r.provider.audioConfig.SampleRate,
	}

	data, err := json.Marshal(chunk)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to marshal audio chunk")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn == nil {
		return
	}
	if err := r.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		r.log.Warn().Err(err).Msg("failed to send audio")
	}
}

func (r *scribeStream) handleMessage(data []byte) {
	var msg scribeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		r.log.Warn().Err(err).Msg("failed to parse message")
		return
	}

	switch msg.MessageType {
	case "session_started":
		r.sessionReady.Store(true)
		r.startTime = time.Now()

	case "partial_transcript":
		if msg.Text != "" {
			r.deliver(msg.Text, false, msg.Confidence)
		}

	case "committed_transcript", "committed_transcript_with_timestamps":
		if msg.Text != "" {
			r.deliver(msg.Text, true, msg.Confidence)
		}

	case "error":
		if msg.Error != nil {
			r.log.Error().Str("code", msg.Error.Code).Str("message", msg.Error.Message).Msg("server error")
		}
	}
}

func (r *scribeStream) deliver(text string, isFinal bool, confidence *float32) {
	conf := float32(-1)
	if confidence != nil {
		conf = *confidence
	}

	result := &Result{
		Text:       text,
		IsFinal:    isFinal,
		Confidence: conf,
		Language:   r.provider.language,
		Duration:   time.Since(r.startTime),
		Timestamp:  time.Now(),
	}

	select {
	case r.resultsChan <- result:
	case <-r.ctx.Done():
	default:
		r.log.Warn().Bool("final", isFinal).Msg("results channel full, dropping transcript")
	}
}

var (
	_ StreamingProvider = (*ScribeRecognizer)(nil)
	_ TranscriptStream  = (*scribeStream)(nil)
)
