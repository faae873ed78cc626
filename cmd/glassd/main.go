package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/glasskit/glasskit/pkg/assistant"
	"github.com/glasskit/glasskit/pkg/audio"
	"github.com/glasskit/glasskit/pkg/config"
	"github.com/glasskit/glasskit/pkg/engine"
	"github.com/glasskit/glasskit/pkg/logging"
	"github.com/glasskit/glasskit/pkg/stt"
	"github.com/glasskit/glasskit/pkg/trace"
	"github.com/glasskit/glasskit/pkg/tts"
	"github.com/glasskit/glasskit/pkg/vad"
	"github.com/glasskit/glasskit/pkg/wakeword"
)

const defaultVADThreshold = 0.5

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{Level: cfg.Logging.Level, Console: cfg.Logging.Console})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := trace.Initialize(ctx, trace.DefaultConfig()); err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer trace.Shutdown(context.Background())

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("glassd exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	streaming, err := buildStreamingProvider(cfg)
	if err != nil {
		return err
	}

	wakeCfg := wakeword.Config{
		Method:      string(cfg.Wakeword.Method),
		Keyword:     cfg.Wakeword.Keyword,
		Sensitivity: cfg.Wakeword.Sensitivity,
		SampleRate:  cfg.Audio.SampleRate,
		FrameSize:   cfg.Audio.FrameSize,
		AccessKey:   os.Getenv("PORCUPINE_ACCESS_KEY"),
	}
	var wakeOpts []wakeword.Option
	if streaming != nil {
		wakeOpts = append(wakeOpts, wakeword.WithStreamingProvider(streaming))
	}
	wake, err := wakeword.NewEngine(wakeCfg, wakeOpts...)
	if err != nil {
		return fmt.Errorf("wake engine: %w", err)
	}
	defer wake.Close()

	// The capture device must produce frames sized for the active wake
	// strategy; the spotting model dictates its own frame length.
	in, err := audio.NewMalgoInput(audio.DeviceConfig{
		SampleRate: cfg.Audio.SampleRate,
		FrameSize:  wake.FrameSize(),
	})
	if err != nil {
		return fmt.Errorf("open microphone: %w", err)
	}
	defer in.Close()

	ttsProvider, err := buildTTSProvider(cfg)
	if err != nil {
		return err
	}

	out, err := audio.NewMalgoOutput(audio.DeviceConfig{
		SampleRate: ttsProvider.SampleRate(),
	})
	if err != nil {
		return fmt.Errorf("open speaker: %w", err)
	}
	defer out.Close()

	playback := engine.NewPlaybackController(ttsProvider, out)
	playback.SetVoice(cfg.TTS.Voice, cfg.TTS.Speed)

	detector, err := vad.NewDetector(defaultVADThreshold)
	if err != nil {
		return fmt.Errorf("voice activity detector: %w", err)
	}
	defer detector.Destroy()

	recognizer, err := buildRecognizer(cfg, streaming)
	if err != nil {
		return err
	}
	defer recognizer.Close()

	captureCfg := engine.DefaultCaptureConfig()
	captureCfg.ListenTimeout = cfg.STT.ListenTimeout
	captureCfg.PhraseLimit = cfg.STT.PhraseLimit
	captureCfg.MaxSilence = cfg.STT.MaxSilence
	capture := engine.NewUtteranceCapture(in, detector, recognizer, captureCfg)

	asst, err := buildAssistant(ctx, cfg)
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Options{
		Input:        in,
		Wake:         wake,
		Capture:      capture,
		Playback:     playback,
		Assistant:    asst,
		SleepTimeout: cfg.Activity.SleepTimeout,
		WakeBuilder: func(c wakeword.Config) (*wakeword.Engine, error) {
			var opts []wakeword.Option
			if streaming != nil {
				opts = append(opts, wakeword.WithStreamingProvider(streaming))
			}
			return wakeword.NewEngine(c, opts...)
		},
	})
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	err = eng.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// buildStreamingProvider is only needed for the streaming wake method.
// Other configurations run without one and the wake engine falls back
// accordingly.
func buildStreamingProvider(cfg *config.Config) (stt.StreamingProvider, error) {
	if cfg.Wakeword.Method != config.WakeMethodStreaming && cfg.STT.Provider != "scribe" {
		return nil, nil
	}
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		log.Warn().Msg("ELEVENLABS_API_KEY not set; streaming transcription unavailable")
		return nil, nil
	}
	return stt.NewScribeRecognizer(apiKey, cfg.STT.Language, stt.DefaultAudioConfig(cfg.Audio.SampleRate))
}

func buildRecognizer(cfg *config.Config, streaming stt.StreamingProvider) (stt.Recognizer, error) {
	audioCfg := stt.DefaultAudioConfig(cfg.Audio.SampleRate)
	switch cfg.STT.Provider {
	case "whisper", "":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for whisper")
		}
		return stt.NewWhisperRecognizer(apiKey, audioCfg, stt.WithWhisperLanguage(cfg.STT.Language))
	case "azure":
		key := os.Getenv("AZURE_SPEECH_KEY")
		region := os.Getenv("AZURE_SPEECH_REGION")
		if key == "" || region == "" {
			return nil, fmt.Errorf("AZURE_SPEECH_KEY and AZURE_SPEECH_REGION are required for azure")
		}
		return stt.NewAzureRecognizer(key, region, cfg.STT.Language, audioCfg)
	case "scribe":
		if streaming == nil {
			return nil, fmt.Errorf("scribe recognizer unavailable")
		}
		return streaming, nil
	default:
		return nil, fmt.Errorf("unknown stt provider %q", cfg.STT.Provider)
	}
}

func buildTTSProvider(cfg *config.Config) (tts.Provider, error) {
	switch cfg.TTS.Provider {
	case "openai", "":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai tts")
		}
		return tts.NewOpenAIProvider(apiKey), nil
	case "elevenlabs":
		return tts.NewElevenLabsProvider(tts.ElevenLabsConfig{
			APIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			VoiceID: cfg.TTS.Voice,
		})
	default:
		return nil, fmt.Errorf("unknown tts provider %q", cfg.TTS.Provider)
	}
}

func buildAssistant(ctx context.Context, cfg *config.Config) (assistant.Assistant, error) {
	systemPrompt := cfg.Assistant.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = assistant.DefaultSystemPrompt
	}
	switch cfg.Assistant.Provider {
	case "openai", "":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai assistant")
		}
		return assistant.NewOpenAIAssistant(apiKey, cfg.Assistant.Model, systemPrompt)
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for gemini assistant")
		}
		return assistant.NewGeminiAssistant(ctx, apiKey, cfg.Assistant.Model, systemPrompt)
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Assistant.Provider)
	}
}
