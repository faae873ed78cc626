// Package config loads the engine configuration.
//
// The configuration is read once at startup into an immutable snapshot that
// is passed to each component at construction time. Runtime updates flow
// through a single entry point on the engine that rebuilds the affected
// components from a fresh snapshot; nothing mutates a shared config struct
// in place.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/glasskit/glasskit/pkg/logging"
)

// WakeMethod selects the wake-word detection strategy.
type WakeMethod string

const (
	// WakeMethodModel uses a keyword-spotting model (Porcupine).
	WakeMethodModel WakeMethod = "model"
	// WakeMethodStreaming matches the keyword in a streaming transcript.
	WakeMethodStreaming WakeMethod = "streaming"
	// WakeMethodEnergy triggers on sudden loud sounds. Test only.
	WakeMethodEnergy WakeMethod = "energy"
)

// Config is the full engine configuration snapshot.
type Config struct {
	Wakeword  WakewordConfig  `mapstructure:"wakeword"`
	Activity  ActivityConfig  `mapstructure:"activity"`
	Audio     AudioConfig     `mapstructure:"audio"`
	STT       STTConfig       `mapstructure:"stt"`
	TTS       TTSConfig       `mapstructure:"tts"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// WakewordConfig configures the wake-word engine.
type WakewordConfig struct {
	Method      WakeMethod `mapstructure:"method"`
	Keyword     string     `mapstructure:"keyword"`
	Sensitivity float64    `mapstructure:"sensitivity"` // 0.0 to 1.0
}

// ActivityConfig drives the ACTIVE -> SLEEP regression.
type ActivityConfig struct {
	SleepTimeout time.Duration `mapstructure:"sleep_timeout"`
}

// AudioConfig configures capture and playback.
type AudioConfig struct {
	SampleRate int `mapstructure:"sample_rate"`
	FrameSize  int `mapstructure:"frame_size"` // samples per capture frame
	Channels   int `mapstructure:"channels"`
}

// STTConfig configures speech-to-text.
type STTConfig struct {
	Provider      string        `mapstructure:"provider"` // whisper, azure
	Language      string        `mapstructure:"language"`
	ListenTimeout time.Duration `mapstructure:"listen_timeout"`
	PhraseLimit   time.Duration `mapstructure:"phrase_limit"`
	MaxSilence    time.Duration `mapstructure:"max_silence"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Provider string  `mapstructure:"provider"` // openai
	Voice    string  `mapstructure:"voice"`
	Speed    float64 `mapstructure:"speed"`
}

// AssistantConfig configures the assistant collaborator.
type AssistantConfig struct {
	Provider     string `mapstructure:"provider"` // openai, gemini
	Model        string `mapstructure:"model"`
	Personality  string `mapstructure:"personality"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		Wakeword: WakewordConfig{
			Method:      WakeMethodModel,
			Keyword:     "hey glasses",
			Sensitivity: 0.5,
		},
		Activity: ActivityConfig{
			SleepTimeout: 60 * time.Second,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			FrameSize:  512,
			Channels:   1,
		},
		STT: STTConfig{
			Provider:      "whisper",
			Language:      "en",
			ListenTimeout: 5 * time.Second,
			PhraseLimit:   10 * time.Second,
			MaxSilence:    700 * time.Millisecond,
		},
		TTS: TTSConfig{
			Provider: "openai",
			Voice:    "alloy",
			Speed:    1.0,
		},
		Assistant: AssistantConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Personality: "friendly",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load reads the configuration from the given file path (optional) plus
// environment variables, on top of the documented defaults. Unknown keys in
// the file are ignored.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("GLASSKIT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has defaults.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes out-of-range values where the
// documented behavior is to clamp rather than fail.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Audio.FrameSize <= 0 {
		return fmt.Errorf("audio.frame_size must be positive, got %d", c.Audio.FrameSize)
	}
	if c.Audio.Channels != 1 {
		return fmt.Errorf("audio.channels: only mono capture is supported, got %d", c.Audio.Channels)
	}
	switch c.Wakeword.Method {
	case WakeMethodModel, WakeMethodStreaming, WakeMethodEnergy:
	case "":
		c.Wakeword.Method = WakeMethodModel
	default:
		// A misconfigured wake backend must not stop the engine from
		// starting; the wake engine substitutes the energy strategy.
		log := logging.Component("config")
		log.Warn().
			Str("method", string(c.Wakeword.Method)).
			Msg("unknown wakeword method, the engine will fall back")
	}
	if c.Wakeword.Sensitivity < 0 {
		c.Wakeword.Sensitivity = 0
	}
	if c.Wakeword.Sensitivity > 1 {
		c.Wakeword.Sensitivity = 1
	}
	if c.Activity.SleepTimeout <= 0 {
		c.Activity.SleepTimeout = 60 * time.Second
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("wakeword.method", string(d.Wakeword.Method))
	v.SetDefault("wakeword.keyword", d.Wakeword.Keyword)
	v.SetDefault("wakeword.sensitivity", d.Wakeword.Sensitivity)

	v.SetDefault("activity.sleep_timeout", d.Activity.SleepTimeout)

	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.frame_size", d.Audio.FrameSize)
	v.SetDefault("audio.channels", d.Audio.Channels)

	v.SetDefault("stt.provider", d.STT.Provider)
	v.SetDefault("stt.language", d.STT.Language)
	v.SetDefault("stt.listen_timeout", d.STT.ListenTimeout)
	v.SetDefault("stt.phrase_limit", d.STT.PhraseLimit)
	v.SetDefault("stt.max_silence", d.STT.MaxSilence)

	v.SetDefault("tts.provider", d.TTS.Provider)
	v.SetDefault("tts.voice", d.TTS.Voice)
	v.SetDefault("tts.speed", d.TTS.Speed)

	v.SetDefault("assistant.provider", d.Assistant.Provider)
	v.SetDefault("assistant.model", d.Assistant.Model)
	v.SetDefault("assistant.personality", d.Assistant.Personality)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
}
