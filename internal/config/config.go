package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the voice assistant.
type Config struct {
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Speech   SpeechConfig
	Browser  BrowserConfig
	Files    FilesConfig
	Journal  JournalConfig

	MetricsAddr   string
	LogLevel      slog.Level
	GreetingDelay time.Duration
}

type DeepgramConfig struct {
	APIKey        string
	APIBaseURL    string
	Model         string
	Language      string
	SmartFormat   bool
	EndpointingMS int
}

type AudioConfig struct {
	RecorderCommand string
	PlayerCommand   string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

type SpeechConfig struct {
	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsVoiceID string
	ElevenLabsModelID string
	// LocalCommand is the fallback synthesizer command line.
	LocalCommand string
}

type BrowserConfig struct {
	DebuggerURL       string
	ChromeBin         string
	Headless          bool
	BaseURL           string
	NavigationTimeout time.Duration
}

type FilesConfig struct {
	ContractPath string
	AliasesPath  string
}

type JournalConfig struct {
	Enabled bool
	Path    string
}

// Load resolves configuration from dotenv files, environment variables and
// defaults. Variables already set in the environment win over dotenv files.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}
	configDir := filepath.Join(home, ".config", "voicepilot")

	if err := loadDotenv(".env", filepath.Join(configDir, ".env")); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:        strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:    envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:         envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:      envOrDefault("DEEPGRAM_LANGUAGE", "en-US"),
			SmartFormat:   envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
			EndpointingMS: envOrDefaultInt("DEEPGRAM_ENDPOINTING_MS", 300),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("VOICEPILOT_FFMPEG_COMMAND", "ffmpeg"),
			PlayerCommand:   envOrDefault("VOICEPILOT_PLAYER_COMMAND", "ffplay"),
			InputFormat:     envOrDefault("VOICEPILOT_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("VOICEPILOT_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("VOICEPILOT_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOICEPILOT_CHANNELS", 1),
			ChunkSize:       envOrDefaultInt("VOICEPILOT_AUDIO_CHUNK_SIZE", 4096),
		},
		Speech: SpeechConfig{
			ElevenLabsAPIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
			ElevenLabsBaseURL: envOrDefault("ELEVENLABS_API_BASE", "https://api.elevenlabs.io"),
			ElevenLabsVoiceID: strings.TrimSpace(os.Getenv("ELEVENLABS_VOICE_ID")),
			ElevenLabsModelID: strings.TrimSpace(os.Getenv("ELEVENLABS_MODEL_ID")),
			LocalCommand:      envOrDefault("VOICEPILOT_TTS_COMMAND", "espeak-ng"),
		},
		Browser: BrowserConfig{
			DebuggerURL:       strings.TrimSpace(os.Getenv("VOICEPILOT_DEBUGGER_URL")),
			ChromeBin:         strings.TrimSpace(os.Getenv("VOICEPILOT_CHROME_BIN")),
			Headless:          envOrDefaultBool("VOICEPILOT_HEADLESS", false),
			BaseURL:           envOrDefault("VOICEPILOT_BASE_URL", "http://localhost:5000"),
			NavigationTimeout: time.Duration(envOrDefaultInt("VOICEPILOT_NAVIGATION_TIMEOUT_MS", 15000)) * time.Millisecond,
		},
		Files: FilesConfig{
			ContractPath: envOrDefault("VOICEPILOT_CONTRACT_FILE", filepath.Join(configDir, "contract.yaml")),
			AliasesPath:  envOrDefault("VOICEPILOT_ALIASES_FILE", filepath.Join(configDir, "aliases.rules")),
		},
		Journal: JournalConfig{
			Enabled: envOrDefaultBool("VOICEPILOT_JOURNAL", true),
			Path:    envOrDefault("VOICEPILOT_JOURNAL_PATH", filepath.Join(configDir, "journal.sqlite")),
		},
		MetricsAddr:   strings.TrimSpace(os.Getenv("VOICEPILOT_METRICS_ADDR")),
		LogLevel:      envOrDefaultLevel("VOICEPILOT_LOG_LEVEL", slog.LevelInfo),
		GreetingDelay: time.Duration(envOrDefaultInt("VOICEPILOT_GREETING_DELAY_MS", 800)) * time.Millisecond,
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Deepgram.EndpointingMS < 0 {
		cfg.Deepgram.EndpointingMS = 300
	}
	if cfg.Browser.NavigationTimeout <= 0 {
		cfg.Browser.NavigationTimeout = 15 * time.Second
	}
	if cfg.GreetingDelay < 0 {
		cfg.GreetingDelay = 800 * time.Millisecond
	}

	return cfg, nil
}

// loadDotenv loads the dotenv files that exist, in order. Earlier files and
// the real environment take precedence.
func loadDotenv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func envOrDefaultLevel(key string, fallback slog.Level) slog.Level {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
