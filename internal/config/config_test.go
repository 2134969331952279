package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"DEEPGRAM_API_KEY", "DEEPGRAM_LANGUAGE", "ELEVENLABS_API_KEY",
		"VOICEPILOT_JOURNAL", "VOICEPILOT_JOURNAL_PATH", "VOICEPILOT_CONTRACT_FILE",
		"VOICEPILOT_ALIASES_FILE", "VOICEPILOT_LOG_LEVEL", "VOICEPILOT_GREETING_DELAY_MS",
		"VOICEPILOT_METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	configDir := filepath.Join(home, ".config", "voicepilot")
	if cfg.Deepgram.Language != "en-US" || cfg.Deepgram.Model != "nova-2" || !cfg.Deepgram.SmartFormat {
		t.Fatalf("unexpected deepgram defaults: %+v", cfg.Deepgram)
	}
	if !cfg.Journal.Enabled || cfg.Journal.Path != filepath.Join(configDir, "journal.sqlite") {
		t.Fatalf("unexpected journal defaults: %+v", cfg.Journal)
	}
	if cfg.Files.ContractPath != filepath.Join(configDir, "contract.yaml") || cfg.Files.AliasesPath != filepath.Join(configDir, "aliases.rules") {
		t.Fatalf("unexpected file defaults: %+v", cfg.Files)
	}
	if cfg.GreetingDelay != 800*time.Millisecond {
		t.Fatalf("expected 800ms greeting delay, got %s", cfg.GreetingDelay)
	}
	if cfg.LogLevel != slog.LevelInfo || cfg.MetricsAddr != "" {
		t.Fatalf("unexpected log level or metrics addr: %v %q", cfg.LogLevel, cfg.MetricsAddr)
	}
	if cfg.Speech.LocalCommand != "espeak-ng" || cfg.Audio.PlayerCommand != "ffplay" {
		t.Fatalf("unexpected speech defaults: %+v %+v", cfg.Speech, cfg.Audio)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DEEPGRAM_API_KEY", "test-key")
	t.Setenv("DEEPGRAM_API_BASE", "https://example.com/v1")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("DEEPGRAM_LANGUAGE", "en")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "false")
	t.Setenv("DEEPGRAM_ENDPOINTING_MS", "500")
	t.Setenv("VOICEPILOT_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("VOICEPILOT_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("VOICEPILOT_AUDIO_INPUT_DEVICE", "mic0")
	t.Setenv("VOICEPILOT_SAMPLE_RATE", "22050")
	t.Setenv("VOICEPILOT_CHANNELS", "2")
	t.Setenv("VOICEPILOT_AUDIO_CHUNK_SIZE", "512")
	t.Setenv("ELEVENLABS_API_KEY", "eleven")
	t.Setenv("ELEVENLABS_VOICE_ID", "voice-9")
	t.Setenv("VOICEPILOT_TTS_COMMAND", "say -v Samantha")
	t.Setenv("VOICEPILOT_DEBUGGER_URL", "ws://127.0.0.1:9222/devtools/browser/abc")
	t.Setenv("VOICEPILOT_HEADLESS", "true")
	t.Setenv("VOICEPILOT_BASE_URL", "http://audit.local")
	t.Setenv("VOICEPILOT_NAVIGATION_TIMEOUT_MS", "2500")
	t.Setenv("VOICEPILOT_JOURNAL", "off")
	t.Setenv("VOICEPILOT_METRICS_ADDR", "127.0.0.1:9464")
	t.Setenv("VOICEPILOT_LOG_LEVEL", "debug")
	t.Setenv("VOICEPILOT_GREETING_DELAY_MS", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Deepgram.APIKey != "test-key" || cfg.Deepgram.APIBaseURL != "https://example.com/v1" {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Deepgram.Model != "nova-3" || cfg.Deepgram.Language != "en" || cfg.Deepgram.SmartFormat || cfg.Deepgram.EndpointingMS != 500 {
		t.Fatalf("unexpected deepgram model/language/format: %+v", cfg.Deepgram)
	}
	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "mic0" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.Channels != 2 || cfg.Audio.ChunkSize != 512 {
		t.Fatalf("unexpected sample/channels/chunk: %+v", cfg.Audio)
	}
	if cfg.Speech.ElevenLabsAPIKey != "eleven" || cfg.Speech.ElevenLabsVoiceID != "voice-9" || cfg.Speech.LocalCommand != "say -v Samantha" {
		t.Fatalf("unexpected speech config: %+v", cfg.Speech)
	}
	if !cfg.Browser.Headless || cfg.Browser.BaseURL != "http://audit.local" || cfg.Browser.NavigationTimeout != 2500*time.Millisecond {
		t.Fatalf("unexpected browser config: %+v", cfg.Browser)
	}
	if cfg.Journal.Enabled {
		t.Fatalf("expected journal disabled")
	}
	if cfg.MetricsAddr != "127.0.0.1:9464" || cfg.LogLevel != slog.LevelDebug || cfg.GreetingDelay != 0 {
		t.Fatalf("unexpected ambient config: %q %v %s", cfg.MetricsAddr, cfg.LogLevel, cfg.GreetingDelay)
	}
}

func TestLoadInvalidValuesFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VOICEPILOT_SAMPLE_RATE", "bad")
	t.Setenv("VOICEPILOT_CHANNELS", "-1")
	t.Setenv("VOICEPILOT_AUDIO_CHUNK_SIZE", "5")
	t.Setenv("VOICEPILOT_NAVIGATION_TIMEOUT_MS", "-10")
	t.Setenv("VOICEPILOT_GREETING_DELAY_MS", "soon")
	t.Setenv("VOICEPILOT_LOG_LEVEL", "chatty")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "not-bool")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 || cfg.Audio.ChunkSize != 4096 {
		t.Fatalf("expected audio fallbacks, got %+v", cfg.Audio)
	}
	if cfg.Browser.NavigationTimeout != 15*time.Second {
		t.Fatalf("expected navigation timeout fallback, got %s", cfg.Browser.NavigationTimeout)
	}
	if cfg.GreetingDelay != 800*time.Millisecond {
		t.Fatalf("expected greeting delay fallback, got %s", cfg.GreetingDelay)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level fallback, got %v", cfg.LogLevel)
	}
	if !cfg.Deepgram.SmartFormat {
		t.Fatalf("expected default smart format true")
	}
}

func TestLoadReadsDotenvWithoutOverriding(t *testing.T) {
	home := t.TempDir()
	configDir := filepath.Join(home, ".config", "voicepilot")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	dotenv := "DEEPGRAM_MODEL=from-dotenv\nVOICEPILOT_METRICS_ADDR=127.0.0.1:9999\n"
	if err := os.WriteFile(filepath.Join(configDir, ".env"), []byte(dotenv), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("DEEPGRAM_MODEL", "from-env")
	// Registered so cleanup restores the variable the dotenv file sets.
	t.Setenv("VOICEPILOT_METRICS_ADDR", "")
	if err := os.Unsetenv("VOICEPILOT_METRICS_ADDR"); err != nil {
		t.Fatalf("unsetenv failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Deepgram.Model != "from-env" {
		t.Fatalf("environment must win over dotenv, got %q", cfg.Deepgram.Model)
	}
	if cfg.MetricsAddr != "127.0.0.1:9999" {
		t.Fatalf("expected dotenv value, got %q", cfg.MetricsAddr)
	}
}
