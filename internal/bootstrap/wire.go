package bootstrap

import (
	"errors"
	"log/slog"
	"os"

	"voicepilot/internal/audio"
	"voicepilot/internal/config"
	"voicepilot/internal/domain"
	"voicepilot/internal/intent"
	"voicepilot/internal/journal"
	"voicepilot/internal/page"
	"voicepilot/internal/ports"
	"voicepilot/internal/providers/deepgram"
	"voicepilot/internal/providers/elevenlabs"
	"voicepilot/internal/providers/localtts"
	"voicepilot/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller  *usecase.SessionController
	Interpreter *usecase.Interpreter
	// Journal is nil when the journal is disabled or could not be opened.
	Journal *journal.Store
	Config  config.Config
	Logger  *slog.Logger

	closers []func() error
}

// Close releases the browser, the journal and the metrics server.
func (s Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	logger := newLogger(cfg.LogLevel)

	contract, err := config.LoadContract(cfg.Files.ContractPath)
	if err != nil {
		return Services{}, err
	}
	aliases, err := intent.LoadAliases(cfg.Files.AliasesPath)
	if err != nil {
		return Services{}, err
	}

	services := Services{Config: cfg, Logger: logger}

	doc := page.NewDocument(page.Config{
		DebuggerURL:       cfg.Browser.DebuggerURL,
		ChromeBin:         cfg.Browser.ChromeBin,
		Headless:          cfg.Browser.Headless,
		BaseURL:           cfg.Browser.BaseURL,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		Selectors:         contract.Selectors,
	}, logger)
	services.closers = append(services.closers, doc.Close)

	speaker := buildSpeaker(cfg, logger)
	recognizer := buildRecognizer(cfg, logger)

	var journalPort ports.Journal
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn("journal unavailable", "path", cfg.Journal.Path, "error", err)
			eventSink.SessionError(domain.ErrorCodeJournal, err.Error())
		} else {
			services.Journal = store
			services.closers = append(services.closers, store.Close)
			journalPort = store
		}
	}

	if cfg.MetricsAddr != "" {
		srv, addr, err := serveMetrics(cfg.MetricsAddr, logger)
		if err != nil {
			logger.Warn("metrics server unavailable", "addr", cfg.MetricsAddr, "error", err)
		} else {
			logger.Info("serving metrics", "addr", addr)
			services.closers = append(services.closers, srv.Close)
		}
	}

	executor := usecase.NewExecutor(doc, speaker, eventSink, usecase.ExecutorConfig{
		Routes: contract.Routes,
		Labels: contract.Labels,
		Logger: logger,
	})
	services.Interpreter = usecase.NewInterpreter(
		intent.NewClassifier(),
		aliases,
		executor,
		journalPort,
		eventSink,
		logger,
	)
	services.Controller = usecase.NewSessionController(
		recognizer,
		services.Interpreter,
		speaker,
		eventSink,
		logger,
	)

	return services, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildSpeaker prefers ElevenLabs and falls back to the local synthesizer.
func buildSpeaker(cfg config.Config, logger *slog.Logger) ports.Speaker {
	if cfg.Speech.ElevenLabsAPIKey != "" {
		return elevenlabs.NewSpeaker(elevenlabs.Config{
			APIKey:     cfg.Speech.ElevenLabsAPIKey,
			APIBaseURL: cfg.Speech.ElevenLabsBaseURL,
			VoiceID:    cfg.Speech.ElevenLabsVoiceID,
			ModelID:    cfg.Speech.ElevenLabsModelID,
		}, audio.NewPlayer(cfg.Audio.PlayerCommand), logger)
	}
	return localtts.NewSpeaker(localtts.ParseCommand(cfg.Speech.LocalCommand), logger)
}

// buildRecognizer returns nil without a Deepgram key; the controller then
// reports speech recognition as unsupported.
func buildRecognizer(cfg config.Config, logger *slog.Logger) ports.SpeechRecognizer {
	if cfg.Deepgram.APIKey == "" {
		logger.Info("DEEPGRAM_API_KEY not set; voice capture disabled")
		return nil
	}
	return deepgram.NewRecognizer(deepgram.Config{
		APIKey:        cfg.Deepgram.APIKey,
		APIBaseURL:    cfg.Deepgram.APIBaseURL,
		Model:         cfg.Deepgram.Model,
		Language:      cfg.Deepgram.Language,
		SmartFormat:   cfg.Deepgram.SmartFormat,
		EndpointingMS: cfg.Deepgram.EndpointingMS,
		ChunkSize:     cfg.Audio.ChunkSize,
	}, audio.NewMicrophone(cfg.Audio.RecorderCommand), ports.AudioConfig{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
	}, logger)
}
