package usecase

import (
	"context"
	"log/slog"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

// announcer speaks a response and mirrors it to the UI live region.
type announcer struct {
	speaker ports.Speaker
	events  ports.EventSink
	logger  *slog.Logger
}

func (a announcer) say(ctx context.Context, text string) {
	if text == "" {
		return
	}
	a.events.Utterance(text)
	if a.speaker == nil {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Warn("speech failed", "error", err)
		a.events.SessionError(domain.ErrorCodeSpeech, err.Error())
	}
}

func (a announcer) hush() {
	if a.speaker == nil {
		return
	}
	if err := a.speaker.Cancel(); err != nil {
		a.logger.Warn("speech cancel failed", "error", err)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
