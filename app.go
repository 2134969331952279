package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicepilot/internal/bootstrap"
	"voicepilot/internal/domain"
	"voicepilot/internal/usecase"
)

const (
	eventSession    = "voicepilot:session"
	eventTranscript = "voicepilot:transcript"
	eventUtterance  = "voicepilot:utterance"
	eventError      = "voicepilot:error"
)

var errJournalDisabled = errors.New("command journal is disabled")

// App is the Wails application root.
type App struct {
	ctx context.Context

	services bootstrap.Services
	bootErr  error

	greetMu  sync.Mutex
	greeting *time.Timer
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.services = services
	a.SessionStateChanged(services.Controller.Status(), domain.SessionReasonReady)

	a.greetMu.Lock()
	a.greeting = time.AfterFunc(services.Config.GreetingDelay, func() {
		services.Controller.Greet(ctx)
	})
	a.greetMu.Unlock()
}

func (a *App) shutdown(_ context.Context) {
	a.greetMu.Lock()
	if a.greeting != nil {
		a.greeting.Stop()
	}
	a.greetMu.Unlock()

	if err := a.services.Close(); err != nil && a.services.Logger != nil {
		a.services.Logger.Warn("shutdown cleanup failed", "error", err)
	}
}

// ToggleListening starts a capture when idle, or stops the current one.
func (a *App) ToggleListening() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.services.Controller.RequestToggle(a.ctx); err != nil {
		if errors.Is(err, usecase.ErrRecognizerUnavailable) {
			return a.services.Controller.Status(), nil
		}
		return a.services.Controller.Status(), err
	}
	return a.services.Controller.Status(), nil
}

// ToggleContinuous flips continuous listening and returns the new setting.
func (a *App) ToggleContinuous() (bool, error) {
	if err := a.requireReady(); err != nil {
		return false, err
	}
	return a.services.Controller.ToggleContinuous(a.ctx), nil
}

// RunCommand handles typed text exactly like a spoken transcript.
func (a *App) RunCommand(text string) (domain.Outcome, error) {
	if err := a.requireReady(); err != nil {
		return domain.Outcome{}, err
	}
	return a.services.Interpreter.Handle(a.ctx, text), nil
}

// RecentCommands returns the newest journal entries.
func (a *App) RecentCommands(limit int) ([]domain.JournalEntry, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	if a.services.Journal == nil {
		return nil, errJournalDisabled
	}
	return a.services.Journal.Recent(a.ctx, limit)
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.services.Controller == nil {
		return domain.Status{State: domain.SessionStateIdle}
	}
	return a.services.Controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	cfg := a.services.Config
	speech := "local: " + cfg.Speech.LocalCommand
	if cfg.Speech.ElevenLabsAPIKey != "" {
		speech = "ElevenLabs"
	}
	recognizer := "unavailable"
	if cfg.Deepgram.APIKey != "" {
		recognizer = "Deepgram"
	}

	return map[string]string{
		"recognizer": recognizer,
		"model":      cfg.Deepgram.Model,
		"language":   cfg.Deepgram.Language,
		"speech":     speech,
		"baseURL":    cfg.Browser.BaseURL,
		"contract":   cfg.Files.ContractPath,
		"aliases":    cfg.Files.AliasesPath,
		"audioInput": cfg.Audio.InputDevice,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services.Controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SessionStateChanged emits session lifecycle updates to the frontend.
func (a *App) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSession, map[string]any{
		"state":      string(status.State),
		"continuous": status.Continuous,
		"available":  status.Available,
		"reason":     string(reason),
		"message":    sessionReasonMessage(reason),
	})
}

// Transcript emits what the user said and what was done about it.
func (a *App) Transcript(text string, outcome domain.Outcome) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]any{
		"text":    text,
		"outcome": outcome,
	})
}

// Utterance mirrors spoken text to the live region.
func (a *App) Utterance(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventUtterance, map[string]string{"text": text})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func sessionReasonMessage(reason domain.SessionStateReason) string {
	switch reason {
	case domain.SessionReasonReady:
		return "Ready"
	case domain.SessionReasonCaptureRequested:
		return "Starting microphone"
	case domain.SessionReasonCaptureStarted:
		return "Listening"
	case domain.SessionReasonStopRequested:
		return "Stopping"
	case domain.SessionReasonCaptureEnded:
		return "Stopped listening"
	case domain.SessionReasonCaptureFailed:
		return "Listening failed"
	case domain.SessionReasonRearmed:
		return "Listening again"
	case domain.SessionReasonModeChanged:
		return "Listening mode changed"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeRecognizer:
		return "Speech recognition error"
	case domain.ErrorCodeUnsupported:
		return "Speech recognition unavailable"
	case domain.ErrorCodeSpeech:
		return "Speech output failed"
	case domain.ErrorCodeExecution:
		return "Command failed"
	case domain.ErrorCodeJournal:
		return "Command journal unavailable"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
