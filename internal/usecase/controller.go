package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

var ErrRecognizerUnavailable = errors.New("speech recognizer unavailable")

// TranscriptHandler consumes one finalized transcript.
type TranscriptHandler interface {
	Handle(ctx context.Context, transcript string) domain.Outcome
}

// SessionController owns the listening lifecycle: a toggle between idle and
// capturing, plus continuous mode that re-arms the recognizer after each
// capture ends.
type SessionController struct {
	recognizer ports.SpeechRecognizer
	handler    TranscriptHandler
	events     ports.EventSink
	voice      announcer
	logger     *slog.Logger

	mu         sync.Mutex
	state      domain.SessionState
	continuous bool
	ctx        context.Context
}

// NewSessionController builds a controller. recognizer may be nil, in which
// case listening requests are answered with an unsupported notice.
func NewSessionController(
	recognizer ports.SpeechRecognizer,
	handler TranscriptHandler,
	speaker ports.Speaker,
	events ports.EventSink,
	logger *slog.Logger,
) *SessionController {
	logger = loggerOrDefault(logger).With("component", "session")
	return &SessionController{
		recognizer: recognizer,
		handler:    handler,
		events:     events,
		voice:      announcer{speaker: speaker, events: events, logger: logger},
		logger:     logger,
		state:      domain.SessionStateIdle,
		ctx:        context.Background(),
	}
}

// RequestToggle starts a capture when idle or asks the recognizer to stop
// when capturing. The state only returns to idle from the recognizer's end
// callback.
func (c *SessionController) RequestToggle(ctx context.Context) error {
	if c.recognizer == nil {
		c.voice.say(ctx, msgUnsupported)
		c.events.SessionError(domain.ErrorCodeUnsupported, ErrRecognizerUnavailable.Error())
		return ErrRecognizerUnavailable
	}

	c.mu.Lock()
	if c.state == domain.SessionStateCapturing {
		status := c.statusLocked()
		c.mu.Unlock()

		c.events.SessionStateChanged(status, domain.SessionReasonStopRequested)
		if err := c.recognizer.Stop(); err != nil {
			return fmt.Errorf("stop recognizer: %w", err)
		}
		return nil
	}
	c.state = domain.SessionStateCapturing
	c.ctx = ctx
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, domain.SessionReasonCaptureRequested)
	if err := c.recognizer.Start(ctx, controllerListener{c}); err != nil {
		c.logger.Warn("recognizer start failed", "error", err)
		c.events.SessionError(domain.ErrorCodeRecognizer, err.Error())
		c.moveToIdle(domain.SessionReasonCaptureFailed)
		return fmt.Errorf("start recognizer: %w", err)
	}
	captureSessionsTotal.WithLabelValues(triggerUser).Inc()

	c.voice.say(ctx, msgListeningReminder)
	return nil
}

// ToggleContinuous flips continuous mode and returns the new setting. The
// capture state is unchanged.
func (c *SessionController) ToggleContinuous(ctx context.Context) bool {
	if c.recognizer == nil {
		return false
	}

	c.mu.Lock()
	c.continuous = !c.continuous
	enabled := c.continuous
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, domain.SessionReasonModeChanged)
	if enabled {
		c.voice.say(ctx, msgContinuousOn)
	} else {
		c.voice.say(ctx, msgContinuousOff)
	}
	return enabled
}

// Greet announces that the assistant is ready.
func (c *SessionController) Greet(ctx context.Context) {
	c.voice.say(ctx, msgGreeting)
}

func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

func (c *SessionController) statusLocked() domain.Status {
	return domain.Status{
		State:      c.state,
		Continuous: c.continuous,
		Available:  c.recognizer != nil,
	}
}

func (c *SessionController) handleStart() {
	c.events.SessionStateChanged(c.Status(), domain.SessionReasonCaptureStarted)
}

func (c *SessionController) handleResult(transcript string) {
	c.mu.Lock()
	capturing := c.state == domain.SessionStateCapturing
	ctx := c.ctx
	c.mu.Unlock()

	if !capturing {
		c.logger.Debug("dropping transcript outside capture", "transcript", transcript)
		return
	}
	c.handler.Handle(ctx, transcript)
}

func (c *SessionController) handleEnd(reason domain.SessionStateReason) {
	c.moveToIdle(reason)

	c.mu.Lock()
	if !c.continuous || c.state != domain.SessionStateIdle {
		c.mu.Unlock()
		return
	}
	c.state = domain.SessionStateCapturing
	ctx := c.ctx
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, domain.SessionReasonRearmed)
	if err := c.recognizer.Start(ctx, controllerListener{c}); err != nil {
		rearmFailuresTotal.Inc()
		c.logger.Warn("continuous restart failed", "error", err)
		c.moveToIdle(domain.SessionReasonCaptureFailed)
		return
	}
	captureSessionsTotal.WithLabelValues(triggerRearm).Inc()
}

func (c *SessionController) moveToIdle(reason domain.SessionStateReason) {
	c.mu.Lock()
	c.state = domain.SessionStateIdle
	status := c.statusLocked()
	c.mu.Unlock()

	c.events.SessionStateChanged(status, reason)
}

// controllerListener adapts recognizer callbacks onto the controller.
type controllerListener struct {
	c *SessionController
}

func (l controllerListener) OnStart() { l.c.handleStart() }

func (l controllerListener) OnResult(transcript string) { l.c.handleResult(transcript) }

func (l controllerListener) OnEnd() { l.c.handleEnd(domain.SessionReasonCaptureEnded) }

func (l controllerListener) OnError(err error) {
	l.c.logger.Warn("recognizer error", "error", err)
	l.c.events.SessionError(domain.ErrorCodeRecognizer, err.Error())
	l.c.handleEnd(domain.SessionReasonCaptureFailed)
}
