package usecase

import (
	"context"
	"errors"
	"testing"

	"voicepilot/internal/domain"
)

func newTestController(recognizer *fakeRecognizer) (*SessionController, *fakeHandler, *fakeSpeaker, *fakeEventSink) {
	handler := &fakeHandler{}
	speaker := &fakeSpeaker{}
	events := &fakeEventSink{}
	if recognizer == nil {
		return NewSessionController(nil, handler, speaker, events, nil), handler, speaker, events
	}
	return NewSessionController(recognizer, handler, speaker, events, nil), handler, speaker, events
}

func TestSessionControllerWithoutRecognizer(t *testing.T) {
	t.Parallel()

	controller, _, speaker, events := newTestController(nil)

	err := controller.RequestToggle(context.Background())
	if !errors.Is(err, ErrRecognizerUnavailable) {
		t.Fatalf("expected ErrRecognizerUnavailable, got %v", err)
	}
	if speaker.last() != "Speech recognition is not supported in this browser." {
		t.Fatalf("unexpected speech: %q", speaker.last())
	}
	errs := events.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeUnsupported {
		t.Fatalf("expected unsupported error event, got %+v", errs)
	}

	if controller.ToggleContinuous(context.Background()) {
		t.Fatalf("continuous mode should stay off without a recognizer")
	}
	status := controller.Status()
	if status.Available || status.Continuous || status.State != domain.SessionStateIdle {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestSessionControllerToggleLifecycle(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{}
	controller, _, speaker, events := newTestController(recognizer)
	ctx := context.Background()

	if err := controller.RequestToggle(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if controller.Status().State != domain.SessionStateCapturing {
		t.Fatalf("expected capturing after first toggle")
	}
	if speaker.last() != "Listening. You can say: enter url, set url to, submit, scan website, read scores, or read findings." {
		t.Fatalf("unexpected reminder: %q", speaker.last())
	}

	recognizer.current().OnStart()
	if events.lastReason() != domain.SessionReasonCaptureStarted {
		t.Fatalf("expected capture_started, got %s", events.lastReason())
	}

	if err := controller.RequestToggle(ctx); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	starts, stops := recognizer.counts()
	if starts != 1 || stops != 1 {
		t.Fatalf("expected one start and one stop, got %d/%d", starts, stops)
	}
	if controller.Status().State != domain.SessionStateCapturing {
		t.Fatalf("state must wait for the end callback")
	}

	recognizer.current().OnEnd()
	if controller.Status().State != domain.SessionStateIdle {
		t.Fatalf("expected idle after end callback")
	}
	if events.lastReason() != domain.SessionReasonCaptureEnded {
		t.Fatalf("expected capture_ended, got %s", events.lastReason())
	}
	if starts, _ := recognizer.counts(); starts != 1 {
		t.Fatalf("recognizer must not restart outside continuous mode")
	}
}

func TestSessionControllerStartFailureReturnsToIdle(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{startErrs: []error{errors.New("microphone busy")}}
	controller, _, speaker, events := newTestController(recognizer)

	if err := controller.RequestToggle(context.Background()); err == nil {
		t.Fatalf("expected start error")
	}
	if controller.Status().State != domain.SessionStateIdle {
		t.Fatalf("expected idle after failed start")
	}
	if events.lastReason() != domain.SessionReasonCaptureFailed {
		t.Fatalf("expected capture_failed, got %s", events.lastReason())
	}
	if len(speaker.snapshot()) != 0 {
		t.Fatalf("no reminder expected after a failed start, got %v", speaker.snapshot())
	}
}

func TestSessionControllerResultsOnlyWhileCapturing(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{}
	controller, handler, _, _ := newTestController(recognizer)

	if err := controller.RequestToggle(context.Background()); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	listener := recognizer.current()
	listener.OnResult("read scores")
	listener.OnEnd()
	listener.OnResult("go home")

	handled := handler.snapshot()
	if len(handled) != 1 || handled[0] != "read scores" {
		t.Fatalf("expected only the in-capture result, got %v", handled)
	}
}

func TestSessionControllerContinuousRearmsAfterEndAndError(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{}
	controller, _, speaker, events := newTestController(recognizer)
	ctx := context.Background()

	if !controller.ToggleContinuous(ctx) {
		t.Fatalf("expected continuous mode enabled")
	}
	if speaker.last() != "Continuous listening enabled." {
		t.Fatalf("unexpected speech: %q", speaker.last())
	}
	if controller.Status().State != domain.SessionStateIdle {
		t.Fatalf("toggling continuous mode must not start a capture")
	}

	if err := controller.RequestToggle(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	recognizer.current().OnEnd()
	if controller.Status().State != domain.SessionStateCapturing {
		t.Fatalf("expected re-armed capture after end")
	}
	if events.lastReason() != domain.SessionReasonRearmed {
		t.Fatalf("expected rearmed reason, got %s", events.lastReason())
	}

	recognizer.current().OnError(errors.New("network dropped"))
	if controller.Status().State != domain.SessionStateCapturing {
		t.Fatalf("expected re-armed capture after error")
	}
	if starts, _ := recognizer.counts(); starts != 3 {
		t.Fatalf("expected 3 starts, got %d", starts)
	}

	if controller.ToggleContinuous(ctx) {
		t.Fatalf("expected continuous mode disabled")
	}
	if speaker.last() != "Continuous listening disabled." {
		t.Fatalf("unexpected speech: %q", speaker.last())
	}
	recognizer.current().OnEnd()
	if controller.Status().State != domain.SessionStateIdle {
		t.Fatalf("expected idle once continuous mode is off")
	}
}

func TestSessionControllerRearmFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	recognizer := &fakeRecognizer{startErrs: []error{nil, errors.New("device gone")}}
	controller, _, _, events := newTestController(recognizer)
	ctx := context.Background()

	controller.ToggleContinuous(ctx)
	if err := controller.RequestToggle(ctx); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	recognizer.current().OnEnd()

	if controller.Status().State != domain.SessionStateIdle {
		t.Fatalf("expected idle after failed re-arm")
	}
	if events.lastReason() != domain.SessionReasonCaptureFailed {
		t.Fatalf("expected capture_failed, got %s", events.lastReason())
	}
	if starts, _ := recognizer.counts(); starts != 2 {
		t.Fatalf("expected exactly one re-arm attempt, got %d starts", starts)
	}
	if !controller.Status().Continuous {
		t.Fatalf("continuous flag must survive a failed re-arm")
	}
}

func TestSessionControllerGreet(t *testing.T) {
	t.Parallel()

	controller, _, speaker, _ := newTestController(&fakeRecognizer{})
	controller.Greet(context.Background())
	if speaker.last() != "Voice assistant ready. Click the microphone to give a command." {
		t.Fatalf("unexpected greeting: %q", speaker.last())
	}
}
