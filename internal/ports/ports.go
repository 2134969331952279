package ports

import (
	"context"
	"io"

	"voicepilot/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioStream is a live microphone capture.
type AudioStream interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture opens microphone streams.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioStream, error)
}

// AudioPlayer plays an encoded audio stream until it ends or ctx is cancelled.
type AudioPlayer interface {
	Play(ctx context.Context, audio io.Reader) error
}

// RecognizerListener receives speech recognizer callbacks. A capture session
// ends with exactly one OnEnd or OnError.
type RecognizerListener interface {
	OnStart()
	OnResult(transcript string)
	OnEnd()
	OnError(err error)
}

// SpeechRecognizer turns spoken audio into finalized transcripts. When Start
// returns an error no listener callbacks are delivered for that attempt.
// Start may be called again from inside OnEnd or OnError.
type SpeechRecognizer interface {
	Start(ctx context.Context, listener RecognizerListener) error
	Stop() error
}

// Speaker speaks text aloud. Speak cancels any utterance in flight and
// returns without waiting for playback to finish.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Cancel() error
}

// HostDocument is the page currently loaded in the controlled browser.
// Queries that match nothing return domain.ErrTargetNotFound.
type HostDocument interface {
	// LoadID identifies the current page load; it changes whenever the
	// document is replaced.
	LoadID(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Navigate(ctx context.Context, route string) error
	Back(ctx context.Context) error
	Reload(ctx context.Context) error
	SetURLInput(ctx context.Context, value string) error
	SubmitForm(ctx context.Context) error
	Score(ctx context.Context, label string) (string, error)
	FindingSections(ctx context.Context) ([]domain.FindingSection, error)
}

// Journal records handled utterances.
type Journal interface {
	Record(ctx context.Context, entry domain.JournalEntry) error
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SessionStateChanged(status domain.Status, reason domain.SessionStateReason)
	Transcript(text string, outcome domain.Outcome)
	Utterance(text string)
	SessionError(code domain.ErrorCode, detail string)
}
