// Package deepgram recognizes spoken commands with Deepgram's streaming
// listen API.
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"voicepilot/internal/ports"
)

const (
	defaultAPIBase = "https://api.deepgram.com/v1"
	defaultModel   = "nova-2"
)

var (
	ErrMissingAPIKey    = errors.New("DEEPGRAM_API_KEY is not configured")
	ErrAlreadyListening = errors.New("recognizer is already listening")
)

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
	// EndpointingMS is the trailing silence that ends an utterance.
	EndpointingMS int
	// InterimResults requests partial transcripts; they are only used when a
	// capture stops before any final arrives.
	InterimResults bool
	ChunkSize      int
	// FlushTimeout bounds how long Stop waits for Deepgram to return the
	// remaining finals.
	FlushTimeout time.Duration
}

// Recognizer implements ports.SpeechRecognizer. Each Start captures one
// utterance: it ends on Deepgram's speech_final marker or on Stop, delivers the
// transcript through OnResult and finishes with OnEnd or OnError.
type Recognizer struct {
	cfg     Config
	capture ports.AudioCapture
	audio   ports.AudioConfig
	dialer  *websocket.Dialer
	logger  *slog.Logger

	mu     sync.Mutex
	active *session
}

func NewRecognizer(cfg Config, capture ports.AudioCapture, audio ports.AudioConfig, logger *slog.Logger) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = 4 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{
		cfg:     cfg,
		capture: capture,
		audio:   audio,
		dialer:  websocket.DefaultDialer,
		logger:  logger.With("component", "deepgram"),
	}
}

func (r *Recognizer) Start(ctx context.Context, listener ports.RecognizerListener) error {
	// The slot is reserved before dialing so a Stop issued while connecting
	// is not lost.
	s := &session{flushTimeout: r.cfg.FlushTimeout}
	r.mu.Lock()
	if r.active != nil {
		r.mu.Unlock()
		return ErrAlreadyListening
	}
	r.active = s
	r.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	ws, err := dialStream(sessionCtx, r.dialer, r.cfg, streamConfig{
		Encoding:       "linear16",
		SampleRate:     r.audio.SampleRate,
		Channels:       r.audio.Channels,
		InterimResults: r.cfg.InterimResults,
		EndpointingMS:  r.cfg.EndpointingMS,
	})
	if err != nil {
		cancel()
		r.clear(s)
		return err
	}

	mic, err := r.capture.Start(sessionCtx, r.audio)
	if err != nil {
		_ = ws.Close()
		cancel()
		r.clear(s)
		return fmt.Errorf("failed to start microphone: %w", err)
	}

	stopRequested := s.attach(cancel, mic, ws)
	go r.run(s, listener)
	if stopRequested {
		r.logger.Debug("stop requested while connecting")
		s.finish(true)
	}
	return nil
}

// Stop ends the current capture; pending finals are still delivered.
func (r *Recognizer) Stop() error {
	r.mu.Lock()
	s := r.active
	r.mu.Unlock()

	if s == nil {
		return nil
	}
	s.finish(true)
	return nil
}

func (r *Recognizer) clear(s *session) {
	r.mu.Lock()
	if r.active == s {
		r.active = nil
	}
	r.mu.Unlock()
}

func (r *Recognizer) run(s *session, listener ports.RecognizerListener) {
	listener.OnStart()

	pumpErr := make(chan error, 1)
	go func() {
		err := pumpAudio(s.mic, s.ws, r.cfg.ChunkSize)
		s.finish(false)
		pumpErr <- err
	}()

	var spoken utterance
	for seg := range s.ws.segments {
		spoken.add(seg)
		if seg.speechFinal && spoken.hasFinal() {
			s.finish(false)
		}
	}
	s.finish(false)

	audioErr := <-pumpErr
	streamErr := s.ws.wait()
	s.release()
	r.clear(s)

	text := spoken.text()
	if text != "" {
		listener.OnResult(text)
		listener.OnEnd()
		return
	}

	switch {
	case s.stoppedByUser():
		listener.OnEnd()
	case streamErr != nil:
		listener.OnError(streamErr)
	case audioErr != nil:
		listener.OnError(audioErr)
	default:
		r.logger.Debug("capture ended without speech")
		listener.OnEnd()
	}
}

// pumpAudio copies microphone chunks into the socket until the microphone
// stops.
func pumpAudio(mic io.Reader, ws *stream, chunkSize int) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := mic.Read(buf)
		if n > 0 {
			if sendErr := ws.send(buf[:n]); sendErr != nil {
				if errors.Is(sendErr, errStreamClosed) {
					return nil
				}
				return fmt.Errorf("failed to stream audio: %w", sendErr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("audio capture error: %w", err)
		}
	}
}

type session struct {
	cancel       context.CancelFunc
	mic          ports.AudioStream
	ws           *stream
	flushTimeout time.Duration

	mu         sync.Mutex
	attached   bool
	finishing  bool
	byUser     bool
	flushTimer *time.Timer
}

// attach installs the live connection and reports whether Stop was called
// while it was being established.
func (s *session) attach(cancel context.CancelFunc, mic ports.AudioStream, ws *stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
	s.mic = mic
	s.ws = ws
	s.attached = true
	return s.byUser
}

// finish stops the microphone and asks Deepgram to flush. The socket is
// force-closed if the flush takes longer than flushTimeout. Before attach it
// only records the request.
func (s *session) finish(byUser bool) {
	s.mu.Lock()
	if byUser {
		s.byUser = true
	}
	if !s.attached || s.finishing {
		s.mu.Unlock()
		return
	}
	s.finishing = true
	ws := s.ws
	s.flushTimer = time.AfterFunc(s.flushTimeout, func() { _ = ws.Close() })
	mic := s.mic
	s.mu.Unlock()

	_ = mic.Stop()
	ws.closeSend()
}

func (s *session) stoppedByUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byUser
}

func (s *session) release() {
	s.mu.Lock()
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}
	s.mu.Unlock()
	_ = s.mic.Close()
	s.cancel()
}
