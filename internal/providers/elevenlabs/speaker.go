// Package elevenlabs speaks responses with the ElevenLabs text-to-speech
// REST API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"voicepilot/internal/ports"
)

const (
	defaultAPIBase = "https://api.elevenlabs.io"
	defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	defaultModelID = "eleven_turbo_v2_5"
)

var ErrMissingAPIKey = errors.New("ELEVENLABS_API_KEY is not configured")

type Config struct {
	APIKey     string
	APIBaseURL string
	VoiceID    string
	ModelID    string
	// RequestTimeout bounds synthesis; playback is not included.
	RequestTimeout time.Duration
}

// Speaker implements ports.Speaker. Each utterance is synthesized and then
// played in the background; a new Speak or Cancel interrupts it.
type Speaker struct {
	cfg    Config
	client *http.Client
	player ports.AudioPlayer
	logger *slog.Logger

	mu      sync.Mutex
	current *playback
}

type playback struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *playback) stop() {
	p.cancel()
	<-p.done
}

func NewSpeaker(cfg Config, player ports.AudioPlayer, logger *slog.Logger) *Speaker {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBase
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	if cfg.VoiceID == "" {
		cfg.VoiceID = defaultVoiceID
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Speaker{
		cfg:    cfg,
		client: &http.Client{},
		player: player,
		logger: logger.With("component", "elevenlabs"),
	}
}

// Speak interrupts the utterance in flight and starts text. Empty text only
// interrupts.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return s.Cancel()
	}
	if s.cfg.APIKey == "" {
		return ErrMissingAPIKey
	}

	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	next := &playback{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	prev := s.current
	s.current = next
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	go s.play(playCtx, next, text)
	return nil
}

// Cancel stops the utterance in flight and waits for playback to end.
func (s *Speaker) Cancel() error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	return nil
}

func (s *Speaker) play(ctx context.Context, pb *playback, text string) {
	defer func() {
		s.mu.Lock()
		if s.current == pb {
			s.current = nil
		}
		s.mu.Unlock()
		pb.cancel()
		close(pb.done)
	}()

	audio, err := s.synthesize(ctx, text)
	if err != nil {
		if ctx.Err() == nil {
			synthesisTotal.WithLabelValues("error").Inc()
			s.logger.Warn("synthesis failed", "error", err)
		}
		return
	}
	synthesisTotal.WithLabelValues("ok").Inc()

	if err := s.player.Play(ctx, bytes.NewReader(audio)); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("playback failed", "error", err)
	}
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// synthesize returns the encoded mp3 for text.
func (s *Speaker) synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{Text: text, ModelID: s.cfg.ModelID})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", s.cfg.APIBaseURL, s.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", s.cfg.APIKey)
	req.Header.Set("accept", "audio/mpeg")
	req.Header.Set("content-type", "application/json")

	started := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request speech: %w", err)
	}
	defer resp.Body.Close()
	firstByteMillis.Observe(float64(time.Since(started).Milliseconds()))

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return audio, nil
}
