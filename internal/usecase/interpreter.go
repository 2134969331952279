package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

// Classifier maps a normalized transcript to an intent.
type Classifier interface {
	Classify(transcript string) domain.Intent
}

// Rewriter applies site aliases before classification.
type Rewriter interface {
	Rewrite(text string) string
}

// IntentExecutor performs a classified intent.
type IntentExecutor interface {
	Execute(ctx context.Context, in domain.Intent) domain.Outcome
}

// Interpreter is the per-utterance pipeline: normalize, rewrite, classify,
// execute, record and report.
type Interpreter struct {
	classifier Classifier
	aliases    Rewriter
	executor   IntentExecutor
	journal    ports.Journal
	events     ports.EventSink
	logger     *slog.Logger
	now        func() time.Time
}

// NewInterpreter wires the pipeline. aliases and journal may be nil.
func NewInterpreter(
	classifier Classifier,
	aliases Rewriter,
	executor IntentExecutor,
	journal ports.Journal,
	events ports.EventSink,
	logger *slog.Logger,
) *Interpreter {
	return &Interpreter{
		classifier: classifier,
		aliases:    aliases,
		executor:   executor,
		journal:    journal,
		events:     events,
		logger:     loggerOrDefault(logger).With("component", "interpreter"),
		now:        time.Now,
	}
}

// Handle processes one finalized transcript.
func (i *Interpreter) Handle(ctx context.Context, transcript string) domain.Outcome {
	text := strings.ToLower(strings.TrimSpace(transcript))
	if text == "" {
		return domain.Outcome{Intent: domain.Intent{Kind: domain.IntentUnknown}, Result: domain.ResultIgnored}
	}
	if i.aliases != nil {
		if rewritten := i.aliases.Rewrite(text); rewritten != "" {
			text = rewritten
		}
	}

	in := i.classifier.Classify(text)
	outcome := i.executor.Execute(ctx, in)
	i.logger.Info("utterance handled", "transcript", text, "intent", in.Kind, "result", outcome.Result)

	i.record(ctx, transcript, outcome)
	i.events.Transcript(transcript, outcome)
	return outcome
}

func (i *Interpreter) record(ctx context.Context, transcript string, outcome domain.Outcome) {
	if i.journal == nil {
		return
	}
	entry := domain.JournalEntry{
		ID:         uuid.NewString(),
		Transcript: strings.TrimSpace(transcript),
		Intent:     outcome.Intent.Kind,
		Response:   outcome.Response,
		Result:     outcome.Result,
		CreatedAt:  i.now().UTC(),
	}
	if err := i.journal.Record(ctx, entry); err != nil {
		i.logger.Warn("journal write failed", "error", err)
		i.events.SessionError(domain.ErrorCodeJournal, err.Error())
	}
}
