package usecase

import (
	"context"
	"errors"
	"testing"

	"voicepilot/internal/domain"
	"voicepilot/internal/intent"
)

type recordingExecutor struct {
	intents []domain.Intent
}

func (r *recordingExecutor) Execute(_ context.Context, in domain.Intent) domain.Outcome {
	r.intents = append(r.intents, in)
	return domain.Outcome{Intent: in, Response: "done", Result: domain.ResultOK}
}

func TestInterpreterClassifiesNormalizedTranscript(t *testing.T) {
	t.Parallel()

	executor := &recordingExecutor{}
	journal := &fakeJournal{}
	events := &fakeEventSink{}
	interpreter := NewInterpreter(intent.NewClassifier(), nil, executor, journal, events, nil)

	outcome := interpreter.Handle(context.Background(), "  Set URL to Example dot COM ")
	if outcome.Intent.Kind != domain.IntentSetURL || outcome.Intent.Value != "https://example.com" {
		t.Fatalf("unexpected intent: %+v", outcome.Intent)
	}
	if len(executor.intents) != 1 {
		t.Fatalf("expected one execution, got %d", len(executor.intents))
	}

	if len(journal.entries) != 1 {
		t.Fatalf("expected one journal entry")
	}
	entry := journal.entries[0]
	if entry.ID == "" || entry.Intent != domain.IntentSetURL || entry.Result != domain.ResultOK || entry.Transcript != "Set URL to Example dot COM" {
		t.Fatalf("unexpected journal entry: %+v", entry)
	}

	transcripts := events.snapshotTranscripts()
	if len(transcripts) != 1 || transcripts[0].outcome.Intent.Kind != domain.IntentSetURL {
		t.Fatalf("expected transcript event, got %+v", transcripts)
	}
}

func TestInterpreterIgnoresEmptyTranscript(t *testing.T) {
	t.Parallel()

	executor := &recordingExecutor{}
	journal := &fakeJournal{}
	events := &fakeEventSink{}
	interpreter := NewInterpreter(intent.NewClassifier(), nil, executor, journal, events, nil)

	outcome := interpreter.Handle(context.Background(), "   ")
	if outcome.Result != domain.ResultIgnored {
		t.Fatalf("expected ignored, got %s", outcome.Result)
	}
	if len(executor.intents) != 0 || len(journal.entries) != 0 || len(events.snapshotTranscripts()) != 0 {
		t.Fatalf("empty transcript must not reach the pipeline")
	}
}

func TestInterpreterAppliesAliasesBeforeClassification(t *testing.T) {
	t.Parallel()

	aliases, err := intent.ParseAliases("how did we do => read scores\n")
	if err != nil {
		t.Fatalf("parse aliases: %v", err)
	}
	executor := &recordingExecutor{}
	interpreter := NewInterpreter(intent.NewClassifier(), aliases, executor, nil, &fakeEventSink{}, nil)

	outcome := interpreter.Handle(context.Background(), "How did we do")
	if outcome.Intent.Kind != domain.IntentReadScores {
		t.Fatalf("expected read_scores after alias, got %s", outcome.Intent.Kind)
	}
}

func TestInterpreterJournalFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	events := &fakeEventSink{}
	interpreter := NewInterpreter(
		intent.NewClassifier(),
		nil,
		&recordingExecutor{},
		&fakeJournal{err: errors.New("disk full")},
		events,
		nil,
	)

	outcome := interpreter.Handle(context.Background(), "help")
	if outcome.Result != domain.ResultOK {
		t.Fatalf("unexpected result: %s", outcome.Result)
	}
	errs := events.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeJournal {
		t.Fatalf("expected journal error event, got %+v", errs)
	}
	if len(events.snapshotTranscripts()) != 1 {
		t.Fatalf("transcript event must still be emitted")
	}
}

func TestInterpreterEndToEndWithExecutor(t *testing.T) {
	t.Parallel()

	doc := &fakeDocument{loadID: "load-1", sections: reportSections()}
	speaker := &fakeSpeaker{}
	events := &fakeEventSink{}
	executor := NewExecutor(doc, speaker, events, ExecutorConfig{})
	interpreter := NewInterpreter(intent.NewClassifier(), nil, executor, nil, events, nil)
	ctx := context.Background()

	interpreter.Handle(ctx, "Read SEO findings")
	if speaker.last() != "Finding 1. Meta description is missing" {
		t.Fatalf("unexpected speech: %q", speaker.last())
	}
	interpreter.Handle(ctx, "scan example dot com")
	if doc.urlValue != "https://example.com" {
		t.Fatalf("expected url input to be set, got %q", doc.urlValue)
	}
}
