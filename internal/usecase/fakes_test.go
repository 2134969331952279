package usecase

import (
	"context"
	"errors"
	"sync"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

// callLog records side effects from several fakes in one ordered list.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeSpeaker struct {
	mu          sync.Mutex
	log         *callLog
	spoken      []string
	cancelCalls int
	err         error
}

func (f *fakeSpeaker) Speak(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	f.log.add("speak:" + text)
	return f.err
}

func (f *fakeSpeaker) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	f.log.add("cancel")
	return nil
}

func (f *fakeSpeaker) cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCalls
}

func (f *fakeSpeaker) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func (f *fakeSpeaker) last() string {
	spoken := f.snapshot()
	if len(spoken) == 0 {
		return ""
	}
	return spoken[len(spoken)-1]
}

type stateEvent struct {
	status domain.Status
	reason domain.SessionStateReason
}

type errorEvent struct {
	code   domain.ErrorCode
	detail string
}

type transcriptEvent struct {
	text    string
	outcome domain.Outcome
}

type fakeEventSink struct {
	mu          sync.Mutex
	states      []stateEvent
	transcripts []transcriptEvent
	utterances  []string
	errors      []errorEvent
}

func (f *fakeEventSink) SessionStateChanged(status domain.Status, reason domain.SessionStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{status: status, reason: reason})
}

func (f *fakeEventSink) Transcript(text string, outcome domain.Outcome) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, transcriptEvent{text: text, outcome: outcome})
}

func (f *fakeEventSink) Utterance(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, text)
}

func (f *fakeEventSink) SessionError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errorEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stateEvent(nil), f.states...)
}

func (f *fakeEventSink) snapshotErrors() []errorEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]errorEvent(nil), f.errors...)
}

func (f *fakeEventSink) snapshotTranscripts() []transcriptEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transcriptEvent(nil), f.transcripts...)
}

func (f *fakeEventSink) lastReason() domain.SessionStateReason {
	states := f.snapshotStates()
	if len(states) == 0 {
		return ""
	}
	return states[len(states)-1].reason
}

// fakeDocument is an in-memory host page.
type fakeDocument struct {
	log *callLog

	loadID      string
	loadIDErr   error
	title       string
	titleErr    error
	navigateErr error
	urlErr      error
	submitErr   error
	scores      map[string]string
	scoreErr    error
	sections    []domain.FindingSection
	sectionsErr error
	panicOn     string

	// navigateStarted is closed when Navigate begins; Navigate then blocks
	// until navigateGate is closed.
	navigateStarted chan struct{}
	navigateGate    chan struct{}

	urlValue    string
	navigations []string
}

func (f *fakeDocument) maybePanic(op string) {
	if f.panicOn == op {
		panic(op + " exploded")
	}
}

func (f *fakeDocument) LoadID(_ context.Context) (string, error) {
	return f.loadID, f.loadIDErr
}

func (f *fakeDocument) Title(_ context.Context) (string, error) {
	f.maybePanic("title")
	return f.title, f.titleErr
}

func (f *fakeDocument) Navigate(_ context.Context, route string) error {
	f.maybePanic("navigate")
	if f.navigateGate != nil {
		close(f.navigateStarted)
		<-f.navigateGate
	}
	f.log.add("navigate:" + route)
	f.navigations = append(f.navigations, route)
	return f.navigateErr
}

func (f *fakeDocument) Back(_ context.Context) error {
	f.log.add("back")
	return f.navigateErr
}

func (f *fakeDocument) Reload(_ context.Context) error {
	f.log.add("reload")
	return f.navigateErr
}

func (f *fakeDocument) SetURLInput(_ context.Context, value string) error {
	f.maybePanic("set_url")
	if f.urlErr != nil {
		return f.urlErr
	}
	f.urlValue = value
	return nil
}

func (f *fakeDocument) SubmitForm(_ context.Context) error {
	f.maybePanic("submit")
	f.log.add("submit")
	return f.submitErr
}

func (f *fakeDocument) Score(_ context.Context, label string) (string, error) {
	f.maybePanic("score")
	if f.scoreErr != nil {
		return "", f.scoreErr
	}
	score, ok := f.scores[label]
	if !ok {
		return "", domain.ErrTargetNotFound
	}
	return score, nil
}

func (f *fakeDocument) FindingSections(_ context.Context) ([]domain.FindingSection, error) {
	f.maybePanic("findings")
	if f.sectionsErr != nil {
		return nil, f.sectionsErr
	}
	if len(f.sections) == 0 {
		return nil, domain.ErrTargetNotFound
	}
	return f.sections, nil
}

type fakeRecognizer struct {
	mu        sync.Mutex
	startErrs []error
	starts    int
	stops     int
	listener  ports.RecognizerListener
}

func (f *fakeRecognizer) Start(_ context.Context, listener ports.RecognizerListener) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		if err != nil {
			return err
		}
	}
	f.listener = listener
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeRecognizer) current() ports.RecognizerListener {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener
}

func (f *fakeRecognizer) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

type fakeHandler struct {
	mu      sync.Mutex
	handled []string
}

func (f *fakeHandler) Handle(_ context.Context, transcript string) domain.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handled = append(f.handled, transcript)
	return domain.Outcome{Result: domain.ResultOK}
}

func (f *fakeHandler) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.handled...)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []domain.JournalEntry
	err     error
}

func (f *fakeJournal) Record(_ context.Context, entry domain.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

var errPageGone = errors.New("page connection lost")
