package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

// Routes are the host application paths the executor navigates to.
type Routes struct {
	Scan           string `yaml:"scan"`
	Report         string `yaml:"report"`
	URLEntry       string `yaml:"url_entry"`
	DownloadReport string `yaml:"download_report"`
	Home           string `yaml:"home"`
}

func DefaultRoutes() Routes {
	return Routes{
		Scan:           "/scan",
		Report:         "/report",
		URLEntry:       "/enter-url",
		DownloadReport: "/download-report",
		Home:           "/",
	}
}

// ExecutorConfig controls how intents map onto the host page.
type ExecutorConfig struct {
	Routes Routes
	Labels Labels
	Logger *slog.Logger
}

// response is what a handler decided before any deferred page effect runs.
type response struct {
	speech string
	result domain.Result
	effect func(ctx context.Context) error
}

// Executor performs intents against the host document. Execute never fails:
// errors and panics become spoken apologies.
type Executor struct {
	doc    ports.HostDocument
	voice  announcer
	routes Routes
	labels Labels
	logger *slog.Logger

	mu        sync.Mutex
	navigator *FindingsNavigator
}

func NewExecutor(doc ports.HostDocument, speaker ports.Speaker, events ports.EventSink, cfg ExecutorConfig) *Executor {
	if cfg.Routes == (Routes{}) {
		cfg.Routes = DefaultRoutes()
	}
	if len(cfg.Labels.Scores) == 0 || len(cfg.Labels.Findings) == 0 {
		cfg.Labels = DefaultLabels()
	}
	logger := loggerOrDefault(cfg.Logger).With("component", "executor")
	return &Executor{
		doc:    doc,
		voice:  announcer{speaker: speaker, events: events, logger: logger},
		routes: cfg.Routes,
		labels: cfg.Labels,
		logger: logger,
	}
}

// Execute runs one intent and reports what happened.
func (e *Executor) Execute(ctx context.Context, in domain.Intent) domain.Outcome {
	// Stop only silences speech, so it must not queue behind a navigation.
	if in.Kind == domain.IntentStop {
		intentsTotal.WithLabelValues(string(in.Kind)).Inc()
		e.voice.hush()
		return domain.Outcome{Intent: in, Result: domain.ResultOK}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	defer func() {
		executionMillis.Observe(float64(time.Since(started).Milliseconds()))
	}()
	intentsTotal.WithLabelValues(string(in.Kind)).Inc()

	outcome := domain.Outcome{Intent: in}

	var resp response
	err := guard(func() error {
		var handleErr error
		resp, handleErr = e.handle(ctx, in)
		return handleErr
	})
	if err != nil {
		e.logger.Warn("intent failed", "intent", in.Kind, "error", err)
		e.voice.events.SessionError(domain.ErrorCodeExecution, err.Error())
		outcome.Result = domain.ResultFailed
		outcome.Response = failureMessage(in.Kind)
		e.voice.say(ctx, outcome.Response)
		intentFailuresTotal.WithLabelValues(string(in.Kind), string(outcome.Result)).Inc()
		return outcome
	}

	outcome.Response = resp.speech
	outcome.Result = resp.result
	e.voice.say(ctx, resp.speech)

	if resp.effect != nil {
		if err := guard(func() error { return resp.effect(ctx) }); err != nil {
			e.logger.Warn("page effect failed", "intent", in.Kind, "error", err)
			e.voice.events.SessionError(domain.ErrorCodeExecution, err.Error())
			outcome.Result = domain.ResultFailed
		}
	}

	if outcome.Result != domain.ResultOK {
		intentFailuresTotal.WithLabelValues(string(in.Kind), string(outcome.Result)).Inc()
	}
	return outcome
}

func (e *Executor) handle(ctx context.Context, in domain.Intent) (response, error) {
	switch in.Kind {
	case domain.IntentHelp:
		return ok(msgHelp), nil
	case domain.IntentStartScan:
		return e.navigateTo(msgStartScan, e.routes.Scan), nil
	case domain.IntentGoToReport:
		return e.navigateTo(msgGoToReport, e.routes.Report), nil
	case domain.IntentGoToURLEntry:
		return e.navigateTo(msgGoToURLEntry, e.routes.URLEntry), nil
	case domain.IntentDownloadReport:
		return e.navigateTo(msgDownloading, e.routes.DownloadReport), nil
	case domain.IntentGoHome:
		return e.navigateTo(msgGoingHome, e.routes.Home), nil
	case domain.IntentGoBack:
		return response{speech: msgGoingBack, result: domain.ResultOK, effect: e.doc.Back}, nil
	case domain.IntentReload:
		return response{speech: msgReloading, result: domain.ResultOK, effect: e.doc.Reload}, nil
	case domain.IntentSetURL:
		return e.setURL(ctx, in.Value)
	case domain.IntentSubmit:
		return e.submit(ctx)
	case domain.IntentReadScores:
		return e.readScores(ctx)
	case domain.IntentReadFindings:
		return e.readFindings(ctx, in.Category)
	case domain.IntentNextFinding:
		e.findings(ctx).Advance(1)
		return ok(msgNextFinding), nil
	case domain.IntentPreviousFinding:
		e.findings(ctx).Advance(-1)
		return ok(msgPrevFinding), nil
	default:
		return ok(fmt.Sprintf(msgUnknownFormat, in.RawText, e.pageTitle(ctx))), nil
	}
}

func (e *Executor) navigateTo(speech string, route string) response {
	return response{
		speech: speech,
		result: domain.ResultOK,
		effect: func(ctx context.Context) error {
			return e.doc.Navigate(ctx, route)
		},
	}
}

func (e *Executor) setURL(ctx context.Context, value string) (response, error) {
	err := e.doc.SetURLInput(ctx, value)
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		return response{speech: msgURLNotFound, result: domain.ResultNotFound}, nil
	case err != nil:
		return response{}, fmt.Errorf("set url input: %w", err)
	}
	return ok(msgURLUpdated), nil
}

func (e *Executor) submit(ctx context.Context) (response, error) {
	err := e.doc.SubmitForm(ctx)
	switch {
	case errors.Is(err, domain.ErrTargetNotFound):
		resp := e.navigateTo(msgFormNotFound, e.routes.Scan)
		resp.result = domain.ResultNotFound
		return resp, nil
	case err != nil:
		return response{}, fmt.Errorf("submit form: %w", err)
	}
	return ok(msgSubmitting), nil
}

var spokenCategory = map[domain.Category]string{
	domain.CategorySecurity:      "Security",
	domain.CategoryPerformance:   "Performance",
	domain.CategorySEO:           "S E O",
	domain.CategoryAccessibility: "Accessibility",
}

func (e *Executor) readScores(ctx context.Context) (response, error) {
	parts := make([]string, 0, len(domain.Categories))
	for _, category := range domain.Categories {
		label := e.labels.Scores[category]
		if label == "" {
			continue
		}
		score, err := e.doc.Score(ctx, strings.ToLower(label))
		if errors.Is(err, domain.ErrTargetNotFound) {
			continue
		}
		if err != nil {
			return response{}, fmt.Errorf("read %s score: %w", category, err)
		}
		if score = strings.TrimSpace(score); score != "" {
			parts = append(parts, spokenCategory[category]+" "+score)
		}
	}

	if len(parts) == 0 {
		return response{speech: msgScoresMissing, result: domain.ResultNotFound}, nil
	}
	return ok(strings.Join(parts, ", ")), nil
}

func (e *Executor) readFindings(ctx context.Context, category domain.Category) (response, error) {
	summary, found, err := e.findings(ctx).Read(ctx, e.doc, category)
	if err != nil {
		return response{}, err
	}
	if !found {
		return response{speech: msgNoFindings, result: domain.ResultNotFound}, nil
	}
	return ok(summary), nil
}

// findings returns the navigator for the current page load, replacing it when
// the document has changed since the last call.
func (e *Executor) findings(ctx context.Context) *FindingsNavigator {
	loadID, err := e.doc.LoadID(ctx)
	if err != nil {
		e.logger.Debug("page load id unavailable", "error", err)
		// A known load that can no longer be confirmed may have been replaced.
		if e.navigator == nil || e.navigator.LoadID() != "" {
			e.navigator = NewFindingsNavigator("", e.labels.Findings)
		}
		return e.navigator
	}
	if e.navigator == nil || e.navigator.LoadID() != loadID {
		e.navigator = NewFindingsNavigator(loadID, e.labels.Findings)
	}
	return e.navigator
}

func (e *Executor) pageTitle(ctx context.Context) string {
	title, err := e.doc.Title(ctx)
	if err != nil {
		e.logger.Debug("page title unavailable", "error", err)
		return fallbackTitle
	}
	if title = strings.TrimSpace(title); title == "" {
		return fallbackTitle
	}
	return title
}

func ok(speech string) response {
	return response{speech: speech, result: domain.ResultOK}
}

func failureMessage(kind domain.IntentKind) string {
	switch kind {
	case domain.IntentSetURL:
		return msgURLFailed
	case domain.IntentSubmit:
		return msgSubmitFailed
	case domain.IntentReadScores:
		return msgScoresFailed
	case domain.IntentReadFindings:
		return msgFindingsFailed
	default:
		return ""
	}
}

// guard converts a panic inside fn into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered panic: %v", r)
		}
	}()
	return fn()
}
