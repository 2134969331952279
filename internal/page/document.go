// Package page drives the host application in Chrome over the DevTools
// protocol.
package page

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"

	"voicepilot/internal/domain"
)

var ErrNoBrowser = errors.New("no debugger url or chrome binary available")

// Config selects the browser and the application under control.
type Config struct {
	// DebuggerURL attaches to a running Chrome; empty launches one.
	DebuggerURL       string
	ChromeBin         string
	Headless          bool
	BaseURL           string
	NavigationTimeout time.Duration
	Selectors         Selectors
}

// Document is the host page, connected lazily on first use.
type Document struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	page     *rod.Page
	launched bool
}

func NewDocument(cfg Config, logger *slog.Logger) *Document {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 15 * time.Second
	}
	if len(cfg.Selectors.Missing()) > 0 {
		cfg.Selectors = DefaultSelectors()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{cfg: cfg, logger: logger.With("component", "page")}
}

// Close disconnects from Chrome, closing it only when it was launched here.
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.browser == nil {
		return nil
	}
	var err error
	if d.launched {
		err = d.browser.Close()
	}
	d.browser = nil
	d.page = nil
	return err
}

func (d *Document) LoadID(ctx context.Context) (string, error) {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	res, err := p.Eval(loadIDScript, uuid.NewString())
	if err != nil {
		return "", fmt.Errorf("read page load id: %w", err)
	}
	return res.Value.Str(), nil
}

func (d *Document) Title(ctx context.Context) (string, error) {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	info, err := p.Info()
	if err != nil {
		return "", fmt.Errorf("read page info: %w", err)
	}
	return info.Title, nil
}

func (d *Document) Navigate(ctx context.Context, route string) error {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return err
	}
	defer done()

	target, err := d.resolve(p, route)
	if err != nil {
		return err
	}
	if err := p.Navigate(target); err != nil {
		return fmt.Errorf("navigate to %s: %w", target, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", target, err)
	}
	d.logger.Debug("navigated", "url", target)
	return nil
}

func (d *Document) Back(ctx context.Context) error {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := p.NavigateBack(); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	_ = p.WaitLoad()
	return nil
}

func (d *Document) Reload(ctx context.Context) error {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := p.Reload(); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	_ = p.WaitLoad()
	return nil
}

func (d *Document) SetURLInput(ctx context.Context, value string) error {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return err
	}
	defer done()

	input, err := first(p, d.cfg.Selectors.URLInput)
	if err != nil {
		return err
	}
	if err := input.SelectAllText(); err == nil {
		_ = input.Input("")
	}
	if err := input.Input(value); err != nil {
		return fmt.Errorf("type url: %w", err)
	}
	return nil
}

func (d *Document) SubmitForm(ctx context.Context) error {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return err
	}
	defer done()

	form, err := first(p, d.cfg.Selectors.Form)
	if err != nil {
		return err
	}
	if _, err := form.Eval(submitScript); err != nil {
		return fmt.Errorf("submit form: %w", err)
	}
	return nil
}

// Score reads the value of the score card whose label text equals label
// (compared lowercased).
func (d *Document) Score(ctx context.Context, label string) (string, error) {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return "", err
	}
	defer done()

	s := d.cfg.Selectors
	res, err := p.Eval(scoreScript, strings.ToLower(strings.TrimSpace(label)), s.ScoreCard, s.ScoreValue)
	if err != nil {
		return "", fmt.Errorf("read score %q: %w", label, err)
	}
	if res.Value.Nil() {
		return "", domain.ErrTargetNotFound
	}
	return res.Value.Str(), nil
}

func (d *Document) FindingSections(ctx context.Context) ([]domain.FindingSection, error) {
	p, done, err := d.scoped(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	s := d.cfg.Selectors
	res, err := p.Eval(findingsScript, map[string]string{
		"section":     s.FindingsSection,
		"heading":     s.SectionHeading,
		"item":        s.FindingItem,
		"title":       s.FindingTitle,
		"description": s.FindingDescription,
		"step":        s.FixStep,
	})
	if err != nil {
		return nil, fmt.Errorf("collect findings: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode findings: %w", err)
	}
	var sections []domain.FindingSection
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	if len(sections) == 0 {
		return nil, domain.ErrTargetNotFound
	}
	return sections, nil
}

// scoped returns the tracked page bound to ctx and the navigation timeout.
func (d *Document) scoped(ctx context.Context) (*rod.Page, func(), error) {
	p, err := d.current()
	if err != nil {
		return nil, nil, err
	}
	p = p.Context(ctx).Timeout(d.cfg.NavigationTimeout)
	return p, func() { p.CancelTimeout() }, nil
}

func (d *Document) current() (*rod.Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.page != nil {
		return d.page, nil
	}
	if d.browser == nil {
		if err := d.connectLocked(); err != nil {
			return nil, err
		}
	}

	p, err := d.attachLocked()
	if err != nil {
		return nil, err
	}
	d.page = p
	return p, nil
}

func (d *Document) connectLocked() error {
	controlURL := d.cfg.DebuggerURL
	launched := false
	if controlURL == "" {
		l := launcher.New().Headless(d.cfg.Headless)
		if d.cfg.ChromeBin != "" {
			l = l.Bin(d.cfg.ChromeBin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNoBrowser, err)
		}
		controlURL = u
		launched = true
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	d.browser = browser
	d.launched = launched
	d.logger.Info("browser connected", "control_url", controlURL, "launched", launched)
	return nil
}

// attachLocked prefers an open tab already showing the application.
func (d *Document) attachLocked() (*rod.Page, error) {
	pages, err := d.browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	for _, p := range pages {
		info, err := p.Info()
		if err != nil || string(info.Type) != "page" {
			continue
		}
		if d.cfg.BaseURL == "" || sameOrigin(info.URL, d.cfg.BaseURL) {
			return p, nil
		}
	}

	start := d.cfg.BaseURL
	if start == "" {
		start = "about:blank"
	}
	p, err := d.browser.Page(proto.TargetCreateTarget{URL: start})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", start, err)
	}
	return p, nil
}

func (d *Document) resolve(p *rod.Page, route string) (string, error) {
	base := d.cfg.BaseURL
	if base == "" {
		info, err := p.Info()
		if err != nil {
			return "", fmt.Errorf("read page info: %w", err)
		}
		base = info.URL
	}
	return resolveRoute(base, route)
}

// resolveRoute joins an application route onto the base URL.
func resolveRoute(base string, route string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	r, err := url.Parse(route)
	if err != nil {
		return "", fmt.Errorf("parse route %q: %w", route, err)
	}
	return b.ResolveReference(r).String(), nil
}

func sameOrigin(a string, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return ua.Scheme == ub.Scheme && ua.Host == ub.Host
}

func first(p *rod.Page, selector string) (*rod.Element, error) {
	elements, err := p.Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	if elements.Empty() {
		return nil, domain.ErrTargetNotFound
	}
	return elements.First(), nil
}
