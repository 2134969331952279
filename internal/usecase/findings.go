package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"voicepilot/internal/domain"
	"voicepilot/internal/ports"
)

const maxSpokenSteps = 3

// Labels are the visible texts that identify report content on the page.
type Labels struct {
	Scores   map[domain.Category]string `yaml:"scores"`
	Findings map[domain.Category]string `yaml:"findings"`
}

// DefaultLabels matches the stock WebAudit report page.
func DefaultLabels() Labels {
	return Labels{
		Scores: map[domain.Category]string{
			domain.CategorySecurity:      "🛡️ security",
			domain.CategoryPerformance:   "⚡ performance",
			domain.CategorySEO:           "🎯 seo",
			domain.CategoryAccessibility: "♿ accessibility",
		},
		Findings: map[domain.Category]string{
			domain.CategorySecurity:      "🛡️ Security Analysis",
			domain.CategoryPerformance:   "⚡ Performance Analysis",
			domain.CategorySEO:           "🎯 SEO Analysis",
			domain.CategoryAccessibility: "♿ Accessibility Analysis",
		},
	}
}

// FindingsNavigator is a cursor over the findings of one page load.
// It is not safe for concurrent use; the executor serializes access.
type FindingsNavigator struct {
	loadID   string
	headings map[domain.Category]string
	cursor   int
}

func NewFindingsNavigator(loadID string, headings map[domain.Category]string) *FindingsNavigator {
	return &FindingsNavigator{loadID: loadID, headings: headings}
}

// LoadID is the page load this navigator belongs to.
func (n *FindingsNavigator) LoadID() string {
	return n.loadID
}

// Cursor returns the raw, unclamped position.
func (n *FindingsNavigator) Cursor() int {
	return n.cursor
}

// Advance moves the cursor without clamping; Read re-clamps.
func (n *FindingsNavigator) Advance(delta int) {
	n.cursor += delta
}

// Read summarizes the finding under the cursor. ok is false when no finding
// matches; an empty category reads every section.
func (n *FindingsNavigator) Read(ctx context.Context, source ports.HostDocument, category domain.Category) (string, bool, error) {
	sections, err := source.FindingSections(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to collect findings: %w", err)
	}

	items := n.collect(sections, category)
	if len(items) == 0 {
		return "", false, nil
	}

	n.cursor = clamp(n.cursor, 0, len(items)-1)
	return summarizeFinding(items[n.cursor], n.cursor), true, nil
}

func (n *FindingsNavigator) collect(sections []domain.FindingSection, category domain.Category) []domain.FindingItem {
	want := ""
	if category != "" {
		want = strings.ToLower(strings.TrimSpace(n.headings[category]))
		if want == "" {
			return nil
		}
	}

	var items []domain.FindingItem
	for _, section := range sections {
		if want != "" && strings.ToLower(strings.TrimSpace(section.Heading)) != want {
			continue
		}
		items = append(items, section.Items...)
	}
	return items
}

func summarizeFinding(item domain.FindingItem, index int) string {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = fmt.Sprintf("Finding %d", index+1)
	}

	parts := []string{title, strings.TrimSpace(item.Description)}
	for i, step := range item.Steps {
		if i == maxSpokenSteps {
			break
		}
		parts = append(parts, fmt.Sprintf("Step %d. %s", i+1, strings.TrimSpace(step)))
	}
	return strings.Join(parts, ". ")
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
