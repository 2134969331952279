// Package intent maps spoken transcripts onto the fixed command grammar.
package intent

import (
	"regexp"
	"strings"

	"voicepilot/internal/domain"
)

// extractor builds the intent for a matched rule. Returning false rejects the
// match and lets classification fall through to later rules.
type extractor func(transcript string, loc []int) (domain.Intent, bool)

type rule struct {
	kind    domain.IntentKind
	pattern *regexp.Regexp
	extract extractor
}

func (r rule) match(transcript string) (domain.Intent, bool) {
	loc := r.pattern.FindStringSubmatchIndex(transcript)
	if loc == nil {
		return domain.Intent{}, false
	}
	if r.extract == nil {
		return domain.Intent{Kind: r.kind}, true
	}
	return r.extract(transcript, loc)
}

// Classifier evaluates rules in priority order; the first match wins.
type Classifier struct {
	rules []rule
}

func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// Classify expects a lowercased, trimmed, non-empty transcript.
func (c *Classifier) Classify(transcript string) domain.Intent {
	for _, r := range c.rules {
		if in, ok := r.match(transcript); ok {
			return in
		}
	}
	return domain.Intent{Kind: domain.IntentUnknown, RawText: transcript}
}

// defaultRules is the single source of truth for rule priority. Patterns are
// substring matches, so several rules may match one transcript; order decides.
func defaultRules() []rule {
	return []rule{
		{kind: domain.IntentHelp, pattern: regexp.MustCompile(`^(help|what can you do)`)},
		{kind: domain.IntentStartScan, pattern: regexp.MustCompile(`(scan|start).*audit|scan website|start scan`)},
		{kind: domain.IntentGoToReport, pattern: regexp.MustCompile(`go to report|open report|show report`)},
		{kind: domain.IntentGoToURLEntry, pattern: regexp.MustCompile(`enter url|go to url|open url page`)},
		{kind: domain.IntentSetURL, pattern: regexp.MustCompile(`^(set\s+url\s+to\s+|url\s+is\s+|scan\s+)`), extract: extractURL},
		{kind: domain.IntentSubmit, pattern: regexp.MustCompile(`^(submit|start|begin)($|\s+audit)`)},
		{kind: domain.IntentReadScores, pattern: regexp.MustCompile(`read score|read scores|read results|tell me the scores`)},
		{kind: domain.IntentReadFindings, pattern: regexp.MustCompile(`read findings|read (security|performance|seo|accessibility) findings`), extract: extractCategory},
		{kind: domain.IntentNextFinding, pattern: regexp.MustCompile(`next finding|read next`)},
		{kind: domain.IntentPreviousFinding, pattern: regexp.MustCompile(`previous finding|read previous`)},
		{kind: domain.IntentDownloadReport, pattern: regexp.MustCompile(`download report|save report`)},
		{kind: domain.IntentGoHome, pattern: regexp.MustCompile(`^home$|go home|go to home|open home`)},
		{kind: domain.IntentGoBack, pattern: regexp.MustCompile(`go back|back`)},
		{kind: domain.IntentReload, pattern: regexp.MustCompile(`reload|refresh`)},
		{kind: domain.IntentStop, pattern: regexp.MustCompile(`stop|be quiet|mute`)},
	}
}

func extractURL(transcript string, loc []int) (domain.Intent, bool) {
	remainder := strings.TrimSpace(transcript[loc[1]:])
	if remainder == "" {
		return domain.Intent{}, false
	}
	return domain.Intent{Kind: domain.IntentSetURL, Value: NormalizeURL(remainder)}, true
}

var scopedFindings = regexp.MustCompile(`read (security|performance|seo|accessibility) findings`)

func extractCategory(transcript string, _ []int) (domain.Intent, bool) {
	in := domain.Intent{Kind: domain.IntentReadFindings}
	if m := scopedFindings.FindStringSubmatch(transcript); m != nil {
		in.Category = domain.Category(m[1])
	}
	return in, true
}
