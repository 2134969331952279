package intent

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Aliases rewrites site-specific phrasing onto the built-in grammar before
// classification, e.g. "audit my site => start audit". Rewrites apply once,
// in file order.
type Aliases struct {
	rules []alias
}

type alias struct {
	re          *regexp.Regexp
	replacement string
}

// LoadAliases reads "from => to" lines from path. An empty path or a missing
// file yields an empty set.
func LoadAliases(path string) (*Aliases, error) {
	if strings.TrimSpace(path) == "" {
		return &Aliases{}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Aliases{}, nil
		}
		return nil, fmt.Errorf("failed to read aliases file %q: %w", path, err)
	}

	aliases, err := ParseAliases(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse aliases file %q: %w", path, err)
	}
	return aliases, nil
}

// ParseAliases compiles alias lines. Blank lines and lines starting with # are
// skipped.
func ParseAliases(contents string) (*Aliases, error) {
	lines := strings.Split(contents, "\n")
	rules := make([]alias, 0, len(lines))

	for index, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		from, to, ok := strings.Cut(line, "=>")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"from => to\"", index+1)
		}
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if from == "" {
			return nil, fmt.Errorf("line %d: alias source cannot be empty", index+1)
		}

		rules = append(rules, alias{re: phrasePattern(from), replacement: to})
	}

	return &Aliases{rules: rules}, nil
}

// Rewrite applies every alias to text.
func (a *Aliases) Rewrite(text string) string {
	if a == nil {
		return text
	}
	for _, rule := range a.rules {
		text = rule.re.ReplaceAllLiteralString(text, rule.replacement)
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// Len reports how many aliases are loaded.
func (a *Aliases) Len() int {
	if a == nil {
		return 0
	}
	return len(a.rules)
}

// phrasePattern matches the phrase case-insensitively on word boundaries, where
// the phrase edges are word characters.
func phrasePattern(phrase string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(phrase)
	first, _ := utf8.DecodeRuneInString(phrase)
	last, _ := utf8.DecodeLastRuneInString(phrase)
	if isWordRune(first) {
		pattern = `\b` + pattern
	}
	if isWordRune(last) {
		pattern += `\b`
	}
	return regexp.MustCompile("(?i)" + pattern)
}

func isWordRune(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}
