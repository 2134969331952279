package intent

import (
	"regexp"
	"strings"
)

var (
	leadingFiller = regexp.MustCompile(`(?i)^(go\s+to|open|visit)\s+`)
	spokenDot     = regexp.MustCompile(`(?i)\s+dot\s+`)
	spokenSlash   = regexp.MustCompile(`(?i)\s+slash\s+`)
	spokenSpace   = regexp.MustCompile(`(?i)\s+space\s+`)
	whitespace    = regexp.MustCompile(`\s+`)
	schemePrefix  = regexp.MustCompile(`(?i)^https?://`)
)

// NormalizeURL turns a spoken address such as "example dot com slash about"
// into an absolute URL. Token substitution runs before whitespace removal so
// adjacent words never merge into a token. The result is not validated.
func NormalizeURL(spoken string) string {
	u := strings.TrimSpace(spoken)
	u = leadingFiller.ReplaceAllString(u, "")
	u = spokenDot.ReplaceAllString(u, ".")
	u = spokenSlash.ReplaceAllString(u, "/")
	u = spokenSpace.ReplaceAllString(u, "")
	u = whitespace.ReplaceAllString(u, "")
	if !schemePrefix.MatchString(u) {
		u = "https://" + u
	}
	return u
}
