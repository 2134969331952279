package deepgram

import "strings"

// utterance accumulates the segments of one spoken command. Finals are kept
// in order; the latest interim text is only a fallback when no final arrived.
type utterance struct {
	finals     []string
	lastSpoken string
}

func (u *utterance) add(seg segment) {
	text := strings.TrimSpace(seg.text)
	if text == "" {
		return
	}
	u.lastSpoken = text
	if seg.final {
		u.finals = append(u.finals, text)
	}
}

func (u *utterance) hasFinal() bool {
	return len(u.finals) > 0
}

func (u *utterance) text() string {
	joined := strings.TrimSpace(strings.Join(u.finals, " "))
	if joined == "" {
		return u.lastSpoken
	}
	if u.lastSpoken == "" || strings.HasSuffix(joined, u.lastSpoken) {
		return joined
	}
	if len(u.lastSpoken) > len(joined) {
		return strings.TrimSpace(joined + " " + u.lastSpoken)
	}
	return joined
}
