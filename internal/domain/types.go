package domain

import (
	"errors"
	"time"
)

// ErrTargetNotFound reports that a host document query matched nothing.
var ErrTargetNotFound = errors.New("target not found on page")

// IntentKind enumerates every command the interpreter understands.
type IntentKind string

const (
	IntentHelp            IntentKind = "help"
	IntentStartScan       IntentKind = "start_scan"
	IntentGoToReport      IntentKind = "go_to_report"
	IntentGoToURLEntry    IntentKind = "go_to_url_entry"
	IntentSetURL          IntentKind = "set_url"
	IntentSubmit          IntentKind = "submit"
	IntentReadScores      IntentKind = "read_scores"
	IntentReadFindings    IntentKind = "read_findings"
	IntentNextFinding     IntentKind = "next_finding"
	IntentPreviousFinding IntentKind = "previous_finding"
	IntentDownloadReport  IntentKind = "download_report"
	IntentGoHome          IntentKind = "go_home"
	IntentGoBack          IntentKind = "go_back"
	IntentReload          IntentKind = "reload"
	IntentStop            IntentKind = "stop"
	IntentUnknown         IntentKind = "unknown"
)

// Category is one of the four audit areas shown on the report page.
type Category string

const (
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategorySEO           Category = "seo"
	CategoryAccessibility Category = "accessibility"
)

// Categories lists the audit areas in report order.
var Categories = []Category{CategorySecurity, CategoryPerformance, CategorySEO, CategoryAccessibility}

// Intent is a classified transcript. Value is set for IntentSetURL, Category
// (optionally) for IntentReadFindings and RawText for IntentUnknown.
type Intent struct {
	Kind     IntentKind `json:"kind"`
	Value    string     `json:"value,omitempty"`
	Category Category   `json:"category,omitempty"`
	RawText  string     `json:"rawText,omitempty"`
}

// SessionState models the listening lifecycle.
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateCapturing SessionState = "capturing"
)

// SessionStateReason provides a structured reason for state transitions.
type SessionStateReason string

const (
	SessionReasonReady            SessionStateReason = "ready"
	SessionReasonCaptureRequested SessionStateReason = "capture_requested"
	SessionReasonCaptureStarted   SessionStateReason = "capture_started"
	SessionReasonStopRequested    SessionStateReason = "stop_requested"
	SessionReasonCaptureEnded     SessionStateReason = "capture_ended"
	SessionReasonCaptureFailed    SessionStateReason = "capture_failed"
	SessionReasonRearmed          SessionStateReason = "rearmed"
	SessionReasonModeChanged      SessionStateReason = "mode_changed"
)

// ErrorCode identifies non-fatal backend errors reported to the UI.
type ErrorCode string

const (
	ErrorCodeStartup     ErrorCode = "startup"
	ErrorCodeRecognizer  ErrorCode = "recognizer"
	ErrorCodeUnsupported ErrorCode = "unsupported"
	ErrorCodeSpeech      ErrorCode = "speech"
	ErrorCodeExecution   ErrorCode = "execution"
	ErrorCodeJournal     ErrorCode = "journal"
)

// Result classifies how a single utterance was handled.
type Result string

const (
	ResultOK       Result = "ok"
	ResultNotFound Result = "not_found"
	ResultFailed   Result = "failed"
	ResultIgnored  Result = "ignored"
)

// Outcome describes what one utterance did.
type Outcome struct {
	Intent   Intent `json:"intent"`
	Response string `json:"response"`
	Result   Result `json:"result"`
}

// Status summarizes the current listening status.
type Status struct {
	State      SessionState `json:"state"`
	Continuous bool         `json:"continuous"`
	Available  bool         `json:"available"`
}

// FindingItem is one remediation finding rendered on the report page.
type FindingItem struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// FindingSection groups findings under a visible section heading.
type FindingSection struct {
	Heading string        `json:"heading"`
	Items   []FindingItem `json:"items"`
}

// JournalEntry records one handled utterance.
type JournalEntry struct {
	ID         string     `json:"id"`
	Transcript string     `json:"transcript"`
	Intent     IntentKind `json:"intent"`
	Response   string     `json:"response"`
	Result     Result     `json:"result"`
	CreatedAt  time.Time  `json:"createdAt"`
}
