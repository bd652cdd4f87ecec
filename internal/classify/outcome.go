package classify

import (
	"strings"
	"time"
)

// OutcomeKind is the final verdict for one fetch job.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeDegradedBenign
	OutcomeFailed
)

// String returns the lowercase label used in logs and summaries.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeDegradedBenign:
		return "degraded"
	default:
		return "failed"
	}
}

// Outcome is computed once at job end and never mutated.
type Outcome struct {
	Kind OutcomeKind
	// BenignCount is the number of benign error lines behind a degraded verdict.
	BenignCount int
	// Diagnosis tags a failed verdict for remediation hints. Empty otherwise.
	Diagnosis string
}

// ErrorRecord is one captured error-or-warning line.
type ErrorRecord struct {
	Text string
	At   time.Time
}

// Diagnosis tags, in the priority order the table applies them.
const (
	DiagAuth      = "auth"
	DiagForbidden = "forbidden"
	DiagNotFound  = "not_found"
	DiagExtractor = "extractor_broken"
	DiagUnknown   = "unknown"

	// Precondition tags assigned by the supervisor before launch.
	DiagCookies = "cookies"
	DiagArchive = "archive_unwritable"
)

// BenignPatterns are lowercase substrings marking error lines that report the
// absence of downloadable media rather than an operational fault. Text-only
// posts routinely produce these.
var BenignPatterns = []string{
	"no supported media found in this post",
}

type diagnosisRule struct {
	Tag     string
	Markers []string
}

// DiagnosisTable maps critical error text to a diagnosis tag. First matching
// rule wins; order is the priority.
var DiagnosisTable = []diagnosisRule{
	{Tag: DiagAuth, Markers: []string{"401", "unauthorized", "login required", "authentication", "account credentials", "cookies"}},
	{Tag: DiagForbidden, Markers: []string{"403", "forbidden", "access denied"}},
	{Tag: DiagNotFound, Markers: []string{"404", "not found", "removed", "unavailable"}},
	{Tag: DiagExtractor, Markers: []string{"unable to extract", "unsupported url", "extractor"}},
}

// ClassifyOutcome decides the job verdict from the exit code and accumulated
// error records. Exit code zero is always success; a non-zero exit with only
// benign records is the expected degraded case for text-only posts.
func ClassifyOutcome(exitCode int, records []ErrorRecord) Outcome {
	if exitCode == 0 {
		return Outcome{Kind: OutcomeSuccess}
	}

	benign := 0
	var critical []ErrorRecord
	for _, record := range records {
		if isBenign(record.Text) {
			benign++
			continue
		}
		critical = append(critical, record)
	}

	if len(critical) == 0 && benign > 0 {
		return Outcome{Kind: OutcomeDegradedBenign, BenignCount: benign}
	}
	return Outcome{Kind: OutcomeFailed, Diagnosis: diagnose(critical)}
}

func isBenign(text string) bool {
	lower := strings.ToLower(text)
	for _, pattern := range BenignPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func diagnose(critical []ErrorRecord) string {
	for _, rule := range DiagnosisTable {
		for _, record := range critical {
			lower := strings.ToLower(record.Text)
			for _, marker := range rule.Markers {
				if strings.Contains(lower, marker) {
					return rule.Tag
				}
			}
		}
	}
	return DiagUnknown
}

// RemediationHint returns the user-facing next step for a diagnosis tag.
func RemediationHint(tag string) string {
	switch tag {
	case DiagAuth, DiagCookies:
		return "re-export browser cookies and verify the account is still logged in"
	case DiagForbidden:
		return "check that the account's membership tier still grants access to this creator"
	case DiagNotFound:
		return "the content may have been removed; confirm the creator page still exists"
	case DiagExtractor:
		return "update yt-dlp; the site layout may have changed since this version"
	case DiagArchive:
		return "check permissions on the archive ledger file"
	default:
		return "inspect the error log and the diagnostic probe capture"
	}
}
