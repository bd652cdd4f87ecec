package classify

import (
	"strconv"
	"strings"
)

// Kind is the semantic category of one output line.
type Kind int

const (
	KindDebug Kind = iota
	KindInfo
	KindProgress
	KindErrorOrWarning
)

// String returns the lowercase label used in logs.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindProgress:
		return "progress"
	case KindErrorOrWarning:
		return "error"
	default:
		return "debug"
	}
}

// Event is the classification result for a single raw line.
type Event struct {
	Kind Kind
	Text string
	// Percent is valid only for KindProgress.
	Percent float64
}

const (
	progressMarker        = "[download]"
	infoMarker            = "[info]"
	downloadingPageMarker = "downloading page"
)

// Line maps a raw output line to exactly one Event. Rules apply in priority
// order; the error rule wins over everything so a line like
// "[download] ERROR: ..." is never mistaken for progress. Only percent-bearing
// lines become KindProgress; download-channel lines without a percentage
// (Destination, already downloaded, Resuming, item counters) are Info, which
// is never rate-limited.
func Line(raw string) Event {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	if strings.Contains(lower, "error:") || strings.Contains(lower, "warning:") {
		return Event{Kind: KindErrorOrWarning, Text: text}
	}

	if strings.HasPrefix(lower, progressMarker) {
		if percent, ok := parsePercent(text); ok {
			return Event{Kind: KindProgress, Text: text, Percent: percent}
		}
		return Event{Kind: KindInfo, Text: text}
	}

	if strings.Contains(lower, infoMarker) || strings.Contains(lower, downloadingPageMarker) {
		return Event{Kind: KindInfo, Text: text}
	}

	return Event{Kind: KindDebug, Text: text}
}

// parsePercent extracts the first decimal number immediately followed by '%'.
func parsePercent(text string) (float64, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			continue
		}
		j := i
		dot := false
		for j < len(text) {
			c := text[j]
			if c >= '0' && c <= '9' {
				j++
				continue
			}
			if c == '.' && !dot {
				dot = true
				j++
				continue
			}
			break
		}
		if j < len(text) && text[j] == '%' {
			value, err := strconv.ParseFloat(strings.TrimSuffix(text[i:j], "."), 64)
			if err == nil {
				return value, true
			}
		}
		i = j
	}
	return 0, false
}
