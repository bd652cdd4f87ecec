package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FolderTitle derives a human-readable directory name from a download identity
// key. Separator runes (underscores, dashes, dots) become spaces, consecutive
// whitespace collapses to one space, each word is title-cased, and results
// longer than maxRunes are truncated with a trailing ellipsis. Returns
// "Untitled" when nothing printable survives.
func FolderTitle(key string, maxRunes int) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range key {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	title = cases.Title(language.Und).String(title)
	if maxRunes > 0 {
		runes := []rune(title)
		if len(runes) > maxRunes {
			title = strings.TrimSpace(string(runes[:maxRunes])) + "..."
		}
	}
	return title
}
