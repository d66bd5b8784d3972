package domain

import (
	"strings"
	"unicode"
)

const maxSlugLen = 60

// Slugify lowercases s and collapses every run of characters other than
// letters and digits into sep. Returns "presentation" when nothing is left.
func Slugify(s string, sep rune) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	out := []rune(b.String())
	if len(out) > maxSlugLen {
		out = []rune(strings.TrimRight(string(out[:maxSlugLen]), string(sep)))
	}
	if len(out) == 0 {
		return "presentation"
	}
	return string(out)
}

// DownloadName is the attachment file name offered for a completed artifact.
func (p *Presentation) DownloadName() string {
	return Slugify(p.Topic, '_') + ".pptx"
}
