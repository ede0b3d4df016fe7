package repositories

import (
	"strings"
	"time"
	"unicode"
)

// clock returns the current UTC time. Timestamps are stored in UTC so they sort as text.
type clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalize lowercases s and collapses punctuation and whitespace so that "Here Comes The Sun!" and
// "here comes the sun" share a key.
func normalize(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
		default:
			space = true
		}
	}
	return b.String()
}
