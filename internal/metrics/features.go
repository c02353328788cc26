// Package metrics derives cheap local text features from messages.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/coder-agent/memory"
)

// Features holds basic local text features derived from an input string.
// Messages is only set by Summarize.
type Features struct {
	Messages int
	Bytes    int
	Runes    int
	Words    int
	Lines    int
}

// CountFeatures computes and returns byte, rune, word, and line counts for the input string.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
	}
}

// Summarize totals the features of msgs per role. Roles with no messages are absent.
func Summarize(msgs []memory.Message) map[memory.Role]Features {
	out := make(map[memory.Role]Features, 3)
	for _, m := range msgs {
		f := CountFeatures(m.Content)
		acc := out[m.Role]
		acc.Messages++
		acc.Bytes += f.Bytes
		acc.Runes += f.Runes
		acc.Words += f.Words
		acc.Lines += f.Lines
		out[m.Role] = acc
	}
	return out
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}
