// Package channel delivers pipeline responses back to their originating
// chat platform, chunking replies for channels with message-size limits
// and mirroring escalations to an operator channel.
package channel

import "strings"

// Chunk splits text into pieces of at most maxLen characters, breaking on
// word boundaries where possible. Words longer than maxLen are split hard.
func Chunk(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current string

	for _, word := range strings.Fields(text) {
		switch {
		case current == "" && len(word) <= maxLen:
			current = word
		case current != "" && len(current)+1+len(word) <= maxLen:
			current += " " + word
		default:
			if current != "" {
				chunks = append(chunks, current)
				current = ""
			}
			// Hard-split oversized words
			for len(word) > maxLen {
				chunks = append(chunks, word[:maxLen])
				word = word[maxLen:]
			}
			current = word
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}
