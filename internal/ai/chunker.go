package ai

import "strings"

// SplitWords splits text on whitespace and regroups the words into
// contiguous non-overlapping chunks of at most maxWords words each; the
// last chunk may be shorter. Words are rejoined with single spaces, so any
// run of whitespace in the input collapses. Empty or whitespace-only input
// yields nil.
func SplitWords(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = 100
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
