package chat

import "strings"

const maxTitleLen = 80

// DeriveTitle produces a chat title from the first user message: collapsed
// whitespace, truncated to 80 runes on a word boundary where possible.
// Used synchronously on chat creation; the worker may later replace it
// with a model-generated title.
func DeriveTitle(content string) string {
	title := strings.Join(strings.Fields(content), " ")
	if title == "" {
		return "New chat"
	}

	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}

	cut := string(runes[:maxTitleLen])
	if i := strings.LastIndexByte(cut, ' '); i > maxTitleLen/2 {
		cut = cut[:i]
	}
	return cut
}
