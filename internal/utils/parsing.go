package utils

import (
	"regexp"
	"strings"
)

// Matches triple-backtick fences with an optional language tag right after
// the opening fence. (?is): the tag is case-insensitive and bodies span lines,
// embedded blank lines included.
var codeBlockRegex = regexp.MustCompile("(?is)```(?:python)?\\s*(.*?)```")

// ExtractCodeBlocks returns the fenced code payloads found in text, in source
// order, each trimmed of leading and trailing whitespace. No fences is not an
// error: the result is simply empty.
func ExtractCodeBlocks(text string) []string {
	matches := codeBlockRegex.FindAllStringSubmatch(text, -1)
	var blocks []string
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[1]))
	}
	return blocks
}
