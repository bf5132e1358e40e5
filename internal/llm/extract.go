package llm

import (
	"regexp"
	"strings"
)

// fencePattern matches a triple-backtick block. The interior is non-greedy so
// the first closing fence ends the block.
var fencePattern = regexp.MustCompile("(?s)```(.*?)```")

// tagLine matches the remainder of an opening fence line: empty or a single
// language tag.
var tagLine = regexp.MustCompile(`^[\w+#.-]*[ \t]*\r?$`)

// languageTags are dropped when they appear alone on the first line.
var languageTags = map[string]bool{
	"python":  true,
	"python3": true,
	"py":      true,
}

// ExtractCode returns the interior of the first fenced block in text, or the
// whole text when there is none. The result is returned verbatim apart from a
// stray leading language tag line. ok is false when nothing but whitespace
// remains.
func ExtractCode(text string) (code string, ok bool) {
	candidate := text
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		candidate = dropFenceTag(m[1])
	}

	candidate = stripLanguageTag(candidate)
	if strings.TrimSpace(candidate) == "" {
		return "", false
	}
	return candidate, true
}

// dropFenceTag removes the opening fence line when it holds at most a tag and
// code follows it. A lone word such as "pass" is code, not a tag.
func dropFenceTag(block string) string {
	first, rest, found := strings.Cut(block, "\n")
	if !found || !tagLine.MatchString(first) {
		return block
	}
	if first != "" && strings.TrimSpace(rest) == "" {
		return block
	}
	return rest
}

func stripLanguageTag(s string) string {
	first, rest, found := strings.Cut(s, "\n")
	if !found {
		return s
	}
	if languageTags[strings.ToLower(strings.TrimSpace(first))] {
		return rest
	}
	return s
}
