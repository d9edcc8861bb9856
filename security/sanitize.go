package security

import (
	"strings"

	"golang.org/x/net/html"
)

const maxStripPasses = 4

// StripTags returns the text content of s with all markup removed. Script
// and style bodies are dropped. Escaped markup is stripped too: the text is
// decoded and re-tokenized until it no longer changes. Line breaks survive;
// other whitespace runs collapse to one space.
func StripTags(s string) string {
	out := stripOnce(s)
	for range maxStripPasses {
		next := stripOnce(out)
		if next == out {
			return out
		}
		out = next
	}
	// Still nesting escapes after every pass; refuse to return live markup.
	return html.EscapeString(out)
}

func stripOnce(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return normalizeSpace(b.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			b.WriteString(tagBreak(name))
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			b.WriteString(tagBreak(name))
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func tagBreak(name []byte) string {
	switch string(name) {
	case "br", "p", "div", "li":
		return "\n"
	}
	return " "
}

func normalizeSpace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func isRawText(name []byte) bool {
	tag := string(name)
	return tag == "script" || tag == "style"
}
