package markdown

import (
	"strings"
	"unicode/utf8"
)

// See https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `\_*[]()~>#+-=|{}.!` + "`"

const ellipsis = "…"

// EscapeV2 makes arbitrary text safe to send as MarkdownV2.
func EscapeV2(input string) string {
	if !strings.ContainsAny(input, mdV2SpecialChars) {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + len(input)/4)

	for _, r := range input {
		if strings.ContainsRune(mdV2SpecialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}

// EscapeV2Limit escapes input like EscapeV2 and cuts the result to at most
// limit bytes, ending it with an ellipsis when anything was dropped. Escape
// pairs are never split.
func EscapeV2Limit(input string, limit int) string {
	escaped := EscapeV2(input)
	if len(escaped) <= limit {
		return escaped
	}

	budget := limit - len(ellipsis)

	var b strings.Builder
	b.Grow(limit)

	for _, r := range input {
		n := utf8.RuneLen(r)
		if strings.ContainsRune(mdV2SpecialChars, r) {
			n++
		}
		if b.Len()+n > budget {
			break
		}

		if n > utf8.RuneLen(r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	b.WriteString(ellipsis)

	return b.String()
}

// Bold escapes text and wraps it in a bold entity.
func Bold(text string) string {
	return "*" + EscapeV2(text) + "*"
}

// Italic escapes text and wraps it in an italic entity.
func Italic(text string) string {
	return "_" + EscapeV2(text) + "_"
}

// Code escapes text for an inline code entity, where only the backtick and
// the backslash are special.
func Code(text string) string {
	r := strings.NewReplacer(`\`, `\\`, "`", "\\`")

	return "`" + r.Replace(text) + "`"
}
