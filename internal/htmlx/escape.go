package htmlx

import "strings"

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeAttr escapes a string for interpolation into an HTML attribute value.
// This is the injection-safety boundary for all handler-controlled values.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// EscapeText escapes a string for interpolation into HTML text content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}
