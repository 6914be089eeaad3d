package validation

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// reportHTMLPolicy keeps the structural elements the document parser
// walks (tables, headings, captions) and strips scripts, styles, event
// handlers and everything else a hostile upload could smuggle in.
var reportHTMLPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("caption")
	return p
}()

// SanitizeReportHTML cleans uploaded report markup before it reaches the
// DOM walker.
func SanitizeReportHTML(html string) string {
	return reportHTMLPolicy.Sanitize(html)
}

// SanitizeForFormulaInjection prepends a single quote if the string
// starts with a formula character, so spreadsheet exports treat it as
// text rather than a live formula.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) > 0 {
		firstChar := rune(trimmed[0])
		if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
			return "'" + s
		}
	}
	return s
}

// StripUnprintable removes non-printable characters, allowing common
// whitespace like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
