package validation

import (
	"strings"
	"testing"
)

func TestSanitizeReportHTMLKeepsTableStructure(t *testing.T) {
	in := `<h2>CAPITAL ONE</h2>
<table><caption>CAP ONE</caption>
<tr><th>TransUnion</th></tr>
<tr><td>Balance</td><td>$100</td></tr>
</table>
<script>alert("x")</script>
<img src=x onerror="alert(1)">`

	out := SanitizeReportHTML(in)

	for _, want := range []string{"<table>", "<caption>", "CAPITAL ONE", "$100"} {
		if !strings.Contains(out, want) {
			t.Errorf("sanitized output missing %q", want)
		}
	}
	for _, banned := range []string{"<script", "onerror", "alert("} {
		if strings.Contains(out, banned) {
			t.Errorf("sanitized output still contains %q", banned)
		}
	}
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"+1234", "'+1234"},
		{"@cmd", "'@cmd"},
		{"-100", "'-100"},
		{"CAPITAL ONE", "CAPITAL ONE"},
		{"", ""},
	}
	for _, c := range cases {
		if got := SanitizeForFormulaInjection(c.in); got != c.want {
			t.Errorf("SanitizeForFormulaInjection(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStripUnprintable(t *testing.T) {
	in := "line1\nline2\tok\x00\x07end"
	want := "line1\nline2\tokend"
	if got := StripUnprintable(in); got != want {
		t.Errorf("StripUnprintable = %q, want %q", got, want)
	}
}
