package parsers

import (
	"testing"

	"github.com/username/creditfolio/src/normalize"
)

func TestGetParser(t *testing.T) {
	fm := normalize.DefaultFieldMap()

	for _, format := range []string{"html", "json"} {
		p, err := GetParser(format, fm)
		if err != nil {
			t.Errorf("GetParser(%q) error: %v", format, err)
		}
		if p == nil {
			t.Errorf("GetParser(%q) returned nil parser", format)
		}
	}

	if _, err := GetParser("csv", fm); err == nil {
		t.Error("expected error for unsupported format")
	}
}
