package extractor

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/username/creditfolio/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestNewCommandExtractorRejectsEmptyCommand(t *testing.T) {
	if _, err := NewCommandExtractor("  ", time.Second); err == nil {
		t.Fatal("expected error for empty command line")
	}
}

func TestExtractPassesDocumentThroughCommand(t *testing.T) {
	e, err := NewCommandExtractor("cat", 5*time.Second)
	if err != nil {
		t.Fatalf("building extractor: %v", err)
	}

	result, err := e.Extract(context.Background(), strings.NewReader("<html><body>report</body></html>"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if result.Text != "<html><body>report</body></html>" {
		t.Errorf("text = %q", result.Text)
	}
	if result.Format != "html" {
		t.Errorf("format = %q, want html", result.Format)
	}
}

func TestExtractDetectsJSONOutput(t *testing.T) {
	e, err := NewCommandExtractor("cat", 5*time.Second)
	if err != nil {
		t.Fatalf("building extractor: %v", err)
	}

	result, err := e.Extract(context.Background(), strings.NewReader(`  [{"creditor":"X"}]`))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if result.Format != "json" {
		t.Errorf("format = %q, want json", result.Format)
	}
}

func TestExtractFailsOnMissingCommand(t *testing.T) {
	e, err := NewCommandExtractor("definitely-not-a-real-converter", time.Second)
	if err != nil {
		t.Fatalf("building extractor: %v", err)
	}

	_, err = e.Extract(context.Background(), strings.NewReader("doc"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractFailsOnEmptyOutput(t *testing.T) {
	// true exits cleanly without writing anything; a clean exit with no
	// output is still a failed extraction.
	e, err := NewCommandExtractor("true", time.Second)
	if err != nil {
		t.Fatalf("building extractor: %v", err)
	}

	_, err = e.Extract(context.Background(), strings.NewReader("doc"))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestExtractHonorsContextCancellation(t *testing.T) {
	e, err := NewCommandExtractor("sleep 30", 10*time.Second)
	if err != nil {
		t.Fatalf("building extractor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = e.Extract(ctx, strings.NewReader(""))
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}
