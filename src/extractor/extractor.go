package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/username/creditfolio/src/logger"
)

// ErrExtractionFailed wraps every failure of the external conversion
// process. A failed extraction is fatal for that document; it must never
// degrade into a silently empty report.
var ErrExtractionFailed = errors.New("document extraction failed")

// Result is the structured outcome of one extraction run.
type Result struct {
	Text   string // extracted markup/text handed to the document parser
	Format string // "html" or "json", detected from the output shape
}

// CommandExtractor shells out to an external converter (pdftotext-style:
// document on stdin, text on stdout) with a bounded wait. Stdout and
// stderr are buffered so partial output from a crashed process is
// distinguishable from a valid empty conversion.
type CommandExtractor struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCommandExtractor builds an extractor from a space-separated command
// line, e.g. "pdftotext -layout - -".
func NewCommandExtractor(commandLine string, timeout time.Duration) (*CommandExtractor, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty extractor command", ErrExtractionFailed)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CommandExtractor{command: parts[0], args: parts[1:], timeout: timeout}, nil
}

// Extract runs the converter over the document bytes. Cancellation of the
// parent context propagates; the bounded wait is layered on top.
func (e *CommandExtractor) Extract(ctx context.Context, document io.Reader) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.command, e.args...)
	cmd.Stdin = document
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	logger.L.Debug("Extractor process finished",
		"command", e.command,
		"duration", time.Since(start),
		"stdoutBytes", stdout.Len(),
		"stderrBytes", stderr.Len())

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v (stderr: %s)",
			ErrExtractionFailed, e.command, err, excerpt(stderr.String()))
	}

	text := stdout.String()
	if strings.TrimSpace(text) == "" {
		// The process exited cleanly but produced nothing usable. Surface
		// it as an error rather than letting the parser emit an empty
		// aggregate for a document that clearly had content.
		return nil, fmt.Errorf("%w: %s produced no output (stderr: %s)",
			ErrExtractionFailed, e.command, excerpt(stderr.String()))
	}

	return &Result{Text: text, Format: detectFormat(text)}, nil
}

// detectFormat sniffs whether the converter handed back structured JSON
// or markup/plain text for the HTML parser to walk.
func detectFormat(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return "json"
	}
	return "html"
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "<empty>"
	}
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}
