package analytics

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/username/creditfolio/src/logger"
)

// Assign deterministically buckets a user into one of the experiment's
// variants. The same user/experiment pair always maps to the same
// variant, with no stored assignment state.
func Assign(userID int64, experiment string, variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", userID, experiment)
	return variants[h.Sum32()%uint32(len(variants))]
}

// Event is one funnel step (e.g. "report_uploaded", "letters_generated").
type Event struct {
	UserID     int64
	Name       string
	Properties map[string]string
	At         time.Time
}

// Recorder is the metrics-recording boundary. The real sink lives in an
// external analytics collaborator; the pipeline only emits.
type Recorder interface {
	Record(event Event)
}

// LogRecorder writes funnel events to the structured log, which is the
// default sink when no external recorder is wired in.
type LogRecorder struct{}

func (LogRecorder) Record(event Event) {
	logger.L.Info("Funnel event",
		"event", event.Name,
		"userID", event.UserID,
		"properties", event.Properties)
}

// NoopRecorder drops events, for tests and the offline CLI.
type NoopRecorder struct{}

func (NoopRecorder) Record(Event) {}
