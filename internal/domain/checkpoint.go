package domain

import (
	"strings"
	"time"
)

// DefaultLineMatcher is the matcher rule a fresh checkpoint starts on.
const DefaultLineMatcher = "start"

// LogCheckpoint is the durable cursor into one installer log file. A log
// parser reads the file from Position, feeds what it read through Advance,
// interprets the returned lines with its own matcher rules, and persists the
// checkpoint back. After a crash the parser resumes from the stored position
// with the stored partial line, so no byte is lost or processed twice.
//
// Callers must serialize writers per Pathname: one parser owns one log file
// at a time. The checkpoint itself does no locking and no pattern matching.
type LogCheckpoint struct {
	ID              int64
	Pathname        string // Unique log file path
	Position        int64  // Byte offset already read from the file
	PartialLine     string // Trailing bytes read but not yet a complete line
	Progress        float64
	Message         string
	Severity        Severity
	LineMatcherName string
	UpdatedAt       time.Time
}

// NewLogCheckpoint returns a checkpoint at the start of the given file.
func NewLogCheckpoint(pathname string) *LogCheckpoint {
	return &LogCheckpoint{
		Pathname:        pathname,
		Severity:        SeverityInfo,
		LineMatcherName: DefaultLineMatcher,
	}
}

// Advance consumes a chunk read from the file at Position. The carried
// partial line is prepended, complete lines are returned for the caller's
// matcher, and the new trailing fragment is retained. Position moves past
// every byte of the chunk; the partial line's bytes were counted when they
// were first read.
func (c *LogCheckpoint) Advance(chunk string) []string {
	if chunk == "" {
		return nil
	}
	c.Position += int64(len(chunk))
	buffered := c.PartialLine + chunk
	cut := strings.LastIndexByte(buffered, '\n')
	if cut < 0 {
		c.PartialLine = buffered
		return nil
	}
	c.PartialLine = buffered[cut+1:]
	return strings.Split(buffered[:cut], "\n")
}
