package model

import "time"

// LogStream addresses the shared durable log stream. Resolved once per invocation.
type LogStream struct {
	Group  string
	Stream string
	Region string
}

// LogEntry is one diagnostic line appended to a LogStream. Entries are never mutated.
type LogEntry struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64
	Message   string
}

// NewLogEntry stamps message with t in milliseconds.
func NewLogEntry(t time.Time, message string) LogEntry {
	return LogEntry{Timestamp: t.UnixMilli(), Message: message}
}

// StreamDescription is the log backend's view of a stream's current write position.
type StreamDescription struct {
	Exists bool
	// SequenceToken is nil when the stream has never been written to.
	SequenceToken *string
}

// HasToken reports whether prior entries exist and a token is required.
func (d StreamDescription) HasToken() bool {
	return d.SequenceToken != nil && *d.SequenceToken != ""
}
