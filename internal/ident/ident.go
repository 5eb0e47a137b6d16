// Package ident provides the server's notions of time and identity:
// wall-clock timestamps in the wire format, video room ids and short
// operation ids for log correlation.
package ident

import (
	"time"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// TimeLayout is the timestamp format carried in every command envelope.
const TimeLayout = "2006-01-02 15:04:05"

func NowUTC() string {
	return time.Now().UTC().Format(TimeLayout)
}

// NewVideoRoomID returns a random UUIDv4 used to key video rooms.
func NewVideoRoomID() string {
	return uuid.NewString()
}

// NewOpID returns a short id stamped on log lines so the steps of one
// handler invocation can be correlated.
func NewOpID() string {
	id, err := shortid.Generate()
	if err != nil {
		return "unknown"
	}
	return id
}
