package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger matching the server's format so test
// output reads like production logs.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[chatserver-test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}
