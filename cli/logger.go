// ABOUTME: Builds the process logger from the configured level
// ABOUTME: Logs go to stderr so stdout stays free for command output and the MCP transport
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// NewLogger returns a timestamped logger at level writing to w.
func NewLogger(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "crmd",
	}), nil
}
