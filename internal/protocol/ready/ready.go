// Package ready defines the conductor's startup announcement: one stdout
// line carrying the admin port, scanned by whoever launched the process.
package ready

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	prefix = "###ADMIN_PORT:"
	suffix = "###"
)

// Line formats the announcement for a listening admin port.
func Line(port int) string {
	return fmt.Sprintf("%s%d%s", prefix, port, suffix)
}

// ParseLine extracts the admin port from one line of process output.
// Lines without an announcement return ok=false.
func ParseLine(line string) (port int, ok bool) {
	start := strings.Index(line, prefix)
	if start < 0 {
		return 0, false
	}
	rest := line[start+len(prefix):]
	end := strings.Index(rest, suffix)
	if end < 0 {
		return 0, false
	}
	port, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}
