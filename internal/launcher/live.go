package launcher

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// LiveFile records a setup's admin port while its conductor is running,
// so later invocations can attach instead of launching a second one.
const LiveFile = ".live"

const probeTimeout = 500 * time.Millisecond

// Attach reports a still-reachable admin port recorded for the setup.
// A recorded port that no longer accepts connections is treated as
// stale: the file is removed and ok is false.
func Attach(setupPath string) (port int, ok bool) {
	data, err := os.ReadFile(filepath.Join(setupPath, LiveFile))
	if err != nil {
		return 0, false
	}
	port, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || port <= 0 || port > 65535 {
		clearLivePort(setupPath)
		return 0, false
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		log.Debug().Str("setup", setupPath).Int("port", port).Msg("stale live-port file")
		clearLivePort(setupPath)
		return 0, false
	}
	conn.Close()
	return port, true
}

func recordLivePort(setupPath string, port int) {
	path := filepath.Join(setupPath, LiveFile)
	if err := os.WriteFile(path, []byte(strconv.Itoa(port)+"\n"), 0o644); err != nil {
		// Reuse is an optimization; a failed record only costs a relaunch.
		log.Debug().Str("setup", setupPath).Err(err).Msg("record live port")
	}
}

func clearLivePort(setupPath string) {
	_ = os.Remove(filepath.Join(setupPath, LiveFile))
}
