package launcher

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"conductorctl/internal/testutil/testlog"
)

// writeScript installs an executable stand-in for the conductor binary.
// It receives the setup path as its only argument, like the real thing.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-conductor")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestLaunchDiscoversAnnouncedPort(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()
	bin := writeScript(t, `echo "###ADMIN_PORT:43210###"
sleep 30`)

	h, err := Launch(context.Background(), Options{Binary: bin, SetupPath: setup})
	require.NoError(t, err)
	defer h.Kill()

	require.Equal(t, 43210, h.Port)

	data, err := os.ReadFile(filepath.Join(setup, LiveFile))
	require.NoError(t, err)
	require.Equal(t, "43210", strings.TrimSpace(string(data)))
}

func TestLaunchKillReapsProcessAndClearsLiveFile(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()
	bin := writeScript(t, `echo "###ADMIN_PORT:43211###"
sleep 30`)

	h, err := Launch(context.Background(), Options{Binary: bin, SetupPath: setup})
	require.NoError(t, err)
	pid := h.PID()

	h.Kill()

	err = syscall.Kill(pid, 0)
	require.ErrorIs(t, err, syscall.ESRCH)
	_, err = os.Stat(filepath.Join(setup, LiveFile))
	require.True(t, os.IsNotExist(err))
}

func TestLaunchTimeoutKillsChild(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()
	bin := writeScript(t, `echo "$$" > "$1/child-pid"
sleep 30`)

	_, err := Launch(context.Background(), Options{
		Binary:    bin,
		SetupPath: setup,
		Timeout:   300 * time.Millisecond,
	})
	require.ErrorIs(t, err, ErrLaunchTimeout)

	data, err := os.ReadFile(filepath.Join(setup, "child-pid"))
	require.NoError(t, err)
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	require.NoError(t, err)
	require.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH, "timed-out conductor must not be left running")
}

func TestLaunchChildExitBeforeAnnouncing(t *testing.T) {
	testlog.Start(t)
	bin := writeScript(t, `exit 3`)

	_, err := Launch(context.Background(), Options{Binary: bin, SetupPath: t.TempDir()})
	require.ErrorIs(t, err, ErrLaunchTimeout)
}

func TestLaunchMissingBinaryIsSpawnError(t *testing.T) {
	testlog.Start(t)
	_, err := Launch(context.Background(), Options{
		Binary:    filepath.Join(t.TempDir(), "does-not-exist"),
		SetupPath: t.TempDir(),
	})
	require.ErrorIs(t, err, ErrSpawn)
}

func TestLaunchForcedPortSkipsDiscovery(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()
	// Never announces; a forced port must not wait for discovery.
	bin := writeScript(t, `sleep 30`)

	h, err := Launch(context.Background(), Options{Binary: bin, SetupPath: setup, ForcedPort: 5599})
	require.NoError(t, err)
	defer h.Kill()
	require.Equal(t, 5599, h.Port)
}

func TestAttachReachablePort(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	require.NoError(t, os.WriteFile(filepath.Join(setup, LiveFile), []byte(strconv.Itoa(port)+"\n"), 0o644))

	got, ok := Attach(setup)
	require.True(t, ok)
	require.Equal(t, port, got)
}

func TestAttachStalePortRemovesLiveFile(t *testing.T) {
	testlog.Start(t)
	setup := t.TempDir()

	// Grab a port that is free, then release it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	require.NoError(t, os.WriteFile(filepath.Join(setup, LiveFile), []byte(strconv.Itoa(port)+"\n"), 0o644))

	_, ok := Attach(setup)
	require.False(t, ok)
	_, err = os.Stat(filepath.Join(setup, LiveFile))
	require.True(t, os.IsNotExist(err))
}

func TestAttachNoLiveFile(t *testing.T) {
	testlog.Start(t)
	_, ok := Attach(t.TempDir())
	require.False(t, ok)
}
