// Package launcher starts a conductor binary against a setup directory
// and discovers the admin port it comes up on.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"conductorctl/internal/protocol/ready"
)

var (
	ErrSpawn         = errors.New("launcher: conductor binary could not be started")
	ErrLaunchTimeout = errors.New("launcher: admin port never became available")
)

// DefaultTimeout bounds port discovery, not the conductor's lifetime.
const DefaultTimeout = 15 * time.Second

// Options describes one launch.
type Options struct {
	Binary    string
	SetupPath string
	// ForcedPort skips discovery; the caller asserts the port is correct.
	ForcedPort int
	Timeout    time.Duration
}

// Handle is an owned conductor process plus its admin port. Ownership
// transfers to the caller: either Kill it or let it run detached.
type Handle struct {
	Port      int
	SetupPath string

	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
}

// Launch spawns the conductor and resolves its admin port.
//
// Without a forced port it scans the child's stdout for the readiness
// announcement within the timeout. If the port never appears, or the
// child exits first, the child is killed before returning so a failed
// launch cannot leave a zombie conductor squatting on the setup's lock.
func Launch(ctx context.Context, opts Options) (*Handle, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	cmd := exec.Command(opts.Binary, opts.SetupPath)
	// Own process group so Kill reaps the conductor and anything it forks.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, opts.Binary, err)
	}
	pid := cmd.Process.Pid
	log.Debug().Int("pid", pid).Str("setup", opts.SetupPath).Msg("conductor spawned")

	portCh := make(chan int, 1)
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := scanner.Text()
			if port, ok := ready.ParseLine(line); ok {
				select {
				case portCh <- port:
				default:
				}
				continue
			}
			log.Debug().Int("pid", pid).Str("stream", "stdout").Msg(line)
		}
	}()
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Debug().Int("pid", pid).Str("stream", "stderr").Msg(scanner.Text())
		}
	}()

	h := &Handle{SetupPath: opts.SetupPath, cmd: cmd, exited: make(chan struct{})}
	go func() {
		h.waitErr = cmd.Wait()
		close(h.exited)
	}()

	if opts.ForcedPort > 0 {
		h.Port = opts.ForcedPort
		recordLivePort(opts.SetupPath, h.Port)
		return h, nil
	}

	select {
	case port := <-portCh:
		h.Port = port
		recordLivePort(opts.SetupPath, port)
		log.Info().Int("pid", pid).Int("port", port).Str("setup", opts.SetupPath).Msg("conductor ready")
		return h, nil
	case <-h.exited:
		return nil, fmt.Errorf("%w: conductor exited before announcing (%v)", ErrLaunchTimeout, h.waitErr)
	case <-time.After(opts.Timeout):
		h.Kill()
		return nil, fmt.Errorf("%w: no announcement within %s", ErrLaunchTimeout, opts.Timeout)
	case <-ctx.Done():
		h.Kill()
		return nil, fmt.Errorf("%w: %w", ErrLaunchTimeout, ctx.Err())
	}
}

// PID is the conductor's process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Wait blocks until the conductor exits on its own.
func (h *Handle) Wait() error {
	<-h.exited
	return h.waitErr
}

// Kill terminates the conductor's process group and reaps it. Safe to
// call after the process has already exited.
func (h *Handle) Kill() {
	pid := h.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		log.Warn().Int("pid", pid).Err(err).Msg("kill conductor group")
	}
	<-h.exited
	clearLivePort(h.SetupPath)
	log.Debug().Int("pid", pid).Str("setup", h.SetupPath).Msg("conductor stopped")
}
