package cli

import (
	"context"

	"conductorctl/internal/admin"
	"conductorctl/internal/auth"
	"conductorctl/internal/launcher"
	"conductorctl/internal/registry"
)

// target is one setup resolved to a reachable admin port: either a
// conductor this invocation launched (and owns) or one found already
// running through its live-port file.
type target struct {
	entry  registry.Entry
	port   int
	handle *launcher.Handle // nil when attached to an existing conductor
}

// acquireTarget attaches to a running conductor for the setup, or
// launches one. Ownership of a launched process stays with the target;
// attached conductors are never killed by release. A forced port is the
// caller asserting where the admin interface lives, so it wins over any
// recorded live port.
func acquireTarget(ctx context.Context, entry registry.Entry, binary string, forcedPort int) (*target, error) {
	if forcedPort <= 0 {
		if port, ok := launcher.Attach(entry.Path); ok {
			return &target{entry: entry, port: port}, nil
		}
	}
	h, err := launcher.Launch(ctx, launcher.Options{
		Binary:     binary,
		SetupPath:  entry.Path,
		ForcedPort: forcedPort,
	})
	if err != nil {
		return nil, err
	}
	return &target{entry: entry, port: h.Port, handle: h}, nil
}

// connect opens an admin client using the setup's own token.
func (t *target) connect(ctx context.Context) (*admin.CmdRunner, error) {
	token, err := auth.LoadTokenFile(t.entry.Path)
	if err != nil {
		return nil, err
	}
	return admin.Connect(ctx, t.port, token)
}

// release kills the conductor if this invocation launched it.
func (t *target) release() {
	if t.handle != nil {
		t.handle.Kill()
	}
}
