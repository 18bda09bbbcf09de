package conductor

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"conductorctl/internal/admin"
)

// State is the stand-in runtime's in-memory world: agent keys, installed
// DNAs, cells, apps, and attached app ports. Per process, never persisted.
type State struct {
	mu        sync.Mutex
	id        string
	agentKeys []string
	dnas      []string
	cells     []admin.Cell
	apps      []admin.AppInfo
	appPorts  []int
	nextPort  int
}

func NewState(id string) *State {
	return &State{id: id, nextPort: 42233}
}

func (s *State) Cells() []admin.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]admin.Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

func (s *State) DNAs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.dnas))
	copy(out, s.dnas)
	return out
}

func (s *State) Apps() []admin.AppInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]admin.AppInfo, len(s.apps))
	copy(out, s.apps)
	return out
}

// GenerateAgentKey mints a new agent identity.
func (s *State) GenerateAgentKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := "agent-" + uuid.NewString()
	s.agentKeys = append(s.agentKeys, key)
	return key
}

// InstallApp registers an app: one cell per DNA path, bound to the agent.
func (s *State) InstallApp(args admin.InstallAppArgs) (admin.AppInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if args.AppID == "" {
		return admin.AppInfo{}, fmt.Errorf("app_id required")
	}
	if len(args.DNAPaths) == 0 {
		return admin.AppInfo{}, fmt.Errorf("at least one dna path required")
	}
	agent := args.AgentKey
	if agent == "" {
		agent = "agent-" + uuid.NewString()
		s.agentKeys = append(s.agentKeys, agent)
	}
	for _, a := range s.apps {
		if a.ID == args.AppID {
			return admin.AppInfo{}, fmt.Errorf("app %q already installed", args.AppID)
		}
	}

	app := admin.AppInfo{ID: args.AppID}
	for _, path := range args.DNAPaths {
		dna := filepath.Base(path)
		s.dnas = append(s.dnas, dna)
		cell := admin.Cell{DNA: dna, Agent: agent}
		s.cells = append(s.cells, cell)
		app.Cells = append(app.Cells, cell)
	}
	s.apps = append(s.apps, app)
	return app, nil
}

// AttachAppPort records an app interface port (0 picks the next free one).
func (s *State) AttachAppPort(port int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if port == 0 {
		port = s.nextPort
		s.nextPort++
	}
	s.appPorts = append(s.appPorts, port)
	return port
}

// SysTime reports the runtime clock in microseconds since the epoch,
// mirroring the host's trivial time query.
func (s *State) SysTime() int64 {
	return time.Now().UnixMicro()
}
