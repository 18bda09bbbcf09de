// Package conductor is a development stand-in for the conductor runtime.
//
// It honors the collaborator contract the orchestration layer depends on:
// it takes a setup path, announces its admin port on stdout, serves
// authenticated framed request/response exchanges on that port, and
// shuts down cleanly. Production deployments point the CLI at the real
// runtime binary instead.
package conductor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"conductorctl/internal/admin"
	"conductorctl/internal/auth"
	"conductorctl/internal/config"
	"conductorctl/internal/protocol/frame"
	"conductorctl/internal/protocol/ready"
)

// Options configures one stand-in conductor instance.
type Options struct {
	SetupPath string
	Port      int       // overrides the config's admin_port; 0 = ephemeral
	Out       io.Writer // readiness announcement target; default os.Stdout
}

// Server is a running stand-in conductor admin interface.
type Server struct {
	ln          net.Listener
	state       *State
	validator   auth.Validator
	limits      frame.Limits
	wg          sync.WaitGroup
	clientCount atomic.Int64
	closeOnce   sync.Once

	connMu  sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
}

// Start loads the setup's config and token, binds the admin listener,
// announces the port, and begins accepting connections.
func Start(opts Options) (*Server, error) {
	cfg, err := config.Load(opts.SetupPath)
	if err != nil {
		return nil, err
	}
	token, err := auth.LoadTokenFile(opts.SetupPath)
	if err != nil {
		return nil, err
	}

	port := cfg.AdminPort
	if opts.Port != 0 {
		port = opts.Port
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("conductor: bind admin port: %w", err)
	}

	s := &Server{
		ln:        ln,
		state:     NewState(cfg.ID),
		validator: auth.StaticToken{Token: token},
		limits:    frame.DefaultLimits(),
		conns:     make(map[net.Conn]struct{}),
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, ready.Line(s.Port()))
	log.Info().Str("setup", opts.SetupPath).Int("port", s.Port()).Msg("conductor admin listening")

	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Port is the bound admin port.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Shutdown closes the listener and every open connection, then waits for
// the handlers to drain. Handlers block in ReadFrame with no deadline, so
// closing their sockets is what unblocks them; without it an idle client
// would hold Shutdown forever.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() {
		_ = s.ln.Close()
		s.connMu.Lock()
		s.closing = true
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connMu.Unlock()
	})
	s.wg.Wait()
}

// track registers a connection for Shutdown to close. A connection
// accepted after shutdown began is closed immediately.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closing {
		_ = conn.Close()
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn().Err(err).Msg("conductor admin accept")
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

// handleConn serves one admin connection: one response frame per request
// frame, ids echoed. A close frame or read error ends the connection;
// a bad request never does.
func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	active := s.clientCount.Add(1)
	log.Debug().Str("remote", remote).Int64("active_clients", active).Msg("admin client connected")
	defer func() {
		remaining := s.clientCount.Add(-1)
		log.Debug().Str("remote", remote).Int64("active_clients", remaining).Msg("admin client disconnected")
	}()

	for {
		f, err := frame.ReadFrame(conn, s.limits)
		if err != nil {
			if err != io.EOF && !errors.Is(err, frame.ErrShortHeader) && !errors.Is(err, net.ErrClosed) {
				log.Warn().Str("remote", remote).Err(err).Msg("admin read")
			}
			return
		}

		switch f.Kind {
		case frame.KindClose:
			return
		case frame.KindRequest:
			resp := s.dispatch(f)
			if err := frame.WriteFrame(conn, resp, s.limits); err != nil {
				log.Warn().Str("remote", remote).Err(err).Msg("admin write")
				return
			}
		default:
			if err := frame.WriteFrame(conn, errorFrame(f.MessageID, "unexpected frame kind"), s.limits); err != nil {
				return
			}
		}
	}
}

// dispatch authenticates and routes one request, echoing its message id.
func (s *Server) dispatch(f frame.Frame) frame.Frame {
	if err := s.validator.Validate(f.Auth); err != nil {
		return errorFrame(f.MessageID, "unauthorized")
	}

	var req admin.Request
	if err := json.Unmarshal(f.Payload, &req); err != nil {
		return errorFrame(f.MessageID, fmt.Sprintf("malformed request: %v", err))
	}

	resp, err := s.handle(req)
	if err != nil {
		return errorFrame(f.MessageID, err.Error())
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return errorFrame(f.MessageID, fmt.Sprintf("encode response: %v", err))
	}
	return frame.Frame{Kind: frame.KindResponse, MessageID: f.MessageID, Payload: payload}
}

func (s *Server) handle(req admin.Request) (admin.Response, error) {
	switch req.Type {
	case admin.TypeListCells:
		return respond(admin.TypeCells, s.state.Cells())
	case admin.TypeListDNAs:
		return respond(admin.TypeDNAs, s.state.DNAs())
	case admin.TypeListApps:
		return respond(admin.TypeApps, s.state.Apps())
	case admin.TypeGenerateAgentKey:
		return respond(admin.TypeAgentKey, s.state.GenerateAgentKey())
	case admin.TypeInstallApp:
		var args admin.InstallAppArgs
		if err := json.Unmarshal(req.Data, &args); err != nil {
			return admin.Response{}, fmt.Errorf("malformed install_app args: %w", err)
		}
		app, err := s.state.InstallApp(args)
		if err != nil {
			return admin.Response{}, err
		}
		return respond(admin.TypeAppInstalled, app)
	case admin.TypeAttachAppPort:
		var args admin.AttachAppPortArgs
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &args); err != nil {
				return admin.Response{}, fmt.Errorf("malformed attach_app_port args: %w", err)
			}
		}
		return respond(admin.TypeAppPortAttached, s.state.AttachAppPort(args.Port))
	case admin.TypeSysTime:
		return respond(admin.TypeSysTimeReply, s.state.SysTime())
	default:
		return admin.Response{}, fmt.Errorf("unknown request type: %s", req.Type)
	}
}

func respond(respType string, data any) (admin.Response, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return admin.Response{}, fmt.Errorf("encode %s data: %w", respType, err)
	}
	return admin.Response{Type: respType, Data: raw}, nil
}

func errorFrame(id uint64, message string) frame.Frame {
	payload, _ := json.Marshal(admin.RemoteError{Message: message})
	return frame.Frame{Kind: frame.KindError, MessageID: id, Payload: payload}
}
