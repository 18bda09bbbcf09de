// Package admin implements the control-channel client for a running
// conductor's administrative port.
package admin

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"conductorctl/internal/protocol/frame"
)

var (
	ErrConnect     = errors.New("admin: connect failed")
	ErrRequest     = errors.New("admin: request failed")
	ErrCorrelation = errors.New("admin: response does not correlate with request")
	ErrClosed      = errors.New("admin: client closed")
)

// RemoteError is an error-kind response from the conductor. The exchange
// itself succeeded; the conductor rejected the request.
type RemoteError struct {
	Message string `json:"message"`
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("admin: conductor error: %s", e.Message)
}

const dialTimeout = 5 * time.Second

// CmdRunner owns one open control connection to one conductor admin port.
// Requests are serialized: one exchange at a time, each correlated with
// its response by message id. A closed CmdRunner cannot be reused.
type CmdRunner struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	limits frame.Limits
	token  string
	nextID atomic.Uint64
	closed atomic.Bool
	once   sync.Once
}

// Connect opens a control connection to the admin port on loopback.
// This is the only constructor: it returns an error rather than aborting,
// so any caller, including library embedders, can recover. Top-level
// entry points that want to die on failure do their own exiting.
func Connect(ctx context.Context, port int, token string) (*CmdRunner, error) {
	addr := net.JoinHostPort("127.0.0.1", fmt.Sprintf("%d", port))
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnect, addr, err)
	}
	log.Debug().Str("addr", addr).Msg("admin client connected")
	return &CmdRunner{
		conn:   conn,
		reader: bufio.NewReader(conn),
		limits: frame.DefaultLimits(),
		token:  token,
	}, nil
}

// Call sends one request and waits for its correlated response.
//
// The exchange carries no deadline of its own; only connect and launch
// are bounded. A conductor that never answers will block the caller.
// That gap is inherited from the interface contract, not an oversight.
func (c *CmdRunner) Call(req Request) (Response, error) {
	if c.closed.Load() {
		return Response{}, ErrClosed
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: encode request: %w", ErrRequest, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return Response{}, ErrClosed
	}

	id := c.nextID.Add(1)
	out := frame.Frame{
		Kind:      frame.KindRequest,
		MessageID: id,
		Auth:      []byte(c.token),
		Payload:   payload,
	}
	if err := frame.WriteFrame(c.conn, out, c.limits); err != nil {
		return Response{}, fmt.Errorf("%w: write: %w", ErrRequest, err)
	}

	in, err := frame.ReadFrame(c.reader, c.limits)
	if err != nil {
		return Response{}, fmt.Errorf("%w: read: %w", ErrRequest, err)
	}
	if in.MessageID != id {
		return Response{}, fmt.Errorf("%w: sent id=%d, received id=%d", ErrCorrelation, id, in.MessageID)
	}

	switch in.Kind {
	case frame.KindResponse:
		var resp Response
		if err := json.Unmarshal(in.Payload, &resp); err != nil {
			return Response{}, fmt.Errorf("%w: decode response: %w", ErrRequest, err)
		}
		return resp, nil
	case frame.KindError:
		remote := &RemoteError{}
		if err := json.Unmarshal(in.Payload, remote); err != nil {
			remote.Message = string(in.Payload)
		}
		return Response{}, remote
	default:
		return Response{}, fmt.Errorf("%w: unexpected frame kind %d", ErrRequest, in.Kind)
	}
}

// Close releases the connection. The close frame is fire-and-forget: it
// is written on a background goroutine and its delivery is deliberately
// not awaited, so a process that exits immediately after Close may race
// the frame against its own teardown. Close never blocks the caller and
// is safe to call more than once.
func (c *CmdRunner) Close() {
	c.once.Do(func() {
		c.closed.Store(true)
		go func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			_ = c.conn.SetWriteDeadline(time.Now().Add(time.Second))
			closeFrame := frame.Frame{Kind: frame.KindClose, MessageID: c.nextID.Add(1)}
			if err := frame.WriteFrame(c.conn, closeFrame, c.limits); err != nil {
				log.Debug().Err(err).Msg("admin close frame not delivered")
			}
			_ = c.conn.Close()
		}()
	})
}
