package term

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/acolita/term-relay-mcp/internal/adapters/realclock"
	"github.com/acolita/term-relay-mcp/internal/ports"
)

// Defaults for the connect deadline and the quiescence window.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultWait           = 5 * time.Second
)

// connectionMode is the fixed marker appended to the dial URL so the remote
// endpoint can distinguish bridge connections from browser attachments.
const connectionMode = "bridge"

// State is the connection lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Envelope types on the terminal socket.
const (
	envInput  = "input"
	envOutput = "output"
)

// envelope is the {type,data} message framed over the terminal socket.
type envelope struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Dialer abstracts the WebSocket dial so tests can inject failures.
// *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Options configures a Bridge.
type Options struct {
	// Endpoint is the base ws:// or wss:// URL of the remote terminal.
	Endpoint string

	// DefaultTarget is the target path used when a call names none.
	DefaultTarget string

	// ConnectTimeout bounds the dial; zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration

	// DefaultWait is the quiescence window used when Send gets no explicit
	// wait; zero means DefaultWait.
	DefaultWait time.Duration

	Dialer Dialer
	Clock  ports.Clock
}

// Bridge owns the single persistent terminal connection for the process.
// At most one live connection exists; a connect request while one is live
// reuses it. Reconnection is reactive only: a dropped socket is re-dialed
// by the next call, never by a background timer.
//
// Callers are expected to serialize Send invocations. The bridge guards its
// own state with a mutex, but two overlapping quiescence windows share the
// output buffer last-writer-wins.
type Bridge struct {
	endpoint       string
	defaultTarget  string
	connectTimeout time.Duration
	defaultWait    time.Duration
	dialer         Dialer
	clock          ports.Clock
	buf            *Buffer

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	target    string
	dialURL   string
	dials     int
	createdAt time.Time
}

// NewBridge creates a disconnected bridge. No socket is opened until the
// first EnsureConnected or Send.
func NewBridge(opts Options) *Bridge {
	b := &Bridge{
		endpoint:       opts.Endpoint,
		defaultTarget:  opts.DefaultTarget,
		connectTimeout: opts.ConnectTimeout,
		defaultWait:    opts.DefaultWait,
		dialer:         opts.Dialer,
		clock:          opts.Clock,
		buf:            NewBuffer(),
		state:          StateDisconnected,
		target:         opts.DefaultTarget,
	}
	if b.connectTimeout <= 0 {
		b.connectTimeout = DefaultConnectTimeout
	}
	if b.defaultWait <= 0 {
		b.defaultWait = DefaultWait
	}
	if b.dialer == nil {
		b.dialer = websocket.DefaultDialer
	}
	if b.clock == nil {
		b.clock = realclock.New()
	}
	return b
}

// Endpoint returns the configured base endpoint.
func (b *Bridge) Endpoint() string {
	return b.endpoint
}

// Target returns the target path of the current or last connection.
func (b *Bridge) Target() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

// DialCount reports how many dial attempts the bridge has made.
func (b *Bridge) DialCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dials
}

// EnsureConnected makes sure a live connection exists, dialing one if
// needed. While connected it is idempotent and keeps the existing
// connection even if target differs from the one originally dialed;
// switching targets requires Close first.
func (b *Bridge) EnsureConnected(ctx context.Context, target string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ensureLocked(ctx, target)
}

func (b *Bridge) ensureLocked(ctx context.Context, target string) error {
	if b.state == StateConnected && b.conn != nil {
		return nil
	}

	if target == "" {
		target = b.target
	}
	if target == "" {
		target = b.defaultTarget
	}

	dialURL, err := b.buildURL(target)
	if err != nil {
		return err
	}

	b.state = StateConnecting
	dialCtx, cancel := context.WithTimeout(ctx, b.connectTimeout)
	defer cancel()

	b.dials++
	conn, resp, err := b.dialer.DialContext(dialCtx, dialURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		b.state = StateDisconnected
		if dialCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", ErrConnectTimeout, b.connectTimeout)
		}
		return fmt.Errorf("%w: %v", ErrConnectError, err)
	}

	b.conn = conn
	b.state = StateConnected
	b.target = target
	b.dialURL = dialURL
	b.createdAt = b.clock.Now()

	go b.readPump(conn)

	slog.Info("terminal connected",
		slog.String("url", dialURL),
		slog.Int("dials", b.dials),
	)
	return nil
}

// buildURL constructs <endpoint>?path=<target>&mode=<marker>.
func (b *Bridge) buildURL(target string) (string, error) {
	u, err := url.Parse(b.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint %q: %w", b.endpoint, err)
	}
	q := u.Query()
	q.Set("path", target)
	q.Set("mode", connectionMode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// readPump consumes inbound frames until the connection dies. Structured
// output envelopes are scrubbed and accumulated; anything unparsable is
// appended verbatim rather than dropped.
func (b *Bridge) readPump(conn *websocket.Conn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			b.dropConn(conn, err)
			return
		}

		if env, ok := decodeEnvelope(msg); ok {
			if env.Type == envOutput {
				b.buf.Append(Scrub(env.Data))
			}
			continue
		}
		b.buf.Append(string(msg))
	}
}

// decodeEnvelope parses a structured {type,data} frame. The bool reports
// whether msg was structured; callers fall back to the raw bytes otherwise.
func decodeEnvelope(msg []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil || env.Type == "" {
		return envelope{}, false
	}
	return env, true
}

// dropConn clears the connection handle if it is still the current one.
func (b *Bridge) dropConn(conn *websocket.Conn, cause error) {
	conn.Close()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != conn {
		return
	}
	b.conn = nil
	b.state = StateDisconnected
	slog.Warn("terminal connection closed",
		slog.String("url", b.dialURL),
		slog.String("error", cause.Error()),
	)
}

// Send writes command to the remote terminal and collects whatever output
// arrives during the quiescence window. The window is a fixed wait, not an
// idle timeout: it ends after wait elapses even if output is still
// arriving. A non-positive wait uses the configured default.
//
// The buffer is reset first, so the returned text reflects only this
// command's window. An empty return means the window produced no output.
func (b *Bridge) Send(ctx context.Context, command string, wait time.Duration) (string, error) {
	if wait <= 0 {
		wait = b.defaultWait
	}

	b.mu.Lock()
	if err := b.ensureLocked(ctx, ""); err != nil {
		b.mu.Unlock()
		return "", err
	}
	conn := b.conn
	b.buf.Reset()

	// The remote shell treats the payload and the submit keystroke as two
	// separate inputs, hence two frames.
	if err := writeInput(conn, command); err != nil {
		b.mu.Unlock()
		return "", err
	}
	if err := writeInput(conn, "\r"); err != nil {
		b.mu.Unlock()
		return "", err
	}
	b.mu.Unlock()

	select {
	case <-b.clock.After(wait):
	case <-ctx.Done():
		return b.buf.Snapshot(), ctx.Err()
	}

	return b.buf.Snapshot(), nil
}

func writeInput(conn *websocket.Conn, data string) error {
	payload, err := json.Marshal(envelope{Type: envInput, Data: data})
	if err != nil {
		return fmt.Errorf("encode input frame: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	return nil
}

// Output returns the buffer contents, optionally tail-truncated to the
// trailing maxLines lines. It does not consume the buffer.
func (b *Bridge) Output(maxLines int) string {
	return b.buf.Tail(maxLines)
}

// Status describes the bridge for cheap synchronous status checks.
type Status struct {
	Connected  bool   `json:"connected"`
	WSURL      string `json:"ws_url"`
	Target     string `json:"target,omitempty"`
	BufferSize int    `json:"buffer_size"`
}

// Status reports the current connection state and buffer size.
func (b *Bridge) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{
		Connected:  b.state == StateConnected && b.conn != nil,
		WSURL:      b.dialURL,
		Target:     b.target,
		BufferSize: b.buf.Len(),
	}
}

// Close tears down the current connection, if any. The next call re-dials.
func (b *Bridge) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.state = StateDisconnected
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return conn.Close()
}
