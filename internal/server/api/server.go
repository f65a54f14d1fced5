package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/xrinput/internal/server/api/auth"
	"github.com/Alia5/xrinput/tracker"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements a small TCP API for inspecting and driving the tracker.
type Server struct {
	tracker *tracker.Tracker
	addr    string
	ln      net.Listener
	logger  *slog.Logger
	router  *Router
	config  ServerConfig
	// key is derived from config.Password; nil disables authentication.
	key []byte

	sessionMu sync.Mutex
	session   bool
}

// New creates a new API server bound to a tracker.
func New(tr *tracker.Tracker, addr string, config ServerConfig, logger *slog.Logger) *Server {
	a := &Server{
		tracker: tr,
		addr:    addr,
		logger:  logger,
		config:  config,
	}
	a.router = NewRouter()
	if config.Password != "" {
		a.key, _ = auth.DeriveKey(config.Password)
	}
	return a
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Tracker returns the tracker served by the API.
func (a *Server) Tracker() *tracker.Tracker { return a.tracker }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the bound address once Start succeeded, else the configured one.
func (a *Server) Addr() string {
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.logger.Info("API listening", "addr", ln.Addr().String())
	go a.serve()
	return nil
}

// Close stops the API server. Open streams end when their clients hang up.
func (a *Server) Close() {
	if a.ln != nil {
		_ = a.ln.Close()
	}
}

// AcquireSession claims the single driving session slot. The returned
// release func must be called when the session ends.
func (a *Server) AcquireSession() (release func(), ok bool) {
	a.sessionMu.Lock()
	defer a.sessionMu.Unlock()
	if a.session {
		return nil, false
	}
	a.session = true
	var once sync.Once
	return func() {
		once.Do(func() {
			a.sessionMu.Lock()
			a.session = false
			a.sessionMu.Unlock()
		})
	}, true
}

func (a *Server) serve() {
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		go a.handleConn(c)
	}
}

func (a *Server) writeError(w io.Writer, err error) {
	apiErr := WrapError(err)
	problemJSON, _ := json.Marshal(apiErr)
	fmt.Fprintf(w, "%s\n", string(problemJSON))
}

func (a *Server) writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

func (a *Server) handleConn(conn net.Conn) {
	closeConn := true
	defer func() {
		if closeConn {
			conn.Close()
		}
	}()

	connCtx, connCancel := context.WithCancel(context.Background())
	defer connCancel()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())
	r := bufio.NewReader(conn)

	if a.config.ConnectionTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(a.config.ConnectionTimeout))
	}

	if a.key != nil {
		sealed, err := a.authenticate(conn, r)
		if err != nil {
			connLogger.Warn("api authentication failed", "error", err)
			a.writeError(conn, err)
			return
		}
		conn = sealed
		r = bufio.NewReader(conn)
	}
	w := conn

	// Read until null terminator
	reqData, err := r.ReadString('\x00')
	if err != nil {
		if err == io.EOF {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	_ = conn.SetReadDeadline(time.Time{})
	reqData = strings.TrimSuffix(reqData, "\x00")

	if reqData+"\x00" == auth.Magic {
		connLogger.Error("api handshake without password configured")
		a.writeError(w, ErrBadRequest("authentication is not enabled on this server"))
		return
	}

	if reqData == "" {
		connLogger.Error("api empty command")
		a.writeError(w, ErrBadRequest("empty request"))
		return
	}

	// Split on first whitespace character
	loc := wsRegex.FindStringIndex(reqData)

	var path, payload string
	if loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
		payload = ""
	}

	if path == "" {
		connLogger.Error("api empty path")
		a.writeError(w, ErrBadRequest("empty path"))
		return
	}

	path = strings.ToLower(path)
	connLogger.Debug("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			a.writeError(w, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		a.writeOK(w, res.JSON)
		return
	} else if sh, params := a.router.MatchStream(path); sh != nil {
		connLogger.Info("api stream begin", "path", path)
		// Stream handler takes ownership of connection. Bytes already
		// buffered after the terminator belong to the stream.
		closeConn = false
		stream := &bufferedConn{Conn: conn, r: r}
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		if err := sh(stream, req, connLogger); err != nil {
			connLogger.Error("api stream handler error", "path", path, "error", err)
		}
		connLogger.Info("api stream end", "path", path)
		return
	}
	connLogger.Error("api unknown path", "path", path)
	a.writeError(w, ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}

// authenticate runs the password handshake and returns the sealed conn all
// further traffic goes through.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader) (net.Conn, error) {
	ok, err := auth.IsHandshake(r)
	if err != nil {
		return nil, fmt.Errorf("read handshake: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized("password required")
	}
	sessionKey, err := auth.Accept(r, conn, a.key)
	if err != nil {
		return nil, err
	}
	return auth.Seal(conn, sessionKey, true)
}

// bufferedConn reads through the request reader so no stream bytes are lost.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }
