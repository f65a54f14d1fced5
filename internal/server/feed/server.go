// Package feed serves a read-only WebSocket stream of controller events for
// browser dashboards and other passive observers.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

// ServerConfig is the kong-bound feed configuration.
type ServerConfig struct {
	Addr string `help:"WebSocket event feed listen address, empty disables the feed" default:"" env:"XRINPUT_FEED_ADDR"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local dashboards are served from anywhere
	},
}

// Server exposes a Hub on /ws.
type Server struct {
	hub        *Hub
	tracker    *tracker.Tracker
	addr       string
	logger     *slog.Logger
	ln         net.Listener
	httpServer *http.Server
	cancel     context.CancelFunc
}

func New(tr *tracker.Tracker, cfg ServerConfig, logger *slog.Logger) *Server {
	return &Server{
		hub:     NewHub(logger),
		tracker: tr,
		addr:    cfg.Addr,
		logger:  logger,
	}
}

// Hub returns the hub to hand to a session as its Publisher.
func (s *Server) Hub() *Hub { return s.hub }

// Addr returns the bound address once Start succeeded, else the configured one.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Start listens and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	s.logger.Info("feed listening", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("feed server stopped", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting clients and disconnects the connected ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("feed upgrade failed", "error", err)
		return
	}

	client := NewClient(s.hub, conn)
	// queued before Register so no broadcast can overtake it
	s.sendInitialState(client)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

// sendInitialState gives a new client the announced controllers so it can
// interpret the events that follow.
func (s *Server) sendInitialState(c *Client) {
	var infos []apitypes.ControllerInfo
	s.tracker.View(func(cs []*controller.Controller) {
		for _, ctrl := range cs {
			infos = append(infos, session.ControllerInfo(ctrl))
		}
	})
	data, err := json.Marshal(newControllersMessage(s.hub.nextSeq(), infos))
	if err != nil {
		s.logger.Error("marshal initial feed state", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
