package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/session"
)

// Session returns the stream handler that lets one host drive the tracker.
// After the SessionHello line the host sends one JSON frame per line and
// reads one FrameResult (or problem) line back per frame. A second host is
// turned away with 409 while a session is active.
func Session(apiSrv *api.Server, version string, opts session.Options) api.StreamHandlerFunc {
	return func(conn net.Conn, req *api.Request, logger *slog.Logger) error {
		defer conn.Close()

		release, ok := apiSrv.AcquireSession()
		if !ok {
			writeProblem(conn, api.ErrConflict("another session is driving the tracker"))
			return nil
		}
		defer release()

		id := uuid.New().String()
		logger = logger.With("session", id)
		logger.Info("session started")
		defer logger.Info("session ended")

		tr := apiSrv.Tracker()
		hello, err := json.Marshal(apitypes.SessionHello{
			Session:        id,
			Server:         ServerName,
			Version:        version,
			ConnectDelayMs: tr.ConnectDelay().Milliseconds(),
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(conn, "%s\n", hello); err != nil {
			return err
		}

		sopts := opts
		if sopts.Logger == nil {
			sopts.Logger = logger
		}
		s := session.New(tr, sopts)

		var r io.Reader = conn
		if idle := apiSrv.Config().SessionIdleTimeout; idle > 0 {
			r = &idleReader{conn: conn, timeout: idle}
		}
		if err := s.Serve(req.Ctx, r, conn); err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logger.Info("session idle, closing")
				return nil
			}
			return err
		}
		return nil
	}
}

type idleReader struct {
	conn    net.Conn
	timeout time.Duration
}

func (r *idleReader) Read(p []byte) (int, error) {
	_ = r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	return r.conn.Read(p)
}

func writeProblem(w io.Writer, err error) {
	b, _ := json.Marshal(api.WrapError(err))
	fmt.Fprintf(w, "%s\n", b)
}
