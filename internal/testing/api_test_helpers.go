package testing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/server/api/auth"
	"github.com/Alia5/xrinput/tracker"
)

// StartAPIServer starts an API server on a free port around a fresh tracker
// that announces controllers immediately, and calls register so the caller
// can add the handlers the test needs. Returns the address, the tracker and
// a function to call when done.
func StartAPIServer(t *testing.T, register func(r *api.Router, tr *tracker.Tracker, apiSrv *api.Server)) (addr string, tr *tracker.Tracker, done func()) {
	t.Helper()
	return StartAPIServerWithConfig(t, api.ServerConfig{ConnectionTimeout: time.Second}, register)
}

// StartAPIServerWithConfig is StartAPIServer with an explicit server config.
// The Addr field is ignored.
func StartAPIServerWithConfig(t *testing.T, cfg api.ServerConfig, register func(r *api.Router, tr *tracker.Tracker, apiSrv *api.Server)) (addr string, tr *tracker.Tracker, done func()) {
	t.Helper()
	tcfg := tracker.DefaultConfig()
	tcfg.ConnectDelay = 0
	tr = tracker.New(tcfg)

	cfg.Addr = "127.0.0.1:0"
	apiSrv := api.New(tr, cfg.Addr, cfg, slog.Default())
	if register != nil {
		register(apiSrv.Router(), tr, apiSrv)
	}
	if err := apiSrv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}

	done = func() {
		apiSrv.Close()
		time.Sleep(10 * time.Millisecond)
	}
	return apiSrv.Addr(), tr, done
}

// ExecCmd dials the API server, sends cmd and reads the response line
// without the trailing newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	_, _ = fmt.Fprintf(c, "%s\x00", cmd)

	r := bufio.NewReader(c)
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}

	result := strings.TrimSuffix(line, "\n")
	result = strings.TrimSuffix(result, "\r")
	return result
}

// ExecCmdWithPassword is ExecCmd over an authenticated connection. Handshake
// failures are returned so tests can inspect them.
func ExecCmdWithPassword(t *testing.T, addr, password, cmd string) (string, error) {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(2 * time.Second))

	key, err := auth.DeriveKey(password)
	if err != nil {
		return "", err
	}
	sessionKey, err := auth.Initiate(bufio.NewReader(c), c, key)
	if err != nil {
		return "", err
	}
	sealed, err := auth.Seal(c, sessionKey, false)
	if err != nil {
		return "", err
	}

	_, _ = fmt.Fprintf(sealed, "%s\x00", cmd)
	b, err := io.ReadAll(sealed)
	if err != nil && len(b) == 0 {
		return "", err
	}
	return strings.TrimSuffix(string(b), "\n"), nil
}
