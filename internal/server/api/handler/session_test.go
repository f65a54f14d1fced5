package handler_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/server/api/handler"
	"github.com/Alia5/xrinput/internal/session"
	handlerTest "github.com/Alia5/xrinput/internal/testing"
	"github.com/Alia5/xrinput/tracker"
)

func openSession(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	_, err = fmt.Fprint(c, "session\x00")
	require.NoError(t, err)
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c, bufio.NewReader(c)
}

func sendFrame(t *testing.T, c net.Conn, f apitypes.Frame) {
	t.Helper()
	b, err := json.Marshal(f)
	require.NoError(t, err)
	_, err = c.Write(append(b, '\n'))
	require.NoError(t, err)
}

func frameWire(ms float64, pressed bool) apitypes.Frame {
	return apitypes.Frame{
		Time: ms,
		Controllers: []*apitypes.Snapshot{{
			ID:      "Daydream Controller",
			Index:   0,
			Hand:    "right",
			Axes:    []float64{0, 0},
			Buttons: []apitypes.Button{{Pressed: pressed}},
			Pose:    &apitypes.Pose{Orientation: []float64{0, 0, 0, 1}, HasOrientation: true},
		}},
	}
}

func registerSession(r *api.Router, apiSrv *api.Server) {
	r.RegisterStream("session", handler.Session(apiSrv, "test", session.Options{}))
}

func TestSession(t *testing.T) {
	addr, tr, done := handlerTest.StartAPIServer(t, func(r *api.Router, tr *tracker.Tracker, apiSrv *api.Server) {
		registerSession(r, apiSrv)
	})
	defer done()

	c, r := openSession(t, addr)
	defer c.Close()

	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var hello apitypes.SessionHello
	require.NoError(t, json.Unmarshal(line, &hello))
	assert.Equal(t, "xrinput", hello.Server)
	assert.Equal(t, int64(0), hello.ConnectDelayMs)
	_, err = uuid.Parse(hello.Session)
	assert.NoError(t, err)

	sendFrame(t, c, frameWire(0, false))
	line, err = r.ReadBytes('\n')
	require.NoError(t, err)
	var res apitypes.FrameResult
	require.NoError(t, json.Unmarshal(line, &res))
	assert.Equal(t, uint64(1), res.Seq)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "controller-connected", res.Events[0].Type)

	sendFrame(t, c, frameWire(16, true))
	line, err = r.ReadBytes('\n')
	require.NoError(t, err)
	res = apitypes.FrameResult{}
	require.NoError(t, json.Unmarshal(line, &res))
	require.Len(t, res.Events, 2)
	assert.Equal(t, "thumbpad press-began", res.Events[0].Type)

	_, ok := tr.Controller(0)
	assert.True(t, ok)
}

func TestSessionConflict(t *testing.T) {
	addr, _, done := handlerTest.StartAPIServer(t, func(r *api.Router, tr *tracker.Tracker, apiSrv *api.Server) {
		registerSession(r, apiSrv)
	})
	defer done()

	first, r1 := openSession(t, addr)
	defer first.Close()
	_, err := r1.ReadBytes('\n')
	require.NoError(t, err)

	second, r2 := openSession(t, addr)
	defer second.Close()
	line, err := r2.ReadBytes('\n')
	require.NoError(t, err)
	var problem apitypes.ApiError
	require.NoError(t, json.Unmarshal(line, &problem))
	assert.Equal(t, 409, problem.Status)

	// the slot frees up once the first host hangs up
	_ = first.Close()
	require.Eventually(t, func() bool {
		c, r := openSession(t, addr)
		defer c.Close()
		line, err := r.ReadBytes('\n')
		if err != nil {
			return false
		}
		var hello apitypes.SessionHello
		return json.Unmarshal(line, &hello) == nil && hello.Server == "xrinput"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSessionIdleTimeout(t *testing.T) {
	cfg := api.ServerConfig{SessionIdleTimeout: 50 * time.Millisecond}
	addr, _, done := handlerTest.StartAPIServerWithConfig(t, cfg, func(r *api.Router, tr *tracker.Tracker, apiSrv *api.Server) {
		registerSession(r, apiSrv)
	})
	defer done()

	c, r := openSession(t, addr)
	defer c.Close()
	_, err := r.ReadBytes('\n')
	require.NoError(t, err)

	// server hangs up once the host goes quiet
	_, err = r.ReadBytes('\n')
	assert.Error(t, err)
}
