package session_test

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

func newSession(pub session.Publisher) *session.Session {
	cfg := tracker.DefaultConfig()
	cfg.ConnectDelay = 0
	return session.New(tracker.New(cfg), session.Options{Publisher: pub})
}

func daydream(ms float64, pressed bool) apitypes.Frame {
	return apitypes.Frame{
		Time: ms,
		Head: &apitypes.HeadPose{Position: []float64{0, 1.6, 0}, Orientation: []float64{0, 0, 0, 1}},
		Controllers: []*apitypes.Snapshot{
			nil,
			{
				ID:      "Daydream Controller",
				Index:   1,
				Hand:    "left",
				Axes:    []float64{0, 0},
				Buttons: []apitypes.Button{{Pressed: pressed}},
				Pose:    &apitypes.Pose{Orientation: []float64{0, 0, 0, 1}, HasOrientation: true},
				Haptics: 1,
			},
		},
	}
}

type capture struct{ batches [][]apitypes.Event }

func (c *capture) Publish(events []apitypes.Event) { c.batches = append(c.batches, events) }

func TestApply(t *testing.T) {
	pub := &capture{}
	s := newSession(pub)

	res, err := s.Apply(daydream(1000, false))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Seq)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "controller-connected", res.Events[0].Type)
	require.NotNil(t, res.Events[0].Controller)
	assert.Equal(t, "daydream", res.Events[0].Controller.Style)
	assert.Equal(t, []apitypes.HapticPulse{{Slot: 1, Actuator: 0, Intensity: 0.1, DurationMs: 300}}, res.Haptics)

	res, err = s.Apply(daydream(1016, true))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Seq)
	assert.Empty(t, res.Haptics)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "thumbpad press-began", res.Events[0].Type)
	assert.Equal(t, "primary press-began", res.Events[1].Type)
	assert.True(t, res.Events[1].Alias)

	res, err = s.Apply(daydream(1032, true))
	require.NoError(t, err)
	assert.NotNil(t, res.Events)
	assert.Empty(t, res.Events)

	assert.Len(t, pub.batches, 2)
}

func TestApplyRejectsBadEnvelope(t *testing.T) {
	tests := []struct {
		name  string
		frame apitypes.Frame
	}{
		{name: "short head position", frame: apitypes.Frame{Head: &apitypes.HeadPose{Position: []float64{1}}}},
		{name: "short head orientation", frame: apitypes.Frame{Head: &apitypes.HeadPose{Orientation: []float64{0, 0, 1}}}},
		{name: "short standing", frame: apitypes.Frame{Standing: []float64{1, 0, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(nil)
			_, err := s.Apply(tt.frame)
			assert.Error(t, err)
		})
	}
}

func TestServe(t *testing.T) {
	s := newSession(nil)

	var in strings.Builder
	for _, f := range []apitypes.Frame{daydream(1000, false), daydream(1016, true)} {
		b, err := json.Marshal(f)
		require.NoError(t, err)
		in.Write(b)
		in.WriteByte('\n')
	}
	in.WriteString("\n{not json}\n")

	var out strings.Builder
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(in.String()), &out))

	sc := bufio.NewScanner(strings.NewReader(out.String()))
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	require.Len(t, lines, 3)

	var res apitypes.FrameResult
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &res))
	assert.Equal(t, uint64(2), res.Seq)
	assert.Len(t, res.Events, 2)

	var problem apitypes.ApiError
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &problem))
	assert.Equal(t, 400, problem.Status)
}

func TestDecodeFrames(t *testing.T) {
	in := "# recorded\n{\"time\":1,\"controllers\":[]}\n\n{\"time\":2,\"controllers\":[null]}\n"
	var times []float64
	err := session.DecodeFrames(strings.NewReader(in), func(_ int, f apitypes.Frame) error {
		times = append(times, f.Time)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, times)

	err = session.DecodeFrames(strings.NewReader("{\"time\":1}\nnope\n"), func(int, apitypes.Frame) error { return nil })
	assert.ErrorContains(t, err, "line 2")
}
