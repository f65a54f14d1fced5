package cmd

import (
	"bufio"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/log"
)

const recording = `# daydream press and release
{"time":0,"controllers":[{"id":"Daydream Controller","index":0,"hand":"left","axes":[0,0],"buttons":[{"value":0,"touched":false,"pressed":false}],"pose":{"orientation":[0,0,0,1],"hasOrientation":true},"haptics":1}]}
{"time":16,"controllers":[{"id":"Daydream Controller","index":0,"hand":"left","axes":[0.5,0],"buttons":[{"value":1,"touched":true,"pressed":true}],"pose":{"orientation":[0,0,0,1],"hasOrientation":true}}]}

{"time":32,"controllers":[]}
`

func immediateReplay() *Replay {
	return &Replay{Tracker: TrackerConfig{ConnectDelay: 0, HapticIntensity: 0.1, HapticDuration: 300 * time.Millisecond}}
}

func TestReplayText(t *testing.T) {
	var out strings.Builder
	r := immediateReplay()
	r.Inspect = true
	require.NoError(t, r.replay(strings.NewReader(recording), &out, false, log.Discard(), log.NewFrame(nil)))

	text := out.String()
	assert.Contains(t, text, `#0 controller-connected "Daydream Controller" (daydream, 3dof, left)`)
	assert.Contains(t, text, "#0 haptic-pulse actuator=0 intensity=0.10 duration=300ms")
	assert.Contains(t, text, "#0 thumbpad axes changed [0.5000, 0.0000]")
	assert.Contains(t, text, "#0 thumbpad value-changed 1.0000")
	assert.Contains(t, text, "#0 primary press-began (alias)")
	assert.Contains(t, text, "#0 controller-disconnected")
	// nothing left to inspect once the controller is gone
	assert.NotContains(t, text, "style:")
}

func TestReplayJSON(t *testing.T) {
	var out strings.Builder
	require.NoError(t, immediateReplay().replay(strings.NewReader(recording), &out, true, log.Discard(), log.NewFrame(nil)))

	sc := bufio.NewScanner(strings.NewReader(out.String()))
	var results []apitypes.FrameResult
	for sc.Scan() {
		var res apitypes.FrameResult
		require.NoError(t, json.Unmarshal(sc.Bytes(), &res))
		results = append(results, res)
	}
	require.Len(t, results, 3)
	assert.Equal(t, uint64(3), results[2].Seq)
	assert.Equal(t, "controller-disconnected", results[2].Events[0].Type)
}

func TestReplayErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "bad json", input: "{\"time\":0}\n{oops\n", want: "line 2"},
		{name: "bad head pose", input: "{\"time\":0,\"head\":{\"position\":[1]}}\n", want: "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			err := immediateReplay().replay(strings.NewReader(tt.input), &out, true, log.Discard(), log.NewFrame(nil))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestFormatEvent(t *testing.T) {
	v := 0.25
	from, to := "left", "right"
	tests := []struct {
		event apitypes.Event
		want  string
	}{
		{event: apitypes.Event{Type: "trigger value-changed", Slot: 1, Value: &v}, want: "#1 trigger value-changed 0.2500"},
		{event: apitypes.Event{Type: "hand-changed", Slot: 2, From: &from, To: &to}, want: "#2 hand-changed left -> right"},
		{event: apitypes.Event{Type: "axes-changed", Values: []float64{1}}, want: "#0 axes-changed [1.0000]"},
		{event: apitypes.Event{Type: "primary touch-ended", Alias: true}, want: "#0 primary touch-ended (alias)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEvent(tt.event))
		})
	}
}
