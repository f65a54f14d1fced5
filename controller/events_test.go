package controller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/xrinput/controller"
)

func TestEventType(t *testing.T) {
	tests := []struct {
		ev   controller.Event
		want string
	}{
		{controller.Event{Kind: controller.EventConnected}, "controller-connected"},
		{controller.Event{Kind: controller.EventDisconnected}, "controller-disconnected"},
		{controller.Event{Kind: controller.EventHandChanged}, "hand-changed"},
		{controller.Event{Kind: controller.EventAxesChanged}, "axes-changed"},
		{controller.Event{Kind: controller.EventAxesChanged, Name: "thumbpad"}, "thumbpad axes changed"},
		{controller.Event{Kind: controller.EventValueChanged, Name: "trigger"}, "trigger value-changed"},
		{controller.Event{Kind: controller.EventTouchEnded, Name: "primary", Alias: true}, "primary touch-ended"},
		{controller.Event{Kind: controller.EventPressBegan, Name: "grip"}, "grip press-began"},
		{controller.Event{Kind: controller.EventKind(99)}, "EventKind(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ev.Type())
	}
}

func TestRecorderTake(t *testing.T) {
	rec := &controller.Recorder{}
	var sink controller.Sink = rec
	sink.Emit(controller.Event{Kind: controller.EventConnected})
	sink.Emit(controller.Event{Kind: controller.EventDisconnected})

	got := rec.Take()
	assert.Len(t, got, 2)
	assert.Empty(t, rec.Events)
}
