package feed

import (
	"time"

	"github.com/Alia5/xrinput/apitypes"
)

const (
	MessageControllers = "controllers"
	MessageEvents      = "events"
)

// Message is one WebSocket text frame sent to feed clients.
type Message struct {
	Type        string                    `json:"type"`
	Seq         int64                     `json:"seq"`
	Timestamp   int64                     `json:"timestamp"`
	Controllers []apitypes.ControllerInfo `json:"controllers,omitempty"`
	Events      []apitypes.Event          `json:"events,omitempty"`
}

func newControllersMessage(seq int64, cs []apitypes.ControllerInfo) *Message {
	if cs == nil {
		cs = []apitypes.ControllerInfo{}
	}
	return &Message{Type: MessageControllers, Seq: seq, Timestamp: time.Now().UnixMilli(), Controllers: cs}
}

func newEventsMessage(seq int64, events []apitypes.Event) *Message {
	return &Message{Type: MessageEvents, Seq: seq, Timestamp: time.Now().UnixMilli(), Events: events}
}
