package controller

import "fmt"

// EventKind enumerates what changed.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventHandChanged
	EventAxesChanged
	EventValueChanged
	EventTouchBegan
	EventTouchEnded
	EventPressBegan
	EventPressEnded
)

// PrimaryName is the alias under which primary button events are mirrored.
const PrimaryName = "primary"

var kindNames = map[EventKind]string{
	EventConnected:    "controller-connected",
	EventDisconnected: "controller-disconnected",
	EventHandChanged:  "hand-changed",
	EventAxesChanged:  "axes-changed",
	EventValueChanged: "value-changed",
	EventTouchBegan:   "touch-began",
	EventTouchEnded:   "touch-ended",
	EventPressBegan:   "press-began",
	EventPressEnded:   "press-ended",
}

func (k EventKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one typed change record.
//
// Name is the axis group or button name; it is empty for controller level
// events and for ungrouped axes. Alias marks the mirrored copy of a primary
// button event, whose Name is PrimaryName.
type Event struct {
	Kind  EventKind
	Slot  int
	Name  string
	Alias bool

	// EventAxesChanged
	Values []float64
	// EventValueChanged
	Value float64
	// EventHandChanged
	From, To string
	// EventConnected, EventDisconnected
	Controller *Controller
}

// Type renders the event name as listeners know it, e.g.
// "thumbpad axes changed" or "trigger press-began".
func (e Event) Type() string {
	switch e.Kind {
	case EventAxesChanged:
		if e.Name != "" {
			return e.Name + " axes changed"
		}
		return e.Kind.String()
	case EventValueChanged, EventTouchBegan, EventTouchEnded, EventPressBegan, EventPressEnded:
		return e.Name + " " + e.Kind.String()
	default:
		return e.Kind.String()
	}
}

// Sink receives events synchronously. Implementations must not call back
// into the emitting controller.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder collects events in emission order.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(e Event) { r.Events = append(r.Events, e) }

// Types returns the Type of every recorded event.
func (r *Recorder) Types() []string {
	out := make([]string, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Type()
	}
	return out
}

// Take returns the recorded events and resets the recorder.
func (r *Recorder) Take() []Event {
	out := r.Events
	r.Events = nil
	return out
}
