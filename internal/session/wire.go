package session

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/mapping"
	"github.com/Alia5/xrinput/spatial"
	"github.com/Alia5/xrinput/tracker"
)

// FrameTime converts a host timestamp in milliseconds. Non-positive values
// yield the zero time, which the tracker replaces with the server clock.
func FrameTime(ms float64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(0).Add(time.Duration(ms * float64(time.Millisecond)))
}

// FrameFromWire validates the host envelope and converts it. Snapshot
// contents are not validated here; the tracker tolerates malformed poses.
// haptics receives one actuator per advertised motor.
func FrameFromWire(f apitypes.Frame, haptics func(slot, actuator int) controller.HapticActuator) (tracker.Frame, error) {
	out := tracker.Frame{
		Time:            FrameTime(f.Time),
		HeadOrientation: mgl64.QuatIdent(),
	}

	if f.Head != nil {
		if f.Head.Position != nil {
			p, ok := spatial.Vec3FromArray(f.Head.Position)
			if !ok {
				return tracker.Frame{}, fmt.Errorf("head position: want 3 finite numbers, got %v", f.Head.Position)
			}
			out.HeadPosition = p
		}
		if f.Head.Orientation != nil {
			q, ok := spatial.QuatFromArray(f.Head.Orientation)
			if !ok {
				return tracker.Frame{}, fmt.Errorf("head orientation: want 4 finite numbers, got %v", f.Head.Orientation)
			}
			out.HeadOrientation = q
		}
	}

	if f.Standing != nil {
		if len(f.Standing) != 16 {
			return tracker.Frame{}, fmt.Errorf("standing: want 16 numbers, got %d", len(f.Standing))
		}
		var m mgl64.Mat4
		copy(m[:], f.Standing)
		out.Standing = &m
	}

	out.Snapshots = make([]*controller.Snapshot, len(f.Controllers))
	for i, s := range f.Controllers {
		out.Snapshots[i] = SnapshotFromWire(s, haptics)
	}
	return out, nil
}

// SnapshotFromWire converts one slot; nil stays nil.
func SnapshotFromWire(s *apitypes.Snapshot, haptics func(slot, actuator int) controller.HapticActuator) *controller.Snapshot {
	if s == nil {
		return nil
	}
	out := &controller.Snapshot{
		ID:      s.ID,
		Index:   s.Index,
		Hand:    s.Hand,
		Axes:    s.Axes,
		Buttons: make([]controller.ButtonReading, len(s.Buttons)),
	}
	for i, b := range s.Buttons {
		out.Buttons[i] = controller.ButtonReading{Value: b.Value, Touched: b.Touched, Pressed: b.Pressed}
	}
	if s.Pose != nil {
		out.Pose = &controller.PoseReading{
			Orientation:    s.Pose.Orientation,
			Position:       s.Pose.Position,
			HasOrientation: s.Pose.HasOrientation,
			HasPosition:    s.Pose.HasPosition,
		}
	}
	if haptics != nil {
		for i := 0; i < s.Haptics; i++ {
			out.Haptics = append(out.Haptics, haptics(s.Index, i))
		}
	}
	return out
}

// EventToWire converts a core event.
func EventToWire(e controller.Event) apitypes.Event {
	out := apitypes.Event{
		Type:  e.Type(),
		Slot:  e.Slot,
		Name:  e.Name,
		Alias: e.Alias,
	}
	switch e.Kind {
	case controller.EventAxesChanged:
		out.Values = e.Values
		if out.Values == nil {
			out.Values = []float64{}
		}
	case controller.EventValueChanged:
		v := e.Value
		out.Value = &v
	case controller.EventHandChanged:
		from, to := e.From, e.To
		out.From, out.To = &from, &to
	case controller.EventConnected, controller.EventDisconnected:
		if c := e.Controller; c != nil {
			out.Controller = &apitypes.ControllerRef{
				Slot:  c.Slot(),
				ID:    c.ID(),
				Style: c.Style(),
				DOF:   c.DOF(),
				Hand:  c.Handedness(),
			}
		}
	}
	return out
}

// EventsToWire converts a batch; the result is never nil.
func EventsToWire(events []controller.Event) []apitypes.Event {
	out := make([]apitypes.Event, len(events))
	for i, e := range events {
		out[i] = EventToWire(e)
	}
	return out
}

// ControllerInfo snapshots the state of c.
func ControllerInfo(c *controller.Controller) apitypes.ControllerInfo {
	st := c.State()
	info := apitypes.ControllerInfo{
		Slot:        c.Slot(),
		ID:          c.ID(),
		Style:       c.Style(),
		Mapped:      c.Mapped(),
		DOF:         c.DOF(),
		Hand:        c.Handedness(),
		Axes:        st.AxisValues(),
		Groups:      []apitypes.AxisGroup{},
		Buttons:     []apitypes.ButtonState{},
		Orientation: spatial.QuatToArray(c.Orientation()),
		ArmModel:    c.UsesArmModel(),
	}
	pos := c.Position()
	info.Position = append([]float64(nil), pos[:]...)
	world := c.WorldMatrix()
	info.World = append([]float64(nil), world[:]...)
	for _, g := range st.Groups() {
		info.Groups = append(info.Groups, apitypes.AxisGroup{Name: g.Name, Indexes: g.Indexes})
	}
	for _, b := range st.Buttons() {
		info.Buttons = append(info.Buttons, apitypes.ButtonState{
			Index:   b.Index,
			Name:    b.Name,
			Value:   b.Value,
			Touched: b.Touched,
			Pressed: b.Pressed,
			Primary: b.Primary,
		})
	}
	return info
}

// MappingEntries lists a table for the API.
func MappingEntries(t *mapping.Table) []apitypes.MappingEntry {
	out := []apitypes.MappingEntry{}
	for _, e := range t.Entries() {
		m := apitypes.MappingEntry{
			ID:      e.ID,
			Style:   e.Style,
			Axes:    []apitypes.AxisGroup{},
			Buttons: e.Buttons,
			Primary: e.Primary,
		}
		if m.Buttons == nil {
			m.Buttons = []string{}
		}
		for _, g := range e.Axes {
			m.Axes = append(m.Axes, apitypes.AxisGroup{Name: g.Name, Indexes: g.Indexes})
		}
		out = append(out, m)
	}
	return out
}
