package controller

import (
	"math"
	"slices"
	"strconv"

	"github.com/Alia5/xrinput/mapping"
)

// Button is the stored state of one button.
type Button struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Touched bool    `json:"touched"`
	Pressed bool    `json:"pressed"`
	Primary bool    `json:"primary"`
}

// State owns the axis and button values of one controller together with
// their semantic names, and diffs them against incoming snapshots.
//
// Group index lists, button names and the primary button are resolved once
// in NewState and never change afterwards.
type State struct {
	slot    int
	hand    string
	axes    []float64
	groups  []mapping.AxisGroup
	buttons []Button
	primary int
}

// NewState builds a zeroed baseline sized from the first snapshot. Any
// non-zero reading in that snapshot is reported by the first Diff.
func NewState(snap *Snapshot, entry mapping.Entry) *State {
	s := &State{
		slot:    snap.Index,
		hand:    snap.Hand,
		groups:  entry.Clone().Axes,
		primary: -1,
	}

	n := len(snap.Axes)
	for _, g := range s.groups {
		for _, idx := range g.Indexes {
			n = max(n, idx+1)
		}
	}
	s.axes = make([]float64, n)

	s.buttons = make([]Button, len(snap.Buttons))
	for i := range s.buttons {
		s.buttons[i] = Button{Index: i, Name: "button_" + strconv.Itoa(i)}
		if i < len(entry.Buttons) && entry.Buttons[i] != "" {
			s.buttons[i].Name = entry.Buttons[i]
		}
	}

	if idx, ok := entry.PrimaryIndex(); ok && idx < len(s.buttons) {
		s.primary = idx
	} else if len(s.buttons) > 1 {
		s.primary = 1
	} else if len(s.buttons) == 1 {
		s.primary = 0
	}
	if s.primary >= 0 {
		s.buttons[s.primary].Primary = true
	}
	return s
}

// Diff compares snap against the stored values, emits one event per changed
// field and stores the new values. Floats are compared exactly, with NaN
// equal to NaN.
func (s *State) Diff(snap *Snapshot, sink Sink) {
	if sink == nil {
		sink = Discard
	}

	if snap.Hand != s.hand {
		sink.Emit(Event{Kind: EventHandChanged, Slot: s.slot, From: s.hand, To: snap.Hand})
		s.hand = snap.Hand
	}

	s.diffAxes(snap.Axes, sink)

	for i := range s.buttons {
		if i >= len(snap.Buttons) {
			break
		}
		s.diffButton(&s.buttons[i], snap.Buttons[i], sink)
	}
}

func (s *State) diffAxes(in []float64, sink Sink) {
	if len(s.groups) == 0 {
		if slices.EqualFunc(s.axes, in, sameValue) {
			return
		}
		s.axes = slices.Clone(in)
		if s.axes == nil {
			s.axes = []float64{}
		}
		sink.Emit(Event{Kind: EventAxesChanged, Slot: s.slot, Values: slices.Clone(s.axes)})
		return
	}

	for _, g := range s.groups {
		changed := false
		for _, idx := range g.Indexes {
			if idx >= len(in) {
				continue
			}
			if !sameValue(s.axes[idx], in[idx]) {
				s.axes[idx] = in[idx]
				changed = true
			}
		}
		if changed {
			sink.Emit(Event{Kind: EventAxesChanged, Slot: s.slot, Name: g.Name, Values: s.groupValues(g)})
		}
	}
}

func (s *State) diffButton(b *Button, in ButtonReading, sink Sink) {
	emit := func(e Event) {
		e.Slot = s.slot
		e.Name = b.Name
		sink.Emit(e)
		if b.Primary {
			e.Name = PrimaryName
			e.Alias = true
			sink.Emit(e)
		}
	}

	if !sameValue(b.Value, in.Value) {
		b.Value = in.Value
		emit(Event{Kind: EventValueChanged, Value: in.Value})
	}
	if b.Touched != in.Touched {
		b.Touched = in.Touched
		kind := EventTouchEnded
		if in.Touched {
			kind = EventTouchBegan
		}
		emit(Event{Kind: kind})
	}
	if b.Pressed != in.Pressed {
		b.Pressed = in.Pressed
		kind := EventPressEnded
		if in.Pressed {
			kind = EventPressBegan
		}
		emit(Event{Kind: kind})
	}
}

// sameValue is == except that NaN equals NaN, so a stuck NaN reading is
// reported once.
func sameValue(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func (s *State) groupValues(g mapping.AxisGroup) []float64 {
	out := make([]float64, len(g.Indexes))
	for i, idx := range g.Indexes {
		out[i] = s.axes[idx]
	}
	return out
}

// Slot returns the host slot index.
func (s *State) Slot() int { return s.slot }

// Handedness returns the last reported handedness.
func (s *State) Handedness() string { return s.hand }

// Axis returns the stored value at index i.
func (s *State) Axis(i int) (float64, bool) {
	if i < 0 || i >= len(s.axes) {
		return 0, false
	}
	return s.axes[i], true
}

// AxisValues returns a copy of all stored axis values.
func (s *State) AxisValues() []float64 { return slices.Clone(s.axes) }

// Group returns the current values of a named axis group.
func (s *State) Group(name string) ([]float64, bool) {
	for _, g := range s.groups {
		if g.Name == name {
			return s.groupValues(g), true
		}
	}
	return nil, false
}

// Groups returns the axis groups resolved at construction.
func (s *State) Groups() []mapping.AxisGroup {
	out := make([]mapping.AxisGroup, len(s.groups))
	for i, g := range s.groups {
		out[i] = mapping.AxisGroup{Name: g.Name, Indexes: slices.Clone(g.Indexes)}
	}
	return out
}

// Button returns the stored button at index i.
func (s *State) Button(i int) (Button, bool) {
	if i < 0 || i >= len(s.buttons) {
		return Button{}, false
	}
	return s.buttons[i], true
}

// ButtonByName resolves a semantic name; PrimaryName yields the primary.
func (s *State) ButtonByName(name string) (Button, bool) {
	if name == PrimaryName {
		return s.Primary()
	}
	for _, b := range s.buttons {
		if b.Name == name {
			return b, true
		}
	}
	return Button{}, false
}

// Primary returns the primary button. ok is false only for devices that
// report no buttons at all.
func (s *State) Primary() (Button, bool) {
	if s.primary < 0 {
		return Button{}, false
	}
	return s.buttons[s.primary], true
}

// Buttons returns a copy of all stored buttons.
func (s *State) Buttons() []Button { return slices.Clone(s.buttons) }
