package controller

import "time"

// Handedness values reported by tracking runtimes. The empty string means
// the runtime does not know.
const (
	HandLeft  = "left"
	HandRight = "right"
	HandNone  = ""
)

// ButtonReading is one raw button sample.
type ButtonReading struct {
	Value   float64 `json:"value"`
	Touched bool    `json:"touched"`
	Pressed bool    `json:"pressed"`
}

// PoseReading is the raw pose descriptor of a snapshot. A nil slice means
// the runtime reported null for that component this frame. The Has* flags
// describe device capability and are only read once, at construction.
type PoseReading struct {
	Orientation    []float64 `json:"orientation,omitempty"`
	Position       []float64 `json:"position,omitempty"`
	HasOrientation bool      `json:"hasOrientation"`
	HasPosition    bool      `json:"hasPosition"`
}

// HapticActuator is the output side of a device's rumble motor.
type HapticActuator interface {
	Pulse(intensity float64, d time.Duration) error
}

// Snapshot is one frame of raw readings for one device slot.
type Snapshot struct {
	ID      string
	Index   int
	Hand    string
	Axes    []float64
	Buttons []ButtonReading
	Pose    *PoseReading
	Haptics []HapticActuator
}

// Present reports whether the snapshot describes a connected controller:
// it must carry a pose descriptor with at least an orientation or a
// position. Runtimes publish ghost entries that fail this check.
func (s *Snapshot) Present() bool {
	return s != nil && s.Pose != nil && (s.Pose.Orientation != nil || s.Pose.Position != nil)
}

// DOF derives degrees of freedom from the capability flags.
func (s *Snapshot) DOF() int {
	if s == nil || s.Pose == nil {
		return 0
	}
	dof := 0
	if s.Pose.HasOrientation {
		dof += 3
	}
	if s.Pose.HasPosition {
		dof += 3
	}
	return dof
}
