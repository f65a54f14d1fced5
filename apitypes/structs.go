package apitypes

import (
	"fmt"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

// Button is one raw button reading.
type Button struct {
	Value   float64 `json:"value"`
	Touched bool    `json:"touched"`
	Pressed bool    `json:"pressed"`
}

// Pose is the raw pose descriptor. Null orientation or position means the
// runtime did not report it this frame.
type Pose struct {
	Orientation    []float64 `json:"orientation"`
	Position       []float64 `json:"position"`
	HasOrientation bool      `json:"hasOrientation"`
	HasPosition    bool      `json:"hasPosition"`
}

// Snapshot is one device slot as sent by the host. Haptics is the number of
// actuators the device exposes; pulses are returned in FrameResult.
type Snapshot struct {
	ID      string    `json:"id"`
	Index   int       `json:"index"`
	Hand    string    `json:"hand"`
	Axes    []float64 `json:"axes"`
	Buttons []Button  `json:"buttons"`
	Pose    *Pose     `json:"pose"`
	Haptics int       `json:"haptics,omitempty"`
}

// HeadPose is the user's head in tracking space.
type HeadPose struct {
	Position    []float64 `json:"position,omitempty"`
	Orientation []float64 `json:"orientation,omitempty"`
}

// Frame is one host tick. Time is in milliseconds on the host's clock.
// Standing, when set, is a column-major 4x4 matrix.
type Frame struct {
	Time        float64     `json:"time"`
	Head        *HeadPose   `json:"head,omitempty"`
	Standing    []float64   `json:"standing,omitempty"`
	Controllers []*Snapshot `json:"controllers"`
}

// ControllerRef identifies the controller of a connect/disconnect event.
type ControllerRef struct {
	Slot  int    `json:"slot"`
	ID    string `json:"id"`
	Style string `json:"style"`
	DOF   int    `json:"dof"`
	Hand  string `json:"hand"`
}

// Event is one change notification.
type Event struct {
	Type       string         `json:"type"`
	Slot       int            `json:"slot"`
	Name       string         `json:"name,omitempty"`
	Alias      bool           `json:"alias,omitempty"`
	Values     []float64      `json:"values,omitempty"`
	Value      *float64       `json:"value,omitempty"`
	From       *string        `json:"from,omitempty"`
	To         *string        `json:"to,omitempty"`
	Controller *ControllerRef `json:"controller,omitempty"`
}

// HapticPulse asks the host to drive a device actuator.
type HapticPulse struct {
	Slot       int     `json:"slot"`
	Actuator   int     `json:"actuator"`
	Intensity  float64 `json:"intensity"`
	DurationMs int64   `json:"durationMs"`
}

// FrameResult answers one Frame on a session stream.
type FrameResult struct {
	Seq     uint64        `json:"seq"`
	Events  []Event       `json:"events"`
	Haptics []HapticPulse `json:"haptics"`
}

type AxisGroup struct {
	Name    string `json:"name"`
	Indexes []int  `json:"indexes"`
}

type ButtonState struct {
	Index   int     `json:"index"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Touched bool    `json:"touched"`
	Pressed bool    `json:"pressed"`
	Primary bool    `json:"primary"`
}

// ControllerInfo is the full state of one tracked controller.
type ControllerInfo struct {
	Slot        int           `json:"slot"`
	ID          string        `json:"id"`
	Style       string        `json:"style"`
	Mapped      bool          `json:"mapped"`
	DOF         int           `json:"dof"`
	Hand        string        `json:"hand"`
	Axes        []float64     `json:"axes"`
	Groups      []AxisGroup   `json:"groups"`
	Buttons     []ButtonState `json:"buttons"`
	Orientation []float64     `json:"orientation"`
	Position    []float64     `json:"position"`
	World       []float64     `json:"world"`
	ArmModel    bool          `json:"armModel"`
}

type ControllerListResponse struct {
	Controllers []ControllerInfo `json:"controllers"`
}

type ControllerInspectResponse struct {
	Controller ControllerInfo `json:"controller"`
	Dump       string         `json:"dump"`
}

type MappingEntry struct {
	ID      string      `json:"id"`
	Style   string      `json:"style"`
	Axes    []AxisGroup `json:"axes"`
	Buttons []string    `json:"buttons"`
	Primary string      `json:"primary"`
}

type MappingListResponse struct {
	Mappings []MappingEntry `json:"mappings"`
}

// SessionHello is the first line written on an accepted session stream.
type SessionHello struct {
	Session        string `json:"session"`
	Server         string `json:"server"`
	Version        string `json:"version"`
	ConnectDelayMs int64  `json:"connectDelayMs"`
}
