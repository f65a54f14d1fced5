// Package armmodel estimates the position of an orientation-only (3-DOF)
// controller from the head pose by walking a rigid
// shoulder -> elbow -> wrist -> controller chain.
//
// A Model is stateful across frames: it remembers the previous controller
// orientation and update time to detect deliberate torso turns. Each
// controller owns exactly one Model.
package armmodel

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/spatial"
)

// Config holds the fixed physical approximations of the chain, in meters.
type Config struct {
	HeadElbowOffset       mgl64.Vec3
	ElbowWristOffset      mgl64.Vec3
	WristControllerOffset mgl64.Vec3
	ArmExtensionOffset    mgl64.Vec3

	// ElbowBendRatio is the share of rotation taken by the elbow at rest.
	ElbowBendRatio float64
	// ExtensionRatioWeight scales how much a raised controller shifts
	// rotation from the elbow to the wrist.
	ExtensionRatioWeight float64
	// MinAngularSpeed (rad/s) above which controller motion is read as a
	// torso turn.
	MinAngularSpeed float64
	// Pitch range (degrees) mapped linearly onto the extension ratio.
	MinExtensionAngle float64
	MaxExtensionAngle float64
}

// DefaultConfig returns the offsets used for a right-handed adult arm.
func DefaultConfig() Config {
	return Config{
		HeadElbowOffset:       mgl64.Vec3{0.155, -0.465, -0.15},
		ElbowWristOffset:      mgl64.Vec3{0, 0, -0.25},
		WristControllerOffset: mgl64.Vec3{0, 0, 0.05},
		ArmExtensionOffset:    mgl64.Vec3{-0.08, 0.14, 0.08},
		ElbowBendRatio:        0.4,
		ExtensionRatioWeight:  0.4,
		MinAngularSpeed:       0.61,
		MinExtensionAngle:     11,
		MaxExtensionAngle:     50,
	}
}

// Input is one frame of data fed to the model.
type Input struct {
	HeadPosition          mgl64.Vec3
	HeadOrientation       mgl64.Quat
	ControllerOrientation mgl64.Quat
	Time                  time.Time
}

// Pose is the model output. Orientation is the controller orientation the
// model received, unchanged.
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// Model is the per-controller arm model state.
type Model struct {
	cfg Config

	controllerQ     mgl64.Quat
	lastControllerQ mgl64.Quat
	headQ           mgl64.Quat
	headPos         mgl64.Vec3
	rootQ           mgl64.Quat

	time     time.Time
	lastTime time.Time
	hasTime  bool

	elbowPos mgl64.Vec3
	wristPos mgl64.Vec3
	pose     Pose
}

// New returns a Model at rest: every orientation identity, no previous time.
func New(cfg Config) *Model {
	return &Model{
		cfg:             cfg,
		controllerQ:     mgl64.QuatIdent(),
		lastControllerQ: mgl64.QuatIdent(),
		headQ:           mgl64.QuatIdent(),
		rootQ:           mgl64.QuatIdent(),
		pose:            Pose{Orientation: mgl64.QuatIdent()},
	}
}

// Update advances the model by one frame and returns the estimated pose.
// It never fails; degenerate time steps are treated as "no rotation".
func (m *Model) Update(in Input) Pose {
	m.headPos = in.HeadPosition
	m.headQ = spatial.Normalize(in.HeadOrientation)
	m.lastControllerQ = m.controllerQ
	m.controllerQ = spatial.Normalize(in.ControllerOrientation)
	m.time = in.Time

	headYawQ := spatial.YawOnly(m.headQ)

	angleDelta := spatial.ForwardAngle(m.lastControllerQ, m.controllerQ)
	var angularSpeed float64
	if m.hasTime {
		if dt := m.time.Sub(m.lastTime).Seconds(); dt > 0 {
			angularSpeed = angleDelta / dt
		}
	}
	if angularSpeed > m.cfg.MinAngularSpeed {
		m.rootQ = spatial.Normalize(spatial.Slerp(m.rootQ, headYawQ, angleDelta/10))
	} else {
		m.rootQ = headYawQ
	}

	pitch, _, _ := spatial.EulerYXZ(m.controllerQ)
	extensionRatio := m.extensionRatio(mgl64.RadToDeg(pitch))

	controllerRootQ := m.rootQ.Inverse().Mul(m.controllerQ)

	extension := m.cfg.ArmExtensionOffset.Mul(extensionRatio)
	m.elbowPos = m.headPos.Add(m.cfg.HeadElbowOffset).Add(extension)

	totalAngleDeg := mgl64.RadToDeg(spatial.ForwardAngle(controllerRootQ, mgl64.QuatIdent()))
	lerpSuppression := 1 - math.Pow(totalAngleDeg/180, 4)
	wristRatio := 1 - m.cfg.ElbowBendRatio
	lerpValue := lerpSuppression * (m.cfg.ElbowBendRatio + wristRatio*extensionRatio*m.cfg.ExtensionRatioWeight)

	wristQ := spatial.Slerp(mgl64.QuatIdent(), controllerRootQ, lerpValue)
	elbowQ := controllerRootQ.Mul(wristQ.Inverse())

	wrist := wristQ.Rotate(m.cfg.WristControllerOffset)
	wrist = wrist.Add(m.cfg.ElbowWristOffset)
	wrist = elbowQ.Rotate(wrist)
	m.wristPos = wrist.Add(m.elbowPos)

	position := m.rootQ.Rotate(m.wristPos.Add(extension))

	m.pose = Pose{Position: position, Orientation: m.controllerQ}
	m.lastTime = m.time
	m.hasTime = true
	return m.pose
}

func (m *Model) extensionRatio(pitchDeg float64) float64 {
	span := m.cfg.MaxExtensionAngle - m.cfg.MinExtensionAngle
	if span <= 0 {
		return 0
	}
	return mgl64.Clamp((pitchDeg-m.cfg.MinExtensionAngle)/span, 0, 1)
}

// Pose returns the output of the last Update.
func (m *Model) Pose() Pose { return m.pose }

// RootOrientation returns the smoothed torso-facing orientation.
func (m *Model) RootOrientation() mgl64.Quat { return m.rootQ }

// ElbowPosition returns the elbow joint computed by the last Update.
func (m *Model) ElbowPosition() mgl64.Vec3 { return m.elbowPos }

// WristPosition returns the wrist joint computed by the last Update, before
// the extension offset and root rotation are applied.
func (m *Model) WristPosition() mgl64.Vec3 { return m.wristPos }

// HeadOrientation returns the head orientation seen by the last Update.
func (m *Model) HeadOrientation() mgl64.Quat { return m.headQ }

// HeadPosition returns the head position seen by the last Update.
func (m *Model) HeadPosition() mgl64.Vec3 { return m.headPos }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }
