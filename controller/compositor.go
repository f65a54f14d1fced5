package controller

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/armmodel"
	"github.com/Alia5/xrinput/spatial"
)

// HostPose is what the host knows about the user each frame.
type HostPose struct {
	HeadPosition    mgl64.Vec3
	HeadOrientation mgl64.Quat
	Time            time.Time
}

// Compositor turns a raw pose descriptor into the controller's world matrix,
// either directly (6-DOF) or through a lazily created arm model (3-DOF).
type Compositor struct {
	armCfg armmodel.Config
	arm    *armmodel.Model

	orientation mgl64.Quat
	position    mgl64.Vec3
	scale       mgl64.Vec3
	standing    mgl64.Mat4

	local mgl64.Mat4
	world mgl64.Mat4

	onArmModel func()
}

// NewCompositor returns a compositor with identity orientation, unit scale
// and an explicit identity standing transform.
func NewCompositor(cfg armmodel.Config) *Compositor {
	return &Compositor{
		armCfg:      cfg,
		orientation: mgl64.QuatIdent(),
		scale:       mgl64.Vec3{1, 1, 1},
		standing:    mgl64.Ident4(),
		local:       mgl64.Ident4(),
		world:       mgl64.Ident4(),
	}
}

// SetStanding replaces the host's standing reference transform.
func (c *Compositor) SetStanding(m mgl64.Mat4) { c.standing = m }

// SetScale overrides the unit scale used when composing the local matrix.
func (c *Compositor) SetScale(v mgl64.Vec3) { c.scale = v }

// Compose applies one frame and returns the new world matrix.
func (c *Compositor) Compose(pose *PoseReading, host HostPose) mgl64.Mat4 {
	if pose == nil {
		pose = &PoseReading{}
	}

	if q, ok := spatial.QuatFromArray(pose.Orientation); ok {
		c.orientation = spatial.Normalize(q)
	}

	if p, ok := spatial.Vec3FromArray(pose.Position); ok {
		c.position = p
		c.local = spatial.Compose(c.position, c.orientation, c.scale)
	} else {
		if c.arm == nil {
			c.arm = armmodel.New(c.armCfg)
			if c.onArmModel != nil {
				c.onArmModel()
			}
		}
		out := c.arm.Update(armmodel.Input{
			HeadPosition:          host.HeadPosition,
			HeadOrientation:       host.HeadOrientation,
			ControllerOrientation: c.orientation,
			Time:                  host.Time,
		})
		c.position = out.Position
		c.local = spatial.Compose(out.Position, out.Orientation, c.scale)
	}

	c.world = c.standing.Mul4(c.local)
	return c.world
}

// Orientation returns the orientation used by the last Compose.
func (c *Compositor) Orientation() mgl64.Quat { return c.orientation }

// Position returns the local position used by the last Compose.
func (c *Compositor) Position() mgl64.Vec3 { return c.position }

// Local returns the matrix before the standing transform is applied.
func (c *Compositor) Local() mgl64.Mat4 { return c.local }

// World returns standing * local.
func (c *Compositor) World() mgl64.Mat4 { return c.world }

// Standing returns the current standing reference transform.
func (c *Compositor) Standing() mgl64.Mat4 { return c.standing }

// ArmModel returns the arm model, or nil if the position has always been
// reported directly.
func (c *Compositor) ArmModel() *armmodel.Model { return c.arm }
