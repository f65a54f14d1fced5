package armmodel_test

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"

	"github.com/Alia5/xrinput/armmodel"
	"github.com/Alia5/xrinput/spatial"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func yaw(rad float64) mgl64.Quat   { return mgl64.QuatRotate(rad, mgl64.Vec3{0, 1, 0}) }
func pitch(rad float64) mgl64.Quat { return mgl64.QuatRotate(rad, mgl64.Vec3{1, 0, 0}) }

func TestRestPose(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	p := m.Update(armmodel.Input{
		HeadOrientation:       mgl64.QuatIdent(),
		ControllerOrientation: mgl64.QuatIdent(),
		Time:                  t0,
	})

	assert.True(t, p.Position.ApproxEqualThreshold(mgl64.Vec3{0.155, -0.465, -0.35}, 1e-9), "got %v", p.Position)
	assert.Equal(t, mgl64.QuatIdent(), p.Orientation)
	assert.True(t, m.ElbowPosition().ApproxEqualThreshold(mgl64.Vec3{0.155, -0.465, -0.15}, 1e-9))
}

func TestHeadPositionTranslatesChain(t *testing.T) {
	head := mgl64.Vec3{0.2, 1.6, -0.4}
	m := armmodel.New(armmodel.DefaultConfig())
	p := m.Update(armmodel.Input{
		HeadPosition:          head,
		HeadOrientation:       mgl64.QuatIdent(),
		ControllerOrientation: mgl64.QuatIdent(),
		Time:                  t0,
	})
	assert.True(t, p.Position.ApproxEqualThreshold(head.Add(mgl64.Vec3{0.155, -0.465, -0.35}), 1e-9))
}

func TestRaisedControllerExtendsArm(t *testing.T) {
	cfg := armmodel.DefaultConfig()
	m := armmodel.New(cfg)
	m.Update(armmodel.Input{
		HeadOrientation:       mgl64.QuatIdent(),
		ControllerOrientation: pitch(mgl64.DegToRad(60)),
		Time:                  t0,
	})

	want := cfg.HeadElbowOffset.Add(cfg.ArmExtensionOffset)
	assert.True(t, m.ElbowPosition().ApproxEqualThreshold(want, 1e-9), "got %v", m.ElbowPosition())

	lowered := armmodel.New(cfg)
	lowered.Update(armmodel.Input{
		HeadOrientation:       mgl64.QuatIdent(),
		ControllerOrientation: pitch(mgl64.DegToRad(5)),
		Time:                  t0,
	})
	assert.True(t, lowered.ElbowPosition().ApproxEqualThreshold(cfg.HeadElbowOffset, 1e-9))
}

func TestOrientationPassesThrough(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	q := mgl64.AnglesToQuat(0.3, 0.2, -0.1, mgl64.YXZ)
	p := m.Update(armmodel.Input{
		HeadOrientation:       yaw(1),
		ControllerOrientation: q,
		Time:                  t0,
	})
	assert.True(t, p.Orientation.ApproxEqualThreshold(q, 1e-12))
	assert.Equal(t, p, m.Pose())
}

func TestUnnormalizedInputIsNormalized(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	q := yaw(0.5)
	p := m.Update(armmodel.Input{
		HeadOrientation:       mgl64.QuatIdent().Scale(3),
		ControllerOrientation: q.Scale(2),
		Time:                  t0,
	})
	assert.InDelta(t, 1, p.Orientation.Len(), 1e-12)
	assert.InDelta(t, 1, m.HeadOrientation().Len(), 1e-12)
}

func sequence() []armmodel.Input {
	var in []armmodel.Input
	for i := 0; i < 60; i++ {
		in = append(in, armmodel.Input{
			HeadPosition:          mgl64.Vec3{0, 1.6, 0},
			HeadOrientation:       mgl64.AnglesToQuat(float64(i)*0.05, 0.1, 0, mgl64.YXZ),
			ControllerOrientation: mgl64.AnglesToQuat(float64(i)*0.08, math.Sin(float64(i)*0.2), 0.05, mgl64.YXZ),
			Time:                  t0.Add(time.Duration(i) * 16 * time.Millisecond),
		})
	}
	return in
}

func TestDeterminism(t *testing.T) {
	a := armmodel.New(armmodel.DefaultConfig())
	b := armmodel.New(armmodel.DefaultConfig())
	for i, in := range sequence() {
		pa := a.Update(in)
		pb := b.Update(in)
		if !assert.Equal(t, pa, pb, "frame %d", i) {
			return
		}
		assert.Equal(t, a.RootOrientation(), b.RootOrientation(), "frame %d", i)
	}
}

func TestSlowMotionRootTracksHeadYaw(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	for i := 0; i < 50; i++ {
		head := mgl64.AnglesToQuat(float64(i)*0.02, 0.3, 0.1, mgl64.YXZ)
		// 0.005 rad per 16ms is ~0.31 rad/s, under the torso-turn threshold
		ctrl := yaw(float64(i) * 0.005)
		m.Update(armmodel.Input{
			HeadOrientation:       head,
			ControllerOrientation: ctrl,
			Time:                  t0.Add(time.Duration(i) * 16 * time.Millisecond),
		})
		assert.Equal(t, spatial.YawOnly(head), m.RootOrientation(), "frame %d", i)
	}
}

func TestFastMotionSmoothsRoot(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	m.Update(armmodel.Input{
		HeadOrientation:       mgl64.QuatIdent(),
		ControllerOrientation: mgl64.QuatIdent(),
		Time:                  t0,
	})

	head := yaw(1.2)
	m.Update(armmodel.Input{
		HeadOrientation:       head,
		ControllerOrientation: yaw(0.5),
		Time:                  t0.Add(16 * time.Millisecond),
	})

	root := m.RootOrientation()
	headYaw := spatial.YawOnly(head)
	assert.False(t, root.ApproxEqualThreshold(headYaw, 1e-6), "root should lag behind head yaw")

	// slerp by angleDelta/10 = 0.05 of the 1.2 rad gap
	assert.InDelta(t, 0.06, spatial.ForwardAngle(mgl64.QuatIdent(), root), 1e-9)
}

func TestDegenerateTimeStep(t *testing.T) {
	tests := []struct {
		name string
		dt   time.Duration
	}{
		{name: "zero", dt: 0},
		{name: "negative", dt: -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := armmodel.New(armmodel.DefaultConfig())
			m.Update(armmodel.Input{
				HeadOrientation:       mgl64.QuatIdent(),
				ControllerOrientation: mgl64.QuatIdent(),
				Time:                  t0,
			})
			head := yaw(0.8)
			p := m.Update(armmodel.Input{
				HeadOrientation:       head,
				ControllerOrientation: yaw(2),
				Time:                  t0.Add(tt.dt),
			})
			assert.Equal(t, spatial.YawOnly(head), m.RootOrientation())
			assert.False(t, math.IsNaN(p.Position[0]) || math.IsInf(p.Position[0], 0))
		})
	}
}

func TestFirstUpdateSnapsRoot(t *testing.T) {
	m := armmodel.New(armmodel.DefaultConfig())
	head := yaw(-1)
	m.Update(armmodel.Input{
		HeadOrientation:       head,
		ControllerOrientation: yaw(3),
		Time:                  t0,
	})
	assert.Equal(t, spatial.YawOnly(head), m.RootOrientation())
}
