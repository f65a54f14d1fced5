// Package spatial holds the small set of rigid-body helpers shared by the arm
// model and the pose compositor. Vectors, quaternions and matrices are the
// mgl64 types; quaternions use the x,y,z,w array order of tracking runtimes
// when converted from raw snapshot data.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Forward is the direction a controller points at in its own frame.
var Forward = mgl64.Vec3{0, 0, -1}

// QuatFromArray converts an [x, y, z, w] slice. ok is false for anything
// that is not exactly four finite numbers.
func QuatFromArray(a []float64) (q mgl64.Quat, ok bool) {
	if len(a) != 4 {
		return mgl64.QuatIdent(), false
	}
	for _, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mgl64.QuatIdent(), false
		}
	}
	return mgl64.Quat{W: a[3], V: mgl64.Vec3{a[0], a[1], a[2]}}, true
}

// QuatToArray is the inverse of QuatFromArray.
func QuatToArray(q mgl64.Quat) []float64 {
	return []float64{q.V[0], q.V[1], q.V[2], q.W}
}

// Vec3FromArray converts an [x, y, z] slice.
func Vec3FromArray(a []float64) (v mgl64.Vec3, ok bool) {
	if len(a) != 3 {
		return mgl64.Vec3{}, false
	}
	for _, c := range a {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return mgl64.Vec3{}, false
		}
	}
	return mgl64.Vec3{a[0], a[1], a[2]}, true
}

// Normalize returns a unit quaternion. Degenerate input (zero length, NaN)
// collapses to identity instead of propagating.
func Normalize(q mgl64.Quat) mgl64.Quat {
	l := q.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.QuatIdent()
	}
	if l == 1 {
		return q
	}
	return q.Scale(1 / l)
}

// EulerYXZ decomposes a unit quaternion into intrinsic Y-X-Z angles
// (yaw about Y, pitch about X, roll about Z), in radians.
func EulerYXZ(q mgl64.Quat) (pitch, yaw, roll float64) {
	m := q.Mat4()
	m13, m23, m33 := m.At(0, 2), m.At(1, 2), m.At(2, 2)
	m11, m21, m22, m31 := m.At(0, 0), m.At(1, 0), m.At(1, 1), m.At(2, 0)

	pitch = math.Asin(-mgl64.Clamp(m23, -1, 1))
	if math.Abs(m23) < 0.9999999 {
		yaw = math.Atan2(m13, m33)
		roll = math.Atan2(m21, m22)
	} else {
		yaw = math.Atan2(-m31, m11)
		roll = 0
	}
	return pitch, yaw, roll
}

// YawOnly keeps only the rotation about the vertical axis.
func YawOnly(q mgl64.Quat) mgl64.Quat {
	_, yaw, _ := EulerYXZ(q)
	return mgl64.AnglesToQuat(yaw, 0, 0, mgl64.YXZ)
}

// Slerp interpolates along the shortest arc. t=0 yields a, t=1 yields b.
func Slerp(a, b mgl64.Quat, t float64) mgl64.Quat {
	switch t {
	case 0:
		return a
	case 1:
		return b
	}
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, t)
}

// AngleBetween returns the unsigned angle between two vectors in radians.
func AngleBetween(u, v mgl64.Vec3) float64 {
	d := u.Len() * v.Len()
	if d == 0 {
		return math.Pi / 2
	}
	return math.Acos(mgl64.Clamp(u.Dot(v)/d, -1, 1))
}

// ForwardAngle is the angle between the forward directions implied by two
// orientations.
func ForwardAngle(a, b mgl64.Quat) float64 {
	return AngleBetween(a.Rotate(Forward), b.Rotate(Forward))
}

// Compose builds translation * rotation * scale.
func Compose(pos mgl64.Vec3, q mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
}

// Translation extracts the translation column of an affine matrix.
func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}
