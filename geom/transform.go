package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/mat3"
	"github.com/ungerik/go3d/float64/mat4"
	"github.com/ungerik/go3d/float64/quaternion"
)

// Transform is an affine transform acting on column vectors. It is a go3d
// [mat4.T] and shares its column-major layout: m[col][row], so the
// translation lives in m[3]. The last row is always (0, 0, 0, 1).
type Transform mat4.T

func (m *Transform) mat() *mat4.T {
	return (*mat4.T)(m)
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform(mat4.Ident)
}

// Translation returns a transform that moves points by t.
func Translation(t Vector3) Transform {
	m := mat4.Ident
	m.SetTranslation(&t)

	return Transform(m)
}

// Scaling returns a per-axis scale transform.
func Scaling(s Vector3) Transform {
	m := mat4.Ident
	m.ScaleVec3(&s)

	return Transform(m)
}

// Rotation returns a rotation of angle radians around axis (right-hand rule).
// A zero axis yields the identity.
func Rotation(axis Vector3, angle float64) Transform {
	if IsZero(axis) {
		return Identity()
	}

	a := Normalize(axis)
	q := quaternion.FromAxisAngle(&a, angle)

	var m mat4.T
	m.AssignQuaternion(&q)

	return Transform(m)
}

// Mul returns m * n (n is applied first).
func (m Transform) Mul(n Transform) Transform {
	var out Transform
	out.mat().AssignMul(m.mat(), n.mat())

	return out
}

// TransformPoint applies the full affine transform to p.
func (m Transform) TransformPoint(p Vector3) Vector3 {
	return m.mat().MulVec3W(&p, 1)
}

// TransformDirection applies only the linear part of m to d.
func (m Transform) TransformDirection(d Vector3) Vector3 {
	return m.mat().MulVec3W(&d, 0)
}

// TransformNormal maps a surface normal through the transform whose inverse
// is m, i.e. it multiplies by the transpose of m's linear part. The result is
// normalized.
func (m Transform) TransformNormal(n Vector3) Vector3 {
	m.mat().Transpose3x3()

	return Normalize(m.mat().MulVec3W(&n, 0))
}

// Inverse returns the inverse of an affine transform. ok is false when the
// linear part is singular.
func (m Transform) Inverse() (inv Transform, ok bool) {
	var lin mat3.T
	for c := range 3 {
		lin[c] = Vector3{m[c][0], m[c][1], m[c][2]}
	}

	det := lin.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Transform{}, false
	}

	li, err := lin.Inverted()
	if err != nil {
		return Transform{}, false
	}

	inv = Identity()
	for c := range 3 {
		inv[c][0], inv[c][1], inv[c][2] = li[c][0], li[c][1], li[c][2]
	}

	t := Vector3{m[3][0], m[3][1], m[3][2]}
	it := inv.TransformDirection(t)
	inv[3][0], inv[3][1], inv[3][2] = -it[0], -it[1], -it[2]

	return inv, true
}
