package mathutil

import "github.com/go-gl/mathgl/mgl32"

// Transform is the rigid/scale transform of a scene instance: M = T*R*S,
// with a cheap component-wise inverse for the inverse-transform table
// the G-buffer pass needs to move ray hits back into object space.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func IdentityTransform() Transform {
	return Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t Transform) ObjectToWorld() mgl32.Mat4 {
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translate.Mul4(rotate).Mul4(scale)
}

func (t Transform) WorldToObject() mgl32.Mat4 {
	invScale := mgl32.Scale3D(1.0/t.Scale.X(), 1.0/t.Scale.Y(), 1.0/t.Scale.Z())
	invRotate := t.Rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.Position.X(), -t.Position.Y(), -t.Position.Z())
	return invScale.Mul4(invRotate).Mul4(invTranslate)
}
