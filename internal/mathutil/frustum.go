package mathutil

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: componentMin(b.Min, o.Min),
		Max: componentMax(b.Max, o.Max),
	}
}

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a.X(), b.X()), min32(a.Y(), b.Y()), min32(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a.X(), b.X()), max32(a.Y(), b.Y()), max32(a.Z(), b.Z())}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Centroid returns the AABB's center, used by the BVH median-split build.
func (b AABB) Centroid() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns Max-Min, used to pick the largest-extent split axis.
func (b AABB) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// ExtractFrustumPlanes extracts the 6 frustum planes (Left, Right,
// Bottom, Top, Near, Far; Ax+By+Cz+D=0, inward normals, so a point
// inside the frustum gives a non-negative value for every plane) from a
// view-projection matrix using the Gribb-Hartmann method.
func ExtractFrustumPlanes(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4
	planes[0] = mgl32.Vec4{vp.At(3, 0) + vp.At(0, 0), vp.At(3, 1) + vp.At(0, 1), vp.At(3, 2) + vp.At(0, 2), vp.At(3, 3) + vp.At(0, 3)}
	planes[1] = mgl32.Vec4{vp.At(3, 0) - vp.At(0, 0), vp.At(3, 1) - vp.At(0, 1), vp.At(3, 2) - vp.At(0, 2), vp.At(3, 3) - vp.At(0, 3)}
	planes[2] = mgl32.Vec4{vp.At(3, 0) + vp.At(1, 0), vp.At(3, 1) + vp.At(1, 1), vp.At(3, 2) + vp.At(1, 2), vp.At(3, 3) + vp.At(1, 3)}
	planes[3] = mgl32.Vec4{vp.At(3, 0) - vp.At(1, 0), vp.At(3, 1) - vp.At(1, 1), vp.At(3, 2) - vp.At(1, 2), vp.At(3, 3) - vp.At(1, 3)}
	planes[4] = mgl32.Vec4{vp.At(3, 0) + vp.At(2, 0), vp.At(3, 1) + vp.At(2, 1), vp.At(3, 2) + vp.At(2, 2), vp.At(3, 3) + vp.At(2, 3)}
	planes[5] = mgl32.Vec4{vp.At(3, 0) - vp.At(2, 0), vp.At(3, 1) - vp.At(2, 1), vp.At(3, 2) - vp.At(2, 2), vp.At(3, 3) - vp.At(2, 3)}

	for i := range planes {
		n := mgl32.Vec3{planes[i][0], planes[i][1], planes[i][2]}
		l := n.Len()
		if l > 0 {
			planes[i] = planes[i].Mul(1.0 / l)
		}
	}
	return planes
}

// AABBInFrustum reports whether an AABB intersects or is inside the
// frustum described by planes (conservative: a box outside any one
// plane is culled).
func AABBInFrustum(b AABB, planes [6]mgl32.Vec4) bool {
	for _, p := range planes {
		n := mgl32.Vec3{p[0], p[1], p[2]}
		positive := mgl32.Vec3{
			pick(n.X() >= 0, b.Max.X(), b.Min.X()),
			pick(n.Y() >= 0, b.Max.Y(), b.Min.Y()),
			pick(n.Z() >= 0, b.Max.Z(), b.Min.Z()),
		}
		if n.Dot(positive)+p[3] < 0 {
			return false
		}
	}
	return true
}

func pick(cond bool, a, b float32) float32 {
	if cond {
		return a
	}
	return b
}
