package mathutil

// Range is a half-open span [Begin, End) over a monotonic index space,
// used for geometry-id ranges inside a base instance and source-face
// ranges inside a GeometryInfo.
type Range struct {
	Begin uint32
	End   uint32
}

func (r Range) Len() uint32 {
	if r.End <= r.Begin {
		return 0
	}
	return r.End - r.Begin
}

func (r Range) Contains(i uint32) bool {
	return i >= r.Begin && i < r.End
}

func (r Range) Empty() bool {
	return r.End <= r.Begin
}
