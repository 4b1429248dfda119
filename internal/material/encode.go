// Package material implements the dual texture-or-constant field
// encoding used by every material/emission channel (diffuse, specular,
// roughness, emission): a 32-bit field is either a texture index (high
// byte clear) or a packed constant (bit 24 set).
package material

import "math"

const constFlag = uint32(1) << 24

// EncodeTexture stores a texture index as a field value. The caller
// must ensure index fits in 24 bits; texture pools are far smaller
// than that in practice.
func EncodeTexture(index uint32) uint32 {
	return index &^ constFlag
}

// EncodeConstant3 packs an (r,g,b) color, each channel clamped to
// [0,1], into the low 24 bits at 8 bits per channel, with bit 24 set.
func EncodeConstant3(r, g, b float32) uint32 {
	ri := round255(saturate(r))
	gi := round255(saturate(g))
	bi := round255(saturate(b))
	return constFlag | (ri << 16) | (gi << 8) | bi
}

// EncodeConstant1 packs a single scalar, clamped to [0,1], into the
// low 16 bits at 16-bit precision, with bit 24 set.
func EncodeConstant1(v float32) uint32 {
	vi := uint32(math.Round(float64(saturate(v)) * 65535))
	return constFlag | vi
}

// IsTexture reports whether field encodes a texture index rather than
// a packed constant — the shader-side query is literally this bit test.
func IsTexture(field uint32) bool {
	return field&constFlag == 0
}

// TextureIndex extracts the texture index from a texture-encoded field.
// Caller must check IsTexture first.
func TextureIndex(field uint32) uint32 {
	return field &^ constFlag
}

// DecodeConstant3 extracts an (r,g,b) color from a constant-encoded
// field, inverse of EncodeConstant3.
func DecodeConstant3(field uint32) (r, g, b float32) {
	v := field &^ constFlag
	r = float32((v>>16)&0xff) / 255
	g = float32((v>>8)&0xff) / 255
	b = float32(v&0xff) / 255
	return
}

// DecodeConstant1 extracts a scalar from a constant-encoded field,
// inverse of EncodeConstant1.
func DecodeConstant1(field uint32) float32 {
	v := field &^ constFlag
	return float32(v) / 65535
}

// Luminance3 decodes a constant-encoded 3-channel field and returns its
// vector length, used by the emitter CDF builder to weight emissive
// triangles (§4.5: "emission magnitude is ‖emission‖").
func Luminance3(field uint32) float32 {
	r, g, b := DecodeConstant3(field)
	return float32(math.Sqrt(float64(r*r + g*g + b*b)))
}

func saturate(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round255(v float32) uint32 {
	return uint32(math.Round(float64(v) * 255))
}
