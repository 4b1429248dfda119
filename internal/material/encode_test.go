package material

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTextureClearsFlag(t *testing.T) {
	field := EncodeTexture(7)
	require.True(t, IsTexture(field), "texture-encoded field must have flag bit clear")
	assert.Equal(t, uint32(7), TextureIndex(field))
}

func TestEncodeConstant3RoundTrip(t *testing.T) {
	field := EncodeConstant3(0.2, 0.5, 0.9)
	require.False(t, IsTexture(field), "constant-encoded field must have flag bit set")
	r, g, b := DecodeConstant3(field)
	want := [3]float32{
		float32(round255(0.2)) / 255,
		float32(round255(0.5)) / 255,
		float32(round255(0.9)) / 255,
	}
	assert.Equal(t, want[0], r)
	assert.Equal(t, want[1], g)
	assert.Equal(t, want[2], b)
}

func TestEncodeConstant3Clamps(t *testing.T) {
	field := EncodeConstant3(-1, 2, 0.5)
	r, g, b := DecodeConstant3(field)
	assert.Equal(t, float32(0), r)
	assert.Equal(t, float32(1), g)
	assert.Equal(t, float32(round255(0.5))/255, b)
}

func TestEncodeConstant1RoundTrip(t *testing.T) {
	field := EncodeConstant1(0.75)
	require.False(t, IsTexture(field), "constant-encoded field must have flag bit set")
	got := DecodeConstant1(field)
	assert.InDelta(t, 0.75, got, 1e-4)
}

func TestEmissionIsNonZero(t *testing.T) {
	zero := EncodeConstant3(0, 0, 0)
	assert.False(t, EmissionIsNonZero(zero), "zero constant emission should be zero")

	nonzero := EncodeConstant3(0.1, 0, 0)
	assert.True(t, EmissionIsNonZero(nonzero), "non-zero constant emission should be non-zero")

	tex := EncodeTexture(3)
	assert.True(t, EmissionIsNonZero(tex), "texture-backed emission is assumed non-zero")
}
