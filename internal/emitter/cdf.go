// Package emitter builds the two-level importance-sampling CDF of
// §4.5: a top-level CDF over emitters (emissive meshes, then the
// environment map) and a bottom-level per-triangle (or per-pixel, for
// the environment map) CDF within each.
package emitter

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/haldor3d/hwrt/internal/material"
)

// Triangle is one emissive triangle in world space.
type Triangle struct {
	P0, P1, P2 mgl32.Vec3
}

// Area returns the triangle's surface area, ‖(p1-p0)×(p2-p0)‖/2.
func (t Triangle) Area() float32 {
	e1 := t.P1.Sub(t.P0)
	e2 := t.P2.Sub(t.P0)
	return e1.Cross(e2).Len() / 2
}

// EmissionWeight returns a triangle's emission magnitude per §4.5:
// the decoded luminance for a constant-encoded emission, or 1.0 for a
// texture-backed one.
func EmissionWeight(emissionField uint32) float32 {
	if material.IsTexture(emissionField) {
		return 1.0
	}
	return material.Luminance3(emissionField)
}

// cdfTolerance is the normalization tolerance asserted before the
// final clamp (§4.5: "Assert |cdf[N] − 1| < 1e-2 before clamp").
const cdfTolerance = 1e-2

// sentinelNonEmitter is returned for an emitter whose total weight is
// zero, so a shader can detect "not an emitter" from the buffer shape.
var sentinelNonEmitter = []float32{-1.0}

// buildCDFFromWeights normalizes weights into a length len(weights)+1
// monotone CDF, asserting near-normalization before the final clamp to
// exactly 1.0. A zero total weight returns the sentinel buffer.
func buildCDFFromWeights(weights []float32) []float32 {
	var total float32
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return sentinelNonEmitter
	}

	cdf := make([]float32, len(weights)+1)
	running := float32(0)
	for i, w := range weights {
		running += w / total
		cdf[i+1] = running
	}

	if diff := cdf[len(cdf)-1] - 1; diff > cdfTolerance || diff < -cdfTolerance {
		panic(fmt.Sprintf("emitter: CDF fails to normalize: final value %f (tolerance %f)", cdf[len(cdf)-1], cdfTolerance))
	}
	cdf[len(cdf)-1] = 1
	return cdf
}

// BottomLevelMeshCDF builds the per-triangle CDF for one emissive mesh
// (§4.5): weight[i] = area[i] * emission-magnitude.
func BottomLevelMeshCDF(tris []Triangle, emissionField uint32) []float32 {
	emission := EmissionWeight(emissionField)
	weights := make([]float32, len(tris))
	for i, t := range tris {
		weights[i] = t.Area() * emission
	}
	return buildCDFFromWeights(weights)
}

// TotalMeshWeight is the sum of a mesh's per-triangle weights, used as
// its top-level emitter weight.
func TotalMeshWeight(tris []Triangle, emissionField uint32) float32 {
	emission := EmissionWeight(emissionField)
	var total float32
	for _, t := range tris {
		total += t.Area() * emission
	}
	return total
}

// EnvMapCDF builds the environment map's per-pixel bottom-level CDF,
// weighted by luminance·sin(π·v) to compensate the equirectangular
// parametrization (§4.5), where v is each row's normalized [0,1]
// coordinate. luminance is indexed [row][col].
func EnvMapCDF(luminance [][]float32) []float32 {
	height := len(luminance)
	if height == 0 {
		return sentinelNonEmitter
	}
	width := len(luminance[0])

	weights := make([]float32, 0, height*width)
	for row := 0; row < height; row++ {
		v := (float32(row) + 0.5) / float32(height)
		sinV := float32(math.Sin(math.Pi * float64(v)))
		for col := 0; col < width; col++ {
			weights = append(weights, luminance[row][col]*sinV)
		}
	}
	return buildCDFFromWeights(weights)
}

// AverageLuminance returns an unweighted mean of all pixel luminance
// values, used as the environment map's top-level emitter weight.
func AverageLuminance(luminance [][]float32) float32 {
	var total float32
	count := 0
	for _, row := range luminance {
		for _, v := range row {
			total += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float32(count)
}

// TopLevelCDF builds the top-level per-emitter CDF over meshWeights
// followed by envMapWeight (meshes then envmap, per §4.5).
func TopLevelCDF(meshWeights []float32, envMapWeight float32) []float32 {
	weights := make([]float32, len(meshWeights)+1)
	copy(weights, meshWeights)
	weights[len(weights)-1] = envMapWeight
	return buildCDFFromWeights(weights)
}
