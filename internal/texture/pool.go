// Package texture implements the texture pool of §4.3: a path-keyed
// dedup cache over GPU textures, with reserved index 0 as the black
// 1x1 fallback.
package texture

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/haldor3d/hwrt/internal/gpu"
)

// Decoder loads and decodes an image file into Go's standard image.Image,
// the external image-decoder collaborator §1 places out of core scope.
type Decoder func(path string) (image.Image, error)

// Pool owns the ordered sequence of GPU textures and the path→index
// dedup map.
type Pool struct {
	device  gpu.Device
	decode  Decoder
	indexOf map[string]uint32
	list    []gpu.Texture
}

// New constructs a Pool and immediately reserves index 0 as an opaque
// black 1x1 fallback (§4.3 "Index 0 reservation").
func New(device gpu.Device, decode Decoder) (*Pool, error) {
	p := &Pool{device: device, decode: decode, indexOf: make(map[string]uint32)}
	black, err := device.CreateTexture(gpu.FormatRGBA8UNormSRGB, 1, 1, gpu.TextureUsageSampled|gpu.TextureUsageTransferDst)
	if err != nil {
		return nil, fmt.Errorf("texture: create fallback: %w", err)
	}
	rowPitch := device.RowPitchAlignment()
	staged := make([]byte, rowPitch)
	staged[0], staged[1], staged[2], staged[3] = blackPixel.R, blackPixel.G, blackPixel.B, blackPixel.A
	if err := device.WriteTexture(black, rowPitch, staged); err != nil {
		return nil, fmt.Errorf("texture: upload fallback: %w", err)
	}
	p.list = append(p.list, black)
	return p, nil
}

// Len reports how many textures (including the reserved fallback) the
// pool holds.
func (p *Pool) Len() int { return len(p.list) }

// AddTexture implements §4.3's dedup contract: a path already seen
// returns its existing index; otherwise the image is decoded, flipped
// vertically, and uploaded row-pitch-aligned, 1-byte-per-channel UNorm
// (SRGB for 4-channel color, linear for 1-channel).
func (p *Pool) AddTexture(path string, channels int) (uint32, error) {
	if idx, ok := p.indexOf[path]; ok {
		return idx, nil
	}
	img, err := p.decode(path)
	if err != nil {
		return 0, fmt.Errorf("texture: decode %s: %w", path, err)
	}

	format := gpu.FormatR8UNorm
	bytesPerPixel := 1
	if channels >= 3 {
		format = gpu.FormatRGBA8UNormSRGB
		bytesPerPixel = 4
	}

	bounds := img.Bounds()
	width, height := uint32(bounds.Dx()), uint32(bounds.Dy())
	tex, err := p.device.CreateTexture(format, width, height, gpu.TextureUsageSampled|gpu.TextureUsageTransferDst)
	if err != nil {
		return 0, fmt.Errorf("texture: create %s: %w", path, err)
	}

	pixels, rowPitch := stageRows(img, int(width), int(height), bytesPerPixel, int(p.device.RowPitchAlignment()))
	if err := p.device.WriteTexture(tex, rowPitch, pixels); err != nil {
		return 0, fmt.Errorf("texture: upload %s: %w", path, err)
	}

	idx := uint32(len(p.list))
	p.list = append(p.list, tex)
	p.indexOf[path] = idx
	return idx, nil
}

// stageRows flips img vertically and copies it row by row into a
// staging block whose row pitch is aligned up to alignment, using
// golang.org/x/image/draw for the per-row pixel conversion (§4.3
// "row-by-row copy into staging").
func stageRows(img image.Image, width, height, bytesPerPixel, alignment int) ([]byte, uint32) {
	unalignedPitch := width * bytesPerPixel
	rowPitch := alignUp(unalignedPitch, alignment)
	out := make([]byte, rowPitch*height)

	var rowModel draw.Image
	switch bytesPerPixel {
	case 4:
		rowModel = image.NewRGBA(image.Rect(0, 0, width, 1))
	default:
		rowModel = image.NewGray(image.Rect(0, 0, width, 1))
	}

	bounds := img.Bounds()
	for y := 0; y < height; y++ {
		srcY := bounds.Min.Y + (height - 1 - y) // flip vertically
		srcRow := image.Rect(bounds.Min.X, srcY, bounds.Min.X+width, srcY+1)
		draw.Draw(rowModel, rowModel.Bounds(), img, srcRow.Min, draw.Src)

		dst := out[y*rowPitch : y*rowPitch+unalignedPitch]
		switch bytesPerPixel {
		case 4:
			copy(dst, rowModel.(*image.RGBA).Pix)
		default:
			copy(dst, rowModel.(*image.Gray).Pix)
		}
	}
	return out, uint32(rowPitch)
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// blackPixel is the RGBA color of the reserved fallback texture.
var blackPixel = color.RGBA{0, 0, 0, 255}
