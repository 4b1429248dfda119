package material

// GPURecord is the 16-byte-multiple material layout of §3: three
// texture-or-constant fields plus padding to round out the GPU row.
type GPURecord struct {
	Diffuse   uint32
	Specular  uint32
	Roughness uint32
	_pad      uint32
}

// GPUEmission is the single texture-or-constant emission field.
type GPUEmission struct {
	Emission uint32
}

// Channel3 is a source material's description of a 3-channel field:
// either a texture path or a constant color.
type Channel3 struct {
	TexturePath string
	Constant    [3]float32
}

// Channel1 is a source material's description of a 1-channel field.
type Channel1 struct {
	TexturePath string
	Constant    float32
}

// Source is the asset-importer's view of one material, before it is
// turned into GPU records by Build.
type Source struct {
	Diffuse   Channel3
	Specular  Channel3
	Roughness Channel1
	Emission  Channel3 // emission is stored as a color; a gray emitter sets R=G=B.
}

// TextureAdder resolves a texture path + requested channel count to a
// texture-pool index, deduplicating by path (§4.3 "texture dedup").
// Implemented by internal/texture.Pool.AddTexture.
type TextureAdder func(path string, channels int) (uint32, error)

// Build turns a Source material into its GPU material + emission
// records, resolving any texture-backed channel via addTexture and
// packing any constant-backed channel per §4.3.
func Build(src Source, addTexture TextureAdder) (GPURecord, GPUEmission, error) {
	diffuse, err := encodeChannel3(src.Diffuse, addTexture, 4)
	if err != nil {
		return GPURecord{}, GPUEmission{}, err
	}
	specular, err := encodeChannel3(src.Specular, addTexture, 4)
	if err != nil {
		return GPURecord{}, GPUEmission{}, err
	}
	roughness, err := encodeChannel1(src.Roughness, addTexture)
	if err != nil {
		return GPURecord{}, GPUEmission{}, err
	}
	emission, err := encodeChannel3(src.Emission, addTexture, 4)
	if err != nil {
		return GPURecord{}, GPUEmission{}, err
	}
	return GPURecord{Diffuse: diffuse, Specular: specular, Roughness: roughness}, GPUEmission{Emission: emission}, nil
}

func encodeChannel3(c Channel3, addTexture TextureAdder, channels int) (uint32, error) {
	if c.TexturePath != "" {
		idx, err := addTexture(c.TexturePath, channels)
		if err != nil {
			return 0, err
		}
		return EncodeTexture(idx), nil
	}
	return EncodeConstant3(c.Constant[0], c.Constant[1], c.Constant[2]), nil
}

func encodeChannel1(c Channel1, addTexture TextureAdder) (uint32, error) {
	if c.TexturePath != "" {
		idx, err := addTexture(c.TexturePath, 1)
		if err != nil {
			return 0, err
		}
		return EncodeTexture(idx), nil
	}
	return EncodeConstant1(c.Constant), nil
}

// EmissionIsNonZero implements the §4.2 step 5 rule: texture-backed
// emission is assumed non-zero; constant-backed emission is non-zero
// only if its decoded luminance is positive.
func EmissionIsNonZero(field uint32) bool {
	if IsTexture(field) {
		return true
	}
	return Luminance3(field) > 0
}
