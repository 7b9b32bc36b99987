package metadata

import "github.com/go-gl/mathgl/mgl32"

/**
 * @brief A single vertex as laid out in the GPU vertex buffer.
 * Field order and sizes must match the vertex attribute descriptions.
 */
type Vertex struct {
	/** @brief Object-space position. */
	Position mgl32.Vec3
	/** @brief Vertex colour, used when the texture is switched off. */
	Color mgl32.Vec3
	/** @brief Texture coordinate. */
	TexCoord mgl32.Vec2
	/** @brief Object-space normal. */
	Normal mgl32.Vec3
	/** @brief Specular exponent of the material owning the vertex. */
	Shininess float32
}

/**
 * @brief Everything the renderer needs to draw one mesh.
 */
type Model struct {
	/** @brief The name of the model, usually its file name. */
	Name string
	/** @brief Deduplicated vertices. */
	Vertices []Vertex
	/** @brief Triangle list indices into Vertices. */
	Indices []uint32
	/** @brief Lighting parameters of the first material. */
	Light LightParams
	/** @brief Diffuse texture, never nil once loaded. */
	Texture *Image
}

/** @brief The number of indices to draw. */
func (m *Model) IndexCount() uint32 {
	return uint32(len(m.Indices))
}
