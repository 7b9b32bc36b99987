package metadata

import "github.com/go-gl/mathgl/mgl32"

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Lighting coefficients of a material.
 */
type LightParams struct {
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Shininess float32
}

/**
 * @brief Material configuration parsed from a material library.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief Lighting coefficients. */
	Light LightParams
	/** @brief Diffuse texture path relative to the library, empty when absent. */
	DiffuseMapName string
}

/** @brief Light parameters used when a model has no material. */
func DefaultLightParams() LightParams {
	return LightParams{
		Ambient:   mgl32.Vec3{0.2, 0.2, 0.2},
		Diffuse:   mgl32.Vec3{0.8, 0.8, 0.8},
		Specular:  mgl32.Vec3{0.5, 0.5, 0.5},
		Shininess: 32,
	}
}
