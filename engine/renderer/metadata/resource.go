package metadata

import "github.com/google/uuid"

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Unknown or ignored file. */
	ResourceTypeNone ResourceType = iota
	/** @brief Binary resource type (SPIR-V shader bytecode). */
	ResourceTypeShader
	/** @brief Image resource type. */
	ResourceTypeImage
	/** @brief Material library (Wavefront .mtl). */
	ResourceTypeMaterial
	/** @brief Model resource type (Wavefront .obj). */
	ResourceTypeModel
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeMaterial:
		return "material"
	case ResourceTypeModel:
		return "model"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief Unique identifier assigned when the resource is loaded. */
	ID uuid.UUID
	/** @brief The type of the resource. */
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

// NewResource stamps a fresh identifier on the loaded data.
func NewResource(rt ResourceType, name, path string, size uint64, data interface{}) *Resource {
	return &Resource{
		ID:       uuid.New(),
		Type:     rt,
		Name:     name,
		FullPath: path,
		DataSize: size,
		Data:     data,
	}
}
