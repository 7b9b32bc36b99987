package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/meshview/engine/core"
	"github.com/spaghettifunk/meshview/engine/renderer/metadata"
)

// MaterialLibrary holds the materials of one .mtl file in declaration order.
type MaterialLibrary struct {
	Order     []string
	Materials map[string]*metadata.MaterialConfig
}

// First returns the first declared material, or nil for an empty library.
func (ml *MaterialLibrary) First() *metadata.MaterialConfig {
	if len(ml.Order) == 0 {
		return nil
	}
	return ml.Materials[ml.Order[0]]
}

type MaterialLoader struct{}

func (ml *MaterialLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lib, err := ParseMTL(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return metadata.NewResource(metadata.ResourceTypeMaterial, filepath.Base(path), path, uint64(len(lib.Order)), lib), nil
}

func (ml *MaterialLoader) Unload(*metadata.Resource) error {
	return nil
}

// ParseMTL reads a Wavefront material library. Only the statements the
// renderer uses are interpreted (newmtl, Ka, Kd, Ks, Ns, map_Kd).
func ParseMTL(r io.Reader) (*MaterialLibrary, error) {
	lib := &MaterialLibrary{
		Materials: make(map[string]*metadata.MaterialConfig),
	}

	var current *metadata.MaterialConfig
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		key, args := fields[0], fields[1:]

		if key == "newmtl" {
			if len(args) < 1 {
				return nil, fmt.Errorf("line %d: newmtl without a name", lineNo)
			}
			name := strings.Join(args, " ")
			current = &metadata.MaterialConfig{
				Name:  name,
				Light: metadata.DefaultLightParams(),
			}
			if _, exists := lib.Materials[name]; !exists {
				lib.Order = append(lib.Order, name)
			}
			lib.Materials[name] = current
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("line %d: '%s' before newmtl", lineNo, key)
		}

		switch key {
		case "Ka", "Kd", "Ks":
			v, err := parseVec3(args)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, key, err)
			}
			switch key {
			case "Ka":
				current.Light.Ambient = v
			case "Kd":
				current.Light.Diffuse = v
			case "Ks":
				current.Light.Specular = v
			}
		case "Ns":
			if len(args) != 1 {
				return nil, fmt.Errorf("line %d: Ns expects one value", lineNo)
			}
			ns, err := strconv.ParseFloat(args[0], 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid Ns value: %s", lineNo, args[0])
			}
			if ns < 0 {
				return nil, fmt.Errorf("line %d: Ns must be non-negative", lineNo)
			}
			current.Light.Shininess = float32(ns)
		case "map_Kd":
			if len(args) == 0 {
				return nil, fmt.Errorf("line %d: map_Kd without a file", lineNo)
			}
			// options such as -bm come first, the file name is last
			current.DiffuseMapName = args[len(args)-1]
		default:
			core.LogDebug("mtl: ignoring '%s' on line %d", key, lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lib, nil
}

func parseVec3(args []string) (mgl32.Vec3, error) {
	var v mgl32.Vec3
	if len(args) < 3 {
		return v, fmt.Errorf("expected 3 values, got %d", len(args))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return v, fmt.Errorf("invalid value: %s", args[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}
