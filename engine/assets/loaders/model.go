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

// objIndex addresses one face corner. Indices are zero-based, -1 when absent.
type objIndex struct {
	v, vt, vn int
}

type objFace struct {
	corners  [3]objIndex
	material string
}

// ObjFile is a parsed Wavefront OBJ with polygons already triangulated.
type ObjFile struct {
	Positions    []mgl32.Vec3
	TexCoords    []mgl32.Vec2
	Normals      []mgl32.Vec3
	MaterialLibs []string
	faces        []objFace
}

func (o *ObjFile) TriangleCount() int {
	return len(o.faces)
}

// FirstMaterial returns the first material referenced by a face.
func (o *ObjFile) FirstMaterial() string {
	for _, f := range o.faces {
		if f.material != "" {
			return f.material
		}
	}
	return ""
}

type ModelLoader struct{}

// Load parses an OBJ file, its material libraries and the diffuse texture of
// the first material into a *metadata.Model.
func (ml *ModelLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	obj, err := ParseOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	materials := make(map[string]*metadata.MaterialConfig)
	var first *metadata.MaterialConfig
	for _, libName := range obj.MaterialLibs {
		libFile, err := os.Open(filepath.Join(dir, libName))
		if err != nil {
			return nil, fmt.Errorf("material library %s: %w", libName, err)
		}
		lib, err := ParseMTL(libFile)
		libFile.Close()
		if err != nil {
			return nil, fmt.Errorf("material library %s: %w", libName, err)
		}
		for _, name := range lib.Order {
			materials[name] = lib.Materials[name]
		}
		if first == nil {
			first = lib.First()
		}
	}
	if name := obj.FirstMaterial(); name != "" {
		if m, ok := materials[name]; ok {
			first = m
		} else {
			core.LogWarn("model %s uses unknown material '%s'", path, name)
		}
	}

	vertices, indices, err := obj.Build(materials)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	model := &metadata.Model{
		Name:     filepath.Base(path),
		Vertices: vertices,
		Indices:  indices,
		Light:    metadata.DefaultLightParams(),
	}
	if first != nil {
		model.Light = first.Light
		if first.DiffuseMapName != "" {
			texPath := filepath.Join(dir, first.DiffuseMapName)
			res, err := (&TextureLoader{}).Load(texPath, nil)
			if err != nil {
				return nil, fmt.Errorf("diffuse map: %w", err)
			}
			model.Texture = res.Data.(*metadata.Image)
		}
	}
	if model.Texture == nil {
		core.LogDebug("model %s has no diffuse map, using a checkerboard", path)
		model.Texture = Checkerboard(CheckerboardSize, CheckerboardSize/8)
	}

	core.LogInfo("Loaded model %s: %d vertices, %d triangles", model.Name, len(vertices), len(indices)/3)
	return metadata.NewResource(metadata.ResourceTypeModel, model.Name, path, uint64(len(vertices)), model), nil
}

func (ml *ModelLoader) Unload(*metadata.Resource) error {
	return nil
}

// ParseOBJ reads v, vt, vn, f, mtllib and usemtl statements. Polygons are
// split into triangle fans and negative indices are resolved against the
// elements declared so far.
func ParseOBJ(r io.Reader) (*ObjFile, error) {
	obj := &ObjFile{}
	material := ""

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		fields := strings.Fields(line)
		key, args := fields[0], fields[1:]
		switch key {
		case "v":
			v, err := parseVec3(args)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", lineNo, core.ErrInvalidModel, err)
			}
			obj.Positions = append(obj.Positions, v)
		case "vn":
			v, err := parseVec3(args)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", lineNo, core.ErrInvalidModel, err)
			}
			obj.Normals = append(obj.Normals, v)
		case "vt":
			if len(args) < 2 {
				return nil, fmt.Errorf("line %d: %w: vt expects 2 values", lineNo, core.ErrInvalidModel)
			}
			var t mgl32.Vec2
			for i := 0; i < 2; i++ {
				f, err := strconv.ParseFloat(args[i], 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w: invalid vt value %s", lineNo, core.ErrInvalidModel, args[i])
				}
				t[i] = float32(f)
			}
			obj.TexCoords = append(obj.TexCoords, t)
		case "f":
			if len(args) < 3 {
				return nil, fmt.Errorf("line %d: %w: face needs at least 3 corners", lineNo, core.ErrInvalidModel)
			}
			corners := make([]objIndex, len(args))
			for i, a := range args {
				c, err := obj.parseCorner(a)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				corners[i] = c
			}
			for i := 1; i+1 < len(corners); i++ {
				obj.faces = append(obj.faces, objFace{
					corners:  [3]objIndex{corners[0], corners[i], corners[i+1]},
					material: material,
				})
			}
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, args...)
		case "usemtl":
			material = strings.Join(args, " ")
		default:
			// o, g, s and friends do not affect a single mesh
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(obj.faces) == 0 {
		return nil, fmt.Errorf("%w: no faces", core.ErrInvalidModel)
	}
	return obj, nil
}

func (o *ObjFile) parseCorner(token string) (objIndex, error) {
	parts := strings.Split(token, "/")
	if len(parts) > 3 || parts[0] == "" {
		return objIndex{}, fmt.Errorf("%w: malformed face corner '%s'", core.ErrInvalidModel, token)
	}
	idx := objIndex{v: -1, vt: -1, vn: -1}
	var err error
	if idx.v, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
		return idx, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if idx.vt, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
			return idx, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if idx.vn, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
			return idx, err
		}
	}
	return idx, nil
}

func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid index '%s'", core.ErrInvalidModel, s)
	}
	if i < 0 {
		i = count + i
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("%w: index %s out of range (%d elements)", core.ErrInvalidModel, s, count)
	}
	return i, nil
}

type vertexKey struct {
	index    objIndex
	material string
}

// Build turns the faces into a deduplicated vertex array and a triangle list.
// Vertex colour and shininess come from the face material; corners without a
// normal get the average of the adjacent face normals.
func (o *ObjFile) Build(materials map[string]*metadata.MaterialConfig) ([]metadata.Vertex, []uint32, error) {
	defaults := metadata.DefaultLightParams()

	seen := make(map[vertexKey]uint32)
	vertices := make([]metadata.Vertex, 0, len(o.Positions))
	indices := make([]uint32, 0, len(o.faces)*3)
	smooth := make(map[uint32]mgl32.Vec3)

	for _, f := range o.faces {
		color := mgl32.Vec3{1, 1, 1}
		shininess := defaults.Shininess
		if m, ok := materials[f.material]; ok {
			color = m.Light.Diffuse
			shininess = m.Light.Shininess
		}

		p0 := o.Positions[f.corners[0].v]
		p1 := o.Positions[f.corners[1].v]
		p2 := o.Positions[f.corners[2].v]
		faceNormal := p1.Sub(p0).Cross(p2.Sub(p0))

		for _, c := range f.corners {
			key := vertexKey{index: c, material: f.material}
			idx, ok := seen[key]
			if !ok {
				v := metadata.Vertex{
					Position:  o.Positions[c.v],
					Color:     color,
					Shininess: shininess,
				}
				if c.vt >= 0 {
					t := o.TexCoords[c.vt]
					// OBJ puts v=0 at the bottom, Vulkan samples from the top
					v.TexCoord = mgl32.Vec2{t[0], 1 - t[1]}
				}
				if c.vn >= 0 {
					v.Normal = o.Normals[c.vn]
				}
				idx = uint32(len(vertices))
				vertices = append(vertices, v)
				seen[key] = idx
			}
			if c.vn < 0 {
				smooth[idx] = smooth[idx].Add(faceNormal)
			}
			indices = append(indices, idx)
		}
	}

	for idx, n := range smooth {
		if n.Len() > 0 {
			vertices[idx].Normal = n.Normalize()
		}
	}
	return vertices, indices, nil
}
