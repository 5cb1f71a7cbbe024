package loaders

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/g3n/engine/loader/obj"
	"github.com/pkg/errors"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

// The decoder marks a face corner without a texture coordinate or normal
// with this index.
const objMissingIndex = math.MaxUint32

// objVertex is one v/vt/vn triple of a face, zero-based. -1 marks a missing
// texture coordinate or normal.
type objVertex struct {
	v, vt, vn int
}

type objMesh struct {
	material string
	vertices []metadata.ModelVertex
	indices  []uint32
	welded   map[objVertex]uint32
}

/**
 * @brief A decoded OBJ file with the materials of its library, if one was
 * supplied.
 */
type OBJFile struct {
	// MaterialLib is the library named by the mtllib statement.
	MaterialLib string
	materials   []metadata.MaterialData
	meshes      []*objMesh
}

// LoadOBJ reads the OBJ file at path together with the material library it
// references, resolved relative to the OBJ file.
func LoadOBJ(path string) (*metadata.ModelData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open obj %s", path)
	}

	file, err := ParseOBJ(bytes.NewReader(data), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "obj %s", path)
	}

	// The library name is only known after a first pass.
	if file.MaterialLib != "" {
		lib, err := os.Open(filepath.Join(filepath.Dir(path), file.MaterialLib))
		if err != nil {
			return nil, errors.Wrapf(err, "obj %s", path)
		}
		defer lib.Close()

		if file, err = ParseOBJ(bytes.NewReader(data), lib); err != nil {
			return nil, errors.Wrapf(err, "obj %s", path)
		}
	}
	return file.Model(filepath.Base(path)), nil
}

// ParseOBJ decodes OBJ geometry and, when mtl is not nil, its material
// library. Polygons are fan triangulated and every distinct v/vt/vn triple
// of a mesh becomes one vertex. Texture coordinates are kept as written.
func ParseOBJ(src io.Reader, mtl io.Reader) (*OBJFile, error) {
	dec, err := decodeOBJ(src, mtl)
	if err != nil {
		return nil, err
	}

	file := &OBJFile{MaterialLib: dec.Matlib}
	nv, nvt, nvn := len(dec.Vertices)/3, len(dec.Uvs)/2, len(dec.Normals)/3

	for oi := range dec.Objects {
		var current *objMesh
		for fi, face := range dec.Objects[oi].Faces {
			// Each run of faces with the same material is one mesh.
			if current == nil || current.material != face.Material {
				current = newOBJMesh(face.Material)
				file.meshes = append(file.meshes, current)
			}

			corners := make([]uint32, len(face.Vertices))
			for i := range face.Vertices {
				fv, err := faceVertex(face, i, nv, nvt, nvn)
				if err != nil {
					return nil, errors.Wrapf(err, "object %s face %d", dec.Objects[oi].Name, fi+1)
				}
				corners[i] = current.weld(fv, dec)
			}
			for i := 1; i < len(corners)-1; i++ {
				current.indices = append(current.indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if len(file.meshes) == 0 {
		return nil, errors.Wrap(core.ErrMalformedModel, "no faces")
	}

	file.materials = orderMaterials(dec, file.meshes)
	return file, nil
}

// Model assigns material indices by name and names every mesh after the
// file. Meshes without a known material use the first one.
func (o *OBJFile) Model(name string) *metadata.ModelData {
	byName := make(map[string]int, len(o.materials))
	for i, m := range o.materials {
		byName[m.Name] = i
	}

	model := &metadata.ModelData{Name: name, Materials: o.materials}
	for _, m := range o.meshes {
		model.Meshes = append(model.Meshes, metadata.MeshData{
			Name:          name,
			Vertices:      m.vertices,
			Indices:       m.indices,
			MaterialIndex: byName[m.material],
		})
	}
	return model
}

// decodeOBJ runs the Wavefront decoder. A nil library decodes the geometry
// alone.
func decodeOBJ(src io.Reader, mtl io.Reader) (dec *obj.Decoder, err error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	// Material statements before the first newmtl dereference a nil
	// material inside the decoder.
	defer func() {
		if r := recover(); r != nil {
			dec, err = nil, errors.Wrapf(core.ErrMalformedModel, "%v", r)
		}
	}()

	dec, err = obj.DecodeReader(src, mtl)
	if err != nil {
		return nil, errors.Wrap(core.ErrMalformedModel, err.Error())
	}
	for _, w := range dec.Warnings {
		core.LogDebug("obj: %s", w)
	}
	return dec, nil
}

// orderMaterials lists the materials in the order the meshes first use
// them, followed by the unused ones sorted by name.
func orderMaterials(dec *obj.Decoder, meshes []*objMesh) []metadata.MaterialData {
	var materials []metadata.MaterialData
	seen := make(map[string]bool, len(dec.Materials))
	add := func(name string) {
		m, ok := dec.Materials[name]
		if !ok || seen[name] {
			return
		}
		seen[name] = true
		materials = append(materials, metadata.MaterialData{Name: m.Name, DiffuseTexture: m.MapKd})
	}

	for _, m := range meshes {
		add(m.material)
	}
	rest := make([]string, 0, len(dec.Materials))
	for name := range dec.Materials {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		add(name)
	}
	return materials
}

func newOBJMesh(material string) *objMesh {
	return &objMesh{material: material, welded: make(map[objVertex]uint32)}
}

func (m *objMesh) weld(fv objVertex, dec *obj.Decoder) uint32 {
	if idx, ok := m.welded[fv]; ok {
		return idx
	}
	p := dec.Vertices[3*fv.v:]
	vertex := metadata.ModelVertex{Position: [3]float32{p[0], p[1], p[2]}}
	if fv.vt >= 0 {
		t := dec.Uvs[2*fv.vt:]
		vertex.TexCoords = [2]float32{t[0], t[1]}
	}
	if fv.vn >= 0 {
		n := dec.Normals[3*fv.vn:]
		vertex.Normal = [3]float32{n[0], n[1], n[2]}
	}
	idx := uint32(len(m.vertices))
	m.vertices = append(m.vertices, vertex)
	m.welded[fv] = idx
	return idx
}

// faceVertex range checks corner i of a face. The decoder has already
// resolved negative indices.
func faceVertex(face obj.Face, i, nv, nvt, nvn int) (objVertex, error) {
	fv := objVertex{v: face.Vertices[i], vt: -1, vn: -1}
	if fv.v < 0 || fv.v >= nv {
		return objVertex{}, errors.Wrapf(core.ErrMalformedModel, "position %d out of range (%d elements)", fv.v+1, nv)
	}
	var err error
	if fv.vt, err = optionalIndex(face.Uvs[i], nvt, "texture coordinate"); err != nil {
		return objVertex{}, err
	}
	if fv.vn, err = optionalIndex(face.Normals[i], nvn, "normal"); err != nil {
		return objVertex{}, err
	}
	return fv, nil
}

func optionalIndex(idx, count int, what string) (int, error) {
	if idx == objMissingIndex {
		return -1, nil
	}
	if idx < 0 || idx >= count {
		return 0, errors.Wrapf(core.ErrMalformedModel, "%s %d out of range (%d elements)", what, idx+1, count)
	}
	return idx, nil
}
