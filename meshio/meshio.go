// Package meshio loads triangle mesh topology from OBJ and binary STL
// files. Unlike fauxgl's own loaders, which bake indices into independent
// triangles, meshio keeps the index structure intact so a fixed topology
// can be combined with fresh vertex positions on every render call.
package meshio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Topology is an indexed triangle mesh. UVs and UVFaces are empty for
// formats without texture coordinates. Immutable once loaded.
type Topology struct {
	Verts   []r3.Vec
	Faces   [][3]int
	UVs     []r2.Vec
	UVFaces [][3]int
}

// HasUV reports whether the topology carries a UV layout covering every face.
func (t Topology) HasUV() bool {
	return len(t.UVs) > 0 && len(t.UVFaces) == len(t.Faces)
}

// Load reads mesh topology from path, dispatching on the file extension.
// OBJ and binary STL are supported.
func Load(path string) (Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return Topology{}, err
	}
	defer f.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		t, err := DecodeOBJ(f)
		if err != nil {
			return Topology{}, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	case ".stl":
		t, err := DecodeSTL(f)
		if err != nil {
			return Topology{}, fmt.Errorf("%s: %w", path, err)
		}
		return t, nil
	default:
		return Topology{}, fmt.Errorf("meshio: unsupported mesh format %q", ext)
	}
}
