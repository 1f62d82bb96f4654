package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// DecodeOBJ parses a Wavefront OBJ stream, keeping vertex positions, UV
// coordinates and the face index structure. Faces with more than three
// corners are fan-triangulated. Normals, materials and object groups are
// skipped. Face indices may be 1-based or negative per the OBJ spec; an
// index outside the declared vertices is an error.
func DecodeOBJ(r io.Reader) (Topology, error) {
	var topo Topology
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return Topology{}, fmt.Errorf("meshio: line %d: vertex: %w", line, err)
			}
			topo.Verts = append(topo.Verts, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
		case "vt":
			v, err := parseFloats(fields[1:], 2)
			if err != nil {
				return Topology{}, fmt.Errorf("meshio: line %d: uv: %w", line, err)
			}
			topo.UVs = append(topo.UVs, r2.Vec{X: v[0], Y: v[1]})
		case "f":
			if err := parseFace(&topo, fields[1:]); err != nil {
				return Topology{}, fmt.Errorf("meshio: line %d: %w", line, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return Topology{}, fmt.Errorf("meshio: line %d: %w", line, err)
	}
	if len(topo.Faces) == 0 {
		return Topology{}, fmt.Errorf("meshio: no faces in OBJ input")
	}
	if len(topo.UVFaces) != 0 && len(topo.UVFaces) != len(topo.Faces) {
		return Topology{}, fmt.Errorf("meshio: %d of %d faces have UV indices", len(topo.UVFaces), len(topo.Faces))
	}
	return topo, nil
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d coordinates, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseFace appends the fan triangulation of one face record. Corners are
// v, v/vt, v//vn or v/vt/vn.
func parseFace(topo *Topology, corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("face with %d corners", len(corners))
	}
	vi := make([]int, len(corners))
	ti := make([]int, 0, len(corners))
	for i, c := range corners {
		parts := strings.Split(c, "/")
		v, err := resolveIndex(parts[0], len(topo.Verts))
		if err != nil {
			return fmt.Errorf("corner %q: %w", c, err)
		}
		vi[i] = v
		if len(parts) > 1 && parts[1] != "" {
			t, err := resolveIndex(parts[1], len(topo.UVs))
			if err != nil {
				return fmt.Errorf("corner %q: %w", c, err)
			}
			ti = append(ti, t)
		}
	}
	if len(ti) != 0 && len(ti) != len(corners) {
		return fmt.Errorf("face mixes corners with and without UV indices")
	}
	for i := 1; i+1 < len(vi); i++ {
		topo.Faces = append(topo.Faces, [3]int{vi[0], vi[i], vi[i+1]})
		if len(ti) != 0 {
			topo.UVFaces = append(topo.UVFaces, [3]int{ti[0], ti[i], ti[i+1]})
		}
	}
	return nil
}

// resolveIndex converts a 1-based or negative OBJ index to 0-based.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case i > 0 && i <= n:
		return i - 1, nil
	case i < 0 && -i <= n:
		return n + i, nil
	}
	return 0, fmt.Errorf("index %d out of range (%d declared)", i, n)
}
