package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

// DecodeSTL reads a binary STL stream and welds shared vertices into an
// indexed topology. STL stores three loose vertices per triangle, so
// vertices closer than a tolerance of the order of 1/1000th of the
// shortest edge are merged into one index. STL carries no UV layout.
func DecodeSTL(r io.Reader) (Topology, error) {
	tris, err := readBinarySTL(r)
	if err != nil {
		return Topology{}, err
	}
	return weld(tris, weldTolerance(tris)), nil
}

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8
	Count uint32
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // attribute byte count
}

func readBinarySTL(r io.Reader) ([][3]r3.Vec, error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.New("meshio: EOF while reading STL header")
		}
		return nil, fmt.Errorf("meshio: STL header: %w", err)
	}
	if header.Count == 0 {
		return nil, errors.New("meshio: STL header indicates 0 triangles")
	}
	out := make([][3]r3.Vec, 0, header.Count)
	var d stlTriangle
	for i := 0; i < int(header.Count); i++ {
		if err := binary.Read(r, binary.LittleEndian, &d); err != nil {
			return nil, fmt.Errorf("meshio: %d/%d STL triangles read: %w", i, header.Count, err)
		}
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("meshio: STL triangle %d: %w", i, err)
		}
		out = append(out, [3]r3.Vec{
			vecFrom3F32(d.Vertex1),
			vecFrom3F32(d.Vertex2),
			vecFrom3F32(d.Vertex3),
		})
	}
	return out, nil
}

func (t stlTriangle) validate() error {
	if bad3F32(t.Normal) {
		return errors.New("inf/NaN normal")
	}
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return errors.New("inf/NaN vertex")
	}
	return nil
}

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func vecFrom3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}

// weldTolerance infers a vertex merge tolerance as 1/1000th of the
// shortest nondegenerate edge in the model.
func weldTolerance(tris [][3]r3.Vec) float64 {
	minEdge := math.Inf(1)
	for _, t := range tris {
		for i := 0; i < 3; i++ {
			d := r3.Norm(r3.Sub(t[i], t[(i+1)%3]))
			if d > 0 && d < minEdge {
				minEdge = d
			}
		}
	}
	if math.IsInf(minEdge, 1) {
		return 1e-12
	}
	return minEdge / 1000
}

type weldKey [3]int64

func weld(tris [][3]r3.Vec, tol float64) Topology {
	var topo Topology
	index := make(map[weldKey]int, len(tris))
	lookup := func(v r3.Vec) int {
		k := weldKey{
			int64(math.Round(v.X / tol)),
			int64(math.Round(v.Y / tol)),
			int64(math.Round(v.Z / tol)),
		}
		if i, ok := index[k]; ok {
			return i
		}
		i := len(topo.Verts)
		topo.Verts = append(topo.Verts, v)
		index[k] = i
		return i
	}
	for _, t := range tris {
		topo.Faces = append(topo.Faces, [3]int{lookup(t[0]), lookup(t[1]), lookup(t[2])})
	}
	return topo
}
