// Package facerender renders batched 3D geometry to RGB images and
// coverage masks for avatar fitting pipelines. It is an adapter over a
// software rasterization stack: triangle meshes and UV-textured meshes go
// through fauxgl's rasterizer and Phong shaders, point clouds are splatted
// as alpha-composited discs. Topology is loaded once at construction;
// vertex positions, textures and cameras are per-call inputs.
//
// All renderers are synchronous. They keep no mutable state across calls
// except PointRenderer's current camera, so concurrent use of one instance
// is only safe for the mesh and texture renderers.
package facerender

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// assembleMesh builds a fauxgl mesh from positions and face indices with
// flat per-face normals and a uniform vertex color. A face index outside
// the vertex range is an error.
func assembleMesh(verts []r3.Vec, faces [][3]int, col fauxgl.Color) (*fauxgl.Mesh, error) {
	tris := make([]*fauxgl.Triangle, 0, len(faces))
	for i, f := range faces {
		if err := checkFace(i, f, len(verts)); err != nil {
			return nil, err
		}
		t := fauxgl.NewTriangleForPoints(fglVec(verts[f[0]]), fglVec(verts[f[1]]), fglVec(verts[f[2]]))
		t.V1.Color = col
		t.V2.Color = col
		t.V3.Color = col
		tris = append(tris, t)
	}
	return fauxgl.NewTriangleMesh(tris), nil
}

// assembleUVMesh is assembleMesh with per-corner texture coordinates taken
// from a parallel UV face list.
func assembleUVMesh(verts []r3.Vec, faces, uvFaces [][3]int, uvs []r2.Vec) (*fauxgl.Mesh, error) {
	if len(uvFaces) != len(faces) {
		return nil, fmt.Errorf("%d faces but %d UV faces", len(faces), len(uvFaces))
	}
	tris := make([]*fauxgl.Triangle, 0, len(faces))
	for i, f := range faces {
		if err := checkFace(i, f, len(verts)); err != nil {
			return nil, err
		}
		if err := checkFace(i, uvFaces[i], len(uvs)); err != nil {
			return nil, err
		}
		t := fauxgl.NewTriangleForPoints(fglVec(verts[f[0]]), fglVec(verts[f[1]]), fglVec(verts[f[2]]))
		uf := uvFaces[i]
		t.V1.Texture = fauxgl.V(uvs[uf[0]].X, uvs[uf[0]].Y, 0)
		t.V2.Texture = fauxgl.V(uvs[uf[1]].X, uvs[uf[1]].Y, 0)
		t.V3.Texture = fauxgl.V(uvs[uf[2]].X, uvs[uf[2]].Y, 0)
		tris = append(tris, t)
	}
	return fauxgl.NewTriangleMesh(tris), nil
}

func checkFace(i int, f [3]int, n int) error {
	for _, vi := range f {
		if vi < 0 || vi >= n {
			return fmt.Errorf("face %d references index %d of %d", i, vi, n)
		}
	}
	return nil
}

func fglVec(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }

// colorBuffer returns the context's color buffer at the target size,
// downsampling with bilinear filtering when rendered supersampled.
func colorBuffer(dc *fauxgl.Context, imageSize, supersample int) *image.NRGBA {
	im := dc.Image()
	if supersample > 1 {
		im = resize.Resize(uint(imageSize), uint(imageSize), im, resize.Bilinear)
	}
	if nrgba, ok := im.(*image.NRGBA); ok {
		return nrgba
	}
	out := image.NewNRGBA(image.Rect(0, 0, imageSize, imageSize))
	draw.Draw(out, out.Bounds(), im, im.Bounds().Min, draw.Src)
	return out
}
