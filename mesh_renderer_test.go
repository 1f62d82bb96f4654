package facerender_test

import (
	"bytes"
	"errors"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot/cmpimg"

	"github.com/mizuki-t/facerender"
	"github.com/mizuki-t/facerender/camera"
	"github.com/mizuki-t/facerender/tensor"
)

const imageSize = 64

var (
	quadVerts = []r3.Vec{
		{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5},
	}
	quadFaces = [][3]int{{0, 1, 2}, {0, 2, 3}}
)

func newQuadRenderer(t *testing.T) *facerender.MeshRenderer {
	t.Helper()
	r, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{
		ImageSize: imageSize,
		Faces:     quadFaces,
	})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// frontalBatch returns the quad pushed to z=2, facing an identity-pose
// pinhole camera.
func frontalBatch() [][]r3.Vec {
	verts := make([]r3.Vec, len(quadVerts))
	for i, v := range quadVerts {
		verts[i] = r3.Vec{X: v.X, Y: v.Y, Z: 2}
	}
	return [][]r3.Vec{verts}
}

func TestNewMeshRendererRequiresTopology(t *testing.T) {
	_, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{ImageSize: imageSize})
	if !errors.Is(err, facerender.ErrNoFaces) {
		t.Fatalf("got %v, want ErrNoFaces", err)
	}
}

func TestNewMeshRendererFromFile(t *testing.T) {
	r, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{
		ImageSize: imageSize,
		MeshFile:  filepath.Join("testdata", "head", "head_template_mesh.obj"),
	})
	if err != nil {
		t.Fatal(err)
	}
	imgs, masks, err := r.RenderTransforms(frontalBatch(), []fauxgl.Matrix{fauxgl.Identity()}, imageSize, r2.Vec{X: imageSize / 2, Y: imageSize / 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(imgs) != 1 || len(masks) != 1 {
		t.Fatalf("got %d images %d masks, want 1 each", len(imgs), len(masks))
	}
}

func TestMeshRendererFrontalQuad(t *testing.T) {
	r := newQuadRenderer(t)
	imgs, masks, err := r.RenderTransforms(frontalBatch(), []fauxgl.Matrix{fauxgl.Identity()}, imageSize, r2.Vec{X: imageSize / 2, Y: imageSize / 2})
	if err != nil {
		t.Fatal(err)
	}
	mask := masks[0]
	if mask.Count() == 0 {
		t.Fatal("frontal quad rendered an empty mask")
	}
	if !mask.At(imageSize/2, imageSize/2) {
		t.Error("image center not covered by a quad facing the camera")
	}
	// The quad spans a quarter of the focal plane; coverage should be
	// roughly a quarter of the image, not a sliver or the whole frame.
	if c := mask.Count(); c < imageSize*imageSize/8 || c > imageSize*imageSize/2 {
		t.Errorf("mask covers %d of %d pixels", c, imageSize*imageSize)
	}
	if imgs[0].MinValue() < 0 || imgs[0].MaxValue() > 255 {
		t.Errorf("RGB outside [0,255]: min %v max %v", imgs[0].MinValue(), imgs[0].MaxValue())
	}
	if imgs[0].MaxValue() == 0 {
		t.Error("rendered image is fully black")
	}
}

func TestMeshRendererDeterministic(t *testing.T) {
	r := newQuadRenderer(t)
	cam := camera.NewPerspective(fauxgl.Identity(), imageSize, r2.Vec{X: imageSize / 2, Y: imageSize / 2}, imageSize)
	first, firstMasks, err := r.Render(frontalBatch(), cam)
	if err != nil {
		t.Fatal(err)
	}
	second, secondMasks, err := r.Render(frontalBatch(), cam)
	if err != nil {
		t.Fatal(err)
	}
	equal, err := cmpimg.EqualApprox("png", encodePNG(t, first[0]), encodePNG(t, second[0]), 0)
	if err != nil {
		t.Fatal(err)
	}
	if !equal {
		t.Error("repeated renders of identical input differ")
	}
	if !firstMasks[0].ContainedIn(secondMasks[0]) || !secondMasks[0].ContainedIn(firstMasks[0]) {
		t.Error("repeated renders produced different masks")
	}
}

func TestMeshRendererBatchMismatch(t *testing.T) {
	r := newQuadRenderer(t)
	_, _, err := r.RenderTransforms(frontalBatch(), []fauxgl.Matrix{fauxgl.Identity(), fauxgl.Identity()}, imageSize, r2.Vec{})
	if err == nil {
		t.Fatal("mismatched transform batch accepted")
	}
}

func TestMeshRendererFaceIndexOutOfRange(t *testing.T) {
	r, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{
		ImageSize: imageSize,
		Faces:     [][3]int{{0, 1, 99}},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = r.RenderTransforms(frontalBatch(), []fauxgl.Matrix{fauxgl.Identity()}, imageSize, r2.Vec{})
	if err == nil {
		t.Fatal("face index past the vertex count accepted")
	}
}

func TestMeshRendererRequiresCamera(t *testing.T) {
	r := newQuadRenderer(t)
	if _, _, err := r.Render(frontalBatch(), camera.Perspective{}); err == nil {
		t.Fatal("zero camera accepted")
	}
}

func TestMeshRendererSupersample(t *testing.T) {
	r, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{
		ImageSize:   imageSize,
		Faces:       quadFaces,
		Supersample: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	imgs, masks, err := r.RenderTransforms(frontalBatch(), []fauxgl.Matrix{fauxgl.Identity()}, imageSize, r2.Vec{X: imageSize / 2, Y: imageSize / 2})
	if err != nil {
		t.Fatal(err)
	}
	if imgs[0].H != imageSize || imgs[0].W != imageSize {
		t.Errorf("supersampled output is %dx%d, want %dx%d", imgs[0].H, imgs[0].W, imageSize, imageSize)
	}
	if masks[0].Count() == 0 {
		t.Error("supersampled mask is empty")
	}
}

func encodePNG(t *testing.T, im tensor.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, im.ToNRGBA(255)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
