package facerender

import (
	"errors"
	"fmt"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mizuki-t/facerender/camera"
	"github.com/mizuki-t/facerender/meshio"
	"github.com/mizuki-t/facerender/tensor"
)

// ErrNoFaces is returned by NewMeshRenderer when neither a mesh file nor
// raw face indices are configured.
var ErrNoFaces = errors.New("facerender: mesh topology required: set MeshFile or Faces")

// MeshRendererConfig configures NewMeshRenderer. Exactly one of MeshFile
// and Faces must provide the triangle topology.
type MeshRendererConfig struct {
	// ImageSize is the square output resolution in pixels.
	ImageSize int
	// MeshFile is a path to an OBJ or binary STL file whose face indices
	// define the topology. Vertex positions in the file are ignored.
	MeshFile string
	// Faces are raw triangle vertex indices, used when MeshFile is empty.
	Faces [][3]int
	// Supersample renders at a multiple of ImageSize and downsamples with
	// bilinear filtering for antialiasing. Values below 2 disable it.
	Supersample int
}

// MeshRenderer rasterizes batched triangle meshes with Phong shading
// under a single point light. Per call it returns RGB images scaled to
// [0, 255] and alpha coverage masks. The topology is fixed at
// construction; identical inputs produce identical outputs.
type MeshRenderer struct {
	imageSize   int
	supersample int
	faces       [][3]int
	lightPos    fauxgl.Vector
}

// NewMeshRenderer builds a mesh renderer from cfg. It fails with
// ErrNoFaces when cfg carries no topology, and propagates loader errors
// for an unreadable or malformed mesh file.
func NewMeshRenderer(cfg MeshRendererConfig) (*MeshRenderer, error) {
	if cfg.ImageSize <= 0 {
		return nil, fmt.Errorf("facerender: image size must be positive, got %d", cfg.ImageSize)
	}
	var faces [][3]int
	switch {
	case cfg.MeshFile != "":
		topo, err := meshio.Load(cfg.MeshFile)
		if err != nil {
			return nil, err
		}
		faces = topo.Faces
	case cfg.Faces != nil:
		faces = cfg.Faces
	default:
		return nil, ErrNoFaces
	}
	supersample := cfg.Supersample
	if supersample < 2 {
		supersample = 1
	}
	return &MeshRenderer{
		imageSize:   cfg.ImageSize,
		supersample: supersample,
		faces:       faces,
		lightPos:    fauxgl.V(0, 0, 3),
	}, nil
}

// Render rasterizes one mesh per batch item using cam for every item.
func (r *MeshRenderer) Render(verts [][]r3.Vec, cam camera.Perspective) ([]tensor.Image, []tensor.Mask, error) {
	if !cam.Valid() {
		return nil, nil, errors.New("facerender: mesh renderer requires a camera")
	}
	images := make([]tensor.Image, 0, len(verts))
	masks := make([]tensor.Mask, 0, len(verts))
	for b := range verts {
		img, mask, err := r.renderOne(verts[b], cam)
		if err != nil {
			return nil, nil, fmt.Errorf("facerender: batch %d: %w", b, err)
		}
		images = append(images, img)
		masks = append(masks, mask)
	}
	return images, masks, nil
}

// RenderTransforms builds one perspective camera per batch item from a
// rigid world→view transform and screen-space intrinsics, then renders.
// transforms must match verts in length.
func (r *MeshRenderer) RenderTransforms(verts [][]r3.Vec, transforms []fauxgl.Matrix, focalLength float64, principalPoint r2.Vec) ([]tensor.Image, []tensor.Mask, error) {
	if len(transforms) != len(verts) {
		return nil, nil, fmt.Errorf("facerender: %d vertex batches but %d transforms", len(verts), len(transforms))
	}
	images := make([]tensor.Image, 0, len(verts))
	masks := make([]tensor.Mask, 0, len(verts))
	for b := range verts {
		cam := camera.NewPerspective(transforms[b], focalLength, principalPoint, r.imageSize)
		img, mask, err := r.renderOne(verts[b], cam)
		if err != nil {
			return nil, nil, fmt.Errorf("facerender: batch %d: %w", b, err)
		}
		images = append(images, img)
		masks = append(masks, mask)
	}
	return images, masks, nil
}

func (r *MeshRenderer) renderOne(verts []r3.Vec, cam camera.Perspective) (tensor.Image, tensor.Mask, error) {
	mesh, err := assembleMesh(verts, r.faces, fauxgl.White)
	if err != nil {
		return tensor.Image{}, tensor.Mask{}, err
	}
	size := r.imageSize * r.supersample
	dc := fauxgl.NewContext(size, size)
	dc.ClearColorBufferWith(fauxgl.Transparent)
	dc.Cull = fauxgl.CullNone
	shader := fauxgl.NewPhongShader(cam.ViewProjection(), r.lightDirection(verts), fauxgl.Vector{})
	shader.ObjectColor = fauxgl.White
	dc.Shader = shader
	dc.DrawMesh(mesh)
	buf := colorBuffer(dc, r.imageSize, r.supersample)
	img := tensor.FromImage(buf)
	img.Scale(255)
	return img, tensor.MaskFromAlpha(buf), nil
}

// lightDirection maps the fixed point light position to the rasterizer's
// directional light: the direction from the mesh centroid toward the light.
func (r *MeshRenderer) lightDirection(verts []r3.Vec) fauxgl.Vector {
	var c r3.Vec
	for _, v := range verts {
		c = r3.Add(c, v)
	}
	if len(verts) > 0 {
		c = r3.Scale(1/float64(len(verts)), c)
	}
	return r.lightPos.Sub(fglVec(c)).Normalize()
}
