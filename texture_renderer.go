package facerender

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mizuki-t/facerender/camera"
	"github.com/mizuki-t/facerender/meshio"
	"github.com/mizuki-t/facerender/tensor"
)

// HeadTemplateFile is the template mesh filename expected under the base
// path handed to NewTextureRenderer.
const HeadTemplateFile = "head_template_mesh.obj"

// TextureRenderer renders UV-textured head meshes over a fixed template
// topology, with an optional extra silhouette pass over a masked face
// subset. RGB output stays in the rasterizer's native [0, 1] range.
type TextureRenderer struct {
	imageSize int
	topo      meshio.Topology
	// faceMask marks faces whose three vertices all belong to the mask
	// vertex set. nil when no mask was configured.
	faceMask []bool
}

// NewTextureRenderer loads the head template mesh under basePath and
// prepares the renderer. maskVerts, when non-nil, is a set of vertex
// indices defining a sub-region: faces whose three vertices are all
// members are marked for the per-call silhouette pass.
func NewTextureRenderer(basePath string, imageSize int, maskVerts []int) (*TextureRenderer, error) {
	if imageSize <= 0 {
		return nil, fmt.Errorf("facerender: image size must be positive, got %d", imageSize)
	}
	topo, err := meshio.Load(filepath.Join(basePath, HeadTemplateFile))
	if err != nil {
		return nil, fmt.Errorf("facerender: head template: %w", err)
	}
	if !topo.HasUV() {
		return nil, fmt.Errorf("facerender: head template %s has no usable UV layout", HeadTemplateFile)
	}
	r := &TextureRenderer{imageSize: imageSize, topo: topo}
	if maskVerts != nil {
		set := make(map[int]struct{}, len(maskVerts))
		for _, v := range maskVerts {
			set[v] = struct{}{}
		}
		mask := make([]bool, len(topo.Faces))
		for i, f := range topo.Faces {
			_, a := set[f[0]]
			_, b := set[f[1]]
			_, c := set[f[2]]
			mask[i] = a && b && c
		}
		r.faceMask = mask
	}
	return r, nil
}

// Render draws one UV-textured mesh per batch item under ambient light
// with backface culling, using the caller's camera for every item.
// textures holds either one image broadcast across the batch or one per
// item. It returns RGB images in [0, 1], full-mesh alpha masks, and —
// when a face mask was configured — silhouette masks of the reduced face
// subset; the third result is nil otherwise.
func (r *TextureRenderer) Render(verts [][]r3.Vec, textures []image.Image, cam camera.Perspective) ([]tensor.Image, []tensor.Mask, []tensor.Mask, error) {
	if !cam.Valid() {
		return nil, nil, nil, errors.New("facerender: texture renderer requires a camera")
	}
	if len(textures) != 1 && len(textures) != len(verts) {
		return nil, nil, nil, fmt.Errorf("facerender: %d vertex batches but %d textures", len(verts), len(textures))
	}
	images := make([]tensor.Image, 0, len(verts))
	masks := make([]tensor.Mask, 0, len(verts))
	var silhouettes []tensor.Mask
	for b := range verts {
		tex := textures[0]
		if len(textures) > 1 {
			tex = textures[b]
		}
		img, mask, err := r.renderTextured(verts[b], tex, cam)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("facerender: batch %d: %w", b, err)
		}
		images = append(images, img)
		masks = append(masks, mask)
		if r.faceMask != nil {
			sil, err := r.renderSilhouette(verts[b], cam)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("facerender: batch %d: %w", b, err)
			}
			silhouettes = append(silhouettes, sil)
		}
	}
	return images, masks, silhouettes, nil
}

func (r *TextureRenderer) renderTextured(verts []r3.Vec, tex image.Image, cam camera.Perspective) (tensor.Image, tensor.Mask, error) {
	mesh, err := assembleUVMesh(verts, r.topo.Faces, r.topo.UVFaces, r.topo.UVs)
	if err != nil {
		return tensor.Image{}, tensor.Mask{}, err
	}
	dc := fauxgl.NewContext(r.imageSize, r.imageSize)
	dc.ClearColorBufferWith(fauxgl.Transparent)
	dc.Cull = fauxgl.CullBack
	shader := fauxgl.NewPhongShader(cam.ViewProjection(), fauxgl.V(0, 0, 1), fauxgl.Vector{})
	// Ambient light only: texture color passes through unshaded.
	shader.AmbientColor = fauxgl.White
	shader.DiffuseColor = fauxgl.Black
	shader.SpecularColor = fauxgl.Black
	shader.Texture = fauxgl.NewImageTexture(tex)
	dc.Shader = shader
	dc.DrawMesh(mesh)
	buf := colorBuffer(dc, r.imageSize, 1)
	return tensor.FromImage(buf), tensor.MaskFromAlpha(buf), nil
}

// renderSilhouette draws only the masked face subset with a solid white
// vertex texture and returns its coverage.
func (r *TextureRenderer) renderSilhouette(verts []r3.Vec, cam camera.Perspective) (tensor.Mask, error) {
	faces := make([][3]int, 0, len(r.topo.Faces))
	for i, keep := range r.faceMask {
		if keep {
			faces = append(faces, r.topo.Faces[i])
		}
	}
	mesh, err := assembleMesh(verts, faces, fauxgl.White)
	if err != nil {
		return tensor.Mask{}, err
	}
	dc := fauxgl.NewContext(r.imageSize, r.imageSize)
	dc.ClearColorBufferWith(fauxgl.Transparent)
	dc.Cull = fauxgl.CullBack
	dc.Shader = fauxgl.NewSolidColorShader(cam.ViewProjection(), fauxgl.White)
	dc.DrawMesh(mesh)
	return tensor.MaskFromAlpha(colorBuffer(dc, r.imageSize, 1)), nil
}
