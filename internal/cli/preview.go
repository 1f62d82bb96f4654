package cli

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/fauxgl"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mizuki-t/facerender"
	"github.com/mizuki-t/facerender/camera"
	"github.com/mizuki-t/facerender/meshio"
)

func newPreviewCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render mesh, point-cloud and textured previews to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPreviewConfig(configPath)
			if err != nil {
				return err
			}
			return runPreview(cmd, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "scene.toml", "TOML scene description")
	return cmd
}

func runPreview(cmd *cobra.Command, cfg previewConfig) error {
	logger := loggerFromContext(cmd.Context())
	topo, err := meshio.Load(cfg.Mesh)
	if err != nil {
		return err
	}
	logger.Debug("loaded mesh", "path", cfg.Mesh, "verts", len(topo.Verts), "faces", len(topo.Faces))
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return err
	}
	verts := biUnitCube(topo.Verts)
	cam := camera.NewFoV(
		camera.LookAtViewTransform(cfg.View.Distance, cfg.View.Elevation, cfg.View.Azimuth),
		30, 1, 0.01, 100, cfg.ImageSize,
	)

	start := time.Now()
	mr, err := facerender.NewMeshRenderer(facerender.MeshRendererConfig{
		ImageSize:   cfg.ImageSize,
		Faces:       topo.Faces,
		Supersample: cfg.Supersample,
	})
	if err != nil {
		return err
	}
	images, masks, err := mr.Render([][]r3.Vec{verts}, cam)
	if err != nil {
		return err
	}
	if err := writePNG(cfg.OutDir, "mesh.png", images[0].ToNRGBA(255)); err != nil {
		return err
	}
	if err := writePNG(cfg.OutDir, "mesh_mask.png", masks[0].ToGray()); err != nil {
		return err
	}
	logger.Info("wrote mesh preview", "dir", cfg.OutDir, "elapsed", time.Since(start).Round(time.Millisecond))

	start = time.Now()
	pr := facerender.NewPointRenderer(cfg.ImageSize)
	pointImages, err := pr.Render([][]r3.Vec{verts}, cfg.View.Distance, cfg.View.Elevation, cfg.View.Azimuth, true, nil)
	if err != nil {
		return err
	}
	if err := writePNG(cfg.OutDir, "points.png", pointImages[0].ToNRGBA(255)); err != nil {
		return err
	}
	logger.Info("wrote point preview", "dir", cfg.OutDir, "elapsed", time.Since(start).Round(time.Millisecond))

	if cfg.Texture != "" {
		if err := texturePreview(cmd, cfg, verts, cam); err != nil {
			return err
		}
	}
	return nil
}

// texturePreview runs the texture renderer when the configured mesh is a
// head template with a UV layout. Other meshes are skipped with a warning
// since the texture renderer's topology path is fixed.
func texturePreview(cmd *cobra.Command, cfg previewConfig, verts []r3.Vec, cam camera.Perspective) error {
	logger := loggerFromContext(cmd.Context())
	if filepath.Base(cfg.Mesh) != facerender.HeadTemplateFile {
		logger.Warn("texture preview skipped: mesh is not a head template", "want", facerender.HeadTemplateFile)
		return nil
	}
	tex, err := loadImage(cfg.Texture)
	if err != nil {
		return err
	}
	start := time.Now()
	tr, err := facerender.NewTextureRenderer(filepath.Dir(cfg.Mesh), cfg.ImageSize, nil)
	if err != nil {
		logger.Warn("texture preview skipped", "err", err)
		return nil
	}
	images, masks, _, err := tr.Render([][]r3.Vec{verts}, []image.Image{tex}, cam)
	if err != nil {
		return err
	}
	if err := writePNG(cfg.OutDir, "texture.png", images[0].ToNRGBA(1)); err != nil {
		return err
	}
	if err := writePNG(cfg.OutDir, "texture_mask.png", masks[0].ToGray()); err != nil {
		return err
	}
	logger.Info("wrote texture preview", "dir", cfg.OutDir, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// biUnitCube centers the vertices and scales them uniformly into the
// [-1, 1] cube.
func biUnitCube(verts []r3.Vec) []r3.Vec {
	if len(verts) == 0 {
		return nil
	}
	min, max := verts[0], verts[0]
	for _, v := range verts[1:] {
		min = r3.Vec{X: fmin(min.X, v.X), Y: fmin(min.Y, v.Y), Z: fmin(min.Z, v.Z)}
		max = r3.Vec{X: fmax(max.X, v.X), Y: fmax(max.Y, v.Y), Z: fmax(max.Z, v.Z)}
	}
	center := r3.Scale(0.5, r3.Add(min, max))
	size := r3.Sub(max, min)
	longest := fmax(size.X, fmax(size.Y, size.Z))
	scale := 1.0
	if longest > 0 {
		scale = 2 / longest
	}
	out := make([]r3.Vec, len(verts))
	for i, v := range verts {
		out[i] = r3.Scale(scale, r3.Sub(v, center))
	}
	return out
}

func fmin(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func fmax(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func writePNG(dir, name string, im image.Image) error {
	return fauxgl.SavePNG(filepath.Join(dir, name), im)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	im, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return im, nil
}
