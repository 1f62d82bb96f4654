package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// previewConfig is the TOML scene description consumed by the preview
// command.
type previewConfig struct {
	// Mesh is the path of the OBJ or STL mesh to preview.
	Mesh string `toml:"mesh"`
	// Texture is an optional image applied when the mesh carries UVs.
	Texture string `toml:"texture"`
	// ImageSize is the square output resolution. Defaults to 512.
	ImageSize int `toml:"image_size"`
	// Supersample is the mesh preview antialiasing factor.
	Supersample int `toml:"supersample"`
	// OutDir receives the PNG previews. Defaults to the working directory.
	OutDir string `toml:"out_dir"`
	View   struct {
		Distance  float64 `toml:"distance"`
		Elevation float64 `toml:"elevation"`
		Azimuth   float64 `toml:"azimuth"`
	} `toml:"view"`
}

func loadPreviewConfig(path string) (previewConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return previewConfig{}, err
	}
	cfg := previewConfig{ImageSize: 512, OutDir: "."}
	cfg.View.Distance = 3
	cfg.View.Elevation = 30
	cfg.View.Azimuth = 30
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return previewConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Mesh == "" {
		return previewConfig{}, fmt.Errorf("%s: mesh path is required", path)
	}
	if cfg.ImageSize <= 0 {
		return previewConfig{}, fmt.Errorf("%s: image_size must be positive", path)
	}
	if cfg.View.Distance <= 0 {
		return previewConfig{}, fmt.Errorf("%s: view.distance must be positive", path)
	}
	return cfg, nil
}
