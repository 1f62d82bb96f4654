// Package camera assembles the perspective cameras consumed by the
// facerender renderers. Cameras are thin values around a fauxgl 4×4
// view-projection matrix; all projection math beyond matrix assembly is
// left to the rasterizer.
package camera

import (
	"math"

	"github.com/fogleman/fauxgl"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Clipping planes used by intrinsics cameras. Screen-space intrinsics
// carry no depth range of their own, so a wide fixed range is used.
const (
	intrinsicsNear = 0.01
	intrinsicsFar  = 100.0
)

// Perspective is an immutable perspective camera: a world→clip transform
// paired with a square output resolution in pixels. The zero value is not
// a usable camera; renderers reject it.
type Perspective struct {
	viewProj  fauxgl.Matrix
	imageSize int
}

// NewPerspective builds a camera from screen-space intrinsics. rt is the
// rigid world→view transform (rotation and translation in the 4×4),
// focalLength and principalPoint are in pixels with the pinhole
// convention (x right, y down, z forward), imageSize is the square
// output resolution.
func NewPerspective(rt fauxgl.Matrix, focalLength float64, principalPoint r2.Vec, imageSize int) Perspective {
	proj := intrinsicsProjection(focalLength, principalPoint, imageSize)
	return Perspective{viewProj: proj.Mul(rt), imageSize: imageSize}
}

// NewFoV builds a field-of-view perspective camera from a rigid
// world→view transform. fovDegrees is the vertical field of view.
func NewFoV(rt fauxgl.Matrix, fovDegrees, aspect, near, far float64, imageSize int) Perspective {
	return Perspective{viewProj: rt.Perspective(fovDegrees, aspect, near, far), imageSize: imageSize}
}

// LookAtViewTransform returns the world→view transform of an orbital
// camera. The eye sits on a sphere of radius dist around the origin at
// the given elevation and azimuth in degrees, looking at the origin
// with +Y up.
func LookAtViewTransform(dist, elev, azim float64) fauxgl.Matrix {
	elev *= math.Pi / 180
	azim *= math.Pi / 180
	eye := fauxgl.V(
		dist*math.Cos(elev)*math.Sin(azim),
		dist*math.Sin(elev),
		dist*math.Cos(elev)*math.Cos(azim),
	)
	return fauxgl.LookAt(eye, fauxgl.Vector{}, fauxgl.V(0, 1, 0))
}

// ViewProjection returns the combined world→clip matrix.
func (c Perspective) ViewProjection() fauxgl.Matrix { return c.viewProj }

// ImageSize returns the square output resolution in pixels.
func (c Perspective) ImageSize() int { return c.imageSize }

// Valid reports whether the camera was built by one of the constructors.
func (c Perspective) Valid() bool { return c.imageSize > 0 }

// Project maps a world-space point to pixel coordinates and a normalized
// depth increasing away from the eye. ok is false for points at or
// behind the eye plane. Points beyond the far plane still project with
// depth > 1; culling them is the caller's decision.
func (c Perspective) Project(p r3.Vec) (x, y, depth float64, ok bool) {
	v := c.viewProj.MulPositionW(fauxgl.V(p.X, p.Y, p.Z))
	if v.W <= 0 {
		return 0, 0, 0, false
	}
	s := float64(c.imageSize)
	x = (v.X/v.W + 1) / 2 * s
	y = (1 - v.Y/v.W) / 2 * s
	return x, y, v.Z / v.W, true
}

// intrinsicsProjection maps pinhole camera space to clip space. Pixel
// coordinates follow u = f·x/z + px, v = f·y/z + py with y down; the
// resulting NDC has y up to match the rasterizer's screen transform.
func intrinsicsProjection(f float64, pp r2.Vec, imageSize int) fauxgl.Matrix {
	s := float64(imageSize)
	n, fa := intrinsicsNear, intrinsicsFar
	return fauxgl.Matrix{
		X00: 2 * f / s, X01: 0, X02: 2*pp.X/s - 1, X03: 0,
		X10: 0, X11: -2 * f / s, X12: 1 - 2*pp.Y/s, X13: 0,
		X20: 0, X21: 0, X22: (fa + n) / (fa - n), X23: -2 * fa * n / (fa - n),
		X30: 0, X31: 0, X32: 1, X33: 0,
	}
}
