package facerender

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mizuki-t/facerender/camera"
	"github.com/mizuki-t/facerender/tensor"
)

const (
	// pointRadiusNDC is the splat radius in normalized device units.
	pointRadiusNDC = 0.005
	// maxPoints is the per-batch-item subsample cap.
	maxPoints = 10000

	pointFoVDegrees = 60
	pointNear       = 0.01
	pointFar        = 1.0
)

// Camera rebuild sentinel. The sentinel distance deliberately differs
// from the constructor's default orbital distance of 4; the comparison is
// kept literal. See TestPointRendererCameraRebuildQuirk.
const (
	sentinelDist = 8
	sentinelElev = 30
	sentinelAzim = 30
)

// PointRenderer splats batched point clouds through an orbital
// perspective camera, compositing randomly colored discs back to front.
// Colors are redrawn on every call, so repeated renders of the same cloud
// differ. Not safe for concurrent use: the camera is rebuilt in place.
type PointRenderer struct {
	imageSize int
	cam       camera.Perspective
	rnd       *rand.Rand
}

// NewPointRenderer builds a point renderer with an orbital camera at
// distance 4, elevation 30° and azimuth 30°, clipping at 0.01 near and
// 1.0 far.
func NewPointRenderer(imageSize int) *PointRenderer {
	return &PointRenderer{
		imageSize: imageSize,
		cam:       pointCamera(4, 30, 30, imageSize),
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func pointCamera(dist, elev, azim float64, imageSize int) camera.Perspective {
	rt := camera.LookAtViewTransform(dist, elev, azim)
	return camera.NewFoV(rt, pointFoVDegrees, 1, pointNear, pointFar, imageSize)
}

// Render splats every batch item to an RGB image in [0, 255].
//
// The camera is rebuilt whenever (dist, elev, azim) differs from the
// (8, 30, 30) sentinel; for the sentinel view the current camera is
// reused as-is. Up to 10,000 points are subsampled per batch item with a
// permutation shared across the batch, so all items must hold the same
// point count. exPoints, when non-nil, are appended to every item. With
// coords set, three reference axes of ⌊n/10⌋ evenly spaced points along
// +X, +Y and +Z in [0, 1] are appended as well.
func (r *PointRenderer) Render(points [][]r3.Vec, dist, elev, azim float64, coords bool, exPoints []r3.Vec) ([]tensor.Image, error) {
	if len(points) == 0 {
		return nil, nil
	}
	n := len(points[0])
	for b, pts := range points {
		if len(pts) != n {
			return nil, fmt.Errorf("facerender: point batch %d has %d points, batch 0 has %d", b, len(pts), n)
		}
	}
	if dist != sentinelDist || elev != sentinelElev || azim != sentinelAzim {
		r.cam = pointCamera(dist, elev, azim, r.imageSize)
	}
	perm := r.rnd.Perm(n)
	if n > maxPoints {
		perm = perm[:maxPoints]
	}
	var axes []r3.Vec
	if coords {
		axes = axisPoints((len(perm) + len(exPoints)) / 10)
	}
	images := make([]tensor.Image, 0, len(points))
	for _, pts := range points {
		cloud := make([]r3.Vec, 0, cloudSize(n, len(exPoints), coords))
		for _, i := range perm {
			cloud = append(cloud, pts[i])
		}
		cloud = append(cloud, exPoints...)
		cloud = append(cloud, axes...)
		images = append(images, r.splat(cloud))
	}
	return images, nil
}

// cloudSize returns the per-item point count after subsampling: the
// capped sample count plus extra points, plus three reference axes each
// a tenth of that running total when coords is set.
func cloudSize(n, extra int, coords bool) int {
	if n > maxPoints {
		n = maxPoints
	}
	n += extra
	if coords {
		n += 3 * (n / 10)
	}
	return n
}

// axisPoints returns three runs of n points evenly spaced in [0, 1] along
// the +X, +Y and +Z axes.
func axisPoints(n int) []r3.Vec {
	out := make([]r3.Vec, 0, 3*n)
	for axis := 0; axis < 3; axis++ {
		for i := 0; i < n; i++ {
			t := 0.0
			if n > 1 {
				t = float64(i) / float64(n-1)
			}
			var p r3.Vec
			switch axis {
			case 0:
				p.X = t
			case 1:
				p.Y = t
			case 2:
				p.Z = t
			}
			out = append(out, p)
		}
	}
	return out
}

// splat projects the cloud and composites opaque discs back to front, so
// the point nearest the eye wins each pixel. Points behind the near plane
// are dropped; points past the far plane are kept, matching the upstream
// clipping behavior.
func (r *PointRenderer) splat(cloud []r3.Vec) tensor.Image {
	type splatPoint struct {
		x, y, depth float64
		cr, cg, cb  float64
	}
	pts := make([]splatPoint, 0, len(cloud))
	for _, p := range cloud {
		x, y, depth, ok := r.cam.Project(p)
		if !ok || depth < -1 {
			continue
		}
		pts = append(pts, splatPoint{
			x: x, y: y, depth: depth,
			cr: r.rnd.Float64(), cg: r.rnd.Float64(), cb: r.rnd.Float64(),
		})
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].depth > pts[j].depth })

	dc := gg.NewContext(r.imageSize, r.imageSize)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	radius := pointRadiusNDC * float64(r.imageSize) / 2
	for _, p := range pts {
		dc.SetRGBA(p.cr, p.cg, p.cb, 1)
		dc.DrawPoint(p.x, p.y, radius)
		dc.Fill()
	}
	img := tensor.FromImage(dc.Image())
	img.Scale(255)
	return img
}
