// Package tensor holds the dense value types exchanged with the renderers:
// channel-first float32 images and boolean coverage masks. Both are plain
// slices with explicit dimensions so callers can hand them to downstream
// pipelines without copying.
package tensor

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// Channels is the number of color channels in an Image.
const Channels = 3

// Image is a channel-first (3×H×W) float32 image. The zero value is empty.
type Image struct {
	H, W int
	// Pix holds samples in channel-first order: Pix[c*H*W + y*W + x].
	Pix []float32
}

// NewImage returns a zeroed image of the given size.
func NewImage(h, w int) Image {
	return Image{H: h, W: w, Pix: make([]float32, Channels*h*w)}
}

// FromImage converts a rasterizer color buffer to a channel-first image
// with samples in [0, 1]. Alpha is dropped.
func FromImage(im image.Image) Image {
	b := im.Bounds()
	out := NewImage(b.Dy(), b.Dx())
	if nrgba, ok := im.(*image.NRGBA); ok {
		for y := 0; y < out.H; y++ {
			for x := 0; x < out.W; x++ {
				i := nrgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				out.Set(0, y, x, float32(nrgba.Pix[i+0])/255)
				out.Set(1, y, x, float32(nrgba.Pix[i+1])/255)
				out.Set(2, y, x, float32(nrgba.Pix[i+2])/255)
			}
		}
		return out
	}
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			r, g, bl, _ := im.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Set(0, y, x, float32(r)/0xffff)
			out.Set(1, y, x, float32(g)/0xffff)
			out.Set(2, y, x, float32(bl)/0xffff)
		}
	}
	return out
}

// At returns the sample for channel c at row y, column x.
func (im Image) At(c, y, x int) float32 {
	return im.Pix[c*im.H*im.W+y*im.W+x]
}

// Set writes the sample for channel c at row y, column x.
func (im Image) Set(c, y, x int, v float32) {
	im.Pix[c*im.H*im.W+y*im.W+x] = v
}

// Scale multiplies every sample by k and clamps the result to [0, k].
func (im *Image) Scale(k float32) {
	for i, v := range im.Pix {
		im.Pix[i] = math32.Max(0, math32.Min(k, v*k))
	}
}

// MaxValue returns the largest sample in the image, or 0 if empty.
func (im Image) MaxValue() float32 {
	var max float32
	for _, v := range im.Pix {
		max = math32.Max(max, v)
	}
	return max
}

// MinValue returns the smallest sample in the image, or 0 if empty.
func (im Image) MinValue() float32 {
	if len(im.Pix) == 0 {
		return 0
	}
	min := im.Pix[0]
	for _, v := range im.Pix[1:] {
		min = math32.Min(min, v)
	}
	return min
}

// ToNRGBA converts the image to 8-bit RGBA assuming samples lie in
// [0, maxValue]. Used when writing previews to PNG.
func (im Image) ToNRGBA(maxValue float32) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.W, im.H))
	for y := 0; y < im.H; y++ {
		for x := 0; x < im.W; x++ {
			out.SetNRGBA(x, y, color.NRGBA{
				R: quantize(im.At(0, y, x), maxValue),
				G: quantize(im.At(1, y, x), maxValue),
				B: quantize(im.At(2, y, x), maxValue),
				A: 255,
			})
		}
	}
	return out
}

func quantize(v, maxValue float32) uint8 {
	if maxValue <= 0 {
		return 0
	}
	return uint8(math32.Max(0, math32.Min(255, v/maxValue*255)))
}

// Mask is an H×W boolean coverage mask.
type Mask struct {
	H, W int
	Bits []bool
}

// NewMask returns a cleared mask of the given size.
func NewMask(h, w int) Mask {
	return Mask{H: h, W: w, Bits: make([]bool, h*w)}
}

// MaskFromAlpha marks every pixel of the buffer with positive alpha.
func MaskFromAlpha(im *image.NRGBA) Mask {
	b := im.Bounds()
	out := NewMask(b.Dy(), b.Dx())
	for y := 0; y < out.H; y++ {
		for x := 0; x < out.W; x++ {
			out.Set(y, x, im.Pix[im.PixOffset(b.Min.X+x, b.Min.Y+y)+3] > 0)
		}
	}
	return out
}

// At returns the mask bit at row y, column x.
func (m Mask) At(y, x int) bool { return m.Bits[y*m.W+x] }

// Set writes the mask bit at row y, column x.
func (m Mask) Set(y, x int, v bool) { m.Bits[y*m.W+x] = v }

// Count returns the number of set pixels.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// ContainedIn reports whether every set pixel of m is also set in other.
// Masks of different sizes are never contained in one another.
func (m Mask) ContainedIn(other Mask) bool {
	if m.H != other.H || m.W != other.W {
		return false
	}
	for i, b := range m.Bits {
		if b && !other.Bits[i] {
			return false
		}
	}
	return true
}

// ToGray converts the mask to an 8-bit grayscale image, set pixels white.
func (m Mask) ToGray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.W, m.H))
	for i, b := range m.Bits {
		if b {
			out.Pix[i] = 255
		}
	}
	return out
}
