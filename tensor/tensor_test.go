package tensor

import (
	"image"
	"image/color"
	"testing"
)

func TestFromImageRange(t *testing.T) {
	im := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	im.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 127, A: 255})
	im.SetNRGBA(1, 1, color.NRGBA{R: 51, G: 102, B: 204, A: 255})
	got := FromImage(im)
	if got.H != 2 || got.W != 2 {
		t.Fatalf("got %dx%d image, want 2x2", got.H, got.W)
	}
	if got.At(0, 0, 0) != 1 {
		t.Errorf("red sample = %v, want 1", got.At(0, 0, 0))
	}
	if got.At(2, 1, 1) != 204.0/255 {
		t.Errorf("blue sample = %v, want %v", got.At(2, 1, 1), 204.0/255)
	}
	if got.MaxValue() > 1 || got.MinValue() < 0 {
		t.Errorf("samples outside [0,1]: min %v max %v", got.MinValue(), got.MaxValue())
	}
}

func TestImageScaleClamps(t *testing.T) {
	im := NewImage(1, 2)
	im.Set(0, 0, 0, 0.5)
	im.Set(1, 0, 1, 1.5) // out of range input must clamp, not overflow
	im.Scale(255)
	if got := im.At(0, 0, 0); got != 127.5 {
		t.Errorf("scaled sample = %v, want 127.5", got)
	}
	if got := im.At(1, 0, 1); got != 255 {
		t.Errorf("scaled sample = %v, want clamp at 255", got)
	}
	if im.MaxValue() > 255 {
		t.Errorf("max %v exceeds 255", im.MaxValue())
	}
}

func TestMaskFromAlpha(t *testing.T) {
	im := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	im.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 1})
	m := MaskFromAlpha(im)
	if m.At(0, 0) {
		t.Error("transparent pixel marked covered")
	}
	if !m.At(0, 1) {
		t.Error("pixel with positive alpha not covered")
	}
	if m.Count() != 1 {
		t.Errorf("count = %d, want 1", m.Count())
	}
}

func TestMaskContainedIn(t *testing.T) {
	inner := NewMask(2, 2)
	outer := NewMask(2, 2)
	inner.Set(0, 1, true)
	outer.Set(0, 1, true)
	outer.Set(1, 0, true)
	if !inner.ContainedIn(outer) {
		t.Error("inner should be contained in outer")
	}
	if outer.ContainedIn(inner) {
		t.Error("outer should not be contained in inner")
	}
	if inner.ContainedIn(NewMask(1, 1)) {
		t.Error("masks of different sizes cannot contain one another")
	}
}

func TestToNRGBARoundsAndClamps(t *testing.T) {
	im := NewImage(1, 1)
	im.Set(0, 0, 0, 300)
	im.Set(1, 0, 0, 127.5)
	rgba := im.ToNRGBA(255)
	px := rgba.NRGBAAt(0, 0)
	if px.R != 255 {
		t.Errorf("R = %d, want clamp at 255", px.R)
	}
	if px.G != 127 {
		t.Errorf("G = %d, want 127", px.G)
	}
	if px.A != 255 {
		t.Errorf("A = %d, want opaque", px.A)
	}
}
