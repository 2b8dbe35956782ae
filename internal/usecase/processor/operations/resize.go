package operations

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

type Resizer struct {
	scaler xdraw.Scaler
}

func NewResizer() *Resizer {
	return &Resizer{scaler: xdraw.CatmullRom}
}

// Resize scales the whole image to exactly width x height. Callers pick
// dimensions that keep the aspect ratio.
func (r *Resizer) Resize(img image.Image, width, height int) image.Image {
	return r.scale(img, img.Bounds(), width, height)
}

func (r *Resizer) scale(img image.Image, src image.Rectangle, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	r.scaler.Scale(dst, dst.Bounds(), img, src, xdraw.Over, nil)
	return dst
}
