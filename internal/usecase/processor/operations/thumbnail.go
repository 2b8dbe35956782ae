package operations

import (
	"image"
)

// Thumbnailer produces hard-cropped sizes: a source rectangle is cut out of
// the original and scaled to the exact target box.
type Thumbnailer struct {
	resizer *Resizer
}

func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{resizer: NewResizer()}
}

// Crop scales the region of img at (x, y) with size srcW x srcH, relative
// to the image origin, into a width x height image.
func (t *Thumbnailer) Crop(img image.Image, x, y, srcW, srcH, width, height int) image.Image {
	origin := img.Bounds().Min
	src := image.Rect(origin.X+x, origin.Y+y, origin.X+x+srcW, origin.Y+y+srcH).Intersect(img.Bounds())
	return t.resizer.scale(img, src, width, height)
}
