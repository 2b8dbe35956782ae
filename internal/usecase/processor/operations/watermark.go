package operations

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"regenerate-thumbnails/internal/domain"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

type WatermarkOptions struct {
	Text     string
	Position domain.WatermarkPosition
	Opacity  float64
}

type Watermarker struct {
	font *truetype.Font
}

func NewWatermarker() (*Watermarker, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}
	return &Watermarker{font: f}, nil
}

// Apply draws opts.Text onto a copy of img. The font size follows the
// image width so small variants stay legible.
func (w *Watermarker) Apply(img image.Image, opts WatermarkOptions) (image.Image, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	if opts.Text == "" {
		return result, nil
	}

	opacity := opts.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = domain.DefaultWatermarkOpacity
	}

	fontSize := float64(result.Bounds().Dx()) / 20
	if fontSize < 10 {
		fontSize = 10
	}

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(w.font)
	c.SetFontSize(fontSize)
	c.SetClip(result.Bounds())
	c.SetDst(result)
	c.SetSrc(image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: uint8(255 * opacity)}))
	c.SetHinting(font.HintingFull)

	if _, err := c.DrawString(opts.Text, w.position(result.Bounds(), opts, fontSize)); err != nil {
		return nil, fmt.Errorf("failed to draw watermark text: %w", err)
	}

	return result, nil
}

func (w *Watermarker) position(bounds image.Rectangle, opts WatermarkOptions, fontSize float64) fixed.Point26_6 {
	textWidth := w.measure(opts.Text, fontSize)
	margin := int(fontSize / 2)
	ascent := int(fontSize)

	switch opts.Position {
	case domain.WatermarkTopLeft:
		return freetype.Pt(margin, margin+ascent)
	case domain.WatermarkTopRight:
		return freetype.Pt(bounds.Dx()-textWidth-margin, margin+ascent)
	case domain.WatermarkBottomLeft:
		return freetype.Pt(margin, bounds.Dy()-margin)
	case domain.WatermarkCenter:
		return freetype.Pt((bounds.Dx()-textWidth)/2, (bounds.Dy()+ascent)/2)
	default:
		return freetype.Pt(bounds.Dx()-textWidth-margin, bounds.Dy()-margin)
	}
}

func (w *Watermarker) measure(text string, fontSize float64) int {
	face := truetype.NewFace(w.font, &truetype.Options{Size: fontSize, DPI: 72})
	defer face.Close()
	return font.MeasureString(face, text).Ceil()
}
