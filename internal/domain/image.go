package domain

type ImageSize struct {
	Name      string
	Width     int
	Height    int
	Crop      bool
	Watermark bool
}

type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
	FormatTIFF ImageFormat = "tiff"
)

type WatermarkPosition string

const (
	WatermarkTopLeft     WatermarkPosition = "top-left"
	WatermarkTopRight    WatermarkPosition = "top-right"
	WatermarkBottomLeft  WatermarkPosition = "bottom-left"
	WatermarkBottomRight WatermarkPosition = "bottom-right"
	WatermarkCenter      WatermarkPosition = "center"
)

const (
	DefaultJPEGQuality      = 82
	DefaultWatermarkOpacity = 0.5
)
