package processor

import "math"

// dimensions locates the source region and the output size of one
// variant.
type dimensions struct {
	SrcX, SrcY int
	SrcW, SrcH int
	DstW, DstH int
}

// resizeDimensions returns false when the size cannot or should not be
// produced: no usable box, an empty result, or a result that would not be
// smaller than the original on both sides.
func resizeDimensions(origW, origH, destW, destH int, crop bool) (dimensions, bool) {
	if origW <= 0 || origH <= 0 {
		return dimensions{}, false
	}
	if destW <= 0 && destH <= 0 {
		return dimensions{}, false
	}

	var d dimensions
	if crop {
		aspect := float64(origW) / float64(origH)

		newW := min(destW, origW)
		newH := min(destH, origH)
		if newW <= 0 {
			newW = int(math.Round(float64(newH) * aspect))
		}
		if newH <= 0 {
			newH = int(math.Round(float64(newW) / aspect))
		}

		ratio := math.Max(float64(newW)/float64(origW), float64(newH)/float64(origH))
		cropW := int(math.Round(float64(newW) / ratio))
		cropH := int(math.Round(float64(newH) / ratio))

		d = dimensions{
			SrcX: (origW - cropW) / 2,
			SrcY: (origH - cropH) / 2,
			SrcW: cropW,
			SrcH: cropH,
			DstW: newW,
			DstH: newH,
		}
	} else {
		newW, newH := constrainDimensions(origW, origH, destW, destH)
		d = dimensions{SrcW: origW, SrcH: origH, DstW: newW, DstH: newH}
	}

	// a one-sided box on an extreme aspect ratio can round a side to zero
	if d.DstW <= 0 || d.DstH <= 0 || d.SrcW <= 0 || d.SrcH <= 0 {
		return dimensions{}, false
	}
	if d.DstW >= origW && d.DstH >= origH {
		return dimensions{}, false
	}

	return d, true
}

// constrainDimensions fits w x h into maxW x maxH keeping the aspect
// ratio. A zero maximum leaves that side free.
func constrainDimensions(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 && maxH <= 0 {
		return w, h
	}

	widthRatio, heightRatio := 1.0, 1.0
	didWidth, didHeight := false, false

	if maxW > 0 && w > maxW {
		widthRatio = float64(maxW) / float64(w)
		didWidth = true
	}
	if maxH > 0 && h > maxH {
		heightRatio = float64(maxH) / float64(h)
		didHeight = true
	}

	smaller := math.Min(widthRatio, heightRatio)
	larger := math.Max(widthRatio, heightRatio)

	ratio := larger
	if int(math.Round(float64(w)*larger)) > maxW || int(math.Round(float64(h)*larger)) > maxH {
		ratio = smaller
	}

	newW := max(1, int(math.Round(float64(w)*ratio)))
	newH := max(1, int(math.Round(float64(h)*ratio)))

	// rounding can leave the constrained side one pixel short
	if didWidth && newW == maxW-1 {
		newW = maxW
	}
	if didHeight && newH == maxH-1 {
		newH = maxH
	}

	return newW, newH
}
