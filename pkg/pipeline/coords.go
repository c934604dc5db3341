package pipeline

// convertBoundingBoxToOriginal reverses the letterbox transform
// recorded in PreprocessMetadata: subtract the padding offset, clamp
// to the resized (pre-pad) image, divide by the scale factor, then
// clamp again to the original image bounds, enforcing a 1px minimum
// on both dimensions.
func convertBoundingBoxToOriginal(bbox BoundingBoxLike, meta PreprocessMetadata) BoundingBoxLike {
	newW := int(float64(meta.OriginalWidth) * meta.ScaleFactor)
	newH := int(float64(meta.OriginalHeight) * meta.ScaleFactor)

	x1 := clampInt(bbox.X-meta.XOffset, 0, newW)
	y1 := clampInt(bbox.Y-meta.YOffset, 0, newH)
	x2 := clampInt(bbox.X+bbox.Width-meta.XOffset, 0, newW)
	y2 := clampInt(bbox.Y+bbox.Height-meta.YOffset, 0, newH)

	width := x2 - x1
	height := y2 - y1

	scale := meta.ScaleFactor
	if scale == 0 {
		scale = 1
	}
	origX := int(float64(x1) / scale)
	origY := int(float64(y1) / scale)
	origW := int(float64(width) / scale)
	origH := int(float64(height) / scale)

	return validateCoordinates(BoundingBoxLike{X: origX, Y: origY, Width: origW, Height: origH}, meta.OriginalWidth, meta.OriginalHeight)
}

// BoundingBoxLike mirrors task.BoundingBox; kept distinct in this file
// so coordinate math has no dependency on the task package's JSON tags.
type BoundingBoxLike struct {
	X, Y, Width, Height int
}

// validateCoordinates clamps bbox into [0,width)x[0,height) and
// enforces a minimum 1px width/height, matching the original's
// boundary-clamp invariant.
func validateCoordinates(bbox BoundingBoxLike, width, height int) BoundingBoxLike {
	x := clampInt(bbox.X, 0, maxInt(width-1, 0))
	y := clampInt(bbox.Y, 0, maxInt(height-1, 0))

	w := bbox.Width
	if w < 1 {
		w = 1
	}
	h := bbox.Height
	if h < 1 {
		h = 1
	}
	if x+w > width {
		w = width - x
	}
	if y+h > height {
		h = height - y
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return BoundingBoxLike{X: x, Y: y, Width: w, Height: h}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
