package pipeline

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/cuemby/visionq/pkg/task"
)

// PreprocessMetadata records enough of the letterbox transform to
// reverse it later in Stage D (coordinate reconciliation).
type PreprocessMetadata struct {
	OriginalWidth  int
	OriginalHeight int
	TargetWidth    int
	TargetHeight   int
	ScaleFactor    float64
	XOffset        int
	YOffset        int
	Enhanced       bool
}

// Preprocess letterbox-resizes img into cfg.TargetSize, optionally
// applying a contrast lift first. The scale factor and the padding
// offsets are recorded in the returned metadata, which Stage D reads
// to map boxes back to original coordinates.
func Preprocess(img image.Image, cfg task.PreprocessingConfig) (image.Image, PreprocessMetadata) {
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	targetW, targetH := cfg.TargetSize[0], cfg.TargetSize[1]
	if targetW == 0 || targetH == 0 {
		targetW, targetH = 640, 640
	}

	working := img
	if cfg.EnhanceContrast {
		working = enhanceContrast(working)
	}

	scale := minFloat(float64(targetW)/float64(origW), float64(targetH)/float64(origH))
	newW := int(float64(origW) * scale)
	newH := int(float64(origH) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	resized := imaging.Resize(working, newW, newH, imaging.Linear)

	xOffset := (targetW - newW) / 2
	yOffset := (targetH - newH) / 2

	canvas := imaging.New(targetW, targetH, color.Black)
	padded := imaging.Paste(canvas, resized, image.Pt(xOffset, yOffset))

	return padded, PreprocessMetadata{
		OriginalWidth:  origW,
		OriginalHeight: origH,
		TargetWidth:    targetW,
		TargetHeight:   targetH,
		ScaleFactor:    scale,
		XOffset:        xOffset,
		YOffset:        yOffset,
		Enhanced:       cfg.EnhanceContrast,
	}
}

// enhanceContrast approximates the original's CLAHE-on-L-channel step
// with a global contrast stretch; disintegration/imaging has no tiled
// adaptive histogram equalizer, and a full CLAHE implementation is out
// of scope for the pixel-transform layer this pipeline owns.
func enhanceContrast(img image.Image) image.Image {
	return imaging.AdjustContrast(img, 12)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
