package pipeline

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/cuemby/visionq/pkg/task"
)

var (
	objectBoxColor = color.RGBA{0, 200, 0, 255}
	qrBoxColor     = color.RGBA{0, 120, 255, 255}
)

// Annotate draws the detected object and QR boxes onto a copy of img
// and returns it. Neither Process nor the worker calls it, and
// cfg.SaveProcessedImages is not consulted anywhere, so no annotated
// image is written to disk.
func Annotate(img image.Image, objects []task.DetectedObject, qrCodes []task.QRCode) image.Image {
	bounds := img.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, img, bounds.Min, draw.Src)

	for _, o := range objects {
		drawBox(canvas, o.BoundingBox, objectBoxColor)
	}
	for _, q := range qrCodes {
		drawBox(canvas, q.BoundingBox, qrBoxColor)
	}
	return canvas
}

func drawBox(img *image.RGBA, bbox task.BoundingBox, c color.RGBA) {
	x0, y0 := bbox.X, bbox.Y
	x1, y1 := bbox.X+bbox.Width, bbox.Y+bbox.Height
	bounds := img.Bounds()

	hLine := func(y int) {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			return
		}
		for x := x0; x < x1; x++ {
			if x >= bounds.Min.X && x < bounds.Max.X {
				img.Set(x, y, c)
			}
		}
	}
	vLine := func(x int) {
		if x < bounds.Min.X || x >= bounds.Max.X {
			return
		}
		for y := y0; y < y1; y++ {
			if y >= bounds.Min.Y && y < bounds.Max.Y {
				img.Set(x, y, c)
			}
		}
	}

	hLine(y0)
	hLine(y1 - 1)
	vLine(x0)
	vLine(x1 - 1)
}
