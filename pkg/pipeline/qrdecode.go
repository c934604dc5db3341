package pipeline

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/cuemby/visionq/internal/metrics"
	"github.com/cuemby/visionq/pkg/task"
)

// QRSymbolDecoder is the QR/barcode bit-pattern decode backend
// boundary. Its symbology and decoding internals are out of scope;
// the strategy ladder below only ever hands it a transformed image and
// asks whether a symbol was found.
type QRSymbolDecoder interface {
	Decode(img image.Image) (content string, ok bool)
}

// DefaultCropMargin is the padding, in pixels, added around a detected
// QR bounding box before cropping, clamped to the source image bounds.
const DefaultCropMargin = 5

type qrStrategy struct {
	name     string
	transform func(image.Image) image.Image
}

// qrStrategies is the canonical, ordered decode ladder: each transform
// is tried in turn against the crop, and the first one the decoder
// accepts wins.
func qrStrategies() []qrStrategy {
	return []qrStrategy{
		{"original", func(img image.Image) image.Image { return imaging.Grayscale(img) }},
		{"adaptive_threshold", func(img image.Image) image.Image { return adaptiveThreshold(imaging.Grayscale(img)) }},
		{"noise_reduction", func(img image.Image) image.Image { return otsuThreshold(medianBlur(imaging.Grayscale(img), 3)) }},
		{"sharpening", func(img image.Image) image.Image { return otsuThreshold(sharpen(imaging.Grayscale(img))) }},
		{"scale_1.5x", func(img image.Image) image.Image { return otsuThreshold(upscale(imaging.Grayscale(img), 1.5)) }},
		{"scale_2.0x", func(img image.Image) image.Image { return otsuThreshold(upscale(imaging.Grayscale(img), 2.0)) }},
		{"gaussian_otsu", func(img image.Image) image.Image { return otsuThreshold(gaussianBlur(imaging.Grayscale(img))) }},
		{"gaussian_otsu_inverse", func(img image.Image) image.Image { return invert(otsuThreshold(gaussianBlur(imaging.Grayscale(img)))) }},
	}
}

var rotationAngles = []float64{90, 180, 270}

// decodeMultipleAttempts runs the strategy ladder against one QR crop,
// mutually-exclusive first-match: each of the eight named strategies is
// tried in turn, and if none succeeds a ninth, final strategy rotates a
// plain Otsu threshold through 90/180/270 degrees. Strategies are never
// combined with each other.
func decodeMultipleAttempts(decoder QRSymbolDecoder, crop image.Image) (string, bool) {
	for _, strat := range qrStrategies() {
		transformed := strat.transform(crop)
		if content, ok := decoder.Decode(transformed); ok {
			metrics.QRDecodeStrategyAttempts.WithLabelValues(strat.name, "success").Inc()
			return content, true
		}
		metrics.QRDecodeStrategyAttempts.WithLabelValues(strat.name, "failure").Inc()
	}
	return decodeWithRotation(decoder, crop)
}

// decodeWithRotation is strategy nine: an Otsu threshold of the plain
// grayscale crop, tried at each of rotationAngles in turn.
func decodeWithRotation(decoder QRSymbolDecoder, crop image.Image) (string, bool) {
	base := otsuThreshold(imaging.Grayscale(crop))
	for _, angle := range rotationAngles {
		rotated := imaging.Rotate(base, angle, nil)
		if content, ok := decoder.Decode(rotated); ok {
			metrics.QRDecodeStrategyAttempts.WithLabelValues("rotation_otsu", "success").Inc()
			return content, true
		}
	}
	metrics.QRDecodeStrategyAttempts.WithLabelValues("rotation_otsu", "failure").Inc()
	return "", false
}

// decodeQRFromImage runs a direct, full-image decode pass, independent
// of the crop ladder, used as the parallel fallback per Stage C.
func decodeQRFromImage(decoder QRSymbolDecoder, img image.Image) (string, bool) {
	return decoder.Decode(img)
}

// extractQRCrop crops img around bbox with DefaultCropMargin padding,
// clamped to image bounds.
func extractQRCrop(img image.Image, bbox task.BoundingBox) image.Image {
	bounds := img.Bounds()
	x0 := clampInt(bbox.X-DefaultCropMargin, bounds.Min.X, bounds.Max.X)
	y0 := clampInt(bbox.Y-DefaultCropMargin, bounds.Min.Y, bounds.Max.Y)
	x1 := clampInt(bbox.X+bbox.Width+DefaultCropMargin, bounds.Min.X, bounds.Max.X)
	y1 := clampInt(bbox.Y+bbox.Height+DefaultCropMargin, bounds.Min.Y, bounds.Max.Y)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return imaging.Crop(img, image.Rect(x0, y0, x1, y1))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// buildQRCode assembles the final QRCode record for one candidate,
// applying the priority order crop > direct and recording
// DECODE_FAILED when neither decode succeeded. A candidate that no
// decoder ever saw is marked PENDING_SCAN by the caller instead.
func buildQRCode(cand qrCandidate, cropContent string, cropOK bool, directContent string, directOK bool, cropInfo task.QRCrop) task.QRCode {
	content := task.PendingScan
	source := task.DecodeSourceNone

	switch {
	case cropOK:
		content = cropContent
		source = task.DecodeSourceCrop
	case directOK:
		content = directContent
		source = task.DecodeSourceDirect
	default:
		content = task.DecodeFailed
	}

	cropInfo.DecodeSuccess = content != task.PendingScan && content != task.DecodeFailed

	return task.QRCode{
		QRID:         cand.QRID,
		Content:      content,
		DecodeSource: source,
		BoundingBox:  cand.BoundingBox,
		Confidence:   cand.Confidence,
		CropInfo:     cropInfo,
	}
}
