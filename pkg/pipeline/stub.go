package pipeline

import (
	"context"
	"image"
)

// NullDetector is the default Detector: it finds nothing. Deployments
// wire in a real inference backend (served out-of-process, behind the
// Detector interface) via modelcache.Builder; NullDetector exists so
// the worker has something to construct before that backend is
// configured, and so pipeline tests can exercise Stage A/C/D without
// a model.
type NullDetector struct{}

func (NullDetector) Detect(ctx context.Context, img image.Image, confidenceThreshold float64) ([]RawDetection, error) {
	return nil, nil
}

// NullQRSymbolDecoder is the default QRSymbolDecoder: it never finds a
// symbol. A real deployment wires in a decoder backed by whatever
// barcode library or service the operator chooses.
type NullQRSymbolDecoder struct{}

func (NullQRSymbolDecoder) Decode(img image.Image) (string, bool) {
	return "", false
}
