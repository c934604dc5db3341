package pipeline

import (
	"context"
	"image"
	"strings"

	"github.com/google/uuid"

	"github.com/cuemby/visionq/pkg/task"
)

// RawDetection is one detection as returned by a Detector, in the
// preprocessed (letterboxed) image's coordinate space.
type RawDetection struct {
	Class       string
	ClassID     int
	Confidence  float64
	BoundingBox task.BoundingBox
}

// Detector is the object-detection backend boundary. Its concrete
// model format and inference runtime are out of scope; callers only
// ever see this interface.
type Detector interface {
	Detect(ctx context.Context, img image.Image, confidenceThreshold float64) ([]RawDetection, error)
}

// isQRClass reports whether a class name should be routed to the QR
// sink rather than the plain object sink, matching the "qr" or
// "barcode" substring check on the class name.
func isQRClass(class string) bool {
	lower := strings.ToLower(class)
	return strings.Contains(lower, "qr") || strings.Contains(lower, "barcode")
}

// sinkDetections splits raw detections into objects and QR candidates,
// minting fresh ids the same way the original mints a UUID per
// detection and prefixes it OBJ_/QR_.
func sinkDetections(raw []RawDetection) (objects []task.DetectedObject, qrCandidates []qrCandidate) {
	for _, d := range raw {
		id := uuid.New().String()
		if isQRClass(d.Class) {
			qrCandidates = append(qrCandidates, qrCandidate{
				QRID:        "QR_" + id,
				Confidence:  d.Confidence,
				BoundingBox: d.BoundingBox,
			})
			continue
		}
		objects = append(objects, task.DetectedObject{
			ObjectID:    "OBJ_" + id,
			Class:       d.Class,
			ClassID:     d.ClassID,
			Confidence:  d.Confidence,
			BoundingBox: d.BoundingBox,
		})
	}
	return objects, qrCandidates
}

// qrCandidate is an internal staging type between Stage B (detection)
// and Stage C (QR decode) before a QRCode is fully assembled.
type qrCandidate struct {
	QRID        string
	Confidence  float64
	BoundingBox task.BoundingBox
}
