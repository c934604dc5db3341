package ingress

import "github.com/cuemby/visionq/pkg/task"

// QRPosition is the top-left point of a decoded QR code. Unlike a
// detected object's BoundingBox, a QR code's wire position carries no
// width/height.
type QRPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// FormattedQRCode is the wire shape for one decoded QR code, stripped
// down from the stored task.QRCode.
type FormattedQRCode struct {
	QRID       string     `json:"qr_id"`
	Content    string     `json:"content"`
	Position   QRPosition `json:"position"`
	Confidence float64    `json:"confidence"`
}

// FormattedObject is the wire shape for one detected object.
type FormattedObject struct {
	ObjectID    string           `json:"object_id"`
	Class       string           `json:"class"`
	Confidence  float64          `json:"confidence"`
	BoundingBox task.BoundingBox `json:"bounding_box"`
}

// FormattedResult is the exact public response shape for a completed
// task, matching the original's format_api_response projection.
type FormattedResult struct {
	ScanMetadata    *task.ScanMetadata `json:"scan_metadata"`
	DetectedObjects []FormattedObject   `json:"detected_objects"`
	QRCodes         []FormattedQRCode   `json:"qr_codes"`
}

// FormatResponse projects a stored ResultPayload onto the public wire
// shape. Failure-shaped payloads (no ScanMetadata) pass through
// unchanged, matching the original's "if scan_metadata not in result,
// return result unchanged" rule.
func FormatResponse(payload task.ResultPayload) any {
	if payload.ScanMetadata == nil {
		return payload
	}

	objects := make([]FormattedObject, len(payload.DetectedObjects))
	for i, o := range payload.DetectedObjects {
		objects[i] = FormattedObject{
			ObjectID:    o.ObjectID,
			Class:       o.Class,
			Confidence:  o.Confidence,
			BoundingBox: o.BoundingBox,
		}
	}

	qrCodes := make([]FormattedQRCode, len(payload.QRCodes))
	for i, q := range payload.QRCodes {
		qrCodes[i] = FormattedQRCode{
			QRID:       q.QRID,
			Content:    q.Content,
			Position:   QRPosition{X: q.BoundingBox.X, Y: q.BoundingBox.Y},
			Confidence: q.Confidence,
		}
	}

	return FormattedResult{
		ScanMetadata:    payload.ScanMetadata,
		DetectedObjects: objects,
		QRCodes:         qrCodes,
	}
}
