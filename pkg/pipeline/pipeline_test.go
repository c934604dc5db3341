package pipeline

import (
	"context"
	"image"
	"testing"

	"github.com/cuemby/visionq/pkg/task"
)

type fixedDetector struct{ detections []RawDetection }

func (d fixedDetector) Detect(ctx context.Context, img image.Image, confidenceThreshold float64) ([]RawDetection, error) {
	return d.detections, nil
}

func TestProcessAssemblesSummaryAndRemapsCoordinates(t *testing.T) {
	img := newTestImage(800, 400)
	p := New(fixedDetector{detections: []RawDetection{
		{Class: "person", ClassID: 0, Confidence: 0.9, BoundingBox: task.BoundingBox{X: 10, Y: 10, Width: 50, Height: 50}},
		{Class: "qr_code", ClassID: 1, Confidence: 0.95, BoundingBox: task.BoundingBox{X: 100, Y: 100, Width: 60, Height: 60}},
	}}, alwaysDecoder{content: "payload-data"})

	result, err := p.Process(context.Background(), ImageSource{Path: "test.jpg", Image: img}, task.DefaultConfig(), ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.DetectedObjects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(result.DetectedObjects))
	}
	if len(result.QRCodes) != 1 {
		t.Fatalf("expected 1 qr code, got %d", len(result.QRCodes))
	}
	if result.QRCodes[0].Content != "payload-data" {
		t.Fatalf("expected decoded content from the always-succeeding decoder, got %q", result.QRCodes[0].Content)
	}
	if result.Summary == nil || result.Summary.TotalDetections != 2 {
		t.Fatalf("expected summary with 2 total detections, got %+v", result.Summary)
	}
	if result.ScanMetadata == nil || result.ScanMetadata.ImageResolution != [2]int{800, 400} {
		t.Fatalf("expected scan metadata to record original resolution, got %+v", result.ScanMetadata)
	}

	// Coordinates must stay within the original image bounds after
	// Stage D reconciliation, not the letterboxed 640x640 space.
	for _, o := range result.DetectedObjects {
		if o.BoundingBox.X+o.BoundingBox.Width > 800 || o.BoundingBox.Y+o.BoundingBox.Height > 400 {
			t.Fatalf("expected object bounding box within original bounds, got %+v", o.BoundingBox)
		}
	}
}

func TestProcessFailsWithPipelineErrorOnNilImage(t *testing.T) {
	p := New(NullDetector{}, NullQRSymbolDecoder{})
	_, err := p.Process(context.Background(), ImageSource{Path: "missing.jpg"}, task.DefaultConfig(), ProcessOptions{})
	if err == nil {
		t.Fatalf("expected an error for a nil source image")
	}
}

func TestProcessSkipsQRDecodeWhenDisabled(t *testing.T) {
	img := newTestImage(200, 200)
	p := New(fixedDetector{detections: []RawDetection{
		{Class: "qr_code", Confidence: 0.9, BoundingBox: task.BoundingBox{X: 5, Y: 5, Width: 20, Height: 20}},
	}}, alwaysDecoder{content: "ignored"})

	cfg := task.DefaultConfig()
	cfg.EnableQRDetection = false

	result, err := p.Process(context.Background(), ImageSource{Path: "t.jpg", Image: img}, cfg, ProcessOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.QRCodes) != 0 {
		t.Fatalf("expected no qr codes when detection disabled, got %d", len(result.QRCodes))
	}
}
