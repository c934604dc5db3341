package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/cuemby/visionq/pkg/task"
)

type failingDetector struct{}

func (failingDetector) Detect(ctx context.Context, img image.Image, confidenceThreshold float64) ([]RawDetection, error) {
	return nil, errors.New("detector unavailable")
}

func TestProcessBatchIsolatesPerItemFailures(t *testing.T) {
	good := New(NullDetector{}, NullQRSymbolDecoder{})
	bad := New(failingDetector{}, NullQRSymbolDecoder{})

	sources := []ImageSource{
		{Path: "ok.jpg", Image: newTestImage(100, 100)},
		{Path: "bad.jpg", Image: newTestImage(100, 100)},
	}

	okItems := ProcessBatch(context.Background(), good, sources[:1], task.DefaultConfig(), ProcessOptions{})
	if okItems[0].Err != nil {
		t.Fatalf("expected first item to succeed, got %v", okItems[0].Err)
	}

	badItems := ProcessBatch(context.Background(), bad, sources[1:], task.DefaultConfig(), ProcessOptions{})
	if badItems[0].Err == nil {
		t.Fatalf("expected second item to fail")
	}
}

func TestGetProcessingStatsAggregatesAcrossBatch(t *testing.T) {
	items := []BatchItem{
		{
			Result: task.ResultPayload{
				ScanMetadata: &task.ScanMetadata{ProcessingTimeMS: 100},
				Summary:      &task.Summary{TotalDetections: 2, ClassesDetected: []string{"person"}},
			},
		},
		{
			Result: task.ResultPayload{
				ScanMetadata: &task.ScanMetadata{ProcessingTimeMS: 300},
				Summary:      &task.Summary{TotalDetections: 1, ClassesDetected: []string{"car"}},
			},
		},
		{Err: errors.New("boom")},
	}

	stats := GetProcessingStats(items)

	if stats.TotalImages != 3 {
		t.Fatalf("expected 3 total images, got %d", stats.TotalImages)
	}
	if stats.SuccessCount != 2 || stats.FailureCount != 1 {
		t.Fatalf("expected 2 success / 1 failure, got %d/%d", stats.SuccessCount, stats.FailureCount)
	}
	if stats.TotalDetections != 3 {
		t.Fatalf("expected 3 total detections, got %d", stats.TotalDetections)
	}
	if stats.AverageLatencyMS != 200 {
		t.Fatalf("expected average latency 200ms, got %f", stats.AverageLatencyMS)
	}
	if len(stats.ClassesDetected) != 2 {
		t.Fatalf("expected 2 distinct classes, got %v", stats.ClassesDetected)
	}
}
