package modelcache

import (
	"testing"

	"github.com/cuemby/visionq/pkg/pipeline"
)

func TestGetBuildsOnceForRepeatedKey(t *testing.T) {
	c := New()
	builds := 0
	build := func(modelPath string) (pipeline.Detector, error) {
		builds++
		return pipeline.NullDetector{}, nil
	}

	key := Key{ModelPath: "model-a", ConfidenceThreshold: 0.8}
	if _, err := c.Get(key, build); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(key, build); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if builds != 1 {
		t.Fatalf("expected exactly one build for a repeated key, got %d", builds)
	}
}

func TestGetRebuildsOnKeyChange(t *testing.T) {
	c := New()
	builds := 0
	build := func(modelPath string) (pipeline.Detector, error) {
		builds++
		return pipeline.NullDetector{}, nil
	}

	if _, err := c.Get(Key{ModelPath: "model-a", ConfidenceThreshold: 0.8}, build); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(Key{ModelPath: "model-b", ConfidenceThreshold: 0.8}, build); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.Get(Key{ModelPath: "model-b", ConfidenceThreshold: 0.9}, build); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if builds != 3 {
		t.Fatalf("expected a rebuild for each distinct key, got %d builds", builds)
	}
}
