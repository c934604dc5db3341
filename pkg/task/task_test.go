package task

import "testing"

func TestDefaultConfigMatchesOriginalDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ConfidenceThreshold != 0.85 {
		t.Fatalf("expected default confidence threshold 0.85, got %f", cfg.ConfidenceThreshold)
	}
	if !cfg.EnableQRDetection {
		t.Fatalf("expected QR detection enabled by default")
	}
	if cfg.RemoveSourceFile {
		t.Fatalf("expected RemoveSourceFile false by default")
	}
	if cfg.Preprocessing.TargetSize != [2]int{640, 640} {
		t.Fatalf("expected default target size 640x640, got %v", cfg.Preprocessing.TargetSize)
	}
}

func TestMergeOverlaysNonZeroFields(t *testing.T) {
	base := DefaultConfig()
	override := Config{ConfidenceThreshold: 0.5, RemoveSourceFile: true}

	merged := base.Merge(override)

	if merged.ConfidenceThreshold != 0.5 {
		t.Fatalf("expected override confidence threshold to win, got %f", merged.ConfidenceThreshold)
	}
	if !merged.RemoveSourceFile {
		t.Fatalf("expected RemoveSourceFile true after merge")
	}
	if merged.QRCropsDir != base.QRCropsDir {
		t.Fatalf("expected zero-value override field to leave base unchanged, got %q", merged.QRCropsDir)
	}
}

func TestMergeLeavesBaseUntouchedWhenOverrideIsZeroValue(t *testing.T) {
	base := DefaultConfig()
	merged := base.Merge(Config{})

	if merged.ConfidenceThreshold != base.ConfidenceThreshold {
		t.Fatalf("expected zero-value override to leave confidence threshold unchanged")
	}
	if merged.EnableQRDetection != base.EnableQRDetection {
		t.Fatalf("expected zero-value override to leave EnableQRDetection unchanged")
	}
}

func TestMergeDoesNotMutateReceiver(t *testing.T) {
	base := DefaultConfig()
	_ = base.Merge(Config{ConfidenceThreshold: 0.1})

	if base.ConfidenceThreshold != 0.85 {
		t.Fatalf("expected Merge to not mutate the receiver, got %f", base.ConfidenceThreshold)
	}
}
