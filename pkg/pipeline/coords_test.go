package pipeline

import "testing"

func TestValidateCoordinatesClampsToBounds(t *testing.T) {
	got := validateCoordinates(BoundingBoxLike{X: 95, Y: 95, Width: 20, Height: 20}, 100, 100)
	if got.X != 95 || got.Y != 95 {
		t.Fatalf("expected origin unchanged, got %+v", got)
	}
	if got.Width != 5 || got.Height != 5 {
		t.Fatalf("expected width/height clamped to remaining space, got %+v", got)
	}
}

func TestValidateCoordinatesEnforcesMinimumSize(t *testing.T) {
	got := validateCoordinates(BoundingBoxLike{X: 10, Y: 10, Width: 0, Height: 0}, 100, 100)
	if got.Width < 1 || got.Height < 1 {
		t.Fatalf("expected minimum 1px box, got %+v", got)
	}
}

func TestValidateCoordinatesClampsNegativeOrigin(t *testing.T) {
	got := validateCoordinates(BoundingBoxLike{X: -5, Y: -5, Width: 10, Height: 10}, 50, 50)
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("expected origin clamped to 0, got %+v", got)
	}
}

func TestConvertBoundingBoxToOriginalRoundTrip(t *testing.T) {
	meta := PreprocessMetadata{
		OriginalWidth:  1000,
		OriginalHeight: 500,
		TargetWidth:    640,
		TargetHeight:   640,
		ScaleFactor:    0.64,
		XOffset:        0,
		YOffset:        (640 - 320) / 2,
	}

	// A box that spans the full padded resize area should map back
	// close to the full original image.
	box := BoundingBoxLike{X: 0, Y: meta.YOffset, Width: 640, Height: 320}
	got := convertBoundingBoxToOriginal(box, meta)

	if got.X != 0 || got.Y != 0 {
		t.Fatalf("expected origin at (0,0), got (%d,%d)", got.X, got.Y)
	}
	if got.Width < 1 || got.Height < 1 {
		t.Fatalf("expected positive dimensions, got %+v", got)
	}
}
