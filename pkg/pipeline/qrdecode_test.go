package pipeline

import (
	"image"
	"testing"

	"github.com/cuemby/visionq/pkg/task"
)

type alwaysDecoder struct{ content string }

func (d alwaysDecoder) Decode(img image.Image) (string, bool) { return d.content, true }

type neverDecoder struct{}

func (neverDecoder) Decode(img image.Image) (string, bool) { return "", false }

func TestDecodeMultipleAttemptsReturnsOnFirstSuccess(t *testing.T) {
	crop := newTestImage(40, 40)
	content, ok := decodeMultipleAttempts(alwaysDecoder{content: "hello"}, crop)
	if !ok || content != "hello" {
		t.Fatalf("expected immediate success on first strategy, got %q, %v", content, ok)
	}
}

func TestDecodeMultipleAttemptsExhaustsLadderOnFailure(t *testing.T) {
	crop := newTestImage(40, 40)
	_, ok := decodeMultipleAttempts(neverDecoder{}, crop)
	if ok {
		t.Fatalf("expected failure when no strategy succeeds")
	}
}

// succeedsAfterNCalls fails its first n Decode calls, then succeeds on
// every call after that — used to assert that the eight named
// strategies all run and fail before the separate rotation fallback
// gets a chance to decode.
type succeedsAfterNCalls struct {
	n     int
	calls int
}

func (d *succeedsAfterNCalls) Decode(img image.Image) (string, bool) {
	d.calls++
	if d.calls <= d.n {
		return "", false
	}
	return "rotated-hit", true
}

func TestDecodeMultipleAttemptsFallsBackToRotationAsNinthStrategy(t *testing.T) {
	crop := newTestImage(40, 40)
	d := &succeedsAfterNCalls{n: len(qrStrategies())}

	content, ok := decodeMultipleAttempts(d, crop)
	if !ok || content != "rotated-hit" {
		t.Fatalf("expected the rotation fallback to succeed, got %q, %v", content, ok)
	}
	if d.calls != len(qrStrategies())+1 {
		t.Fatalf("expected the eight named strategies to run before rotation, got %d calls", d.calls)
	}
}

func TestBuildQRCodePrioritizesCropOverDirect(t *testing.T) {
	cand := qrCandidate{QRID: "QR_1", Confidence: 0.9}
	code := buildQRCode(cand, "from-crop", true, "from-direct", true, task.QRCrop{})
	if code.Content != "from-crop" || code.DecodeSource != task.DecodeSourceCrop {
		t.Fatalf("expected crop to win over direct, got %+v", code)
	}
}

func TestBuildQRCodeFallsBackToDirect(t *testing.T) {
	cand := qrCandidate{QRID: "QR_2"}
	code := buildQRCode(cand, "", false, "from-direct", true, task.QRCrop{})
	if code.Content != "from-direct" || code.DecodeSource != task.DecodeSourceDirect {
		t.Fatalf("expected direct fallback, got %+v", code)
	}
}

func TestBuildQRCodeDecodeFailedWhenBothMiss(t *testing.T) {
	cand := qrCandidate{QRID: "QR_3"}
	code := buildQRCode(cand, "", false, "", false, task.QRCrop{})
	if code.Content != task.DecodeFailed {
		t.Fatalf("expected DECODE_FAILED sentinel, got %q", code.Content)
	}
	if code.CropInfo.DecodeSuccess {
		t.Fatalf("expected DecodeSuccess false on failure")
	}
}

func TestExtractQRCropClampsToImageBounds(t *testing.T) {
	img := newTestImage(30, 30)
	bbox := task.BoundingBox{X: 0, Y: 0, Width: 2, Height: 2}
	crop := extractQRCrop(img, bbox)

	b := crop.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		t.Fatalf("expected non-empty crop, got %v", b)
	}
}

func TestClampInt(t *testing.T) {
	if got := clampInt(-5, 0, 10); got != 0 {
		t.Fatalf("clampInt(-5,0,10) = %d, want 0", got)
	}
	if got := clampInt(15, 0, 10); got != 10 {
		t.Fatalf("clampInt(15,0,10) = %d, want 10", got)
	}
	if got := clampInt(5, 0, 10); got != 5 {
		t.Fatalf("clampInt(5,0,10) = %d, want 5", got)
	}
}
