package pipeline

import "testing"

func TestIsQRClassMatchesSubstrings(t *testing.T) {
	cases := map[string]bool{
		"qr_code":    true,
		"QR-Code":    true,
		"barcode":    true,
		"Barcode128": true,
		"person":     false,
		"car":        false,
	}
	for class, want := range cases {
		if got := isQRClass(class); got != want {
			t.Fatalf("isQRClass(%q) = %v, want %v", class, got, want)
		}
	}
}

func TestSinkDetectionsSplitsByClass(t *testing.T) {
	raw := []RawDetection{
		{Class: "person", ClassID: 1, Confidence: 0.9},
		{Class: "qr_code", ClassID: 2, Confidence: 0.95},
		{Class: "barcode", ClassID: 3, Confidence: 0.8},
	}

	objects, qrCandidates := sinkDetections(raw)

	if len(objects) != 1 {
		t.Fatalf("expected 1 object, got %d", len(objects))
	}
	if len(qrCandidates) != 2 {
		t.Fatalf("expected 2 qr candidates, got %d", len(qrCandidates))
	}
	if objects[0].Class != "person" {
		t.Fatalf("expected person to sink to objects, got %q", objects[0].Class)
	}
	for _, o := range objects {
		if len(o.ObjectID) < 4 || o.ObjectID[:4] != "OBJ_" {
			t.Fatalf("expected OBJ_ prefix, got %q", o.ObjectID)
		}
	}
	for _, q := range qrCandidates {
		if len(q.QRID) < 3 || q.QRID[:3] != "QR_" {
			t.Fatalf("expected QR_ prefix, got %q", q.QRID)
		}
	}
}
