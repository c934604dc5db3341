// Package pipeline implements the Detection Pipeline (C4): a function
// from an image plus config to a Result payload, structured as the
// four stages named in the component design — preprocessing, object
// detection, QR decode, and coordinate reconciliation. Its only side
// effect is writing QR crop images when cfg.SaveCrops is set.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/cuemby/visionq/internal/apperr"
	"github.com/cuemby/visionq/pkg/task"
)

// ImageSource supplies the decoded source image and its resolved path,
// letting Process accept either a file on disk or an in-memory buffer
// without caring which.
type ImageSource struct {
	Path  string
	Image image.Image
}

// ProcessOptions controls side effects independent of the detection
// config itself.
type ProcessOptions struct {
	SaveQRCrops          bool
	ReturnVisualization  bool
}

// Pipeline bundles the two pluggable backends behind Stage B and
// Stage C. A nil QRDecoder is valid: no decode is attempted and every
// QR candidate is reported with PENDING_SCAN content. Whether QR
// candidates are reported at all is governed by cfg.EnableQRDetection.
type Pipeline struct {
	Detector  Detector
	QRDecoder QRSymbolDecoder
}

// New builds a Pipeline from its two interface backends.
func New(detector Detector, qrDecoder QRSymbolDecoder) *Pipeline {
	return &Pipeline{Detector: detector, QRDecoder: qrDecoder}
}

// Process runs all four stages over source and returns a fully
// assembled success-shaped ResultPayload. Pipeline-internal failures
// (image decode, detector error) are returned as *apperr.PipelineError
// so the caller can convert them into a failure-shaped Result.
func (p *Pipeline) Process(ctx context.Context, source ImageSource, cfg task.Config, opts ProcessOptions) (task.ResultPayload, error) {
	start := time.Now()

	if source.Image == nil {
		return task.ResultPayload{}, apperr.NewPipeline(nil, "no image data for %s", source.Path)
	}

	preprocessed, meta := Preprocess(source.Image, cfg.Preprocessing)

	if p.Detector == nil {
		return task.ResultPayload{}, apperr.NewPipeline(nil, "no detector configured")
	}
	raw, err := p.Detector.Detect(ctx, preprocessed, cfg.ConfidenceThreshold)
	if err != nil {
		return task.ResultPayload{}, apperr.NewPipeline(err, "detection failed for %s", source.Path)
	}

	objects, qrCandidates := sinkDetections(raw)

	for i := range objects {
		converted := convertBoundingBoxToOriginal(toBBoxLike(objects[i].BoundingBox), meta)
		objects[i].BoundingBox = fromBBoxLike(converted)
	}

	var qrCodes []task.QRCode
	if cfg.EnableQRDetection && len(qrCandidates) > 0 {
		qrCodes = p.decodeQRCandidates(preprocessed, qrCandidates, meta, cfg)
	}

	classes := make(map[string]struct{})
	for _, o := range objects {
		classes[o.Class] = struct{}{}
	}
	classList := make([]string, 0, len(classes))
	for c := range classes {
		classList = append(classList, c)
	}

	decoded := 0
	cropsSaved := 0
	for _, q := range qrCodes {
		if q.CropInfo.DecodeSuccess {
			decoded++
		}
		if q.CropInfo.Saved {
			cropsSaved++
		}
	}

	result := task.ResultPayload{
		Status: task.StatusCompleted,
		ScanMetadata: &task.ScanMetadata{
			Timestamp:        time.Now(),
			ImageResolution:  [2]int{meta.OriginalWidth, meta.OriginalHeight},
			ProcessingTimeMS: time.Since(start).Milliseconds(),
		},
		DetectedObjects: objects,
		QRCodes:         qrCodes,
		Summary: &task.Summary{
			TotalDetections: len(objects) + len(qrCodes),
			ObjectsCount:    len(objects),
			QRCodesCount:    len(qrCodes),
			ClassesDetected: classList,
			QRCropsSaved:    cropsSaved,
			QRCodesDecoded:  decoded,
		},
	}
	return result, nil
}

func (p *Pipeline) decodeQRCandidates(preprocessed image.Image, candidates []qrCandidate, meta PreprocessMetadata, cfg task.Config) []task.QRCode {
	directContent, directOK := "", false
	if p.QRDecoder != nil {
		directContent, directOK = decodeQRFromImage(p.QRDecoder, preprocessed)
	}

	codes := make([]task.QRCode, len(candidates))
	var wg sync.WaitGroup
	for i, cand := range candidates {
		wg.Add(1)
		go func(i int, cand qrCandidate) {
			defer wg.Done()

			crop := extractQRCrop(preprocessed, cand.BoundingBox)

			cropContent, cropOK := "", false
			if p.QRDecoder != nil {
				cropContent, cropOK = decodeMultipleAttempts(p.QRDecoder, crop)
			}

			cropInfo := task.QRCrop{}
			if cfg.SaveCrops {
				path := fmt.Sprintf("%s/%s_crop.jpg", cfg.QRCropsDir, cand.QRID)
				if err := os.MkdirAll(cfg.QRCropsDir, 0o755); err == nil && imaging.Save(crop, path) == nil {
					cropInfo.Saved = true
					cropInfo.Path = path
				}
				b := crop.Bounds()
				cropInfo.Size = [2]int{b.Dx(), b.Dy()}
			}

			code := buildQRCode(cand, cropContent, cropOK, directContent, directOK, cropInfo)
			if p.QRDecoder == nil {
				// No decoder ran, so the candidate was never scanned.
				code.Content = task.PendingScan
			}
			converted := convertBoundingBoxToOriginal(toBBoxLike(code.BoundingBox), meta)
			code.BoundingBox = fromBBoxLike(converted)
			codes[i] = code
		}(i, cand)
	}
	wg.Wait()
	return codes
}

func toBBoxLike(b task.BoundingBox) BoundingBoxLike {
	return BoundingBoxLike{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func fromBBoxLike(b BoundingBoxLike) task.BoundingBox {
	return task.BoundingBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}
