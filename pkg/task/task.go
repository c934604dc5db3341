// Package task holds the data model shared by every component: the
// Task/Result envelope, the detection payload types, and the runtime
// Config threaded from an upload request through the worker to the
// detection pipeline.
package task

import "time"

// Status is the lifecycle state of a Task. Transitions are
// pending -> processing -> {completed, failed}; completed and failed
// are absorbing.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is the row persisted in vision_tasks.
type Task struct {
	TaskID    string    `db:"task_id" json:"task_id"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// BoundingBox is an axis-aligned box in image pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedObject is one non-QR detection.
type DetectedObject struct {
	ObjectID    string      `json:"object_id"`
	Class       string      `json:"class"`
	ClassID     int         `json:"class_id"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// QRCrop describes the crop extracted for a single QR detection and
// the outcome of running the decode ladder against it.
type QRCrop struct {
	Saved         bool   `json:"saved"`
	Path          string `json:"path,omitempty"`
	Size          [2]int `json:"size,omitempty"`
	DecodeSuccess bool   `json:"decode_success"`
}

// Sentinel decode content values used when a QR code could not yet be
// scanned, or was scanned and failed every strategy.
const (
	PendingScan  = "PENDING_SCAN"
	DecodeFailed = "DECODE_FAILED"
)

// DecodeSource names which decode path produced a QR's content.
type DecodeSource string

const (
	DecodeSourceNone DecodeSource = "none"
	DecodeSourceCrop DecodeSource = "crop"
	DecodeSourceDirect DecodeSource = "direct"
)

// QRCode is one detected and (attempted) decoded QR/barcode symbol.
type QRCode struct {
	QRID         string       `json:"qr_id"`
	Content      string       `json:"content"`
	DecodeSource DecodeSource `json:"decode_source"`
	BoundingBox  BoundingBox  `json:"bounding_box"`
	Confidence   float64      `json:"confidence"`
	CropInfo     QRCrop       `json:"crop_info"`
}

// ScanMetadata records when and how an image was processed.
type ScanMetadata struct {
	Timestamp         time.Time `json:"timestamp"`
	ImageResolution   [2]int    `json:"image_resolution"`
	ProcessingTimeMS  int64     `json:"processing_time_ms"`
}

// Summary is an aggregate rollup over one processing run.
type Summary struct {
	TotalDetections int      `json:"total_detections"`
	ObjectsCount    int      `json:"objects_count"`
	QRCodesCount    int      `json:"qr_codes_count"`
	ClassesDetected []string `json:"classes_detected"`
	QRCropsSaved    int      `json:"qr_crops_saved"`
	QRCodesDecoded  int      `json:"qr_codes_decoded"`
}

// TaskInfo is the per-run envelope describing what was processed.
type TaskInfo struct {
	TaskID      string            `json:"task_id"`
	ImagePath   string            `json:"image_path"`
	StartedAt   time.Time         `json:"started_at,omitempty"`
	ProcessedAt time.Time         `json:"processed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// ResultPayload is the full stored shape of a processing run, success
// or failure. The ingress controller projects this down to the public
// wire shape (scan_metadata, detected_objects, qr_codes only) via
// pkg/ingress's response formatter.
type ResultPayload struct {
	Status             Status           `json:"status"`
	TaskInfo           TaskInfo         `json:"task_info"`
	ScanMetadata       *ScanMetadata    `json:"scan_metadata,omitempty"`
	DetectedObjects    []DetectedObject `json:"detected_objects,omitempty"`
	QRCodes            []QRCode         `json:"qr_codes,omitempty"`
	Summary            *Summary         `json:"summary,omitempty"`
	ProcessedImagePath string           `json:"processed_image,omitempty"`
	SourceFileRemoved  *bool            `json:"source_file_removed,omitempty"`
	Error              string           `json:"error,omitempty"`
}

// PreprocessingConfig controls Stage A of the detection pipeline.
type PreprocessingConfig struct {
	TargetSize      [2]int `json:"target_size" yaml:"target_size"`
	Normalize       bool   `json:"normalize" yaml:"normalize"`
	EnhanceContrast bool   `json:"enhance_contrast" yaml:"enhance_contrast"`
}

// Config is the single structured configuration record threaded
// between the ingress controller, the worker and the pipeline. It is
// built from process defaults; the worker merges a job's Config onto
// it when the job carries one. The upload handler does not set a
// per-task Config.
type Config struct {
	ConfidenceThreshold  float64             `json:"confidence_threshold" yaml:"confidence_threshold" validate:"gte=0,lte=1"`
	QRCropsDir           string              `json:"qr_crops_dir" yaml:"qr_crops_dir"`
	ProcessedImagesDir   string              `json:"processed_images_dir" yaml:"processed_images_dir"`
	EnableQRDetection    bool                `json:"enable_qr_detection" yaml:"enable_qr_detection"`
	SaveCrops            bool                `json:"save_crops" yaml:"save_crops"`
	SaveProcessedImages  bool                `json:"save_processed_images" yaml:"save_processed_images"`
	RemoveSourceFile     bool                `json:"remove_source_file" yaml:"remove_source_file"`
	Preprocessing        PreprocessingConfig `json:"preprocessing" yaml:"preprocessing"`
}

// DefaultConfig mirrors the original system's DEFAULT_CONFIG.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.85,
		QRCropsDir:          "qr_crops",
		ProcessedImagesDir:  "outputs/processed_images",
		EnableQRDetection:   true,
		SaveCrops:           false,
		SaveProcessedImages: false,
		RemoveSourceFile:    false,
		Preprocessing: PreprocessingConfig{
			TargetSize:      [2]int{640, 640},
			Normalize:       true,
			EnhanceContrast: false,
		},
	}
}

// Merge overlays non-zero fields of override onto the receiver and
// returns the result, used to apply a per-task config overlay onto the
// process default without mutating either input.
func (c Config) Merge(override Config) Config {
	merged := c
	if override.ConfidenceThreshold != 0 {
		merged.ConfidenceThreshold = override.ConfidenceThreshold
	}
	if override.QRCropsDir != "" {
		merged.QRCropsDir = override.QRCropsDir
	}
	if override.ProcessedImagesDir != "" {
		merged.ProcessedImagesDir = override.ProcessedImagesDir
	}
	// OR, not overlay: a per-task override can turn a false default on
	// but never turn a true default off, since Config has no way to
	// distinguish "override explicitly sets false" from "override left
	// unset". No current caller needs to disable a default-on flag.
	merged.EnableQRDetection = override.EnableQRDetection || c.EnableQRDetection
	merged.SaveCrops = override.SaveCrops || c.SaveCrops
	merged.SaveProcessedImages = override.SaveProcessedImages || c.SaveProcessedImages
	merged.RemoveSourceFile = override.RemoveSourceFile || c.RemoveSourceFile
	if override.Preprocessing.TargetSize != [2]int{} {
		merged.Preprocessing.TargetSize = override.Preprocessing.TargetSize
	}
	return merged
}
