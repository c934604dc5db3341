// Package modelcache implements the process-wide detector singleton
// (§4.5/§9): a single slot guarded by a mutex, rebuilt only when the
// requested (model path, confidence threshold) key changes.
package modelcache

import (
	"sync"

	"github.com/cuemby/visionq/internal/log"
	"github.com/cuemby/visionq/internal/metrics"
	"github.com/cuemby/visionq/pkg/pipeline"
)

// Key identifies a detector build. Two requests for the same Key
// always observe the same cached Detector instance.
type Key struct {
	ModelPath           string
	ConfidenceThreshold float64
}

// Builder constructs a Detector for a given model path. It is only
// ever invoked while the cache's mutex is held, so a Builder does not
// need to be reentrant-safe against concurrent calls to itself.
type Builder func(modelPath string) (pipeline.Detector, error)

// Cache holds the single process-wide detector slot.
type Cache struct {
	mu      sync.Mutex
	key     Key
	built   bool
	current pipeline.Detector
}

// New returns an empty cache; the first Get call populates the slot.
func New() *Cache {
	return &Cache{}
}

// Get returns the cached Detector for key, rebuilding via build only
// if the slot is empty or keyed to a different (model path, threshold)
// pair. The confidence threshold is part of the key because some
// detector backends bake the threshold into the compiled inference
// graph rather than accepting it per call.
func (c *Cache) Get(key Key, build Builder) (pipeline.Detector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.built && c.key == key {
		return c.current, nil
	}

	logger := log.WithComponent("modelcache")
	logger.Info().Str("model_path", key.ModelPath).Float64("confidence_threshold", key.ConfidenceThreshold).Msg("rebuilding model cache slot")

	detector, err := build(key.ModelPath)
	if err != nil {
		return nil, err
	}

	c.key = key
	c.current = detector
	c.built = true
	metrics.ModelCacheRebuilds.Inc()
	return detector, nil
}
