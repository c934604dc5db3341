package pipeline

import (
	"context"

	"github.com/cuemby/visionq/pkg/task"
)

// BatchItem pairs one ImageSource with the outcome of processing it.
type BatchItem struct {
	Source ImageSource
	Result task.ResultPayload
	Err    error
}

// ProcessBatch runs Process over every source in turn, isolating a
// per-item failure into that item's Err rather than aborting the rest
// of the batch. Not reachable from any HTTP route today; kept as a
// building block for a future bulk-import entry point the same way it
// sat unused in the original system.
func ProcessBatch(ctx context.Context, p *Pipeline, sources []ImageSource, cfg task.Config, opts ProcessOptions) []BatchItem {
	items := make([]BatchItem, len(sources))
	for i, src := range sources {
		result, err := p.Process(ctx, src, cfg, opts)
		items[i] = BatchItem{Source: src, Result: result, Err: err}
	}
	return items
}
