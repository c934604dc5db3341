package pipeline

// AggregateStats summarizes processing time and detection outcomes
// across a batch of results, mirroring the original system's
// batch-level processing-stats rollup.
type AggregateStats struct {
	TotalImages      int
	SuccessCount     int
	FailureCount     int
	TotalDetections  int
	AverageLatencyMS float64
	ClassesDetected  []string
}

// GetProcessingStats aggregates a slice of results produced by
// ProcessBatch or a sequence of Process calls.
func GetProcessingStats(items []BatchItem) AggregateStats {
	stats := AggregateStats{TotalImages: len(items)}
	classSet := make(map[string]struct{})
	var totalLatency int64

	for _, item := range items {
		if item.Err != nil {
			stats.FailureCount++
			continue
		}
		stats.SuccessCount++
		if item.Result.Summary != nil {
			stats.TotalDetections += item.Result.Summary.TotalDetections
			for _, c := range item.Result.Summary.ClassesDetected {
				classSet[c] = struct{}{}
			}
		}
		if item.Result.ScanMetadata != nil {
			totalLatency += item.Result.ScanMetadata.ProcessingTimeMS
		}
	}

	if stats.SuccessCount > 0 {
		stats.AverageLatencyMS = float64(totalLatency) / float64(stats.SuccessCount)
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	stats.ClassesDetected = classes
	return stats
}
