package apperr

import (
	"errors"
	"testing"
)

func TestPipelineErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewPipeline(cause, "processing %s failed", "task-1")

	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
	if err.Error() != "processing task-1 failed" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestErrorsAsDistinguishesTaxonomy(t *testing.T) {
	var err error = NewNotFound("task %s not found", "t1")

	var notFound *NotFoundError
	var validation *ValidationError

	if !errors.As(err, &notFound) {
		t.Fatalf("expected errors.As to match NotFoundError")
	}
	if errors.As(err, &validation) {
		t.Fatalf("expected errors.As to not match ValidationError for a NotFoundError")
	}
}

func TestStoreErrorAndCacheErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")

	storeErr := NewStore(cause, "save failed")
	if !errors.Is(storeErr, cause) {
		t.Fatalf("expected StoreError to unwrap to its cause")
	}

	cacheErr := NewCache(cause, "get failed")
	if !errors.Is(cacheErr, cause) {
		t.Fatalf("expected CacheError to unwrap to its cause")
	}
}
