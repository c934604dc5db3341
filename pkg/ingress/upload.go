package ingress

import (
	"os"
	"path/filepath"
)

// writeFile persists an uploaded file's bytes to path, creating the
// parent directory if needed.
func writeFile(path string, body []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}
