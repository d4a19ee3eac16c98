//go:build integration

package itest

import (
	"errors"
	"os"
	"path/filepath"
)

// repoRoot walks up from the test working directory to the module root so
// fixtures and `go run` resolve the same way from any package.
func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above test working directory")
		}
		dir = parent
	}
}
