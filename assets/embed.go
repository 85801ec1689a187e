package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SampleSteps contains the starter step file written by -init.
//
//go:embed steps.json
var SampleSteps []byte

// WriteSampleSteps writes SampleSteps to path unless a file already exists
// there. It reports whether the file was written.
func WriteSampleSteps(path string) (bool, error) {
	if len(SampleSteps) == 0 {
		return false, fmt.Errorf("embedded steps.json is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
	}
	if err := os.WriteFile(path, SampleSteps, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
