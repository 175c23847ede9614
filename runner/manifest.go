package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Response is the child process's captured outcome.
type Response struct {
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// Manifest is the execution record persisted next to the staged
// executable (spec.md §4.6 phase 7, glossary "Execution manifest").
// Its presence at info.location means a successful run already exists
// and can be skipped unless execution_update forces a rerun.
type Manifest struct {
	Command      string        `json:"command"`
	Executable   string        `json:"executable"`
	Library      string        `json:"library"`
	Dependencies []string      `json:"dependencies"`
	Tag          string        `json:"tag"`
	Mode         string        `json:"mode"`
	Response     Response      `json:"response"`
	WallTime     time.Duration `json:"wall_time"`
	ReferenceTime time.Time    `json:"reference_time"`
}

// WriteManifest serializes m to path atomically (temp file + rename),
// matching the teacher's atomic-write habit throughout inmaputil and
// namelist.Manager.WriteToASCII.
func WriteManifest(path string, m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("runner: creating directory for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("runner: marshaling manifest for %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("runner: scratch file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("runner: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("runner: writing %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("runner: renaming into %s: %w", path, err)
	}
	return nil
}

// LoadManifest deserializes the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runner: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("runner: decoding manifest %s: %w", path, err)
	}
	return &m, nil
}
