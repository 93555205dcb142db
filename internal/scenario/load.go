package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoadMode controls error handling during directory loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first scenario that fails to compile.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every file and collects all errors.
	LoadModeCollectAll
)

// FileResult pairs a compiled scenario with its source file.
type FileResult struct {
	Path     string
	Scenario *Scenario
}

// LoadFile compiles a single scenario file.
func LoadFile(path string) (*Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s, err := CompileString(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadDir compiles every *.cue file in dir, in lexical order so repeated
// loads see scenarios in a stable order.
//
// In LoadModeFailFast the first error aborts the load; in
// LoadModeCollectAll every file is attempted and all errors return
// together with the scenarios that did compile.
func LoadDir(dir string, mode LoadMode) ([]FileResult, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scenario directory %s: %w", dir, err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	files, err := FindScenarioFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scan %s: %w", dir, err)}
	}
	if len(files) == 0 {
		return nil, []error{fmt.Errorf("no scenario files (*.cue) found in %s", dir)}
	}

	var results []FileResult
	var errs []error
	for _, path := range files {
		s, err := LoadFile(path)
		if err != nil {
			if mode == LoadModeFailFast {
				return results, []error{err}
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, FileResult{Path: path, Scenario: s})
	}
	return results, errs
}

// FindScenarioFiles returns the *.cue files directly under dir, sorted.
// Subdirectories are not descended; a scenario set is a flat directory.
func FindScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".cue") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
