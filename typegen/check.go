package typegen

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nodetool-ai/nodetool-sdk/errors"
)

// CheckResult holds the result of an output check
type CheckResult struct {
	UpToDate bool

	// Differing lists files whose content changed
	Differing []string

	// Missing lists generated files absent from the existing tree
	Missing []string

	// Extra lists existing files generation would no longer produce
	Extra []string
}

// CompareDirectories compares a freshly generated tree with the committed one.
// Paths in the result are slash-separated and relative to the tree roots.
func CompareDirectories(generatedDir, existingDir string) (*CheckResult, error) {
	generated, err := listFiles(generatedDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", generatedDir)
	}
	existing, err := listFiles(existingDir)
	if err != nil {
		return nil, errors.Wrapf(err, "list %s", existingDir)
	}

	result := &CheckResult{}
	for rel := range generated {
		if !existing[rel] {
			result.Missing = append(result.Missing, rel)
			continue
		}
		different, err := filesAreDifferent(
			filepath.Join(generatedDir, filepath.FromSlash(rel)),
			filepath.Join(existingDir, filepath.FromSlash(rel)),
		)
		if err != nil {
			return nil, err
		}
		if different {
			result.Differing = append(result.Differing, rel)
		}
	}
	for rel := range existing {
		// Top-level files are only compared when generation produces them
		if !generated[rel] && strings.Contains(rel, "/") {
			result.Extra = append(result.Extra, rel)
		}
	}

	sort.Strings(result.Differing)
	sort.Strings(result.Missing)
	sort.Strings(result.Extra)
	result.UpToDate = len(result.Differing)+len(result.Missing)+len(result.Extra) == 0
	return result, nil
}

// listFiles returns the generated files under dir; a missing dir is empty
func listFiles(dir string) (map[string]bool, error) {
	files := make(map[string]bool)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return files, nil
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if isOutputFile(rel) {
			files[rel] = true
		}
		return nil
	})
	return files, err
}

// isOutputFile reports whether rel belongs to the generated layout: .cs
// files under Types/ or Nodes/, and top-level .cs files. Hand-written files
// next to it (project files, READMEs) are ignored.
func isOutputFile(rel string) bool {
	if filepath.Ext(rel) != ".cs" {
		return false
	}
	top, _, nested := strings.Cut(rel, "/")
	return !nested || top == string(KindTypes) || top == string(KindNodes)
}

// filesAreDifferent compares two files byte for byte
func filesAreDifferent(file1, file2 string) (bool, error) {
	content1, err := os.ReadFile(file1)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file1)
	}

	content2, err := os.ReadFile(file2)
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", file2)
	}

	return !bytes.Equal(content1, content2), nil
}
