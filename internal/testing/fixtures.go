package testing

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// WriteTree expands a txtar archive into a fresh temporary directory and
// returns its path. Cleanup is registered via t.TempDir().
//
//	root := testing.WriteTree(t, `
//	-- src/nodetool/metadata/types.typegen.toml --
//	[[classes]]
//	name = "ImageRef"
//	bases = ["BaseType"]
//	`)
func WriteTree(t *testing.T, archive string) string {
	t.Helper()

	root := t.TempDir()
	WriteTreeAt(t, root, archive)
	return root
}

// WriteTreeAt expands a txtar archive into an existing directory
func WriteTreeAt(t *testing.T, root, archive string) {
	t.Helper()

	ar := txtar.Parse([]byte(archive))
	for _, f := range ar.Files {
		path := filepath.Join(root, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", f.Name, err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("Failed to write fixture %s: %v", f.Name, err)
		}
	}
}

// ReadFile returns the contents of root/rel, failing the test if it is missing
func ReadFile(t *testing.T, root, rel string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

// Chdir changes the working directory to dir and restores the previous one
// when the test ends, mirroring testing.T.Chdir from newer Go releases.
func Chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory %s: %v", prev, err)
		}
	})
}
