package walker

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalk_FindsExtensionMatchedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "button.xiss"), "")
	writeFile(t, filepath.Join(root, "widgets", "card.xiss"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")

	files, err := Walk(root, Options{Extension: "xiss"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 modules, got %d: %v", len(files), files)
	}
	if files[0].ModuleID != "button" || files[1].ModuleID != "widgets/card" {
		t.Fatalf("unexpected module ids: %+v", files)
	}
}

func TestWalk_RespectsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "dist/\n")
	writeFile(t, filepath.Join(root, "button.xiss"), "")
	writeFile(t, filepath.Join(root, "dist", "button.xiss"), "")

	files, err := Walk(root, Options{Extension: "xiss"})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ModuleID != "button" {
		t.Fatalf("expected only button, got %+v", files)
	}
}

func TestWalk_ExcludeGlobWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "button.xiss"), "")
	writeFile(t, filepath.Join(root, "internal", "scratch.xiss"), "")

	files, err := Walk(root, Options{Extension: "xiss", Exclude: []string{"internal/**"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ModuleID != "button" {
		t.Fatalf("expected only button, got %+v", files)
	}
}

func TestWalk_IncludeGlobRestricts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "components", "button.xiss"), "")
	writeFile(t, filepath.Join(root, "experiments", "scratch.xiss"), "")

	files, err := Walk(root, Options{Extension: "xiss", Include: []string{"components/**"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ModuleID != "components/button" {
		t.Fatalf("expected only components/button, got %+v", files)
	}
}
