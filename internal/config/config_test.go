package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".xiss.kdl"))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_ParsesDocumentedSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".xiss.kdl")
	content := `
project {
    include "widgets"
    output "build"
}
map {
    path "cache.map"
    lock "cache.lock"
}
codegen {
    classmap-mode "table"
}
exclude {
    class "^ad"
    var ".*temp.*"
}
source {
    extension "module.css"
}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Project.Include != "widgets" || cfg.Project.Output != "build" {
		t.Fatalf("unexpected project config: %+v", cfg.Project)
	}
	if cfg.Map.Path != "cache.map" || cfg.Map.Lock != "cache.lock" {
		t.Fatalf("unexpected map config: %+v", cfg.Map)
	}
	if cfg.Codegen.ClassmapMode != "table" {
		t.Fatalf("unexpected classmap mode: %q", cfg.Codegen.ClassmapMode)
	}
	if len(cfg.Exclude.Class) != 1 || cfg.Exclude.Class[0] != "^ad" {
		t.Fatalf("unexpected class excludes: %v", cfg.Exclude.Class)
	}
	if cfg.Source.Extension != "module.css" {
		t.Fatalf("unexpected extension: %q", cfg.Source.Extension)
	}
}

func TestValidate_RejectsBadClassmapMode(t *testing.T) {
	cfg := Default()
	cfg.Codegen.ClassmapMode = "nested"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an unrecognized classmap mode")
	}
}

func TestValidate_RejectsUncompilableExcludeRegex(t *testing.T) {
	cfg := Default()
	cfg.Exclude.Class = []string{"("}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected an error for an invalid exclude regex")
	}
}

func TestResolveIncludeOutput_MakesPathsAbsolute(t *testing.T) {
	cfg := Default()
	root := t.TempDir()
	ResolveIncludeOutput(cfg, root)
	if !filepath.IsAbs(cfg.Project.Include) || !filepath.IsAbs(cfg.Project.Output) {
		t.Fatalf("expected absolute paths, got %+v", cfg.Project)
	}
}
