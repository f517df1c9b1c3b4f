// Package config loads and validates xiss's project configuration
// (SPEC_FULL.md §4.9): include/output directories, the persistent map and
// lock file paths, the class-map emission mode, per-kind exclude regex
// lists, and the source file extension. Grounded on the teacher's
// internal/config package (its Config-struct-plus-Validator split and its
// KDL loader), rewritten against a much smaller schema — xiss has no
// index/performance/search sections to carry forward.
package config

// Config is the fully resolved, validated configuration for one build.
type Config struct {
	Project ProjectConfig
	Map     MapConfig
	Codegen CodegenConfig
	Exclude ExcludeConfig
	Source  SourceConfig
}

// ProjectConfig names the module include root and the artifact output
// root (spec §6 "Output layout").
type ProjectConfig struct {
	Include string
	Output  string
}

// MapConfig names the persistent map file and its read-only lock-file
// snapshot (spec §6 "Persistent map format", GLOSSARY "Lock file").
type MapConfig struct {
	Path string
	Lock string
}

// CodegenConfig selects the class-map emission strategy (spec §6
// "Class-map output mode").
type CodegenConfig struct {
	ClassmapMode string // "inline" or "table"
}

// ExcludeConfig carries the per-kind identifier exclude regex lists (spec
// §6 "Configuration (consumed, not specified here)").
type ExcludeConfig struct {
	Class     []string
	Var       []string
	Keyframes []string
}

// SourceConfig names the module source file extension (spec §6 "Module
// source extension").
type SourceConfig struct {
	Extension string
}

// Default returns the documented defaults (SPEC_FULL.md §4.9): include
// "src", output "dist", map ".xiss.map", lock ".xiss.lock", extension
// "xiss", classmap-mode "inline".
func Default() *Config {
	return &Config{
		Project: ProjectConfig{Include: "src", Output: "dist"},
		Map:     MapConfig{Path: ".xiss.map", Lock: ".xiss.lock"},
		Codegen: CodegenConfig{ClassmapMode: "inline"},
		Source:  SourceConfig{Extension: "xiss"},
	}
}
