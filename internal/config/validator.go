package config

import (
	"fmt"
	"regexp"
)

// Validate checks a Config for the invariants xiss relies on: non-empty
// roots, a recognized class-map mode, and compilable exclude regexes
// (spec §7: "regex compile errors in exclude rules" are fatal, abort
// before any compilation begins).
func Validate(cfg *Config) error {
	if cfg.Project.Include == "" {
		return fmt.Errorf("config: project.include must not be empty")
	}
	if cfg.Project.Output == "" {
		return fmt.Errorf("config: project.output must not be empty")
	}
	if cfg.Map.Path == "" {
		return fmt.Errorf("config: map.path must not be empty")
	}
	if cfg.Source.Extension == "" {
		return fmt.Errorf("config: source.extension must not be empty")
	}
	switch cfg.Codegen.ClassmapMode {
	case "inline", "table":
	default:
		return fmt.Errorf("config: codegen.classmap-mode must be \"inline\" or \"table\", got %q", cfg.Codegen.ClassmapMode)
	}
	for _, group := range []struct {
		name     string
		patterns []string
	}{
		{"exclude.class", cfg.Exclude.Class},
		{"exclude.var", cfg.Exclude.Var},
		{"exclude.keyframes", cfg.Exclude.Keyframes},
	} {
		for _, p := range group.patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("config: %s pattern %q does not compile: %w", group.name, p, err)
			}
		}
	}
	return nil
}
