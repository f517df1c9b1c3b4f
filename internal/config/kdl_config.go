package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// DefaultFileName is the config file xiss looks for in the project root
// when no explicit path is given.
const DefaultFileName = ".xiss.kdl"

// Load reads path's KDL config, or returns Default() verbatim if the file
// does not exist (spec §6: "Missing values use documented defaults").
// The result is always validated before being returned.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		return cfg, Validate(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseKDL(content string) (*Config, error) {
	cfg := Default()

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "include", func(v string) { cfg.Project.Include = v })
				assignSimpleString(cn, "output", func(v string) { cfg.Project.Output = v })
			}
		case "map":
			for _, cn := range n.Children {
				assignSimpleString(cn, "path", func(v string) { cfg.Map.Path = v })
				assignSimpleString(cn, "lock", func(v string) { cfg.Map.Lock = v })
			}
		case "codegen":
			for _, cn := range n.Children {
				assignSimpleString(cn, "classmap-mode", func(v string) { cfg.Codegen.ClassmapMode = v })
			}
		case "exclude":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "class":
					cfg.Exclude.Class = append(cfg.Exclude.Class, stringArgs(cn)...)
				case "var":
					cfg.Exclude.Var = append(cfg.Exclude.Var, stringArgs(cn)...)
				case "keyframes":
					cfg.Exclude.Keyframes = append(cfg.Exclude.Keyframes, stringArgs(cn)...)
				}
			}
		case "source":
			for _, cn := range n.Children {
				assignSimpleString(cn, "extension", func(v string) { cfg.Source.Extension = v })
			}
		}
	}

	return cfg, nil
}

// ResolveIncludeOutput turns the relative include/output directories and
// the map/lock file paths into absolute paths under root; paths that are
// already absolute are only cleaned.
func ResolveIncludeOutput(cfg *Config, root string) {
	cfg.Project.Include = resolveUnderRoot(root, cfg.Project.Include)
	cfg.Project.Output = resolveUnderRoot(root, cfg.Project.Output)
	cfg.Map.Path = resolveUnderRoot(root, cfg.Map.Path)
	cfg.Map.Lock = resolveUnderRoot(root, cfg.Map.Lock)
}

func resolveUnderRoot(root, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(root, p))
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstStringArg(n *document.Node) (string, bool) {
	if n == nil || len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func stringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}
