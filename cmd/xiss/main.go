package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hbollon/go-edlib"
	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/xiss/internal/buildpipeline"
	"github.com/standardbeagle/xiss/internal/compiler"
	"github.com/standardbeagle/xiss/internal/config"
	"github.com/standardbeagle/xiss/internal/globalmap"
	"github.com/standardbeagle/xiss/internal/idtypes"
	"github.com/standardbeagle/xiss/internal/mcpserver"
	"github.com/standardbeagle/xiss/internal/version"
	"github.com/standardbeagle/xiss/internal/watch"
)

// loadConfigWithOverrides loads the KDL config and applies the CLI's
// build-affecting flags, the way the teacher's loadConfigWithOverrides
// layers --root/--include/--exclude on top of a loaded Config.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	root := c.String("root")
	if root != "" && configPath == config.DefaultFileName {
		configPath = filepath.Join(root, config.DefaultFileName)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if out := c.String("output"); out != "" {
		cfg.Project.Output = out
	}
	if mapPath := c.String("map"); mapPath != "" {
		cfg.Map.Path = mapPath
	}
	if lockPath := c.String("lock"); lockPath != "" {
		cfg.Map.Lock = lockPath
	}
	if mode := c.String("classmap-mode"); mode != "" {
		cfg.Codegen.ClassmapMode = mode
	}

	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}
	config.ResolveIncludeOutput(cfg, absRoot)

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func classmapMode(cfg *config.Config) compiler.ClassmapMode {
	if cfg.Codegen.ClassmapMode == "table" {
		return compiler.ModeTable
	}
	return compiler.ModeInline
}

func buildFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Project root directory (overrides config)"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Artifact output directory (overrides config)"},
		&cli.StringFlag{Name: "map", Usage: "Persistent map file path (overrides config)"},
		&cli.StringFlag{Name: "lock", Usage: "Lock file path (overrides config)"},
		&cli.StringFlag{Name: "classmap-mode", Usage: "Class-map emission mode: inline or table (overrides config)"},
	}
}

func runBuild(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	report, err := buildpipeline.Build(c.Context, cfg, classmapMode(cfg))
	if err != nil {
		return err
	}
	printReport(report)
	if report.Failed {
		return cli.Exit("build failed", 1)
	}
	return nil
}

func printReport(report *buildpipeline.Report) {
	compiled, skipped, failed := 0, 0, 0
	for _, m := range report.Modules {
		switch {
		case m.Skipped:
			skipped++
		case m.Result.Failed:
			failed++
			fmt.Fprintf(os.Stderr, "xiss: %s failed:\n", m.ModuleID)
			for _, d := range m.Result.Diagnostics {
				fmt.Fprintf(os.Stderr, "  %s\n", d.Error())
			}
		default:
			compiled++
		}
	}
	fmt.Printf("xiss: %d compiled, %d unchanged, %d failed\n", compiled, skipped, failed)
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	report, err := buildpipeline.Build(c.Context, cfg, classmapMode(cfg))
	if err != nil {
		return err
	}
	printReport(report)

	w, err := watch.New(150 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	w.OnChange = func(paths []string) {
		fmt.Printf("xiss: rebuilding (%d path(s) changed)\n", len(paths))
		report, err := buildpipeline.Build(c.Context, cfg, classmapMode(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "xiss: build error: %v\n", err)
			return
		}
		printReport(report)
	}
	if err := w.Start(cfg.Project.Include); err != nil {
		return fmt.Errorf("failed to watch %s: %w", cfg.Project.Include, err)
	}
	fmt.Printf("xiss: watching %s\n", cfg.Project.Include)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return w.Stop()
}

func runMCP(c *cli.Context) error {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(c.Context)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return mcpserver.New(cfg, classmapMode(cfg)).Run(ctx)
}

func runDecodeID(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: xiss decode-id <global-id>", 1)
	}
	target := c.Args().First()
	mapPath := c.String("map")
	if mapPath == "" {
		mapPath = config.Default().Map.Path
	}

	gmap, err := globalmap.New(globalmap.ExcludePatterns{})
	if err != nil {
		return err
	}
	f, err := os.Open(mapPath)
	if err != nil {
		return fmt.Errorf("failed to open map %s: %w", mapPath, err)
	}
	defer f.Close()
	if err := gmap.Import(f); err != nil {
		return fmt.Errorf("failed to parse map %s: %w", mapPath, err)
	}

	var allGlobals []string
	for idx := idtypes.ModuleIndex(0); int(idx) < gmap.ModuleCount(); idx++ {
		module := gmap.ModuleByIndex(idx)
		for _, kind := range []idtypes.IdKind{idtypes.Class, idtypes.Var, idtypes.Keyframes} {
			for local, id := range module.All(kind) {
				if id.Global == target {
					fmt.Printf("%s %s %s -> %s\n", kind, module.ModuleID, local, id.Global)
					return nil
				}
				allGlobals = append(allGlobals, id.Global)
			}
		}
	}

	suggestion, distance := closestMatch(target, allGlobals)
	if suggestion == "" {
		return cli.Exit(fmt.Sprintf("no global id %q found in %s", target, mapPath), 1)
	}
	return cli.Exit(fmt.Sprintf("no global id %q found in %s; did you mean %q? (edit distance %d)", target, mapPath, suggestion, distance), 1)
}

func closestMatch(target string, candidates []string) (string, int) {
	best := ""
	bestDistance := -1
	for _, candidate := range candidates {
		d := edlib.LevenshteinDistance(target, candidate)
		if bestDistance < 0 || d < bestDistance {
			bestDistance = d
			best = candidate
		}
	}
	return best, bestDistance
}

func main() {
	app := &cli.App{
		Name:                   "xiss",
		Usage:                  "Scoped CSS module compiler",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path",
				Value:   config.DefaultFileName,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Compile every module under the configured source tree once",
				Flags:  buildFlags(),
				Action: runBuild,
			},
			{
				Name:   "watch",
				Usage:  "Build once, then rebuild on every source change",
				Flags:  buildFlags(),
				Action: runWatch,
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server (compile/status tools) over stdio",
				Flags:  buildFlags(),
				Action: runMCP,
			},
			{
				Name:      "decode-id",
				Usage:     "Look up which (module, kind, local) a global id resolves to",
				ArgsUsage: "<global-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "map", Usage: "Persistent map file path (overrides config default)"},
				},
				Action: runDecodeID,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
