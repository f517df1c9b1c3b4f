// Package buildpipeline implements the Build Orchestrator (SPEC_FULL.md
// §4.13): the layer above the single-threaded compiler core (spec §5)
// that walks the source tree, reads and parses modules concurrently,
// serially compiles them against one owned GlobalMap, and writes each
// module's artifacts plus the updated map/cache files. Grounded on the
// teacher's indexing pipeline's producer/serial-consumer split (a
// concurrent scan feeding a single-writer index), generalized here
// against spec §5's explicit constraint that the compiler core itself
// must stay single-threaded and non-suspending — concurrency lives only
// in the I/O and pre-parse stages, never inside a single module's
// compile.
package buildpipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/xiss/internal/compiler"
	"github.com/standardbeagle/xiss/internal/config"
	"github.com/standardbeagle/xiss/internal/constants"
	"github.com/standardbeagle/xiss/internal/cssast"
	"github.com/standardbeagle/xiss/internal/diag"
	"github.com/standardbeagle/xiss/internal/globalmap"
	"github.com/standardbeagle/xiss/internal/idcache"
	"github.com/standardbeagle/xiss/internal/idtypes"
	"github.com/standardbeagle/xiss/internal/walker"
)

var idKinds = []idtypes.IdKind{idtypes.Class, idtypes.Var, idtypes.Keyframes}

// ModuleReport is the outcome for one discovered module file.
type ModuleReport struct {
	ModuleID string
	Skipped  bool // idcache hit: source unchanged since the last successful build
	Result   compiler.Result
}

// Report is the outcome of one full build (SPEC_FULL.md §3 "Build
// report"): per-module results plus the aggregate counts and timing an
// MCP/CLI caller wants without re-deriving them from Modules.
type Report struct {
	Modules   []ModuleReport
	Failed    bool
	Compiled  int
	Skipped   int
	IDsMinted map[idtypes.IdKind]int
	Duration  time.Duration
}

type parsedModule struct {
	file walker.ModuleFile
	src  []byte
	ss   *cssast.Stylesheet
}

// Build runs one full build using cfg (expected to already have absolute
// Project.Include/Output paths, per config.ResolveIncludeOutput): walk,
// concurrent read+parse, a serial constants pass, then a serial compile
// pass writing CSS/JS/TS artifacts under cfg.Project.Output and flushing
// newly minted ids to cfg.Map.Path. The incremental cache at
// cfg.Map.Path+".idcache" lets unchanged modules skip recompilation
// entirely.
func Build(ctx context.Context, cfg *config.Config, mode compiler.ClassmapMode) (*Report, error) {
	start := time.Now()
	files, err := walker.Walk(cfg.Project.Include, walker.Options{
		Extension: cfg.Source.Extension,
	})
	if err != nil {
		return nil, fmt.Errorf("buildpipeline: walk: %w", err)
	}

	gmap, err := globalmap.New(globalmap.ExcludePatterns{
		Class:     cfg.Exclude.Class,
		Var:       cfg.Exclude.Var,
		Keyframes: cfg.Exclude.Keyframes,
	})
	if err != nil {
		return nil, fmt.Errorf("buildpipeline: new global map: %w", err)
	}
	if f, err := os.Open(cfg.Map.Path); err == nil {
		importErr := gmap.Import(f)
		f.Close()
		if importErr != nil {
			return nil, fmt.Errorf("buildpipeline: import map: %w", importErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("buildpipeline: open map: %w", err)
	}

	cachePath := cfg.Map.Path + ".idcache"
	cache, err := idcache.Load(cachePath)
	if err != nil {
		return nil, fmt.Errorf("buildpipeline: load cache: %w", err)
	}

	parsed := make([]*parsedModule, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			src, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("buildpipeline: read %s: %w", f.Path, err)
			}
			h := diag.NewHandler()
			ss := cssast.Parse(f.Path, src, h)
			parsed[i] = &parsedModule{file: f, src: src, ss: ss}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	consts := constants.NewIndex()
	for _, pm := range parsed {
		consts.Collect(pm.ss)
	}

	report := &Report{IDsMinted: make(map[idtypes.IdKind]int, len(idKinds))}
	for _, pm := range parsed {
		if cache.Unchanged(pm.file.ModuleID, pm.src) {
			if artifactsExist(cfg.Project.Output, pm.file.ModuleID) {
				report.Modules = append(report.Modules, ModuleReport{ModuleID: pm.file.ModuleID, Skipped: true})
				report.Skipped++
				continue
			}
		}

		idx := gmap.GetModuleIndex(pm.file.ModuleID)
		before := idCounts(gmap.ModuleByIndex(idx))

		res := compiler.Compile(pm.file.Path, pm.file.ModuleID, pm.src, gmap, consts, mode)
		report.Modules = append(report.Modules, ModuleReport{ModuleID: pm.file.ModuleID, Result: res})
		if res.Failed {
			report.Failed = true
			continue
		}
		report.Compiled++

		after := idCounts(gmap.ModuleByIndex(idx))
		for _, kind := range idKinds {
			report.IDsMinted[kind] += after[kind] - before[kind]
		}

		if err := writeArtifacts(cfg.Project.Output, pm.file.ModuleID, res.Artifacts); err != nil {
			return nil, fmt.Errorf("buildpipeline: write artifacts for %s: %w", pm.file.ModuleID, err)
		}
		cache.Record(pm.file.ModuleID, pm.src)

		mf, err := os.OpenFile(cfg.Map.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("buildpipeline: open map for append: %w", err)
		}
		flushErr := gmap.FlushNewIds(mf)
		closeErr := mf.Close()
		if flushErr != nil {
			return nil, fmt.Errorf("buildpipeline: flush map: %w", flushErr)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("buildpipeline: close map: %w", closeErr)
		}
	}
	report.Duration = time.Since(start)

	if err := cache.Save(cachePath); err != nil {
		return nil, fmt.Errorf("buildpipeline: save cache: %w", err)
	}

	return report, nil
}

func idCounts(module *idtypes.Module) map[idtypes.IdKind]int {
	counts := make(map[idtypes.IdKind]int, len(idKinds))
	for _, kind := range idKinds {
		counts[kind] = len(module.All(kind))
	}
	return counts
}

func artifactPaths(outputRoot, moduleID string) (css, js, ts string) {
	base := filepath.Join(outputRoot, filepath.FromSlash(moduleID))
	return base + ".css", base + ".js", base + ".d.ts"
}

func artifactsExist(outputRoot, moduleID string) bool {
	css, js, ts := artifactPaths(outputRoot, moduleID)
	for _, p := range []string{css, js, ts} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

// writeArtifacts writes a module's CSS/JS/TS outputs under outputRoot,
// mirroring its module id as a relative path (spec §6 "Output layout":
// "M.css", "M.js", "M.d.ts" alongside M's own directory structure).
func writeArtifacts(outputRoot, moduleID string, a compiler.Artifacts) error {
	cssPath, jsPath, tsPath := artifactPaths(outputRoot, moduleID)
	if err := os.MkdirAll(filepath.Dir(cssPath), 0o755); err != nil {
		return err
	}
	for path, content := range map[string]string{cssPath: a.CSS, jsPath: a.JS, tsPath: a.TS} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
