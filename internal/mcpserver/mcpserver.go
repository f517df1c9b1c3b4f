// Package mcpserver exposes xiss's build pipeline as an MCP server
// (SPEC_FULL.md §4.14): a "compile" tool that runs a full build and a
// "status" tool that reports the current project configuration (roots,
// map/lock paths, class-map mode, extension; no map contents or id
// counts), so an editor/agent integration can trigger and inspect builds
// without shelling out to the CLI. Grounded on the teacher's
// internal/mcp/server.go (mcp.NewServer + AddTool registration,
// stdio-transport Run/Shutdown split) and internal/mcp/response.go's
// createJSONResponse helper, stripped of every tool unrelated to a CSS
// build (search, symbol graphs, git analysis — none apply here).
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/xiss/internal/buildpipeline"
	"github.com/standardbeagle/xiss/internal/compiler"
	"github.com/standardbeagle/xiss/internal/config"
)

// Server wraps an MCP server bound to one project configuration.
type Server struct {
	mcp *mcp.Server
	cfg *config.Config
	mode compiler.ClassmapMode
}

// New constructs a Server for cfg (expected already resolved via
// config.ResolveIncludeOutput) and registers its tools.
func New(cfg *config.Config, mode compiler.ClassmapMode) *Server {
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "xiss-mcp-server",
			Version: "0.1.0",
		}, nil),
		cfg:  cfg,
		mode: mode,
	}
	s.registerTools()
	return s
}

// Run serves MCP requests over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.mcp.AddTool(&mcp.Tool{
		Name:        "compile",
		Description: "Run a full xiss build: walk the configured source tree, compile every module, and write CSS/JS/TS artifacts.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleCompile)

	s.mcp.AddTool(&mcp.Tool{
		Name:        "status",
		Description: "Report the current project configuration: include/output roots, map file path, and class-map emission mode.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleStatus)
}

func (s *Server) handleCompile(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := buildpipeline.Build(ctx, s.cfg, s.mode)
	if err != nil {
		return jsonResult(map[string]any{"error": err.Error()})
	}

	modules := make([]map[string]any, 0, len(report.Modules))
	for _, m := range report.Modules {
		entry := map[string]any{
			"module":  m.ModuleID,
			"skipped": m.Skipped,
		}
		if !m.Skipped {
			entry["failed"] = m.Result.Failed
			if len(m.Result.Diagnostics) > 0 {
				diags := make([]string, len(m.Result.Diagnostics))
				for i, d := range m.Result.Diagnostics {
					diags[i] = d.Error()
				}
				entry["diagnostics"] = diags
			}
		}
		modules = append(modules, entry)
	}

	idsMinted := make(map[string]int, len(report.IDsMinted))
	for kind, n := range report.IDsMinted {
		idsMinted[kind.String()] = n
	}

	return jsonResult(map[string]any{
		"failed":      report.Failed,
		"compiled":    report.Compiled,
		"skipped":     report.Skipped,
		"ids_minted":  idsMinted,
		"duration_ms": report.Duration.Milliseconds(),
		"modules":     modules,
	})
}

func (s *Server) handleStatus(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"include":       s.cfg.Project.Include,
		"output":        s.cfg.Project.Output,
		"map_path":      s.cfg.Map.Path,
		"lock_path":     s.cfg.Map.Lock,
		"classmap_mode": s.cfg.Codegen.ClassmapMode,
		"extension":     s.cfg.Source.Extension,
	})
}

func jsonResult(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}
