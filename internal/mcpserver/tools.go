package mcpserver

import (
	"context"
	"os"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/refscan/refscan/internal/output"
	"github.com/refscan/refscan/internal/scanner"
	"github.com/refscan/refscan/pkg/analyzer/references"
	"github.com/refscan/refscan/pkg/classfile"
	"github.com/refscan/refscan/pkg/config"
	"github.com/refscan/refscan/pkg/layout"
	toon "github.com/toon-format/toon-go"
)

// AnalyzeInput is the base input for all tools.
type AnalyzeInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Files or directories to analyze. Defaults to current directory if empty."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// ReferencesInput adds reference-analysis options.
type ReferencesInput struct {
	AnalyzeInput
	FailFast         bool     `json:"fail_fast,omitempty" jsonschema:"Abort the batch on the first malformed class file instead of skipping it."`
	StrictSignatures bool     `json:"strict_signatures,omitempty" jsonschema:"Treat malformed generic signatures as file failures instead of warnings."`
	Exclude          []string `json:"exclude,omitempty" jsonschema:"Fully qualified class names to remove from the report."`
	Workers          int      `json:"workers,omitempty" jsonschema:"Decode worker count. Default is derived from CPU count."`
}

// ClassesInput adds class-listing options.
type ClassesInput struct {
	AnalyzeInput
	StrictSignatures bool `json:"strict_signatures,omitempty" jsonschema:"Treat malformed generic signatures as file failures instead of warnings."`
}

// LayoutsInput adds layout-extraction options.
type LayoutsInput struct {
	AnalyzeInput
}

// Helper functions

func getPaths(input AnalyzeInput) []string {
	if len(input.Paths) == 0 {
		return []string{"."}
	}
	return input.Paths
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// expandPaths resolves directories through the scanner and passes
// explicit file paths straight through.
func expandPaths(paths []string) ([]string, error) {
	s := scanner.New(config.DefaultConfig())
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		result, err := s.ScanDir(path)
		if err != nil {
			return nil, err
		}
		files = append(files, result.Classes...)
		files = append(files, result.Archives...)
		files = append(files, result.Layouts...)
		files = append(files, result.Stubs...)
	}
	return files, nil
}

func formatOutput(data any, format output.Format) (string, error) {
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	if format == output.FormatMarkdown {
		return "```\n" + string(out) + "\n```", nil
	}
	return string(out), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func handleAnalyzeReferences(ctx context.Context, req *mcp.CallToolRequest, input ReferencesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.AnalyzeInput)

	files, err := expandPaths(getPaths(input.AnalyzeInput))
	if err != nil {
		return toolError(err.Error())
	}
	if len(files) == 0 {
		return toolError("no analyzable files found")
	}

	opts := []references.Option{}
	if input.FailFast {
		opts = append(opts, references.WithFailFast())
	}
	if input.StrictSignatures {
		opts = append(opts, references.WithStrictSignatures())
	}
	if len(input.Exclude) > 0 {
		opts = append(opts, references.WithExclusions(input.Exclude))
	}
	if input.Workers > 0 {
		opts = append(opts, references.WithWorkers(input.Workers))
	}

	a := references.New(opts...)
	defer a.Close()

	result, err := a.Analyze(ctx, files)
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(result, format)
}

// classInfo is the per-file row returned by list_classes.
type classInfo struct {
	File       string   `json:"file" toon:"file"`
	Class      string   `json:"class" toon:"class"`
	Super      string   `json:"super,omitempty" toon:"super,omitempty"`
	Interfaces []string `json:"interfaces,omitempty" toon:"interfaces,omitempty"`
	References int      `json:"references" toon:"references"`
}

func handleListClasses(ctx context.Context, req *mcp.CallToolRequest, input ClassesInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.AnalyzeInput)

	files, err := expandPaths(getPaths(input.AnalyzeInput))
	if err != nil {
		return toolError(err.Error())
	}

	var parseOpts []classfile.Option
	if input.StrictSignatures {
		parseOpts = append(parseOpts, classfile.WithStrictSignatures())
	}

	var classes []classInfo
	for _, path := range files {
		if len(path) < 6 || path[len(path)-6:] != ".class" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return toolError(err.Error())
		}
		f, err := classfile.Parse(data, parseOpts...)
		if err != nil {
			return toolError(path + ": " + err.Error())
		}
		classes = append(classes, classInfo{
			File:       path,
			Class:      f.ThisClass,
			Super:      f.SuperClass,
			Interfaces: f.Interfaces,
			References: len(f.References),
		})
	}
	if len(classes) == 0 {
		return toolError("no class files found")
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].File < classes[j].File })
	return toolResult(classes, format)
}

// layoutInfo is the per-file row returned by extract_layouts.
type layoutInfo struct {
	File    string   `json:"file" toon:"file"`
	Classes []string `json:"classes" toon:"classes"`
}

func handleExtractLayouts(ctx context.Context, req *mcp.CallToolRequest, input LayoutsInput) (*mcp.CallToolResult, any, error) {
	format := getFormat(input.AnalyzeInput)

	files, err := expandPaths(getPaths(input.AnalyzeInput))
	if err != nil {
		return toolError(err.Error())
	}

	var layouts []layoutInfo
	for _, path := range files {
		if len(path) < 4 || path[len(path)-4:] != ".xml" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return toolError(err.Error())
		}
		names, err := layout.Extract(data)
		if err != nil {
			// Layout errors never fail a batch; report the file with
			// no classes.
			names = nil
		}
		layouts = append(layouts, layoutInfo{File: path, Classes: names})
	}
	if len(layouts) == 0 {
		return toolError("no layout files found")
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].File < layouts[j].File })
	return toolResult(layouts, format)
}
