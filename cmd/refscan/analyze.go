package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/refscan/refscan/internal/output"
	"github.com/refscan/refscan/internal/progress"
	"github.com/refscan/refscan/pkg/analyzer/references"
	"github.com/urfave/cli/v2"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"refs"},
		Usage:     "Extract every external class referenced by compiled artifacts",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-fast",
				Usage: "Abort the batch on the first malformed class file",
			},
			&cli.BoolFlag{
				Name:  "strict-signatures",
				Usage: "Treat malformed generic signatures as file failures",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Decode worker count (default: derived from CPU count)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Fully qualified class name to remove from the report (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "no-jars",
				Usage: "Skip packed archives",
			},
			&cli.BoolFlag{
				Name:  "no-layouts",
				Usage: "Skip XML layout descriptors",
			},
			&cli.BoolFlag{
				Name:  "no-stubs",
				Usage: "Skip generated stub reconciliation",
			},
		},
		Action: runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("no-jars") {
		cfg.Analysis.Archives = false
	}
	if c.Bool("no-layouts") {
		cfg.Analysis.Layouts = false
	}
	if c.Bool("no-stubs") {
		cfg.Analysis.Stubs = false
	}

	spinner := progress.NewSpinner("Scanning...")
	files, err := scanInputs(cfg, getPaths(c))
	if err != nil {
		spinner.FinishError(err)
		return err
	}
	spinner.FinishSuccess()
	if len(files) == 0 {
		color.Yellow("No analyzable files found")
		return nil
	}

	store, err := openCache(c, cfg)
	if err != nil {
		return err
	}

	tracker := progress.NewTracker("Decoding...", len(files))
	opts := []references.Option{
		references.WithCache(store),
		references.WithProgress(tracker.Tick),
	}
	if c.Bool("fail-fast") || cfg.Analysis.FailFast {
		opts = append(opts, references.WithFailFast())
	}
	if c.Bool("strict-signatures") || cfg.Analysis.StrictSignatures {
		opts = append(opts, references.WithStrictSignatures())
	}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, references.WithWorkers(workers))
	} else if cfg.Analysis.Workers > 0 {
		opts = append(opts, references.WithWorkers(cfg.Analysis.Workers))
	}
	if excluded := c.StringSlice("exclude"); len(excluded) > 0 {
		opts = append(opts, references.WithExclusions(excluded))
	}

	a := references.New(opts...)
	defer a.Close()

	analysis, err := a.Analyze(c.Context, files)
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("analysis failed: %w", err)
	}
	if len(analysis.Errors) > 0 {
		tracker.FinishSkipped(len(analysis.Errors))
	} else {
		tracker.FinishSuccess()
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(buildAnalysisReport(analysis, c.Bool("verbose")))
}

// buildAnalysisReport shapes the analysis for rendering. Text and
// markdown get sections and tables; JSON and TOON serialize the raw
// analysis carried in Data.
func buildAnalysisReport(analysis *references.Analysis, verbose bool) *output.Report {
	report := &output.Report{
		Title: "Class References",
		Data:  analysis,
	}

	rows := make([][]string, 0, len(analysis.Report))
	for _, name := range analysis.Report {
		rows = append(rows, []string{name})
	}
	report.Sections = append(report.Sections, output.NewTable(
		"", []string{"Class"}, rows,
		[]string{fmt.Sprintf("Total: %d", len(analysis.Report))},
		analysis,
	))

	s := analysis.Summary
	report.Sections = append(report.Sections, &output.Section{
		Title: "Summary",
		Content: fmt.Sprintf(
			"class files: %d\narchive entries: %d\nlayouts: %d\nexcluded types: %d\nrefs per file: %.1f ± %.1f\nfingerprint: %s",
			s.ClassFiles, s.ArchiveEntries, s.Layouts, s.ExcludedTypes, s.MeanRefs, s.StdDevRefs, s.Fingerprint),
	})

	if verbose && len(analysis.Files) > 0 {
		fileRows := make([][]string, 0, len(analysis.Files))
		for _, f := range analysis.Files {
			fileRows = append(fileRows, []string{f.Name, f.Class, fmt.Sprintf("%d", f.References)})
		}
		report.Sections = append(report.Sections, output.NewTable(
			"Files", []string{"Input", "Class", "Refs"}, fileRows, nil, analysis.Files,
		))
	}

	if len(analysis.Warnings) > 0 {
		content := ""
		for _, w := range analysis.Warnings {
			content += w + "\n"
		}
		report.Sections = append(report.Sections, &output.Section{
			Title:   fmt.Sprintf("Warnings (%d)", len(analysis.Warnings)),
			Content: content,
		})
	}

	if len(analysis.Errors) > 0 {
		errRows := make([][]string, 0, len(analysis.Errors))
		for _, e := range analysis.Errors {
			errRows = append(errRows, []string{e.Name, e.Error})
		}
		report.Sections = append(report.Sections, output.NewTable(
			fmt.Sprintf("Skipped inputs (%d)", len(analysis.Errors)),
			[]string{"Input", "Error"}, errRows, nil, analysis.Errors,
		))
	}

	return report
}
