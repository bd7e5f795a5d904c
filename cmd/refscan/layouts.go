package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/refscan/refscan/internal/output"
	"github.com/refscan/refscan/pkg/layout"
	"github.com/urfave/cli/v2"
)

func layoutsCmd() *cli.Command {
	return &cli.Command{
		Name:      "layouts",
		Usage:     "Extract class names referenced by XML layout descriptors",
		ArgsUsage: "[path...]",
		Action:    runLayoutsCmd,
	}
}

// layoutRow is the serializable per-layout record.
type layoutRow struct {
	File    string   `json:"file" toon:"file"`
	Classes []string `json:"classes" toon:"classes"`
	Error   string   `json:"error,omitempty" toon:"error,omitempty"`
}

func runLayoutsCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanInputs(cfg, getPaths(c))
	if err != nil {
		return err
	}

	var layouts []layoutRow
	for _, path := range files {
		if !strings.HasSuffix(path, ".xml") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		row := layoutRow{File: path}
		names, err := layout.Extract(data)
		if err != nil {
			// Layout decode problems are per-file, never batch failures.
			row.Error = err.Error()
		} else {
			row.Classes = names
		}
		layouts = append(layouts, row)
	}

	if len(layouts) == 0 {
		color.Yellow("No layout files found")
		return nil
	}
	sort.Slice(layouts, func(i, j int) bool { return layouts[i].File < layouts[j].File })

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(layouts))
	total := 0
	for _, l := range layouts {
		detail := strings.Join(l.Classes, ", ")
		if l.Error != "" {
			detail = "error: " + l.Error
		}
		total += len(l.Classes)
		rows = append(rows, []string{l.File, detail})
	}
	return formatter.Output(output.NewTable(
		"Layout references",
		[]string{"File", "Classes"},
		rows,
		[]string{fmt.Sprintf("Files: %d", len(layouts)), fmt.Sprintf("Classes: %d", total)},
		layouts,
	))
}
