package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/refscan/refscan/internal/output"
	"github.com/refscan/refscan/pkg/archive"
	"github.com/refscan/refscan/pkg/classfile"
	"github.com/urfave/cli/v2"
)

func classesCmd() *cli.Command {
	return &cli.Command{
		Name:      "classes",
		Usage:     "List the classes declared by compiled artifacts",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "strict-signatures",
				Usage: "Treat malformed generic signatures as file failures",
			},
		},
		Action: runClassesCmd,
	}
}

// classRow is the serializable per-class record.
type classRow struct {
	File       string   `json:"file" toon:"file"`
	Class      string   `json:"class" toon:"class"`
	Version    string   `json:"version" toon:"version"`
	Super      string   `json:"super,omitempty" toon:"super,omitempty"`
	Interfaces []string `json:"interfaces,omitempty" toon:"interfaces,omitempty"`
	References int      `json:"references" toon:"references"`
}

func runClassesCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := scanInputs(cfg, getPaths(c))
	if err != nil {
		return err
	}

	var parseOpts []classfile.Option
	if c.Bool("strict-signatures") || cfg.Analysis.StrictSignatures {
		parseOpts = append(parseOpts, classfile.WithStrictSignatures())
	}

	var classes []classRow
	for _, path := range files {
		switch {
		case strings.HasSuffix(path, ".class"):
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			row, err := parseClassRow(path, data, parseOpts)
			if err != nil {
				return err
			}
			classes = append(classes, row)
		case cfg.IsArchive(path):
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			entries, err := archive.ReadClasses(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, entry := range entries {
				row, err := parseClassRow(path+"!"+entry.Name, entry.Data, parseOpts)
				if err != nil {
					return err
				}
				classes = append(classes, row)
			}
		}
	}

	if len(classes) == 0 {
		color.Yellow("No class files found")
		return nil
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].File < classes[j].File })

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(classes))
	for _, cl := range classes {
		rows = append(rows, []string{cl.File, cl.Class, cl.Version, cl.Super, fmt.Sprintf("%d", cl.References)})
	}
	return formatter.Output(output.NewTable(
		"Classes",
		[]string{"File", "Class", "Version", "Super", "Refs"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(classes)), "", "", "", ""},
		classes,
	))
}

func parseClassRow(name string, data []byte, opts []classfile.Option) (classRow, error) {
	f, err := classfile.Parse(data, opts...)
	if err != nil {
		return classRow{}, fmt.Errorf("%s: %w", name, err)
	}
	return classRow{
		File:       name,
		Class:      f.ThisClass,
		Version:    fmt.Sprintf("%d.%d", f.MajorVersion, f.MinorVersion),
		Super:      f.SuperClass,
		Interfaces: f.Interfaces,
		References: len(f.References),
	}, nil
}
