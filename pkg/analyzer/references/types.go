package references

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat"
)

// Analysis is the full reference-extraction result for one batch.
type Analysis struct {
	// Report is the final artifact: every externally-visible class name,
	// canonical, deduplicated, lexicographically sorted. It is a pure
	// function of the batch inputs.
	Report []string `json:"report" toon:"report"`

	// Files is the per-input breakdown, sorted by input name.
	Files []FileResult `json:"files,omitempty" toon:"files,omitempty"`

	Summary Summary `json:"summary" toon:"summary"`

	// Errors lists inputs skipped under the skip-on-error policy. Empty
	// when the batch ran fail-fast (the batch error carries the failure).
	Errors []InputError `json:"errors,omitempty" toon:"errors,omitempty"`

	// Warnings carries attribute-granular issues (malformed generic
	// signatures dropped under the lenient policy).
	Warnings []string `json:"warnings,omitempty" toon:"warnings,omitempty"`
}

// FileResult describes one decoded class file.
type FileResult struct {
	// Name identifies the input: a path, or archive!entry for packed input.
	Name string `json:"name" toon:"name"`
	// Class is the type the file defines.
	Class string `json:"class" toon:"class"`
	// References counts the distinct class names the file mentions,
	// excluding itself.
	References int `json:"references" toon:"references"`
}

// InputError records one skipped input.
type InputError struct {
	Name  string `json:"name" toon:"name"`
	Error string `json:"error" toon:"error"`
}

// Summary aggregates batch-level statistics.
type Summary struct {
	ClassFiles     int `json:"class_files" toon:"class_files"`
	ArchiveEntries int `json:"archive_entries" toon:"archive_entries"`
	Layouts        int `json:"layouts" toon:"layouts"`
	ExcludedTypes  int `json:"excluded_types" toon:"excluded_types"`
	TotalRefs      int `json:"total_refs" toon:"total_refs"`

	// Distribution of per-file reference counts.
	MeanRefs   float64 `json:"mean_refs" toon:"mean_refs"`
	StdDevRefs float64 `json:"stddev_refs" toon:"stddev_refs"`

	// Fingerprint is a stable content hash of the report, useful for
	// asserting determinism across runs and cache validation downstream.
	Fingerprint string `json:"fingerprint" toon:"fingerprint"`
}

// summarize fills the derived summary fields from the final report and
// the per-file counts.
func summarize(s *Summary, report []string, perFileCounts []float64) {
	s.TotalRefs = len(report)
	if len(perFileCounts) > 0 {
		s.MeanRefs = stat.Mean(perFileCounts, nil)
		if len(perFileCounts) > 1 {
			s.StdDevRefs = stat.StdDev(perFileCounts, nil)
		}
	}
	s.Fingerprint = fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(report, "\n")))
}
