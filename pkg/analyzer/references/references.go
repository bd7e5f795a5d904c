// Package references aggregates class references across compiled class
// files, archives, layout descriptors, and generated-stub exclusions into
// one deterministic report.
//
// Decoding is embarrassingly parallel: every input is decoded on a worker
// pool with no shared mutable state, workers return value results, and a
// single-threaded reduction performs the set algebra and the one explicit
// sort that establishes report order. The same byte content always
// produces a byte-identical report, whatever the worker count.
package references

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/zeebo/blake3"

	"github.com/refscan/refscan/internal/fileproc"
	"github.com/refscan/refscan/pkg/analyzer"
	"github.com/refscan/refscan/pkg/archive"
	"github.com/refscan/refscan/pkg/classfile"
	"github.com/refscan/refscan/pkg/layout"
	"github.com/refscan/refscan/pkg/stubs"
)

// Cache stores per-class-file decode results keyed by content hash.
// Implemented by internal/cache; nil disables caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte) error
}

// Analyzer computes reference reports. Safe for concurrent use; all
// per-batch state lives in the Analyze call.
type Analyzer struct {
	workers          int
	failFast         bool
	strictSignatures bool
	cache            Cache
	exclusions       []string
	onProgress       fileproc.ProgressFunc
}

// Compile-time check that Analyzer implements FileAnalyzer.
var _ analyzer.FileAnalyzer[*Analysis] = (*Analyzer)(nil)

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the decode worker count. n <= 0 keeps the default.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithFailFast makes the first malformed class file fail the whole batch.
// The default records the failure and reports over the surviving inputs.
// Layout parse failures never abort class-file analysis either way.
func WithFailFast() Option {
	return func(a *Analyzer) { a.failFast = true }
}

// WithStrictSignatures escalates malformed generic-signature attributes
// to whole-file failures instead of recorded warnings.
func WithStrictSignatures() Option {
	return func(a *Analyzer) { a.strictSignatures = true }
}

// WithCache attaches a decode-result cache.
func WithCache(c Cache) Option {
	return func(a *Analyzer) { a.cache = c }
}

// WithExclusions adds pre-resolved class names to the exclusion set, on
// top of whatever stub sources contribute.
func WithExclusions(names []string) Option {
	return func(a *Analyzer) { a.exclusions = append(a.exclusions, names...) }
}

// WithProgress installs a per-input progress callback.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(a *Analyzer) { a.onProgress = fn }
}

// New creates a reference analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases resources. The analyzer holds none; it exists to satisfy
// the shared analyzer contract.
func (a *Analyzer) Close() {}

// Inputs groups the already-read buffers for one batch. The engine does
// no file I/O of its own.
type Inputs struct {
	Classes  []fileproc.Unit // loose class-file buffers
	Archives []fileproc.Unit // packed archives, expanded to class entries
	Layouts  []fileproc.Unit // layout descriptor text
	Stubs    []fileproc.Unit // generated stub sources
}

// Analyze reads the given files and analyzes them, classifying each by
// extension: .class, archives (.jar/.zip), layout .xml, stub .java.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Analysis, error) {
	var in Inputs
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		unit := fileproc.Unit{Name: path, Data: data}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".class":
			in.Classes = append(in.Classes, unit)
		case ".jar", ".zip":
			in.Archives = append(in.Archives, unit)
		case ".xml":
			in.Layouts = append(in.Layouts, unit)
		case ".java":
			in.Stubs = append(in.Stubs, unit)
		}
	}
	return a.AnalyzeInputs(ctx, in)
}

// fileResult is one worker's value result; workers share nothing else.
type fileResult struct {
	name     string
	class    string
	refs     []string
	warnings []string
}

type layoutResult struct {
	name string
	refs []string
}

// AnalyzeInputs computes the report from in-memory buffers.
func (a *Analyzer) AnalyzeInputs(ctx context.Context, in Inputs) (*Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analysis := &Analysis{}
	var errs fileproc.ProcessingErrors

	units, archiveEntries, err := a.expandArchives(in, &errs)
	if err != nil {
		return nil, err
	}
	analysis.Summary.ClassFiles = len(units)
	analysis.Summary.ArchiveEntries = archiveEntries
	analysis.Summary.Layouts = len(in.Layouts)

	excluded, err := a.exclusionSet(in.Stubs)
	if err != nil {
		return nil, err
	}
	analysis.Summary.ExcludedTypes = len(excluded)

	results := fileproc.MapUnitsN(units, a.workers, a.decodeClass, a.onProgress, errs.Add)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.failFast && errs.HasErrors() {
		return nil, errs.All()[0]
	}

	// Layout failures are non-fatal by contract: they are recorded and
	// class-file analysis proceeds.
	var layoutErrs fileproc.ProcessingErrors
	layoutResults := fileproc.MapUnitsN(in.Layouts, a.workers, func(u fileproc.Unit) (layoutResult, error) {
		refs, err := layout.Extract(u.Data)
		if err != nil {
			return layoutResult{}, err
		}
		return layoutResult{name: u.Name, refs: refs}, nil
	}, a.onProgress, layoutErrs.Add)

	a.reduce(analysis, results, layoutResults, excluded)

	for _, pe := range append(errs.All(), layoutErrs.All()...) {
		analysis.Errors = append(analysis.Errors, InputError{Name: pe.Name, Error: pe.Err.Error()})
	}
	sort.Slice(analysis.Errors, func(i, j int) bool { return analysis.Errors[i].Name < analysis.Errors[j].Name })

	return analysis, nil
}

// expandArchives flattens archive inputs into per-entry class units.
// Only entries with the class-file extension are selected; everything
// else in the archive is ignored.
func (a *Analyzer) expandArchives(in Inputs, errs *fileproc.ProcessingErrors) ([]fileproc.Unit, int, error) {
	units := make([]fileproc.Unit, 0, len(in.Classes))
	units = append(units, in.Classes...)
	entryCount := 0
	for _, ar := range in.Archives {
		entries, err := archive.ReadClasses(ar.Data)
		if err != nil {
			if a.failFast {
				return nil, 0, fileproc.ProcessingError{Name: ar.Name, Err: err}
			}
			errs.Add(ar.Name, err)
			continue
		}
		for _, e := range entries {
			units = append(units, fileproc.Unit{
				Name: ar.Name + "!" + e.Name,
				Data: e.Data,
			})
			entryCount++
		}
	}
	return units, entryCount, nil
}

// exclusionSet folds configured exclusions and stub-declared types.
// Stub parsing is serial: batches carry few stubs and the parser is not
// goroutine-safe.
func (a *Analyzer) exclusionSet(stubUnits []fileproc.Unit) (map[string]struct{}, error) {
	excluded := make(map[string]struct{}, len(a.exclusions))
	for _, n := range a.exclusions {
		excluded[n] = struct{}{}
	}
	if len(stubUnits) == 0 {
		return excluded, nil
	}
	rec := stubs.New()
	defer rec.Close()
	for _, u := range stubUnits {
		names, err := rec.DeclaredTypes(u.Data)
		if err != nil {
			return nil, fmt.Errorf("stub source %s: %w", u.Name, err)
		}
		for _, n := range names {
			excluded[n] = struct{}{}
		}
	}
	return excluded, nil
}

// cachedDecode is the cache wire format for one class file's result.
type cachedDecode struct {
	Class    string   `json:"class"`
	Refs     []string `json:"refs"`
	Warnings []string `json:"warnings,omitempty"`
}

func (a *Analyzer) decodeClass(u fileproc.Unit) (fileResult, error) {
	var key string
	if a.cache != nil {
		sum := blake3.Sum256(u.Data)
		key = hex.EncodeToString(sum[:])
		if data, ok := a.cache.Get(key); ok {
			var entry cachedDecode
			if err := json.Unmarshal(data, &entry); err == nil {
				return fileResult{name: u.Name, class: entry.Class, refs: entry.Refs, warnings: entry.Warnings}, nil
			}
		}
	}

	var opts []classfile.Option
	if a.strictSignatures {
		opts = append(opts, classfile.WithStrictSignatures())
	}
	f, err := classfile.Parse(u.Data, opts...)
	if err != nil {
		return fileResult{}, err
	}
	res := fileResult{name: u.Name, class: f.ThisClass, refs: f.References}
	for _, issue := range f.SignatureIssues {
		res.warnings = append(res.warnings, fmt.Sprintf("%s: %v", u.Name, issue))
	}

	if a.cache != nil {
		if data, err := json.Marshal(cachedDecode{Class: res.class, Refs: res.refs, Warnings: res.warnings}); err == nil {
			_ = a.cache.Set(key, data)
		}
	}
	return res, nil
}

// reduce is the single-threaded fan-in: set algebra over interned name
// bitmaps, then the one explicit sort that fixes report order.
func (a *Analyzer) reduce(analysis *Analysis, results []fileResult, layouts []layoutResult, excluded map[string]struct{}) {
	in := newInterner()
	aggregate := roaring.New()
	perFileCounts := make([]float64, 0, len(results))

	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })
	for _, res := range results {
		bm := in.bitmap(res.refs)
		bm.Remove(in.id(res.class)) // a file's reference to itself is trivial
		aggregate.Or(bm)
		perFileCounts = append(perFileCounts, float64(bm.GetCardinality()))
		analysis.Files = append(analysis.Files, FileResult{
			Name:       res.name,
			Class:      res.class,
			References: int(bm.GetCardinality()),
		})
		analysis.Warnings = append(analysis.Warnings, res.warnings...)
	}

	sort.Slice(layouts, func(i, j int) bool { return layouts[i].name < layouts[j].name })
	for _, lr := range layouts {
		aggregate.Or(in.bitmap(lr.refs))
	}

	exclusionNames := make([]string, 0, len(excluded))
	for n := range excluded {
		exclusionNames = append(exclusionNames, n)
	}
	aggregate.AndNot(in.bitmap(exclusionNames))

	analysis.Report = in.sorted(aggregate)
	sort.Strings(analysis.Warnings)
	summarize(&analysis.Summary, analysis.Report, perFileCounts)
}
