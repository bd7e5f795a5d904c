// Package fileproc provides concurrent fan-out over analysis inputs.
//
// Decoding one input never depends on another, so inputs are mapped on a
// bounded worker pool and results collected for a single-threaded
// reduction by the caller. Result order is arbitrary; any ordering
// guarantee belongs to the reduction step.
package fileproc

import (
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Unit is one named in-memory input: a class file's bytes, an archive
// entry, a layout document. The name only identifies the input in errors
// and reports.
type Unit struct {
	Name string
	Data []byte
}

// DefaultWorkerMultiplier scales NumCPU into the default worker count.
// Decoding is CPU-bound but callers interleave file reads, so a small
// oversubscription keeps the pool busy.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each unit is processed.
type ProgressFunc func()

// ErrorFunc receives the failing unit's name and error. A nil ErrorFunc
// drops errors silently.
type ErrorFunc func(name string, err error)

// MapUnits processes units in parallel with default worker count and no
// callbacks. Failed units are skipped.
func MapUnits[T any](units []Unit, fn func(Unit) (T, error)) []T {
	return MapUnitsN(units, 0, fn, nil, nil)
}

// MapUnitsN processes units with a configurable worker count, optional
// progress ticks, and an optional error callback. maxWorkers <= 0 selects
// the default.
func MapUnitsN[T any](units []Unit, maxWorkers int, fn func(Unit) (T, error), onProgress ProgressFunc, onError ErrorFunc) []T {
	if len(units) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}

	results := make([]T, 0, len(units))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for _, unit := range units {
		p.Go(func() {
			result, err := fn(unit)
			if onProgress != nil {
				defer onProgress()
			}
			if err != nil {
				if onError != nil {
					onError(unit.Name, err)
				}
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()
	return results
}

// MapPaths processes file paths in parallel; fn is responsible for any
// reading. Used where inputs are not pre-loaded into memory.
func MapPaths[T any](paths []string, fn func(string) (T, error)) []T {
	return MapPathsN(paths, 0, fn, nil, nil)
}

// MapPathsN is MapUnitsN over bare paths.
func MapPathsN[T any](paths []string, maxWorkers int, fn func(string) (T, error), onProgress ProgressFunc, onError ErrorFunc) []T {
	units := make([]Unit, len(paths))
	for i, p := range paths {
		units[i] = Unit{Name: p}
	}
	return MapUnitsN(units, maxWorkers, func(u Unit) (T, error) {
		return fn(u.Name)
	}, onProgress, onError)
}
