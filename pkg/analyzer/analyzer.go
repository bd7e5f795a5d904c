// Package analyzer defines the contract shared by refscan's analyzers.
package analyzer

import "context"

// FileAnalyzer is implemented by analyzers that process collections of
// input files identified by path. The context carries cancellation; an
// analyzer abandons in-flight work without side effects when it fires.
type FileAnalyzer[T any] interface {
	// Analyze processes the inputs and returns the analysis result.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
