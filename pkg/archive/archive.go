// Package archive enumerates class-file entries inside a packed archive
// (jar, aar classes.jar, plain zip).
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

const classExtension = ".class"

// Entry is one class-file entry read fully into memory.
type Entry struct {
	Name string
	Data []byte
}

// IsClassEntry reports whether an archive entry name has the class-file
// extension. Anything else (manifests, resources, backup copies) is
// ignored by analysis, never an error.
func IsClassEntry(name string) bool {
	return strings.HasSuffix(name, classExtension)
}

// ReadClasses opens an in-memory archive and returns its class entries in
// name order. Non-class entries are skipped.
func ReadClasses(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	var entries []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsClassEntry(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read archive entry %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: content})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
