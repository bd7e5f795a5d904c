// Package testutil provides shared helpers for refscan tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// ClassFile assembles a minimal synthetic class file declaring thisName
// extending superName, with one reference field per refDesc (a field
// descriptor such as "Lcom/example/Dep;").
func ClassFile(thisName, superName string, refDescs ...string) []byte {
	var pool bytes.Buffer
	next := uint16(1)

	u2 := func(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
	utf8 := func(s string) uint16 {
		pool.WriteByte(1) // CONSTANT_Utf8
		pool.Write(u2(uint16(len(s))))
		pool.WriteString(s)
		idx := next
		next++
		return idx
	}
	class := func(name string) uint16 {
		nameIdx := utf8(name)
		pool.WriteByte(7) // CONSTANT_Class
		pool.Write(u2(nameIdx))
		idx := next
		next++
		return idx
	}

	thisIdx := class(thisName)
	superIdx := class(superName)
	type field struct{ name, desc uint16 }
	fields := make([]field, len(refDescs))
	for i, desc := range refDescs {
		fields[i] = field{name: utf8("f"), desc: utf8(desc)}
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(0xCAFEBABE))
	buf.Write(u2(0))  // minor
	buf.Write(u2(52)) // major
	buf.Write(u2(next))
	buf.Write(pool.Bytes())
	buf.Write(u2(0x0021)) // access flags
	buf.Write(u2(thisIdx))
	buf.Write(u2(superIdx))
	buf.Write(u2(0)) // interfaces
	buf.Write(u2(uint16(len(fields))))
	for _, f := range fields {
		buf.Write(u2(0x0002))
		buf.Write(u2(f.name))
		buf.Write(u2(f.desc))
		buf.Write(u2(0)) // attributes
	}
	buf.Write(u2(0)) // methods
	buf.Write(u2(0)) // class attributes
	return buf.Bytes()
}

// Jar packs named entries into an in-memory zip archive.
func Jar(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create jar entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write jar entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close jar: %v", err)
	}
	return buf.Bytes()
}
