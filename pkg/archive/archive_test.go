package archive

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestIsClassEntry(t *testing.T) {
	assert.True(t, IsClassEntry("a/B.class"))
	assert.False(t, IsClassEntry("a/B.class.bak"))
	assert.False(t, IsClassEntry("META-INF/MANIFEST.MF"))
	assert.False(t, IsClassEntry("B.java"))
}

func TestReadClassesFiltersEntries(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"a/B.class":            []byte{0xCA, 0xFE},
		"a/B.class.bak":        []byte("stale"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	entries, err := ReadClasses(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a/B.class", entries[0].Name)
	assert.Equal(t, []byte{0xCA, 0xFE}, entries[0].Data)
}

func TestReadClassesSortedByName(t *testing.T) {
	data := buildZip(t, map[string][]byte{
		"z/Last.class":  []byte{1},
		"a/First.class": []byte{2},
		"m/Mid.class":   []byte{3},
	})

	entries, err := ReadClasses(data)
	require.NoError(t, err)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"a/First.class", "m/Mid.class", "z/Last.class"}, names)
}

func TestReadClassesNotAnArchive(t *testing.T) {
	_, err := ReadClasses([]byte("definitely not a zip"))
	assert.Error(t, err)
}
