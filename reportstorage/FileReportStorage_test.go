package reportstorage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreWritesReportIntoOutputDir(t *testing.T) {
	dir := t.TempDir()
	storage, err := CreateFileReportStorage(filepath.Join(dir, "reports"))
	require.NoError(t, err)

	path, err := storage.Store("security-report-code.zip.json", []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "reports", "security-report-code.zip.json"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestStoreKeepsReportInsideOutputDir(t *testing.T) {
	dir := t.TempDir()
	storage := FileReportStorage{OutputDir: dir}

	path, err := storage.Store("../../security-report-x.json", []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "security-report-x.json"), path)
}

func TestMemoryReportStorage(t *testing.T) {
	storage := NewMemoryReportStorage()
	data := []byte("report")

	name, err := storage.Store("a.json", data)
	require.NoError(t, err)
	data[0] = 'X'

	stored, ok := storage.Get(name)
	assert.True(t, ok)
	assert.Equal(t, "report", string(stored))
	assert.Equal(t, 1, storage.Len())
}
