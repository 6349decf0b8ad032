package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/reaandrew/securecodeauditor/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func entryNames(t *testing.T, content []byte) []string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestPackDirectorySkipsGitDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/main.py":  "print('hi')\n",
		"README.md":    "# demo\n",
		".git/HEAD":    "ref: refs/heads/main\n",
		".git/config":  "[core]\n",
		"lib/.git/odd": "nested\n",
	})

	content, err := PackDirectory(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "app/main.py"}, entryNames(t, content))
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "code.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o644))

	file, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, core.SelectedFile{Name: "code.zip", Content: []byte("PK\x03\x04"), ContentType: "application/zip"}, file)
}

func TestLoadDirectoryPacksIt(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	writeFiles(t, root, map[string]string{"main.go": "package main\n"})

	file, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, "project.zip", file.Name)
	assert.Equal(t, []string{"main.go"}, entryNames(t, file.Content))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"app/main.py":               "import os\nprint(os.getcwd())\n",
		"app/util.py":               "def f():\n    return 1\n",
		"web/index.js":              "console.log('hi');\n",
		"node_modules/lib/index.js": "module.exports = {};\n",
	})
	content, err := PackDirectory(root)
	require.NoError(t, err)

	inventory, err := Inspect(core.SelectedFile{Name: "code.zip", Content: content})

	require.NoError(t, err)
	assert.Equal(t, 4, inventory.FileCount())
	assert.Equal(t, 2, inventory.Languages["Python"])
	assert.Equal(t, 1, inventory.Languages["JavaScript"])
	assert.Equal(t, []string{"Python", "JavaScript"}, inventory.SortedLanguages())
}

func TestInspectRejectsNonZip(t *testing.T) {
	_, err := Inspect(core.SelectedFile{Name: "code.zip", Content: []byte("not a zip")})
	assert.Error(t, err)
}
