package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/go-enry/go-enry/v2"
	"github.com/reaandrew/securecodeauditor/core"
)

// sniffLimit bounds how much of an entry is read for language detection.
const sniffLimit = 16 * 1024

type Entry struct {
	Name     string
	Size     uint64
	Language string
	Vendored bool
}

// Inventory summarises what an archive holds.
type Inventory struct {
	Entries   []Entry
	Languages map[string]int
}

func (i Inventory) FileCount() int {
	return len(i.Entries)
}

// SortedLanguages orders languages by file count, then by name.
func (i Inventory) SortedLanguages() []string {
	languages := make([]string, 0, len(i.Languages))
	for language := range i.Languages {
		languages = append(languages, language)
	}
	sort.Slice(languages, func(a, b int) bool {
		if i.Languages[languages[a]] != i.Languages[languages[b]] {
			return i.Languages[languages[a]] > i.Languages[languages[b]]
		}
		return languages[a] < languages[b]
	})
	return languages
}

// Inspect lists the archive's files and detects their languages.
func Inspect(file core.SelectedFile) (Inventory, error) {
	reader, err := zip.NewReader(bytes.NewReader(file.Content), int64(len(file.Content)))
	if err != nil {
		return Inventory{}, fmt.Errorf("failed to open '%s' as a zip archive: %w", file.Name, err)
	}

	inventory := Inventory{Languages: make(map[string]int)}
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || isDirEntry(f.Name) {
			continue
		}
		content, err := sniff(f)
		if err != nil {
			return Inventory{}, fmt.Errorf("failed to read '%s': %w", f.Name, err)
		}

		entry := Entry{
			Name:     f.Name,
			Size:     f.UncompressedSize64,
			Language: enry.GetLanguage(f.Name, content),
			Vendored: enry.IsVendor(f.Name),
		}
		inventory.Entries = append(inventory.Entries, entry)
		if entry.Language != "" && !entry.Vendored {
			inventory.Languages[entry.Language]++
		}
	}
	return inventory, nil
}

func sniff(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, sniffLimit))
}
