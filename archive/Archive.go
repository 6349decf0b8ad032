package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/reaandrew/securecodeauditor/core"
	log "github.com/sirupsen/logrus"
)

// Load reads an archive from disk. A directory is packed into a zip named after it.
func Load(path string) (core.SelectedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return core.SelectedFile{}, fmt.Errorf("error accessing '%s': %w", path, err)
	}

	if info.IsDir() {
		content, err := PackDirectory(path)
		if err != nil {
			return core.SelectedFile{}, err
		}
		absolute, err := filepath.Abs(path)
		if err != nil {
			return core.SelectedFile{}, err
		}
		return core.SelectedFile{
			Name:        filepath.Base(absolute) + ".zip",
			Content:     content,
			ContentType: core.ZipContentType,
		}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return core.SelectedFile{}, fmt.Errorf("failed to read archive '%s': %w", path, err)
	}
	return core.SelectedFile{
		Name:        filepath.Base(path),
		Content:     content,
		ContentType: core.ZipContentType,
	}, nil
}

// PackDirectory zips every regular file under root, skipping .git directories.
// Entry names are slash separated and relative to root.
func PackDirectory(root string) ([]byte, error) {
	buffer := &bytes.Buffer{}
	writer := zip.NewWriter(buffer)

	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entry, err := writer.Create(filepath.ToSlash(relative))
		if err != nil {
			return err
		}
		source, err := os.Open(path)
		if err != nil {
			return err
		}
		defer source.Close()
		if _, err := io.Copy(entry, source); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack directory '%s': %w", root, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	log.WithField("files", count).Debugf("Packed %s", root)
	return buffer.Bytes(), nil
}

func isDirEntry(name string) bool {
	return strings.HasSuffix(name, "/")
}
