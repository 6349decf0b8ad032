package reportstorage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileReportStorage writes reports into OutputDir, which defaults to the working directory.
type FileReportStorage struct {
	OutputDir string
}

func CreateFileReportStorage(outputDir string) (FileReportStorage, error) {
	if outputDir == "" {
		return FileReportStorage{OutputDir: "."}, nil
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return FileReportStorage{}, fmt.Errorf("failed to create output directory '%s': %w", outputDir, err)
	}
	return FileReportStorage{OutputDir: outputDir}, nil
}

func (s *FileReportStorage) setDefaultOutputDir() {
	if s.OutputDir == "" {
		s.OutputDir = "."
	}
}

// Store writes data under name. Only the base of name is used so a report never
// escapes OutputDir.
func (s FileReportStorage) Store(name string, data []byte) (string, error) {
	s.setDefaultOutputDir()

	outputFilePath := filepath.Join(s.OutputDir, filepath.Base(name))
	outputFile, err := os.Create(outputFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer outputFile.Close()

	if _, err = outputFile.Write(data); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return outputFilePath, nil
}
