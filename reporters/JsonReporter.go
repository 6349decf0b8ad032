package reporters

import (
	"fmt"

	"github.com/reaandrew/securecodeauditor/core"
	log "github.com/sirupsen/logrus"
)

// JsonReporter writes the downloadable JSON report through Storage.
type JsonReporter struct {
	Storage core.ReportStorage
}

func (j JsonReporter) Report(report core.Report) error {
	data, err := MarshalResult(report.Result)
	if err != nil {
		return err
	}

	path, err := j.Storage.Store(ReportFileName(report.ArchiveName, "json"), data)
	if err != nil {
		return fmt.Errorf("failed to store JSON report: %w", err)
	}

	log.Printf("JSON report generated successfully: %s", path)
	return nil
}
