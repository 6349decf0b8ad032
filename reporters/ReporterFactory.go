package reporters

import (
	"fmt"
	"io"

	"github.com/reaandrew/securecodeauditor/core"
)

var Formats = []string{"json", "xlsx", "table", "http"}

// ReporterOptions carries what the individual reporters need; unused fields are ignored.
type ReporterOptions struct {
	Storage core.ReportStorage
	Writer  io.Writer
	BaseURL string
}

func CreateReporter(reportFormat string, options ReporterOptions) (Reporter, error) {
	switch reportFormat {
	case "json":
		return JsonReporter{Storage: options.Storage}, nil
	case "xlsx":
		return XlsxReporter{Storage: options.Storage}, nil
	case "table":
		return TableReporter{Writer: options.Writer}, nil
	case "http":
		if options.BaseURL == "" {
			return nil, fmt.Errorf("http report format needs a base url")
		}
		return NewDefaultHttpReporter(options.BaseURL), nil
	}

	return nil, fmt.Errorf("unknown report format: %s", reportFormat)
}
