package utils

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter shows that a long running step is under way.
type ProgressReporter interface {
	Start()
	Stop()
}

// SpinnerProgressReporter renders an indeterminate spinner, since the analysis
// service gives no progress information.
type SpinnerProgressReporter struct {
	description string
	writer      io.Writer
	bar         *progressbar.ProgressBar
}

func NewSpinnerProgressReporter(description string) *SpinnerProgressReporter {
	return &SpinnerProgressReporter{description: description, writer: os.Stderr}
}

func (p *SpinnerProgressReporter) Start() {
	if p.bar != nil {
		return
	}
	p.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionSetDescription(p.description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100e6),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	go p.spin(p.bar)
}

func (p *SpinnerProgressReporter) spin(bar *progressbar.ProgressBar) {
	for !bar.IsFinished() {
		_ = bar.Add(1)
		time.Sleep(100 * time.Millisecond)
	}
}

func (p *SpinnerProgressReporter) Stop() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// NoopProgressReporter is used when progress output is switched off.
type NoopProgressReporter struct{}

func (NoopProgressReporter) Start() {}
func (NoopProgressReporter) Stop()  {}
