package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/reporters"
	log "github.com/sirupsen/logrus"
)

var (
	ErrBusy     = errors.New("an analysis is already in progress")
	ErrNoReport = errors.New("no analysis report available")
)

type Analyzer interface {
	Analyze(ctx context.Context, file core.SelectedFile) (core.AnalysisResult, error)
}

// Listener is told about every transition, after the state has changed.
type Listener func(from, to State)

type Option func(*Workflow)

func WithListener(listener Listener) Option {
	return func(w *Workflow) {
		w.listeners = append(w.listeners, listener)
	}
}

// Workflow drives one archive from selection through upload to a report.
// It is safe for concurrent use; the upload runs outside the lock and its
// outcome is dropped if the workflow was cleared or given a new file meanwhile.
type Workflow struct {
	mu         sync.Mutex
	state      State
	generation uint64
	analyzer   Analyzer
	listeners  []Listener
}

func New(analyzer Analyzer, opts ...Option) *Workflow {
	w := &Workflow{state: Idle{}, analyzer: analyzer}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// transition must be called with mu held.
func (w *Workflow) transition(to State) State {
	from := w.state
	w.state = to
	w.generation++
	return from
}

func (w *Workflow) notify(from, to State) {
	entry := log.WithFields(log.Fields{"from": from.Name(), "to": to.Name()})
	if failed, ok := to.(Failed); ok {
		entry.WithFields(log.Fields{"kind": failed.Kind.String(), "status": failed.StatusCode}).Warn(failed.Message)
	} else {
		entry.Info("Workflow transition")
	}
	for _, listener := range w.listeners {
		listener(from, to)
	}
}

// SelectFile holds file in the single slot, replacing any previous file and
// discarding any result or error.
func (w *Workflow) SelectFile(file core.SelectedFile) {
	to := FileSelected{File: file}
	w.mu.Lock()
	from := w.transition(to)
	w.mu.Unlock()
	w.notify(from, to)
}

// Clear returns to Idle from any state.
func (w *Workflow) Clear() {
	to := Idle{}
	w.mu.Lock()
	from := w.transition(to)
	w.mu.Unlock()
	w.notify(from, to)
}

// Process uploads the held file and blocks until the analysis finishes. Without a
// file it does nothing. While another upload is in flight it returns ErrBusy.
// The returned state is the workflow's state once Process is done.
func (w *Workflow) Process(ctx context.Context) (State, error) {
	w.mu.Lock()
	if current, busy := w.state.(Processing); busy {
		w.mu.Unlock()
		return current, ErrBusy
	}
	file, ok := SelectedFile(w.state)
	if !ok {
		current := w.state
		w.mu.Unlock()
		return current, nil
	}
	processing := Processing{File: file}
	from := w.transition(processing)
	generation := w.generation
	w.mu.Unlock()
	w.notify(from, processing)

	result, err := w.analyzer.Analyze(ctx, file)

	var next State
	if err != nil {
		next = failedState(file, err)
	} else {
		next = Succeeded{File: file, Result: result}
	}

	w.mu.Lock()
	if w.generation != generation {
		current := w.state
		w.mu.Unlock()
		log.WithField("archive", file.Name).Info("Discarding analysis outcome for superseded selection")
		return current, nil
	}
	from = w.transition(next)
	w.mu.Unlock()
	w.notify(from, next)
	return next, nil
}

func failedState(file core.SelectedFile, err error) Failed {
	var analysisErr *analysis.Error
	if errors.As(err, &analysisErr) {
		return Failed{
			File:       file,
			Kind:       analysisErr.Kind,
			StatusCode: analysisErr.StatusCode,
			Message:    analysisErr.Message,
		}
	}
	log.Errorf("Error processing file: %v", err)
	return Failed{File: file, Kind: analysis.KindUnclassified, Message: analysis.MessageFailed}
}

// Report returns the stored result with its archive name when the workflow succeeded.
func (w *Workflow) Report() (core.Report, bool) {
	succeeded, ok := w.State().(Succeeded)
	if !ok {
		return core.Report{}, false
	}
	return core.Report{ArchiveName: succeeded.File.Name, Result: succeeded.Result}, true
}

// DownloadReport hands the JSON report to storage. It needs a successful analysis;
// otherwise nothing is produced and ErrNoReport is returned.
func (w *Workflow) DownloadReport(storage core.ReportStorage) (string, error) {
	report, ok := w.Report()
	if !ok {
		return "", ErrNoReport
	}
	data, err := reporters.MarshalResult(report.Result)
	if err != nil {
		return "", err
	}
	return storage.Store(reporters.ReportFileName(report.ArchiveName, "json"), data)
}
