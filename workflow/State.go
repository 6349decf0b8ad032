package workflow

import (
	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/core"
)

// State is one of Idle, FileSelected, Processing, Succeeded or Failed.
type State interface {
	Name() string
	isState()
}

type Idle struct{}

type FileSelected struct {
	File core.SelectedFile
}

type Processing struct {
	File core.SelectedFile
}

type Succeeded struct {
	File   core.SelectedFile
	Result core.AnalysisResult
}

// Failed keeps the file so the user can retry.
type Failed struct {
	File       core.SelectedFile
	Kind       analysis.ErrorKind
	StatusCode int
	Message    string
}

func (Idle) Name() string         { return "idle" }
func (FileSelected) Name() string { return "file_selected" }
func (Processing) Name() string   { return "processing" }
func (Succeeded) Name() string    { return "succeeded" }
func (Failed) Name() string       { return "failed" }

func (Idle) isState()         {}
func (FileSelected) isState() {}
func (Processing) isState()   {}
func (Succeeded) isState()    {}
func (Failed) isState()       {}

// SelectedFile returns the file held by s, if any.
func SelectedFile(s State) (core.SelectedFile, bool) {
	switch st := s.(type) {
	case FileSelected:
		return st.File, true
	case Processing:
		return st.File, true
	case Succeeded:
		return st.File, true
	case Failed:
		return st.File, true
	}
	return core.SelectedFile{}, false
}
