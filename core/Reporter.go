package core

// Report is what reporters receive: the stored result and the archive it came from.
type Report struct {
	ArchiveName string
	Result      AnalysisResult
}

type Reporter interface {
	Report(report Report) error
}

// ReportStorage persists a rendered report under a file name and returns where it went.
type ReportStorage interface {
	Store(name string, data []byte) (string, error)
}
