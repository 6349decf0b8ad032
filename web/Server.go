package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/reaandrew/securecodeauditor/analysis"
	"github.com/reaandrew/securecodeauditor/archive"
	"github.com/reaandrew/securecodeauditor/core"
	"github.com/reaandrew/securecodeauditor/workflow"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	statusTimeout   = 3 * time.Second
	maxFormMemory   = 32 << 20
	MessageNoUpload = "Select a .zip archive to upload."
)

// Backend is the remote analysis service as seen by the web UI.
type Backend interface {
	workflow.Analyzer
	Status(ctx context.Context) error
}

type Options struct {
	AllowedOrigins []string
	SessionTTL     time.Duration
}

type Server struct {
	backend   Backend
	sessions  *SessionStore
	policy    archive.AcceptPolicy
	templates *template.Template
	origins   []string
}

func NewServer(backend Backend, options Options) *Server {
	ttl := options.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Server{
		backend: backend,
		sessions: NewSessionStore(ttl, func(id string) *workflow.Workflow {
			return workflow.New(backend)
		}),
		policy:    archive.ZipPolicy(),
		templates: template.Must(template.ParseFS(templatesFS, "templates/*.html")),
		origins:   options.AllowedOrigins,
	}
}

func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(LoggingMiddleware)
	if len(s.origins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}))
	}

	mux.Get("/health", s.handleHealth)
	mux.Get("/", s.handleHome)
	mux.Route("/analyze", func(rt chi.Router) {
		rt.Get("/", s.handleAnalyzePage)
		rt.Post("/file", s.handleSelectFile)
		rt.Post("/process", s.handleProcess)
		rt.Post("/clear", s.handleClear)
		rt.Get("/report", s.handleDownload)
	})
	mux.Get("/api/state", s.handleState)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type homePage struct {
	Online bool
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	online := s.backend.Status(ctx) == nil
	s.render(w, http.StatusOK, "home.html", homePage{Online: online})
}

type fileResult struct {
	Name     string
	Findings []core.Finding
}

type analyzePage struct {
	State       string
	FileName    string
	HasFile     bool
	Processing  bool
	Error       string
	UploadError string
	Succeeded   bool
	Results     []fileResult
}

func newAnalyzePage(state workflow.State) analyzePage {
	page := analyzePage{State: state.Name()}
	if file, ok := workflow.SelectedFile(state); ok {
		page.HasFile = true
		page.FileName = file.Name
	}
	switch st := state.(type) {
	case workflow.Processing:
		page.Processing = true
	case workflow.Failed:
		page.Error = st.Message
	case workflow.Succeeded:
		page.Succeeded = true
		for _, name := range st.Result.FileNames() {
			page.Results = append(page.Results, fileResult{Name: name, Findings: st.Result[name]})
		}
	}
	return page
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)
	s.render(w, http.StatusOK, "analyze.html", newAnalyzePage(session.Workflow.State()))
}

func (s *Server) handleSelectFile(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.renderUploadError(w, session, http.StatusBadRequest, MessageNoUpload)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[analysis.UploadField]
	if len(headers) == 0 {
		s.renderUploadError(w, session, http.StatusBadRequest, MessageNoUpload)
		return
	}

	candidates := make([]archive.Candidate, len(headers))
	for i, header := range headers {
		candidates[i] = archive.Candidate{Name: header.Filename, ContentType: header.Header.Get("Content-Type")}
	}
	index, err := s.policy.Pick(candidates)
	if err != nil {
		s.renderUploadError(w, session, http.StatusUnsupportedMediaType, analysis.MessageUnsupported)
		return
	}

	header := headers[index]
	upload, err := header.Open()
	if err != nil {
		s.renderUploadError(w, session, http.StatusBadRequest, MessageNoUpload)
		return
	}
	defer upload.Close()
	content, err := io.ReadAll(upload)
	if err != nil {
		s.renderUploadError(w, session, http.StatusBadRequest, MessageNoUpload)
		return
	}

	session.Workflow.SelectFile(core.SelectedFile{
		Name:        header.Filename,
		Content:     content,
		ContentType: header.Header.Get("Content-Type"),
	})
	http.Redirect(w, r, "/analyze", http.StatusSeeOther)
}

func (s *Server) renderUploadError(w http.ResponseWriter, session *Session, status int, message string) {
	page := newAnalyzePage(session.Workflow.State())
	page.UploadError = message
	s.render(w, status, "analyze.html", page)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)

	// the upload runs to completion even if the browser goes away
	state, err := session.Workflow.Process(context.WithoutCancel(r.Context()))
	if errors.Is(err, workflow.ErrBusy) {
		s.render(w, http.StatusConflict, "analyze.html", newAnalyzePage(state))
		return
	}
	http.Redirect(w, r, "/analyze", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)
	session.Workflow.Clear()
	http.Redirect(w, r, "/analyze", http.StatusSeeOther)
}

// attachmentStorage streams a report straight to the browser as a download.
type attachmentStorage struct {
	w http.ResponseWriter
}

func (a attachmentStorage) Store(name string, data []byte) (string, error) {
	a.w.Header().Set("Content-Type", "application/json")
	a.w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	a.w.WriteHeader(http.StatusOK)
	if _, err := a.w.Write(data); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)

	name, err := session.Workflow.DownloadReport(attachmentStorage{w: w})
	if errors.Is(err, workflow.ErrNoReport) {
		http.Error(w, "no report available", http.StatusNotFound)
		return
	}
	if err != nil {
		log.WithField("session", session.ID).Errorf("Error writing report: %v", err)
		return
	}
	log.WithField("session", session.ID).Infof("Report downloaded: %s", name)
}

type stateResponse struct {
	State   string              `json:"state"`
	File    string              `json:"file,omitempty"`
	Error   string              `json:"error,omitempty"`
	Kind    string              `json:"kind,omitempty"`
	Results core.AnalysisResult `json:"results,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.Lookup(w, r)
	state := session.Workflow.State()

	response := stateResponse{State: state.Name()}
	if file, ok := workflow.SelectedFile(state); ok {
		response.File = file.Name
	}
	switch st := state.(type) {
	case workflow.Failed:
		response.Error = st.Message
		response.Kind = st.Kind.String()
	case workflow.Succeeded:
		response.Results = st.Result
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Errorf("Error rendering %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Error encoding response: %v", err)
	}
}
