package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reaandrew/securecodeauditor/workflow"
	log "github.com/sirupsen/logrus"
)

const SessionCookie = "sca_session"

// Session is one browser's workflow. Sessions only live in memory.
type Session struct {
	ID       string
	Workflow *workflow.Workflow
	lastSeen time.Time
}

type SessionStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	newWorkflow func(id string) *workflow.Workflow
	now         func() time.Time
}

func NewSessionStore(ttl time.Duration, newWorkflow func(id string) *workflow.Workflow) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		newWorkflow: newWorkflow,
		now:         time.Now,
	}
}

// Lookup returns the caller's session, starting a new one when the cookie is
// missing, unknown or expired.
func (s *SessionStore) Lookup(w http.ResponseWriter, r *http.Request) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if session, ok := s.sessions[cookie.Value]; ok && !s.expired(session, now) {
			session.lastSeen = now
			return session
		}
	}

	s.sweep(now)
	id := uuid.New().String()
	session := &Session{ID: id, Workflow: s.newWorkflow(id), lastSeen: now}
	s.sessions[id] = session

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.WithField("session", id).Debug("Started session")
	return session
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) expired(session *Session, now time.Time) bool {
	return now.Sub(session.lastSeen) > s.ttl
}

// sweep drops expired sessions, keeping any with an upload still in flight.
func (s *SessionStore) sweep(now time.Time) {
	for id, session := range s.sessions {
		if !s.expired(session, now) {
			continue
		}
		if _, busy := session.Workflow.State().(workflow.Processing); busy {
			continue
		}
		delete(s.sessions, id)
	}
}
