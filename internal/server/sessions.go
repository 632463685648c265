package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/Dainanahan/drugtree/internal/browser"
	"github.com/Dainanahan/drugtree/pkg/core"
)

const (
	sessionName  = "drugtree"
	sessionIDKey = "id"

	// sessionTTL is how long an idle browsing session is kept.
	sessionTTL = 24 * time.Hour
)

// session is one visitor's browsing state.
type session struct {
	browser *browser.Browser

	mu   sync.Mutex
	page int
	seen time.Time
}

func (s *session) currentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

func (s *session) setPage(n int) {
	s.mu.Lock()
	s.page = n
	s.mu.Unlock()
}

// registry maps cookie session ids to browsing sessions.
type registry struct {
	mu   sync.Mutex
	byID map[string]*session
	opts []browser.Option
	now  func() time.Time
}

func newRegistry(opts ...browser.Option) *registry {
	return &registry{
		byID: make(map[string]*session),
		opts: opts,
		now:  time.Now,
	}
}

// get returns the session for id, creating it over composed if needed.
func (r *registry) get(id string, composed *core.View) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if s, ok := r.byID[id]; ok {
		s.mu.Lock()
		s.seen = now
		s.mu.Unlock()
		return s
	}

	r.pruneLocked(now)
	s := &session{browser: browser.New(composed, r.opts...), page: 1, seen: now}
	r.byID[id] = s
	return s
}

func (r *registry) pruneLocked(now time.Time) {
	for id, s := range r.byID {
		s.mu.Lock()
		idle := now.Sub(s.seen)
		s.mu.Unlock()
		if idle > sessionTTL {
			delete(r.byID, id)
		}
	}
}

// reload swaps a new composed view into every session.
func (r *registry) reload(composed *core.View) {
	r.mu.Lock()
	all := make([]*session, 0, len(r.byID))
	for _, s := range r.byID {
		all = append(all, s)
	}
	r.mu.Unlock()

	for _, s := range all {
		s.browser.Reload(composed)
	}
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func newCookieStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.MaxAge(int(sessionTTL / time.Second))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	// The UI is served over plain HTTP on localhost; a Secure cookie would
	// never come back.
	store.Options.Secure = false
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// session resolves the request's browsing session, issuing a cookie on
// first contact. It must run before anything is written to w.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, error) {
	// A cookie that fails to decode yields a fresh session.
	sess, _ := s.sessionStore.Get(r, sessionName)

	id, _ := sess.Values[sessionIDKey].(string)
	if id == "" {
		id = uuid.NewString()
		sess.Values[sessionIDKey] = id
		if err := sess.Save(r, w); err != nil {
			return nil, err
		}
		s.logger.Debug("session started", "id", id)
	}
	return s.sessions.get(id, s.composed()), nil
}
