package server

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
)

// sessionStore keeps submitted query data per browser session, keyed by the
// bookmark hash. Entries live for the lifetime of the process; hosts needing
// durable storage can front the component with their own proxy handling.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]url.Values
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]map[string]url.Values)}
}

func (s *sessionStore) put(sessionID, queryHash string, values url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	queries, ok := s.sessions[sessionID]
	if !ok {
		queries = make(map[string]url.Values)
		s.sessions[sessionID] = queries
	}
	queries[queryHash] = cloneValues(values)
}

func (s *sessionStore) get(sessionID, queryHash string) (url.Values, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queries, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	values, ok := queries[queryHash]
	if !ok {
		return nil, false
	}
	return cloneValues(values), true
}

func cloneValues(values url.Values) url.Values {
	cloned := make(url.Values, len(values))
	for key, items := range values {
		cloned[key] = append([]string(nil), items...)
	}
	return cloned
}

// ensureSession returns the request's session id, minting a cookie when the
// browser does not carry one yet.
func ensureSession(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
