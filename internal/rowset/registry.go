package rowset

import (
	"fmt"
	"sync"
)

// Registry hands out one Reconciler per (user, document) client session.
// There is no cross-session coordination; an external change is reconciled
// by full replacement on reload, which is the documented consistency
// boundary.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Reconciler
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Reconciler)}
}

func sessionKey(userID, docID uint64) string {
	return fmt.Sprintf("%d:%d", userID, docID)
}

// Get returns the session's reconciler if one exists
func (g *Registry) Get(userID, docID uint64) (*Reconciler, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.sessions[sessionKey(userID, docID)]
	return rec, ok
}

// GetOrCreate returns the session's reconciler, creating it with create()
// when absent. create runs under the registry lock.
func (g *Registry) GetOrCreate(userID, docID uint64, create func() (*Reconciler, error)) (*Reconciler, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := sessionKey(userID, docID)
	if rec, ok := g.sessions[key]; ok {
		return rec, nil
	}

	rec, err := create()
	if err != nil {
		return nil, err
	}
	g.sessions[key] = rec
	return rec, nil
}

// Drop forgets a session, e.g. after its document was deleted
func (g *Registry) Drop(userID, docID uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, sessionKey(userID, docID))
}
