package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/ShalokShalom/acodex-server/internal/config"
	"github.com/ShalokShalom/acodex-server/internal/term"
)

// spawnFunc creates the backing process for a new session.
type spawnFunc func(cols, rows uint16) (Process, error)

// Registry is the process-wide mapping from session identifier to live
// session. Identifiers come from the backing process PID space; an entry is
// removed only after its process has confirmed exit, so no two live
// sessions can share an identifier.
type Registry struct {
	cfg   *config.Config
	spawn spawnFunc

	mu       sync.RWMutex
	sessions map[int]*Session
}

func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{
		cfg: cfg,
		spawn: func(cols, rows uint16) (Process, error) {
			return term.SpawnShell(cfg, cols, rows)
		},
		sessions: make(map[int]*Session),
	}
}

// Create spawns a shell sized to cols x rows (falling back to the
// configured defaults) and registers a session for it. On spawn failure
// nothing is registered.
func (r *Registry) Create(cols, rows uint16) (*Session, error) {
	if cols == 0 {
		cols = uint16(r.cfg.Terminal.DefaultCols)
	}
	if rows == 0 {
		rows = uint16(r.cfg.Terminal.DefaultRows)
	}

	proc, err := r.spawn(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("spawn session: %w", err)
	}

	s := newSession(proc, term.NewScreen(int(cols), int(rows)), r.Remove)

	r.mu.Lock()
	r.sessions[s.id] = s
	r.mu.Unlock()

	// Start the pump only once the session is registered, so an instantly
	// exiting process still goes through the normal removal path.
	go s.pump()

	log.Printf("session %d: created (%dx%d)", s.id, cols, rows)
	return s, nil
}

func (r *Registry) Get(id int) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove drops the entry for id. Called by the session itself once its
// process has exited; safe to call for ids that are already gone.
func (r *Registry) Remove(id int) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns a point-in-time description of every live session.
func (r *Registry) List() []Info {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	return infos
}

// TerminateAll kills every live session; used at shutdown.
func (r *Registry) TerminateAll() {
	for _, info := range r.List() {
		if s, ok := r.Get(info.ID); ok {
			s.Terminate()
		}
	}
}
