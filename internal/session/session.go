package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ShalokShalom/acodex-server/internal/term"
)

// ErrSessionGone reports an operation against a session that does not exist
// or has begun terminating. Callers should treat it as "reconnect or create
// a new session" and close their side of any stream.
var ErrSessionGone = errors.New("session gone")

// State is the session lifecycle state. All transitions are serialized
// under the session mutex.
type State int

const (
	StateUnattached State = iota
	StateAttached
	StateTerminating
	StateTerminated
)

var stateNames = map[State]string{
	StateUnattached:  "unattached",
	StateAttached:    "attached",
	StateTerminating: "terminating",
	StateTerminated:  "terminated",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Process is the pty-backed process a session bridges. *term.Process is the
// production implementation; tests substitute a fake.
type Process interface {
	ID() int
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Output() <-chan []byte
	Kill() error
}

// Transport is the client side of an attached stream. Send delivers one
// binary-safe message; Close signals end-of-stream and is only called when
// the backing process exits. A Transport's lifecycle belongs to the network
// layer; the session never closes one it superseded.
type Transport interface {
	Send(p []byte) error
	Close() error
}

// Session couples one backing process, one screen model, an output buffer
// and at most one attached transport. While no transport is attached, raw
// output accumulates in the buffer; on attach the buffer is replayed into
// the screen exactly once and the client receives a full snapshot followed
// by live output. On detach the buffer is reset to the screen snapshot, so
// retained state stays bounded by screen size rather than raw history.
type Session struct {
	id     int
	proc   Process
	screen *term.Screen

	mu        sync.Mutex
	state     State
	buffer    []byte
	transport Transport

	startedAt time.Time
	done      chan struct{}
	onExit    func(id int)
}

func newSession(proc Process, screen *term.Screen, onExit func(id int)) *Session {
	return &Session{
		id:        proc.ID(),
		proc:      proc,
		screen:    screen,
		state:     StateUnattached,
		startedAt: time.Now(),
		done:      make(chan struct{}),
		onExit:    onExit,
	}
}

func (s *Session) ID() int { return s.id }

// Done is closed once the session has fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// pump is the stream multiplexer: the single consumer of process output.
// Attached, each chunk is committed to the screen before it is forwarded,
// so a client can never have seen bytes a later snapshot would omit.
// Unattached (and while terminating), chunks accumulate in the buffer.
// The channel closing is the exit event and finishes teardown.
func (s *Session) pump() {
	for chunk := range s.proc.Output() {
		s.mu.Lock()
		if s.state == StateAttached {
			s.screen.Write(chunk)
			if err := s.transport.Send(chunk); err != nil {
				log.Printf("session %d: transport write failed, detaching: %v", s.id, err)
				s.detachLocked()
			}
		} else {
			s.buffer = append(s.buffer, chunk...)
		}
		s.mu.Unlock()
	}
	s.exited()
}

// exited runs once the backing process is gone, for both Terminate and
// spontaneous exit. Only now is the session removed from the registry.
func (s *Session) exited() {
	s.mu.Lock()
	t := s.transport
	s.transport = nil
	s.buffer = nil
	s.screen = nil
	s.state = StateTerminated
	s.mu.Unlock()

	if t != nil {
		t.Close()
	}
	if s.onExit != nil {
		s.onExit(s.id)
	}
	close(s.done)
	log.Printf("session %d: terminated", s.id)
}

// Attach connects t as the session's single viewer. Any previously attached
// transport is superseded: it stops receiving data but is left open. The
// buffered output, if any, is replayed into the screen exactly once, and t
// receives the full screen snapshot as its first message.
func (s *Session) Attach(t Transport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminating || s.state == StateTerminated {
		return ErrSessionGone
	}

	s.transport = nil

	if len(s.buffer) > 0 {
		s.screen.Write(s.buffer)
		s.buffer = nil
	}

	if err := t.Send(s.screen.Snapshot()); err != nil {
		// The new transport is already dead; go back to buffering.
		s.buffer = s.screen.Snapshot()
		s.state = StateUnattached
		return fmt.Errorf("send snapshot: %w", err)
	}

	s.transport = t
	s.state = StateAttached
	return nil
}

// Detach stops forwarding to t and returns the session to buffering. It is
// a no-op unless t is the currently attached transport, so a superseded
// stream closing cannot detach its successor. The process keeps running.
func (s *Session) Detach(t Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAttached || s.transport != t {
		return
	}
	s.detachLocked()
}

func (s *Session) detachLocked() {
	s.buffer = s.screen.Snapshot()
	s.transport = nil
	s.state = StateUnattached
}

// Resize applies new dimensions to the process and the screen together,
// under the session mutex, so no output is ever interpreted against
// mismatched dimensions.
func (s *Session) Resize(cols, rows uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminating || s.state == StateTerminated {
		return ErrSessionGone
	}

	if err := s.proc.Resize(cols, rows); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	s.screen.Resize(int(cols), int(rows))
	return nil
}

// Inbound writes input from t to the backing process, unchanged. Input from
// a transport that is no longer the attached one is dropped.
func (s *Session) Inbound(t Transport, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminating || s.state == StateTerminated {
		return ErrSessionGone
	}
	if s.state != StateAttached || s.transport != t {
		return nil
	}

	_, err := s.proc.Write(p)
	return err
}

// Terminate kills the backing process. Idempotent: repeat calls are no-ops.
// Teardown completes asynchronously when the exit event fires; until then
// the session stays registered. An attached transport stays referenced so
// the exit leg can deliver its end-of-stream Close.
func (s *Session) Terminate() error {
	s.mu.Lock()
	if s.state == StateTerminating || s.state == StateTerminated {
		s.mu.Unlock()
		return nil
	}
	s.state = StateTerminating
	final := s.screen.Snapshot()
	s.mu.Unlock()

	log.Printf("session %d: terminating (final screen %d bytes)", s.id, len(final))
	return s.proc.Kill()
}
