// Package netsrv implements the per-session transport: each connected
// client gets a byte-oriented cmd/state ring carried over a websocket
// connection, drained round-robin by a bounded worker pool between world
// ticks. Grounded on the teacher's connection-pool shape
// (core/connection_pool.go's keyed, mutex-guarded registry of live
// connections with a background reaper) generalized from a dial-pool to a
// server-side session registry.
package netsrv

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"legion/internal/protocol"
)

// Session is one connected client: its socket, its outbound rate limit,
// and the ack state the protocol layer diffs state frames against.
type Session struct {
	ID     protocol.StreamID
	conn   *websocket.Conn
	limit  *rate.Limiter
	Ack    *protocol.Ack

	mu     sync.Mutex
	closed bool
}

// newSession wraps conn with a limiter allowing framesPerSecond state
// frames per second (burst capped at 4 frames, matching the teacher's own rate
// limiter construction pattern in virtual_machine.go).
func newSession(conn *websocket.Conn, framesPerSecond float64) *Session {
	id := protocol.NewStreamID()
	return &Session{
		ID:    id,
		conn:  conn,
		limit: rate.NewLimiter(rate.Limit(framesPerSecond), 4),
		Ack:   protocol.NewAck(id),
	}
}

// SendState pushes an encoded state frame to the client, honoring the
// session's rate limit. Callers that get ErrRateLimited should drop the
// frame rather than block — state is inherently coalescable, a future
// delta will catch the client up.
var ErrRateLimited = context.DeadlineExceeded

func (s *Session) SendState(ctx context.Context, frame []byte) error {
	if !s.limit.Allow() {
		return ErrRateLimited
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// ReadCmd blocks for the session's next inbound command frame.
func (s *Session) ReadCmd() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	return data, err
}

// Close marks the session closed and closes its socket.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// Server owns every live session and the bounded worker pool used to
// drain them between ticks.
type Server struct {
	mu       sync.Mutex
	sessions map[protocol.StreamID]*Session

	framesPerSecond float64
	maxConcurrency  int
}

// NewServer constructs a session registry. maxConcurrency bounds how many
// sessions are drained in parallel by DrainAll (sourcegraph/conc's pool,
// the same bounded-fan-out library the teacher's go.mod already commits
// to).
func NewServer(framesPerSecond float64, maxConcurrency int) *Server {
	return &Server{
		sessions:        make(map[protocol.StreamID]*Session),
		framesPerSecond: framesPerSecond,
		maxConcurrency:  maxConcurrency,
	}
}

// Accept registers a freshly upgraded websocket connection as a new
// session.
func (s *Server) Accept(conn *websocket.Conn) *Session {
	sess := newSession(conn, s.framesPerSecond)
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Remove drops a session from the registry and closes its socket.
func (s *Server) Remove(id protocol.StreamID) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Count returns the number of currently registered sessions.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// DrainAll runs fn concurrently for every registered session, bounded by
// maxConcurrency in-flight at once, and waits for all of them to finish —
// this is the between-ticks fan-out that pushes each session's state
// delta without one slow client stalling the others.
func (s *Server) DrainAll(ctx context.Context, fn func(ctx context.Context, sess *Session) error) []error {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	p := pool.NewWithResults[error]().WithMaxGoroutines(s.maxConcurrency)
	for _, sess := range sessions {
		sess := sess
		p.Go(func() error {
			return fn(ctx, sess)
		})
	}
	return p.Wait()
}

// TickInterval is how often the world steps; DrainAll is expected to be
// called once per tick from the server's main loop.
const TickInterval = 100 * time.Millisecond


