// Package server implements the TCP accept loop, per-connection worker,
// and keepalive sweeper: one goroutine per connection, a bounded
// connection table keyed by a random id, and a 60-second keepalive tick
// that closes connections idle past 110s and beats connections idle past
// 60s. It is the network front door for internal/dispatch.
package server

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/vaultdb/internal/dispatch"
	"github.com/leengari/vaultdb/internal/session"
	"github.com/leengari/vaultdb/internal/vault"
	"github.com/leengari/vaultdb/internal/vaulterrors"
	"github.com/leengari/vaultdb/internal/wire"
)

const (
	keepaliveTick   = 60 * time.Second
	keepaliveAfter  = 60 * time.Second
	disconnectAfter = 110 * time.Second
)

// connection is one accepted, handshaked client, tracked so the
// keepalive sweeper can beat or evict it.
type connection struct {
	sess       *session.Session
	cancel     chan struct{}
	lastActive time.Time
	mu         sync.Mutex
}

func (c *connection) touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

func (c *connection) idleFor() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.lastActive)
}

// Server owns the listener and the live connection table.
type Server struct {
	ctx        *vault.Context
	dispatcher *dispatch.Dispatcher
	log        *slog.Logger

	mu    sync.Mutex
	conns map[uuid.UUID]*connection
}

// New builds a Server bound to ctx, ready to Run on a listener.
func New(ctx *vault.Context, log *slog.Logger) *Server {
	return &Server{
		ctx:        ctx,
		dispatcher: dispatch.New(ctx),
		log:        log,
		conns:      make(map[uuid.UUID]*connection),
	}
}

// Run binds a TCP listener on ctx.Config.Port, starts the keepalive
// sweeper, and accepts connections until the listener is closed.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.ctx.Config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", addr, err)
	}
	defer listener.Close()

	s.log.Info("vaultd listening", "port", s.ctx.Config.Port)
	go s.sweepKeepalives()

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.log.Error("accept failed", "error", err)
			return err
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(raw net.Conn) {
	defer raw.Close()

	if s.ctx.Config.MaxConnections > 0 && s.connCount() >= s.ctx.Config.MaxConnections {
		werr := vaulterrors.Wrap(vaulterrors.TooManyConnections)
		if body, err := wire.HandshakeError(werr, true); err == nil {
			raw.Write(body)
		}
		return
	}

	sess, err := session.Negotiate(raw, s.ctx.HandshakePolicy())
	if err != nil {
		s.log.Debug("handshake failed", "remote", raw.RemoteAddr(), "error", err)
		return
	}
	s.bindLogin(sess)

	id := uuid.New()
	c := &connection{sess: sess, cancel: make(chan struct{}), lastActive: time.Now()}
	s.addConn(id, c)
	defer s.removeConn(id)

	s.log.Info("session ready", "remote", raw.RemoteAddr(), "conn", id)
	s.serve(sess, c)
}

// serve runs the frame-decode -> dispatch -> frame-encode loop for one
// ready session until the peer disconnects or the sweeper cancels it.
func (s *Server) serve(sess *session.Session, c *connection) {
	for {
		select {
		case <-c.cancel:
			return
		default:
		}

		frm, err := sess.Conn.ReadFrame()
		if err != nil {
			return
		}
		c.touch()
		if frm.Keepalive {
			continue
		}

		resp := s.dispatcher.Handle(sess, frm.Payload)
		if err := sess.Conn.WriteFrame(resp); err != nil {
			return
		}
	}
}

// bindLogin implements the placeholder login: once
// enable-root-account is set, every successfully handshaked session
// authenticates implicitly as root. There is no wire-level login op
// among the closed operation set, so when enable-root-account is not set
// the session stays unauthenticated and every dispatched op fails
// credential resolution.
func (s *Server) bindLogin(sess *session.Session) {
	if !s.ctx.Config.EnableRootAccount {
		return
	}
	root, ok := s.ctx.Accounts.Lookup("root")
	if !ok {
		return
	}
	sess.AccountIndex = root.InternalIndex
	sess.HasAccount = true
}

func (s *Server) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) addConn(id uuid.UUID, c *connection) {
	s.mu.Lock()
	s.conns[id] = c
	s.mu.Unlock()
}

func (s *Server) removeConn(id uuid.UUID) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

// sweepKeepalives ticks every 60s, beating connections idle past 60s and
// cancelling (closing) connections idle past 110s.
func (s *Server) sweepKeepalives() {
	ticker := time.NewTicker(keepaliveTick)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		snapshot := make(map[uuid.UUID]*connection, len(s.conns))
		for id, c := range s.conns {
			snapshot[id] = c
		}
		s.mu.Unlock()

		for id, c := range snapshot {
			idle := c.idleFor()
			switch {
			case idle > disconnectAfter:
				s.log.Debug("evicting idle connection", "conn", id, "idle", idle)
				close(c.cancel)
				c.sess.Conn.Close()
			case idle > keepaliveAfter:
				if err := c.sess.Conn.WriteKeepalive(); err != nil {
					close(c.cancel)
					c.sess.Conn.Close()
				}
			}
		}
	}
}
