// Package session implements the per-connection state machine: version
// negotiation, optional DH+AES-256-CBC cipher handshake, and the session
// options (short_attributes, error_text) that select a wire.Dialect for
// every response built afterward.
package session

import (
	"github.com/leengari/vaultdb/internal/frame"
	"github.com/leengari/vaultdb/internal/wire"
)

// State is one stage of the per-connection handshake state machine.
type State int

const (
	AwaitHandshake State = iota
	AwaitClientKey
	Ready
	Closed
)

// Version is the {major, minor} version pair exchanged during handshake.
type Version struct {
	Major uint32
	Minor uint32
}

// Options are the session options negotiated during handshake; they take
// effect immediately on the connection that negotiated them.
type Options struct {
	ShortAttributes bool
	ErrorText       bool
}

// DefaultOptions is what a session gets before the handshake's options
// object is applied: error_text defaults on, so a client must opt out of
// it explicitly rather than opt in.
func DefaultOptions() Options {
	return Options{ErrorText: true}
}

// Session is one connection's negotiated state: its framed connection,
// its current state, its options/dialect, and (once login is resolved)
// the account it is bound to.
type Session struct {
	Conn    *frame.Conn
	State   State
	Options Options
	Dialect wire.Dialect

	// AccountIndex is the account this session is bound to. Negotiate
	// leaves it unset; the server's login step (see DESIGN.md) fills it in
	// with root, when enable-root-account is set, after Negotiate has
	// returned the Ready session and before its request loop starts.
	// HasAccount reports whether that binding was made.
	AccountIndex int64
	HasAccount   bool
}

func (s *Session) applyOptions(opts Options) {
	s.Options = opts
	s.Dialect = wire.Select(opts.ShortAttributes)
}
