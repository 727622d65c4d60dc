// Package vault is the composition root: it owns the account store, the
// open-tables map, and the server-wide configuration that every
// connection worker consults through a single *Context, rather than
// package-level global maps, each behind its own mutex and passed
// explicitly to every operation.
package vault

import (
	"sync"
	"time"

	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/session"
	"github.com/leengari/vaultdb/internal/table"
)

// Config is the server's startup configuration, assembled by cmd/vaultd
// from CLI flags.
type Config struct {
	Port              int
	DataDirectory     string
	MaxConnections    int // 0 = unbounded
	ForceEncrypt      bool
	EnableRootAccount bool
}

// Context is the single owner of all shared mutable server state: the
// account store and the open-tables map, each behind its own mutex, plus
// a process-wide lock serializing table open/close.
type Context struct {
	Config Config

	Accounts *account.Store

	tableOpenMu sync.Mutex
	tablesMu    sync.RWMutex
	tables      map[string]*table.Table
}

// HandshakePolicy derives the session package's negotiation policy from
// the server configuration.
func (c *Context) HandshakePolicy() session.Policy {
	return session.Policy{
		ServerVersion:       Version,
		ForceEncrypt:        c.Config.ForceEncrypt,
		OutdatedServerSleep: 2 * time.Second,
	}
}

// Version is this build's protocol version, echoed during handshake.
var Version = session.Version{Major: 1, Minor: 0}

func newContext(cfg Config, accounts *account.Store) *Context {
	return &Context{
		Config:   cfg,
		Accounts: accounts,
		tables:   make(map[string]*table.Table),
	}
}
