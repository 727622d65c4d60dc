package server

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gotest.tools/v3/assert"

	"github.com/leengari/vaultdb/internal/session"
	"github.com/leengari/vaultdb/internal/vault"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, enableRoot bool) (*Server, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "vaultdb-server")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	ctx, err := vault.Bootstrap(vault.Config{
		DataDirectory:     dir,
		EnableRootAccount: enableRoot,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return New(ctx, discardLogger()), dir
}

func TestBindLoginBindsRootWhenEnabled(t *testing.T) {
	s, dir := newTestServer(t, true)
	defer os.RemoveAll(dir)
	defer s.ctx.Shutdown()

	sess := &session.Session{}
	s.bindLogin(sess)

	assert.Assert(t, sess.HasAccount)
	root, ok := s.ctx.Accounts.Lookup("root")
	assert.Assert(t, ok)
	assert.Equal(t, sess.AccountIndex, root.InternalIndex)
}

func TestBindLoginLeavesUnauthenticatedWhenDisabled(t *testing.T) {
	s, dir := newTestServer(t, false)
	defer os.RemoveAll(dir)
	defer s.ctx.Shutdown()

	sess := &session.Session{}
	s.bindLogin(sess)

	assert.Assert(t, !sess.HasAccount)
}

func TestConnectionTableAddRemove(t *testing.T) {
	s, dir := newTestServer(t, false)
	defer os.RemoveAll(dir)
	defer s.ctx.Shutdown()

	assert.Equal(t, s.connCount(), 0)

	id := uuid.New()
	c := &connection{lastActive: time.Now(), cancel: make(chan struct{})}
	s.addConn(id, c)
	assert.Equal(t, s.connCount(), 1)

	s.removeConn(id)
	assert.Equal(t, s.connCount(), 0)
}

func TestConnectionIdleForTracksTouch(t *testing.T) {
	c := &connection{lastActive: time.Now().Add(-time.Hour), cancel: make(chan struct{})}
	assert.Assert(t, c.idleFor() >= time.Hour)

	c.touch()
	assert.Assert(t, c.idleFor() < time.Second)
}
