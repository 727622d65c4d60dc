package dispatch

import (
	"encoding/json"
	"os"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/session"
	"github.com/leengari/vaultdb/internal/vault"
	"github.com/leengari/vaultdb/internal/vaulterrors"
	"github.com/leengari/vaultdb/internal/wire"
)

func newTestContext(t *testing.T) (*vault.Context, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "vaultdb-dispatch")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	ctx, err := vault.Bootstrap(vault.Config{
		DataDirectory:     dir,
		EnableRootAccount: true,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return ctx, dir
}

func sessionFor(acct *account.Account) *session.Session {
	return &session.Session{
		Dialect:      wire.Long,
		AccountIndex: acct.InternalIndex,
		HasAccount:   true,
	}
}

func decodeResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestHandleEchoesNonce(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	root, ok := ctx.Accounts.Lookup(account.RootUsername)
	assert.Assert(t, ok)

	d := New(ctx)
	body := d.Handle(sessionFor(root), []byte(`{"op":"no_op","nonce":42}`))
	resp := decodeResponse(t, body)

	assert.Equal(t, resp["nonce"], float64(42))
	_, isError := resp["error"]
	assert.Assert(t, !isError)
}

func TestHandleRejectsMissingNonce(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	root, ok := ctx.Accounts.Lookup(account.RootUsername)
	assert.Assert(t, ok)

	d := New(ctx)
	body := d.Handle(sessionFor(root), []byte(`{"op":"no_op"}`))
	resp := decodeResponse(t, body)

	assert.Equal(t, resp["error"], float64(1))
	data, ok := resp["data"].(map[string]any)
	assert.Assert(t, ok)
	assert.Equal(t, data["code"], float64(vaulterrors.NonceInvalid))
}

func TestHandleCreateTableRequiresPrivilege(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	plain, err := ctx.Accounts.Create("plain", "pw", account.MinHierarchyIndex, 0)
	assert.NilError(t, err)

	d := New(ctx)
	body := d.Handle(sessionFor(plain), []byte(`{"op":"create_table","nonce":1,"data":{"table":"widgets","columns":[{"name":"id","kind":"long"}]}}`))
	resp := decodeResponse(t, body)

	assert.Equal(t, resp["error"], float64(1))
	data := resp["data"].(map[string]any)
	assert.Equal(t, data["code"], float64(vaulterrors.InsufficientPrivileges))
}

func TestHandleCreateThenFindRoundTrip(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	root, ok := ctx.Accounts.Lookup(account.RootUsername)
	assert.Assert(t, ok)
	sess := sessionFor(root)
	d := New(ctx)

	createBody := d.Handle(sess, []byte(`{"op":"create_table","nonce":1,"data":{"table":"widgets","columns":[{"name":"id","kind":"long"},{"name":"label","kind":"string"}]}}`))
	resp := decodeResponse(t, createBody)
	_, isError := resp["error"]
	assert.Assert(t, !isError)

	insertBody := d.Handle(sess, []byte(`{"op":"insert_record","nonce":2,"data":{"table":"widgets","columns":{"id":1,"label":"gizmo"}}}`))
	resp = decodeResponse(t, insertBody)
	_, isError = resp["error"]
	assert.Assert(t, !isError)

	findBody := d.Handle(sess, []byte(`{"op":"find_one_record","nonce":3,"data":{"table":"widgets","where":{"label":"gizmo"}}}`))
	resp = decodeResponse(t, findBody)
	data := resp["data"].(map[string]any)
	assert.Equal(t, data["found"], true)
	record := data["record"].(map[string]any)
	assert.Equal(t, record["label"], "gizmo")
}

func TestHandleTableNotFoundHidesUnviewableTable(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	root, ok := ctx.Accounts.Lookup(account.RootUsername)
	assert.Assert(t, ok)
	d := New(ctx)

	createBody := d.Handle(sessionFor(root), []byte(`{"op":"create_table","nonce":1,"data":{"table":"secret","columns":[{"name":"id","kind":"long"}]}}`))
	resp := decodeResponse(t, createBody)
	_, isError := resp["error"]
	assert.Assert(t, !isError)

	plain, err := ctx.Accounts.Create("outsider", "pw", account.MinHierarchyIndex, 0)
	assert.NilError(t, err)

	findBody := d.Handle(sessionFor(plain), []byte(`{"op":"find_one_record","nonce":2,"data":{"table":"secret","where":{}}}`))
	resp = decodeResponse(t, findBody)
	assert.Equal(t, resp["error"], float64(1))
	data := resp["data"].(map[string]any)
	assert.Equal(t, data["code"], float64(vaulterrors.TableNotFound))
}

func TestHandleUnknownOpRejected(t *testing.T) {
	ctx, dir := newTestContext(t)
	defer os.RemoveAll(dir)
	defer ctx.Shutdown()

	root, ok := ctx.Accounts.Lookup(account.RootUsername)
	assert.Assert(t, ok)

	d := New(ctx)
	body := d.Handle(sessionFor(root), []byte(`{"op":"not_a_real_op","nonce":1}`))
	resp := decodeResponse(t, body)

	assert.Equal(t, resp["error"], float64(1))
	data := resp["data"].(map[string]any)
	assert.Equal(t, data["code"], float64(vaulterrors.OpInvalid))
}
