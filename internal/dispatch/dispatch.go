// Package dispatch implements the per-request pipeline: decode a query
// object, authorize it against the account store, invoke the table
// store/executor, and format the response through the session's wire
// dialect.
package dispatch

import (
	"github.com/leengari/vaultdb/internal/account"
	"github.com/leengari/vaultdb/internal/session"
	"github.com/leengari/vaultdb/internal/vault"
	"github.com/leengari/vaultdb/internal/vaulterrors"
	"github.com/leengari/vaultdb/internal/wire"
)

// Dispatcher binds the shared server context to the per-request handling
// pipeline. One Dispatcher is shared by every connection worker.
type Dispatcher struct {
	Ctx *vault.Context
}

// New builds a Dispatcher over ctx.
func New(ctx *vault.Context) *Dispatcher {
	return &Dispatcher{Ctx: ctx}
}

// Handle decodes, authorizes, executes, and formats one request. It
// never returns an error: every failure is rendered into a wire-format
// error response using sess's dialect.
func (d *Dispatcher) Handle(sess *session.Session, payload []byte) []byte {
	req, err := wire.DecodeRequest(payload)
	if err != nil {
		return d.errorBytes(sess, nil, vaulterrors.Wrap(vaulterrors.JSONInvalid))
	}

	if req.Nonce == nil {
		return d.errorBytes(sess, nil, vaulterrors.Wrap(vaulterrors.NonceInvalid))
	}
	nonce := *req.Nonce

	if req.Op == "" || !req.Op.Valid() {
		return d.errorBytes(sess, &nonce, vaulterrors.Wrap(vaulterrors.OpInvalid))
	}

	acct, ok := d.account(sess)
	if !ok {
		return d.errorBytes(sess, &nonce, vaulterrors.Wrap(vaulterrors.InvalidAccountCredentials))
	}

	data, err := dispatchOp(d.Ctx, acct, req.Op, req.Data)
	if err != nil {
		werr, ok := vaulterrors.As(err)
		if !ok {
			werr = vaulterrors.New(vaulterrors.Internal, "%v", err)
		}
		return d.errorBytes(sess, &nonce, werr)
	}

	body, err := wire.Success(sess.Dialect, nonce, data)
	if err != nil {
		return d.errorBytes(sess, &nonce, vaulterrors.New(vaulterrors.Internal, "encode response: %v", err))
	}
	return body
}

func (d *Dispatcher) account(sess *session.Session) (*account.Account, bool) {
	if !sess.HasAccount {
		return nil, false
	}
	return d.Ctx.Accounts.ByIndex(sess.AccountIndex)
}

func (d *Dispatcher) errorBytes(sess *session.Session, nonce *uint64, werr *vaulterrors.Error) []byte {
	body, err := wire.ErrorResponse(sess.Dialect, nonce, werr, sess.Options.ErrorText)
	if err != nil {
		// Formatting the error itself failed; fall back to the
		// unencoded long-form handshake error shape, which never fails
		// to marshal a plain code.
		body, _ = wire.HandshakeError(werr, false)
	}
	return body
}
