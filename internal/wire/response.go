package wire

import (
	"github.com/goccy/go-json"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// Success builds the wire bytes for {nonce, data?} under the given dialect.
func Success(d Dialect, nonce uint64, data any) ([]byte, error) {
	obj := map[string]any{d.Nonce: nonce}
	if data != nil {
		obj[d.Data] = data
	}
	return json.Marshal(obj)
}

// ErrorResponse builds the wire bytes for {nonce?, error:1, data:{code,
// text?}} under the given dialect. nonce is nil when the failure happened
// before a nonce could be read (e.g. nonce_invalid itself). includeText
// controls whether the human-readable text field is emitted, per the
// session's error_text option.
func ErrorResponse(d Dialect, nonce *uint64, err *vaulterrors.Error, includeText bool) ([]byte, error) {
	errData := map[string]any{d.Code: uint32(err.Code)}
	if includeText && err.Text != "" {
		errData[d.Text] = err.Text
	}

	obj := map[string]any{
		d.Error: 1,
		d.Data:  errData,
	}
	if nonce != nil {
		obj[d.Nonce] = *nonce
	}
	return json.Marshal(obj)
}

// HandshakeError builds a handshake-stage error, which always uses the
// long-form dialect regardless of any options the client attempted to
// negotiate: no session exists yet to carry a short-attributes choice.
func HandshakeError(err *vaulterrors.Error, includeText bool) ([]byte, error) {
	return ErrorResponse(Long, nil, err, includeText)
}
