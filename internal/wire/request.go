package wire

import (
	"github.com/goccy/go-json"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// Request is the decoded, but not yet validated, shape of a post-handshake
// query: {op, nonce, data}. Requests are always accepted in long form
// regardless of the session's dialect; only responses adapt to it.
type Request struct {
	Nonce *uint64
	Op    Op
	Data  map[string]any
}

// rawRequest mirrors Request's JSON shape for decoding with loose typing,
// so a missing or ill-typed field yields a zero value (nil nonce, empty
// op, empty data) rather than a decode failure. The two cases are not
// told apart.
type rawRequest struct {
	Nonce any `json:"nonce"`
	Op    any `json:"op"`
	Data  any `json:"data"`
}

// DecodeRequest parses a post-handshake JSON payload. It intentionally
// does not itself decide nonce_invalid vs params_invalid beyond distinct
// zero-value returns — that policy lives in internal/dispatch, which is
// the single place wire errors are assembled.
func DecodeRequest(payload []byte) (Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Request{}, vaulterrors.Wrap(vaulterrors.JSONInvalid)
	}

	req := Request{}

	if n, ok := asUint64(raw.Nonce); ok {
		req.Nonce = &n
	}

	if s, ok := raw.Op.(string); ok {
		req.Op = Op(s)
	}

	if m, ok := raw.Data.(map[string]any); ok {
		req.Data = m
	} else {
		req.Data = map[string]any{}
	}

	return req, nil
}

// asUint64 narrows a decoded JSON number (float64 via encoding/json
// semantics, also honored by goccy/go-json for interface{} targets) to a
// non-negative uint64, rejecting anything else including negative or
// fractional values.
func asUint64(v any) (uint64, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0, false
	}
	if f != float64(uint64(f)) {
		return 0, false
	}
	return uint64(f), true
}
