// Package wire defines the JSON request/response shapes exchanged after
// the handshake, and the per-session field-name dialect (long vs short
// attribute names) the session's "short_attributes" option selects
// between.
package wire

// Dialect maps the logical response fields onto their wire names. This
// replaces duplicating the response-builder code per dialect: every
// response is built once against the logical field names and rendered
// through a Dialect.
type Dialect struct {
	Nonce string
	Error string
	Data  string
	Code  string
	Text  string
}

// Long is the default, fully-spelled-out dialect.
var Long = Dialect{
	Nonce: "nonce",
	Error: "error",
	Data:  "data",
	Code:  "code",
	Text:  "text",
}

// Short is the single-letter dialect selected by short_attributes=true.
var Short = Dialect{
	Nonce: "n",
	Error: "e",
	Data:  "d",
	Code:  "c",
	Text:  "t",
}

// Select returns Short if short is true, else Long.
func Select(short bool) Dialect {
	if short {
		return Short
	}
	return Long
}
