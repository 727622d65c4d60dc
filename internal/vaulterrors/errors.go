// Package vaulterrors defines the closed set of wire error codes the
// dispatcher converts every handler failure into. Each code has a typed
// Go error so callers deep in the engine can return a normal error value
// and the dispatcher remains the single place that knows about wire codes.
package vaulterrors

import "fmt"

// Code is the wire error code. Its numeric value is its position in the
// closed, ordered enum from the wire protocol.
type Code uint32

const (
	JSONInvalid Code = iota
	PacketSizeExceeded
	OverflowProtectionTriggered
	Internal
	ParamsInvalid
	HandshakeConfigJSONInvalid
	OutdatedClientVersion
	OutdatedServerVersion
	InvalidQuery
	TableNotFound
	OpInvalid
	OpNotFound
	DataInvalid
	NonceInvalid
	TableConflict
	TableAlreadyOpen
	TableNotOpen
	InsufficientMemory
	InvalidAccountCredentials
	TooManyConnections
	TrafficEncryptionMandatory
	AccountUsernameInUse
	NameReserved
	ValueReserved
	UsernameNotFound
	InsufficientPrivileges
	TooManyColumns
)

var names = [...]string{
	"json_invalid",
	"packet_size_exceeded",
	"overflow_protection_triggered",
	"internal",
	"params_invalid",
	"handshake_config_json_invalid",
	"outdated_client_version",
	"outdated_server_version",
	"invalid_query",
	"table_not_found",
	"op_invalid",
	"op_not_found",
	"data_invalid",
	"nonce_invalid",
	"table_conflict",
	"table_already_open",
	"table_not_open",
	"insufficient_memory",
	"invalid_account_credentials",
	"too_many_connections",
	"traffic_encryption_mandatory",
	"account_username_in_use",
	"name_reserved",
	"value_reserved",
	"username_not_found",
	"insufficient_privileges",
	"too_many_columns",
}

// String returns the wire name for the code, e.g. "table_not_found".
func (c Code) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Error is a typed engine error carrying a wire Code and optional
// human-readable text. It is the "explicit result sum" that replaces
// goto-chain error propagation: handlers return *Error and the
// dispatcher is the single place that turns it into a wire response.
type Error struct {
	Code Code
	Text string
}

func (e *Error) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Text)
	}
	return e.Code.String()
}

// New builds an *Error with the given code and formatted text.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Text: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error with a code and no text beyond the code name.
func Wrap(code Code) *Error {
	return &Error{Code: code}
}

// As reports whether err is a *Error and returns it.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}
