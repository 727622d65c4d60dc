package session

import (
	"encoding/base64"
	"net"
	"time"

	"github.com/goccy/go-json"

	vaultcrypto "github.com/leengari/vaultdb/internal/crypto"
	"github.com/leengari/vaultdb/internal/frame"
	"github.com/leengari/vaultdb/internal/vaulterrors"
	"github.com/leengari/vaultdb/internal/wire"
)

// maxHandshakeMessage bounds the single, un-framed reads used during the
// handshake (at most 1000 bytes, one read). A length-prefixed handshake
// frame would be more robust across slow networks, but this
// implementation deliberately keeps the bounded single read so a bare
// client write answered by a bare server reply, with no framing
// involved, stays a valid handshake — see DESIGN.md.
const maxHandshakeMessage = 1000

const cipherAlgorithm = "diffie-hellman-aes256-cbc"

// Policy is the server-wide handshake configuration.
type Policy struct {
	ServerVersion Version
	ForceEncrypt  bool
	// OutdatedServerSleep is the rate-limiting delay applied before
	// closing a connection whose client is newer than this server.
	OutdatedServerSleep time.Duration
}

type handshakeRequest struct {
	Version *struct {
		Major *uint32 `json:"major"`
		Minor *uint32 `json:"minor"`
	} `json:"version"`
	Cipher *struct {
		Algorithm string `json:"algorithm"`
	} `json:"cipher"`
	Options *struct {
		ShortAttributes *bool `json:"short_attributes"`
		ErrorText       *bool `json:"error_text"`
	} `json:"options"`
}

type cipherBlock struct {
	PublicKey string `json:"public_key"`
	Prime     string `json:"prime"`
	Generator int    `json:"generator"`
	InitialIV string `json:"initial_iv"`
}

type handshakeReply struct {
	Version Version      `json:"version"`
	Cipher  *cipherBlock `json:"cipher,omitempty"`
}

type clientKeyMessage struct {
	PublicKey string `json:"public_key"`
}

// Negotiate runs the handshake state machine over raw (a freshly
// accepted socket), returning a Ready session or an error after already
// having written the appropriate error reply and/or closed-worthy delay.
func Negotiate(raw net.Conn, policy Policy) (*Session, error) {
	req, err := readHandshakeMessage(raw)
	if err != nil {
		writeHandshakeError(raw, vaulterrors.Wrap(vaulterrors.HandshakeConfigJSONInvalid))
		return nil, err
	}

	parsed, herr := parseHandshakeRequest(req)
	if herr != nil {
		writeHandshakeError(raw, herr)
		return nil, herr
	}

	if parsed.clientVersion.Major > policy.ServerVersion.Major {
		werr := vaulterrors.Wrap(vaulterrors.OutdatedServerVersion)
		writeHandshakeError(raw, werr)
		time.Sleep(policy.OutdatedServerSleep)
		return nil, werr
	}
	if parsed.clientVersion.Major < policy.ServerVersion.Major {
		werr := vaulterrors.Wrap(vaulterrors.OutdatedClientVersion)
		writeHandshakeError(raw, werr)
		return nil, werr
	}

	if policy.ForceEncrypt && !parsed.cipherRequested {
		werr := vaulterrors.Wrap(vaulterrors.TrafficEncryptionMandatory)
		writeHandshakeError(raw, werr)
		return nil, werr
	}

	sess := &Session{State: AwaitHandshake}
	sess.applyOptions(parsed.options)

	var cipherState *frame.CipherState
	if parsed.cipherRequested {
		cs, err := negotiateCipher(raw, policy.ServerVersion)
		if err != nil {
			writeHandshakeError(raw, vaulterrors.New(vaulterrors.Internal, "cipher negotiation: %v", err))
			return nil, err
		}
		cipherState = cs
	} else {
		replyBytes, err := json.Marshal(handshakeReply{Version: policy.ServerVersion})
		if err != nil {
			return nil, err
		}
		if _, err := raw.Write(replyBytes); err != nil {
			return nil, err
		}
	}

	sess.Conn = frame.New(raw, cipherState)
	sess.State = Ready
	return sess, nil
}

type parsedHandshake struct {
	clientVersion   Version
	cipherRequested bool
	options         Options
}

func parseHandshakeRequest(body []byte) (parsedHandshake, *vaulterrors.Error) {
	var req handshakeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return parsedHandshake{}, vaulterrors.Wrap(vaulterrors.HandshakeConfigJSONInvalid)
	}
	if req.Version == nil || req.Version.Major == nil || req.Version.Minor == nil {
		return parsedHandshake{}, vaulterrors.Wrap(vaulterrors.HandshakeConfigJSONInvalid)
	}

	p := parsedHandshake{
		clientVersion: Version{Major: *req.Version.Major, Minor: *req.Version.Minor},
		options:       DefaultOptions(),
	}

	if req.Cipher != nil {
		if req.Cipher.Algorithm != cipherAlgorithm {
			return parsedHandshake{}, vaulterrors.Wrap(vaulterrors.HandshakeConfigJSONInvalid)
		}
		p.cipherRequested = true
	}

	if req.Options != nil {
		if req.Options.ShortAttributes != nil {
			p.options.ShortAttributes = *req.Options.ShortAttributes
		}
		if req.Options.ErrorText != nil {
			p.options.ErrorText = *req.Options.ErrorText
		}
	}

	return p, nil
}

// negotiateCipher runs the server side of the DH key exchange: send our
// keypair's public value and the group parameters, await the peer's
// public value, and derive the shared AES-256 key.
func negotiateCipher(raw net.Conn, serverVersion Version) (*frame.CipherState, error) {
	kp, err := vaultcrypto.NewKeyPair()
	if err != nil {
		return nil, err
	}
	initialIV, err := vaultcrypto.RandomBytes(16)
	if err != nil {
		return nil, err
	}

	reply := handshakeReply{
		Version: serverVersion,
		Cipher: &cipherBlock{
			PublicKey: kp.PublicBase64(),
			Prime:     kp.Prime(),
			Generator: kp.Generator(),
			InitialIV: base64.StdEncoding.EncodeToString(initialIV),
		},
	}
	replyBytes, err := json.Marshal(reply)
	if err != nil {
		return nil, err
	}
	if _, err := raw.Write(replyBytes); err != nil {
		return nil, err
	}

	clientKeyBody, err := readHandshakeMessage(raw)
	if err != nil {
		return nil, err
	}
	var clientKey clientKeyMessage
	if err := json.Unmarshal(clientKeyBody, &clientKey); err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.HandshakeConfigJSONInvalid)
	}

	secret, err := kp.DeriveSecret(clientKey.PublicKey)
	if err != nil {
		return nil, err
	}

	// Final unencrypted confirmation, sent before the cipher is installed
	// so it goes out in plaintext rather than under the new key.
	if _, err := raw.Write([]byte("{}")); err != nil {
		return nil, err
	}

	return &frame.CipherState{Key: secret}, nil
}

func readHandshakeMessage(raw net.Conn) ([]byte, error) {
	buf := make([]byte, maxHandshakeMessage)
	n, err := raw.Read(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func writeHandshakeError(raw net.Conn, err *vaulterrors.Error) {
	body, marshalErr := wire.HandshakeError(err, true)
	if marshalErr != nil {
		return
	}
	raw.Write(body)
}
