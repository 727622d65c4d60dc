// Package frame implements the length-prefixed, optionally-encrypted
// message envelope: a 4-byte little-endian length prefix, the payload,
// and a trailing NUL terminator used only as an overrun check. This
// mirrors the fixed-header, length-prefixed, aligned record shape of a
// write-ahead log's on-disk records, adapted from a log file to a
// socket.
package frame

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	vaultcrypto "github.com/leengari/vaultdb/internal/crypto"
	"github.com/leengari/vaultdb/internal/vaulterrors"
)

// MaxPayloadSize is the 100 MiB frame cap.
const MaxPayloadSize = 100 * 1024 * 1024

const terminatorByte = 0x00

// ByteOrder is the byte order for the 4-byte frame length prefix. The
// source this protocol is distilled from leaves this implementation
// defined (Open Question 3); this implementation picks little-endian and
// documents it here as the single source of truth.
var ByteOrder = binary.LittleEndian

// CipherState holds the AES-256-CBC key for one session. The same key is
// used in both directions (derived once from the DH exchange); IVs are
// fresh per frame since EncryptCBC always prepends a new random IV, so
// there is no mutable IV state to track. The initial_iv sent during the
// handshake is not kept.
type CipherState struct {
	Key []byte
}

// Conn wraps a net.Conn with frame-level read/write and optional payload
// encryption. It is owned by exactly one connection worker goroutine.
type Conn struct {
	rw     *bufio.ReadWriter
	raw    net.Conn
	cipher *CipherState
}

// New wraps conn for framed reads and writes. cipher may be nil for a
// plaintext session.
func New(conn net.Conn, cipher *CipherState) *Conn {
	return &Conn{
		rw:     bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		raw:    conn,
		cipher: cipher,
	}
}

// SetCipher installs (or replaces) the session's cipher state, used once
// the DH handshake completes and the session upgrades from plaintext to
// encrypted framing.
func (c *Conn) SetCipher(cipher *CipherState) {
	c.cipher = cipher
}

// Frame is one decoded application message. Keepalive is true for a
// zero-length keepalive beat, in which case Payload is empty.
type Frame struct {
	Payload   []byte
	Keepalive bool
}

// ReadFrame decodes one frame, decrypting the body if a cipher is set.
func (c *Conn) ReadFrame() (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.rw, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	length := ByteOrder.Uint32(lenBuf[:])

	if length == 0 {
		return Frame{Keepalive: true}, nil
	}
	if length > MaxPayloadSize {
		return Frame{}, vaulterrors.Wrap(vaulterrors.PacketSizeExceeded)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(c.rw, body); err != nil {
		return Frame{}, err
	}

	if body[len(body)-1] != terminatorByte {
		return Frame{}, vaulterrors.Wrap(vaulterrors.OverflowProtectionTriggered)
	}
	ciphertext := body[:len(body)-1]

	if c.cipher == nil {
		return Frame{Payload: ciphertext}, nil
	}

	plaintext, err := vaultcrypto.DecryptCBC(c.cipher.Key, ciphertext)
	if err != nil {
		return Frame{}, vaulterrors.New(vaulterrors.Internal, "decrypt frame: %v", err)
	}
	return Frame{Payload: plaintext}, nil
}

// WriteFrame optionally encrypts, prepends the little-endian length
// (ciphertext/plaintext length + 1), appends the terminator, and writes
// in a single Flush.
func (c *Conn) WriteFrame(payload []byte) error {
	body := payload
	if c.cipher != nil {
		ciphertext, err := vaultcrypto.EncryptCBC(c.cipher.Key, payload)
		if err != nil {
			return fmt.Errorf("frame: encrypt failed: %w", err)
		}
		body = ciphertext
	}

	var lenBuf [4]byte
	ByteOrder.PutUint32(lenBuf[:], uint32(len(body)+1))

	if _, err := c.rw.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := c.rw.Write(body); err != nil {
		return err
	}
	if err := c.rw.WriteByte(terminatorByte); err != nil {
		return err
	}
	return c.rw.Flush()
}

// WriteKeepalive sends a zero-length keepalive beat.
func (c *Conn) WriteKeepalive() error {
	var lenBuf [4]byte // already zero
	if _, err := c.rw.Write(lenBuf[:]); err != nil {
		return err
	}
	return c.rw.Flush()
}

// RemoteAddr exposes the underlying connection's remote address for
// logging.
func (c *Conn) RemoteAddr() net.Addr { return c.raw.RemoteAddr() }

// Raw returns the underlying net.Conn, e.g. for the handshake's bounded
// single reads which happen before framing is meaningful.
func (c *Conn) Raw() net.Conn { return c.raw }

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.raw.Close() }
