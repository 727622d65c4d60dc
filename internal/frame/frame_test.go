package frame

import (
	"net"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/leengari/vaultdb/internal/vaulterrors"
)

func TestRoundTripPlaintext(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientConn := New(client, nil)
	serverConn := New(server, nil)

	done := make(chan error, 1)
	go func() {
		done <- clientConn.WriteFrame([]byte(`{"op":"no_op"}`))
	}()

	frm, err := serverConn.ReadFrame()
	assert.NilError(t, err)
	assert.NilError(t, <-done)
	assert.Assert(t, !frm.Keepalive)
	assert.Equal(t, string(frm.Payload), `{"op":"no_op"}`)
}

func TestRoundTripEncrypted(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	cipher := &CipherState{Key: key}

	clientConn := New(client, cipher)
	serverConn := New(server, cipher)

	done := make(chan error, 1)
	go func() {
		done <- clientConn.WriteFrame([]byte(`{"op":"find_one_record"}`))
	}()

	frm, err := serverConn.ReadFrame()
	assert.NilError(t, err)
	assert.NilError(t, <-done)
	assert.Equal(t, string(frm.Payload), `{"op":"find_one_record"}`)
}

func TestKeepaliveRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	clientConn := New(client, nil)
	serverConn := New(server, nil)

	done := make(chan error, 1)
	go func() {
		done <- clientConn.WriteKeepalive()
	}()

	frm, err := serverConn.ReadFrame()
	assert.NilError(t, err)
	assert.NilError(t, <-done)
	assert.Assert(t, frm.Keepalive)
	assert.Equal(t, len(frm.Payload), 0)
}

func TestOversizePacketRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverConn := New(server, nil)

	done := make(chan error, 1)
	go func() {
		var lenBuf [4]byte
		ByteOrder.PutUint32(lenBuf[:], MaxPayloadSize+1)
		if _, err := client.Write(lenBuf[:]); err != nil {
			done <- err
			return
		}
		done <- nil
	}()

	_, err := serverConn.ReadFrame()
	assert.NilError(t, <-done)
	werr, ok := vaulterrors.As(err)
	assert.Assert(t, ok)
	assert.Equal(t, werr.Code, vaulterrors.PacketSizeExceeded)
}

func TestBadTerminatorRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	serverConn := New(server, nil)

	done := make(chan error, 1)
	go func() {
		body := []byte{'x', 'y'} // last byte is not the NUL terminator
		var lenBuf [4]byte
		ByteOrder.PutUint32(lenBuf[:], uint32(len(body)))
		if _, err := client.Write(lenBuf[:]); err != nil {
			done <- err
			return
		}
		_, err := client.Write(body)
		done <- err
	}()

	_, err := serverConn.ReadFrame()
	assert.NilError(t, <-done)
	werr, ok := vaulterrors.As(err)
	assert.Assert(t, ok)
	assert.Equal(t, werr.Code, vaulterrors.OverflowProtectionTriggered)
}
