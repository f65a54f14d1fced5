package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const maxPacketSize = 2 * 1024 * 1024

// Direction tags in the first nonce byte. Both peers share one session key,
// so the tag keeps their nonce spaces apart and rejects reflected packets.
const (
	fromServer byte = 's'
	fromClient byte = 'c'
)

var ErrOutOfOrder = errors.New("sealed packet out of order")

// sealedConn frames every Write as len(4) | nonce(12) | ciphertext.
type sealedConn struct {
	net.Conn
	aead cipher.AEAD

	wmu     sync.Mutex
	sendTag byte
	sendCtr uint64

	recvTag byte
	recvCtr uint64
	recvBuf bytes.Buffer
}

// Seal wraps conn so all further traffic is encrypted with sessionKey.
// server selects which direction tag this side writes.
func Seal(conn net.Conn, sessionKey []byte, server bool) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	c := &sealedConn{Conn: conn, aead: aead, sendTag: fromClient, recvTag: fromServer}
	if server {
		c.sendTag, c.recvTag = fromServer, fromClient
	}
	return c, nil
}

func (c *sealedConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	nonce := make([]byte, chacha20poly1305.NonceSize)
	nonce[0] = c.sendTag
	binary.BigEndian.PutUint64(nonce[4:], c.sendCtr)
	c.sendCtr++

	ct := c.aead.Seal(nil, nonce, p, nil)
	pkt := make([]byte, 4, 4+len(nonce)+len(ct))
	binary.BigEndian.PutUint32(pkt, uint32(len(nonce)+len(ct)))
	pkt = append(pkt, nonce...)
	pkt = append(pkt, ct...)
	if _, err := c.Conn.Write(pkt); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *sealedConn) Read(p []byte) (int, error) {
	for c.recvBuf.Len() == 0 {
		if err := c.readPacket(); err != nil {
			return 0, err
		}
	}
	return c.recvBuf.Read(p)
}

func (c *sealedConn) readPacket() error {
	var hdr [4]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(hdr[:])
	if length < chacha20poly1305.NonceSize+chacha20poly1305.Overhead || length > maxPacketSize {
		return io.ErrUnexpectedEOF
	}
	pkt := make([]byte, length)
	if _, err := io.ReadFull(c.Conn, pkt); err != nil {
		return err
	}

	nonce, ct := pkt[:chacha20poly1305.NonceSize], pkt[chacha20poly1305.NonceSize:]
	if nonce[0] != c.recvTag || binary.BigEndian.Uint64(nonce[4:]) != c.recvCtr {
		return ErrOutOfOrder
	}
	pt, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return err
	}
	c.recvCtr++
	c.recvBuf.Write(pt)
	return nil
}
