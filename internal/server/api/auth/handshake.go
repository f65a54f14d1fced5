package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Alia5/xrinput/apitypes"
)

const (
	// Magic opens a handshake. It ends in \x00 so a server without a
	// password reads it as a (bogus) request path.
	Magic     = "xRI1\x00"
	NonceSize = 32
	macLabel  = "xrinput-api-auth-v1"
)

var accepted = []byte("OK\x00")

// ErrInvalidPassword is returned to clients whose proof does not match.
var ErrInvalidPassword = &apitypes.ApiError{Status: 401, Title: "Unauthorized", Detail: "invalid password"}

// IsHandshake reports whether r starts with Magic without consuming it.
func IsHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(Magic))
	if err != nil {
		return false, err
	}
	return string(b) == Magic, nil
}

// Accept runs the server side: Magic, client nonce and proof are read from r,
// "OK\x00" and the server nonce are written to w. It returns the session key.
func Accept(r *bufio.Reader, w io.Writer, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("handshake: missing key")
	}
	if _, err := r.Discard(len(Magic)); err != nil {
		return nil, fmt.Errorf("handshake magic: %w", err)
	}
	clientNonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, fmt.Errorf("read client nonce: %w", err)
	}
	clientProof := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientProof); err != nil {
		return nil, fmt.Errorf("read client proof: %w", err)
	}
	if !hmac.Equal(clientProof, proof(key, clientNonce)) {
		return nil, ErrInvalidPassword
	}

	serverNonce := make([]byte, NonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := w.Write(append(append([]byte{}, accepted...), serverNonce...)); err != nil {
		return nil, fmt.Errorf("write handshake response: %w", err)
	}
	return SessionKey(key, serverNonce, clientNonce), nil
}

// Initiate runs the client side and returns the session key. A server that
// refuses the handshake answers with a problem line, which is returned as
// *apitypes.ApiError.
func Initiate(r io.Reader, w io.Writer, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("handshake: missing key")
	}
	clientNonce := make([]byte, NonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, fmt.Errorf("generate client nonce: %w", err)
	}

	msg := append([]byte(Magic), clientNonce...)
	msg = append(msg, proof(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(accepted))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != string(accepted) {
		rest, _ := io.ReadAll(r)
		line := strings.TrimSuffix(string(append(prefix, rest...)), "\n")
		var apiErr apitypes.ApiError
		if err := json.Unmarshal([]byte(line), &apiErr); err == nil && (apiErr.Status != 0 || apiErr.Title != "") {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("invalid handshake response: %q", line)
	}

	serverNonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, fmt.Errorf("read server nonce: %w", err)
	}
	return SessionKey(key, serverNonce, clientNonce), nil
}

func proof(key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(macLabel))
	mac.Write(nonce)
	return mac.Sum(nil)
}
