// Package auth implements the optional password handshake of the API and the
// sealed connection used after it.
package auth

import (
	"crypto/pbkdf2"
	"crypto/sha256"
	"errors"
)

const (
	KeyLength        = 32
	pbkdf2Iterations = 100000
	keySalt          = "xrinput-api-key-v1"
	sessionLabel     = "xrinput-api-session-v1"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// DeriveKey stretches a password into a KeyLength byte key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(keySalt), pbkdf2Iterations, KeyLength)
}

// SessionKey mixes the long-term key with both handshake nonces. Every
// connection therefore seals with a fresh key.
func SessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionLabel))
	return h.Sum(nil)
}
