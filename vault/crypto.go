package vault

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20poly1305"
)

// Zero wipes a byte slice holding key or password material.
func Zero(b []byte) {
	memguard.WipeBytes(b)
}

func randBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Encrypt seals plaintext under key with ChaCha20-Poly1305 and a fresh random
// nonce, returning nonce‖ciphertext‖tag. No associated data is authenticated.
func Encrypt(key, plaintext []byte) ([]byte, error) {
	return encrypt(rand.Reader, key, plaintext)
}

func encrypt(r io.Reader, key, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, newError("encrypt", ErrEncryption, err)
	}
	nonce, err := randBytes(r, aead.NonceSize())
	if err != nil {
		return nil, newError("encrypt", ErrEncryption, fmt.Errorf("generate nonce: %w", err))
	}
	out := make([]byte, len(nonce), len(nonce)+len(plaintext)+aead.Overhead())
	copy(out, nonce)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens nonce‖ciphertext‖tag produced by Encrypt. Any failure to
// authenticate, including truncated input, is reported as ErrAuthFailed.
func Decrypt(key, data []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, newError("decrypt", ErrAuthFailed, err)
	}
	if len(data) < aead.NonceSize()+aead.Overhead() {
		return nil, newError("decrypt", ErrAuthFailed, fmt.Errorf("ciphertext truncated: %d bytes", len(data)))
	}
	nonce, ct := data[:aead.NonceSize()], data[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, newError("decrypt", ErrAuthFailed, nil)
	}
	return pt, nil
}
