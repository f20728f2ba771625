// Package cryptox implements the at-rest encryption used by the ingestion
// pipeline and the argon2id password hashing used by the session provider.
//
// Stored payloads are framed as IV || ciphertext+tag, where the IV is a
// fresh random 16-byte value per file and the cipher is AES-256-GCM
// configured with a 16-byte nonce. The framing is self-contained: Decrypt
// needs only the stored bytes and the key.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// IVSize is the length of the initialization vector prepended to every
// server-encrypted payload.
const IVSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext shorter than IV")

// DeriveKey stretches the server-held secret into a 32-byte AES key using
// argon2id. The salt is part of the server configuration; changing either
// the secret or the salt makes previously stored payloads unreadable.
func DeriveKey(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Encrypt seals plaintext with AES-256-GCM under key and returns
// IV || ciphertext+tag. A fresh random IV is generated per call.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	iv := common.GenerateRandByteArray(IVSize)

	// Seal appends to iv's copy so the result is already framed.
	out := make([]byte, IVSize, IVSize+len(plaintext)+aead.Overhead())
	copy(out, iv)
	return aead.Seal(out, iv, plaintext, nil), nil
}

// Decrypt opens a payload produced by Encrypt. The first IVSize bytes are
// the IV, the remainder is ciphertext plus authentication tag.
func Decrypt(data, key []byte) ([]byte, error) {
	if len(data) < IVSize {
		return nil, ErrCiphertextTooShort
	}
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, data[:IVSize], data[IVSize:], nil)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// HashPassword hashes a password with argon2id and a random 16-byte salt.
// The encoded form is "argon2id$<salt hex>$<hash hex>".
func HashPassword(password string) string {
	salt := common.GenerateRandByteArray(16)
	hash := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return fmt.Sprintf("argon2id$%s$%s", hex.EncodeToString(salt), hex.EncodeToString(hash))
}

// VerifyPassword reports whether password matches the encoded hash
// produced by HashPassword. Comparison is constant-time.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != "argon2id" {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(got, want) == 1
}
