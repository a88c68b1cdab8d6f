package tools

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// mnemonics are encrypted at rest with AES-256-GCM, the key is derived
// from the operator passphrase once at startup

const (
	keyIterations = 4096
	keyLength     = 32
)

var cipherKeySalt = []byte("stablebot-worker")

var cipherKey []byte

var (
	ErrCipherKeyNotSet   = errors.New("cipher key is not set")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// SetCipherKey derives the AES key from the operator passphrase.
// Must be called once before any Encrypt/Decrypt call.
func SetCipherKey(passphrase string) {
	cipherKey = pbkdf2.Key([]byte(passphrase), cipherKeySalt, keyIterations, keyLength, sha256.New)
}

func newGCM() (cipher.AEAD, error) {
	if cipherKey == nil {
		return nil, ErrCipherKeyNotSet
	}
	block, err := aes.NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encrypt encrypts plaintext, the result is base64 of nonce||ciphertext.
func Encrypt(plaintext string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Callers must not persist or log the result.
func Decrypt(encoded string) (string, error) {
	gcm, err := newGCM()
	if err != nil {
		return "", err
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(sealed) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
