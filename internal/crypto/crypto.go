// Package crypto implements passphrase-based symmetric encryption of note
// content. The passphrase is the only key material; a fresh salt and IV are
// generated per call, so encrypting the same plaintext twice yields different
// ciphertexts.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/pbkdf2"
)

var (
	// ErrInvalidKey is returned when the passphrase is empty.
	ErrInvalidKey = errors.New("a passphrase is required")
	// ErrDecryptionFailed is returned when the passphrase is wrong or the
	// ciphertext is corrupted. The two cases are indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed: invalid passphrase or corrupted data")
	// ErrEncryptionFailed wraps unexpected failures during encryption.
	ErrEncryptionFailed = errors.New("encryption failed")
)

const (
	keyLength   = 32 // AES-256
	saltLength  = 16
	ivLength    = aes.BlockSize
	kdfIters    = 10000
	envelopeMin = saltLength + ivLength + aes.BlockSize
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, kdfIters, keyLength, sha256.New)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.New("invalid padded data length")
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, errors.New("invalid pkcs7 padding size")
	}
	for i := len(data) - padding; i < len(data); i++ {
		if data[i] != byte(padding) {
			return nil, errors.New("inconsistent pkcs7 padding bytes")
		}
	}
	return data[:len(data)-padding], nil
}

// Encrypt encrypts plaintext with a key derived from the passphrase using
// AES-256-CBC. The returned envelope is base64(salt || iv || ciphertext).
func Encrypt(plaintext, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrInvalidKey
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: generating salt: %w", ErrEncryptionFailed, err)
	}
	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: generating IV: %w", ErrEncryptionFailed, err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	cipherText := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(cipherText, padded)

	envelope := make([]byte, 0, saltLength+ivLength+len(cipherText))
	envelope = append(envelope, salt...)
	envelope = append(envelope, iv...)
	envelope = append(envelope, cipherText...)

	return base64.StdEncoding.EncodeToString(envelope), nil
}

// Decrypt reverses Encrypt. A wrong passphrase does not reliably fail inside
// the cipher itself, so the decrypted bytes are positively validated: padding
// must check out and the result must be valid UTF-8. Anything else is
// reported as ErrDecryptionFailed rather than returned as garbage.
func Decrypt(ciphertext, passphrase string) (string, error) {
	if passphrase == "" {
		return "", ErrInvalidKey
	}

	envelope, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if len(envelope) < envelopeMin {
		return "", ErrDecryptionFailed
	}

	salt := envelope[:saltLength]
	iv := envelope[saltLength : saltLength+ivLength]
	body := envelope[saltLength+ivLength:]
	if len(body)%aes.BlockSize != 0 {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return "", ErrDecryptionFailed
	}

	padded := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, body)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	if !utf8.Valid(plaintext) {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
