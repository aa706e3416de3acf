package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		plaintext string
	}{
		{"short", "hello"},
		{"empty", ""},
		{"rich text document", `{"time":1710000000,"blocks":[{"type":"paragraph","data":{"text":"hello world"}}]}`},
		{"unicode", "das Straßencafé — 日本語のメモ"},
		{"block aligned", "0123456789abcdef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ciphertext, err := Encrypt(tc.plaintext, "abc123")
			require.NoError(t, err)
			assert.NotEqual(t, tc.plaintext, ciphertext)

			decrypted, err := Decrypt(ciphertext, "abc123")
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, decrypted)
		})
	}
}

func TestEncryptIsSalted(t *testing.T) {
	first, err := Encrypt("same plaintext", "key")
	require.NoError(t, err)
	second, err := Encrypt("same plaintext", "key")
	require.NoError(t, err)

	// Fresh salt and IV per call; identical inputs must not produce
	// identical envelopes.
	assert.NotEqual(t, first, second)
}

func TestDecryptWrongPassphrase(t *testing.T) {
	ciphertext, err := Encrypt("hello", "correct-horse")
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, "battery-staple")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptCorruptedCiphertext(t *testing.T) {
	_, err := Decrypt("not base64 at all!!!", "key")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt("c2hvcnQ=", "key") // valid base64, too short for an envelope
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEmptyPassphraseRejected(t *testing.T) {
	_, err := Encrypt("hello", "")
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = Decrypt("whatever", "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
