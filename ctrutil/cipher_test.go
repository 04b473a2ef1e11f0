package ctrutil

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecryptAt(t *testing.T) {
	key := []byte("0123456789abcdef")
	iv := [16]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe, 0, 0, 0, 0, 0, 0, 0xfc}

	plaintext := make([]byte, 1000)
	for i := range plaintext {
		plaintext[i] = byte(i*31 + 7)
	}

	// Encrypt with the standard library stream, which only supports
	// starting at offset 0.
	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv[:]).XORKeyStream(ciphertext, plaintext)

	seekable, err := NewCipher(key, iv)
	require.NoError(t, err)

	t.Run("full buffer at offset 0", func(t *testing.T) {
		buf := append([]byte(nil), ciphertext...)
		seekable.DecryptAt(buf, 0)
		assert.Equal(t, plaintext, buf)
	})

	t.Run("sub-ranges at arbitrary offsets", func(t *testing.T) {
		for _, offset := range []int64{0, 1, 15, 16, 17, 100, 511, 512, 513, 999} {
			length := int64(len(ciphertext)) - offset
			buf := append([]byte(nil), ciphertext[offset:offset+length]...)
			seekable.DecryptAt(buf, offset)
			assert.Equal(t, plaintext[offset:offset+length], buf, "offset %d", offset)
		}
	})
}

func TestDecryptAtCounterOverflow(t *testing.T) {
	key := []byte("fedcba9876543210")

	// A counter close to all-ones must wrap exactly like the standard
	// library stream does.
	iv := [16]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xfe}

	plaintext := make([]byte, 128)
	for i := range plaintext {
		plaintext[i] = byte(i)
	}

	block, err := aes.NewCipher(key)
	require.NoError(t, err)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv[:]).XORKeyStream(ciphertext, plaintext)

	seekable, err := NewCipher(key, iv)
	require.NoError(t, err)

	buf := append([]byte(nil), ciphertext[48:]...)
	seekable.DecryptAt(buf, 48)
	assert.Equal(t, plaintext[48:], buf)
}

func TestNewCipherBadKey(t *testing.T) {
	_, err := NewCipher([]byte("short"), [16]byte{})
	assert.Error(t, err)
}
