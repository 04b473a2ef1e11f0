package ctrutil

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Cipher decrypts AES-128-CTR data starting at arbitrary keystream offsets.
//
// The sections of an NCCH share a single keystream per region but are read
// individually, so the counter must be seekable to any byte offset without
// generating the intervening keystream.
type Cipher struct {
	block cipher.Block
	iv    [16]byte
}

// NewCipher builds a seekable CTR cipher from a 128-bit key and a 16-byte
// initial counter.
func NewCipher(key []byte, iv [16]byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ctrutil: failed to initialize cipher: %w", err)
	}

	return &Cipher{
		block: block,
		iv:    iv,
	}, nil
}

// DecryptAt decrypts buf in place, with the keystream advanced to the given
// byte offset. Since CTR is an XOR stream, the same call also encrypts.
func (c *Cipher) DecryptAt(buf []byte, offset int64) {
	blockSize := int64(c.block.BlockSize())

	ctr := c.iv
	addCounter(ctr[:], uint64(offset/blockSize))

	stream := cipher.NewCTR(c.block, ctr[:])

	if skip := offset % blockSize; skip > 0 {
		discard := make([]byte, skip)
		stream.XORKeyStream(discard, discard)
	}
	stream.XORKeyStream(buf, buf)
}

// addCounter adds n to a big-endian counter in place, wrapping on overflow.
func addCounter(ctr []byte, n uint64) {
	for i := len(ctr) - 1; i >= 0 && n != 0; i-- {
		n += uint64(ctr[i])
		ctr[i] = byte(n)
		n >>= 8
	}
}
