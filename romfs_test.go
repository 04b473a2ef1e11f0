package ctrextract

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeIVFC(masterHashSize uint32, level2Size uint64, blockLog2 uint32) []byte {
	buf := make([]byte, ivfcHeaderSize)
	copy(buf, "IVFC")
	binary.LittleEndian.PutUint32(buf[0x4:], ivfcVersion)
	binary.LittleEndian.PutUint32(buf[0x8:], masterHashSize)
	binary.LittleEndian.PutUint64(buf[0x44:], level2Size)
	binary.LittleEndian.PutUint32(buf[0x4c:], blockLog2)
	return buf
}

func TestExtractSharedRomFS(t *testing.T) {
	const romfsOffMU = 4 // 0x800 bytes
	const payloadSize = 100

	payload := pattern(payloadSize, 0x21)

	// With no master hashes and a 512-byte block, the payload starts one
	// block after the IVFC header.
	image := make([]byte, romfsOffMU*MediaUnit+512+payloadSize)
	copy(image, encodeHeader(imageSpec{
		magic:       "NCCH",
		flags:       0x04,
		romfsOffMU:  romfsOffMU,
		romfsSizeMU: 2,
	}))
	copy(image[romfsOffMU*MediaUnit:], encodeIVFC(0, payloadSize, 9))
	copy(image[romfsOffMU*MediaUnit+512:], payload)

	result := ExtractSharedRomFS(image)
	assert.Equal(t, payload, result)
}

func TestExtractSharedRomFSAlignment(t *testing.T) {
	// A non-zero master hash region pushes the payload to the next block
	// boundary: align(0x60 + 0x20, 512) = 512 still, but with a 0x200-byte
	// hash region it becomes align(0x260, 512) = 1024.
	const romfsOffMU = 2
	const payloadSize = 64

	payload := pattern(payloadSize, 0x44)

	image := make([]byte, romfsOffMU*MediaUnit+1024+payloadSize)
	copy(image, encodeHeader(imageSpec{
		magic:       "NCCH",
		flags:       0x04,
		romfsOffMU:  romfsOffMU,
		romfsSizeMU: 3,
	}))
	copy(image[romfsOffMU*MediaUnit:], encodeIVFC(0x200, payloadSize, 9))
	copy(image[romfsOffMU*MediaUnit+1024:], payload)

	result := ExtractSharedRomFS(image)
	assert.Equal(t, payload, result)
}

func TestExtractSharedRomFSContract(t *testing.T) {
	t.Run("image too small", func(t *testing.T) {
		require.Panics(t, func() {
			ExtractSharedRomFS(make([]byte, NCCHHeaderSize-1))
		})
	})

	t.Run("bad IVFC magic", func(t *testing.T) {
		image := make([]byte, MediaUnit*2)
		copy(image, encodeHeader(imageSpec{
			magic:       "NCCH",
			romfsOffMU:  1,
			romfsSizeMU: 1,
		}))
		copy(image[MediaUnit:], "NOPE")

		require.Panics(t, func() {
			ExtractSharedRomFS(image)
		})
	})

	t.Run("bad IVFC version", func(t *testing.T) {
		image := make([]byte, MediaUnit*2)
		copy(image, encodeHeader(imageSpec{
			magic:       "NCCH",
			romfsOffMU:  1,
			romfsSizeMU: 1,
		}))
		ivfc := encodeIVFC(0, 0, 9)
		binary.LittleEndian.PutUint32(ivfc[0x4:], 0x20000)
		copy(image[MediaUnit:], ivfc)

		require.Panics(t, func() {
			ExtractSharedRomFS(image)
		})
	})
}
