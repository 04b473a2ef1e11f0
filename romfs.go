package ctrextract

import (
	"encoding/binary"
	"fmt"
)

const (
	ivfcMagic      = "IVFC"
	ivfcVersion    = 0x10000
	ivfcHeaderSize = 0x60
)

// ExtractSharedRomFS returns the level-3 RomFS payload embedded in a
// complete, already-decrypted NCCH image, as found in shared system
// archives.
//
// Malformed input is a caller contract violation and panics; callers must
// validate the provenance of the image beforehand.
func ExtractSharedRomFS(data []byte) []byte {
	if len(data) < NCCHHeaderSize {
		panic("ncch: image is smaller than the NCCH header")
	}

	header, err := DecodeNCCHHeader(data[:NCCHHeaderSize])
	if err != nil {
		panic(err)
	}

	offset := int64(header.RomFSOffset) * MediaUnit
	if int64(len(data)) < offset+ivfcHeaderSize {
		panic("ncch: image is smaller than the IVFC header")
	}
	ivfc := data[offset:]

	if string(ivfc[:0x4]) != ivfcMagic {
		panic("ncch: IVFC magic not found")
	}
	if version := binary.LittleEndian.Uint32(ivfc[0x4:]); version != ivfcVersion {
		panic(fmt.Sprintf("ncch: IVFC version must be %#x, got %#x", ivfcVersion, version))
	}

	masterHashSize := int64(binary.LittleEndian.Uint32(ivfc[0x8:]))

	// Level descriptors start at 0xc, 0x18 bytes each: offset u64, size
	// u64, log2 block size u32, reserved u32. The last one (index 2)
	// describes the file data level.
	level2Size := int64(binary.LittleEndian.Uint64(ivfc[0x44:]))
	blockSize := int64(1) << binary.LittleEndian.Uint32(ivfc[0x4c:])

	// Payload placement per ctrtool: the IVFC header and master hashes,
	// aligned up to the level block size.
	dataOffset := offset + alignUp(ivfcHeaderSize+masterHashSize, blockSize)
	if int64(len(data)) < dataOffset+level2Size {
		panic("ncch: image is smaller than the RomFS payload")
	}

	result := make([]byte, level2Size)
	copy(result, data[dataOffset:])
	return result
}

func alignUp(value, alignment int64) int64 {
	return (value + alignment - 1) / alignment * alignment
}
