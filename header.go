package ctrextract

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Sizes of the fixed-layout structures, in bytes.
const (
	NCCHHeaderSize  = 0x200
	ExHeaderSize    = 0x400
	ExeFSHeaderSize = 0x200
)

// MediaUnit is the scale of all offset and size fields in the NCCH header.
const MediaUnit = 0x200

// MaxSections is the number of section slots in an ExeFS directory.
const MaxSections = 8

// NCCHHeader is the outer container header. Offsets and sizes are media-unit
// counts.
type NCCHHeader struct {
	Signature   [0x100]byte
	Magic       [4]byte
	ContentSize uint32
	PartitionID uint64
	MakerCode   uint16
	Version     uint16
	ProgramID   uint64
	ProductCode string

	SecondaryKeySlot uint8
	Platform         uint8
	ContentType      uint8
	ContentUnitSize  uint8
	Flags            uint8

	ExHeaderSize uint32

	PlainOffset uint32
	PlainSize   uint32
	LogoOffset  uint32
	LogoSize    uint32
	ExeFSOffset uint32
	ExeFSSize   uint32
	RomFSOffset uint32
	RomFSSize   uint32
}

// FixedKey reports whether the container uses the fixed (zero) key instead
// of the scrambled Secure1 key.
func (h *NCCHHeader) FixedKey() bool {
	return h.Flags&0x01 != 0
}

// NoCrypto reports whether the container contents are stored in plaintext.
func (h *NCCHHeader) NoCrypto() bool {
	return h.Flags&0x04 != 0
}

// DecodeNCCHHeader decodes the first NCCHHeaderSize bytes of a container.
// The magic is not validated here; that is the decoder's responsibility.
func DecodeNCCHHeader(data []byte) (*NCCHHeader, error) {
	if len(data) < NCCHHeaderSize {
		return nil, fmt.Errorf("ncch: header must be %d bytes, got %d", NCCHHeaderSize, len(data))
	}

	header := &NCCHHeader{
		ContentSize: binary.LittleEndian.Uint32(data[0x104:]),
		PartitionID: binary.LittleEndian.Uint64(data[0x108:]),
		MakerCode:   binary.LittleEndian.Uint16(data[0x110:]),
		Version:     binary.LittleEndian.Uint16(data[0x112:]),
		ProgramID:   binary.LittleEndian.Uint64(data[0x118:]),
		ProductCode: string(bytes.TrimRight(data[0x150:0x160], "\x00")),

		SecondaryKeySlot: data[0x188+3],
		Platform:         data[0x188+4],
		ContentType:      data[0x188+5],
		ContentUnitSize:  data[0x188+6],
		Flags:            data[0x188+7],

		ExHeaderSize: binary.LittleEndian.Uint32(data[0x180:]),

		PlainOffset: binary.LittleEndian.Uint32(data[0x190:]),
		PlainSize:   binary.LittleEndian.Uint32(data[0x194:]),
		LogoOffset:  binary.LittleEndian.Uint32(data[0x198:]),
		LogoSize:    binary.LittleEndian.Uint32(data[0x19c:]),
		ExeFSOffset: binary.LittleEndian.Uint32(data[0x1a0:]),
		ExeFSSize:   binary.LittleEndian.Uint32(data[0x1a4:]),
		RomFSOffset: binary.LittleEndian.Uint32(data[0x1b0:]),
		RomFSSize:   binary.LittleEndian.Uint32(data[0x1b4:]),
	}
	copy(header.Signature[:], data[:0x100])
	copy(header.Magic[:], data[0x100:0x104])

	return header, nil
}

// CodeSegmentInfo describes one segment of the codeset.
type CodeSegmentInfo struct {
	Address  uint32
	NumPages uint32
	Size     uint32
}

// StorageInfo is the storage access block of the extended header.
type StorageInfo struct {
	// ExtSaveDataID is the legacy extended savedata ID. When
	// OtherAttributes selects extended savedata access, the same bytes
	// instead pack three 20-bit extdata IDs.
	ExtSaveDataID       uint64
	SystemSaveDataIDs   uint64
	AccessibleUniqueIDs uint64
	AccessInfo          [7]byte
	OtherAttributes     uint8
}

// UsesExtendedSaveData reports whether the extdata ID list semantics apply
// instead of the single legacy ID.
func (s *StorageInfo) UsesExtendedSaveData() bool {
	return s.OtherAttributes&1 != 0
}

// ExtdataIDs unpacks the six 20-bit extdata IDs overlaid on the savedata ID
// words.
func (s *StorageInfo) ExtdataIDs() [6]uint64 {
	return [6]uint64{
		s.ExtSaveDataID & 0xFFFFF,
		(s.ExtSaveDataID >> 20) & 0xFFFFF,
		(s.ExtSaveDataID >> 40) & 0xFFFFF,
		s.AccessibleUniqueIDs & 0xFFFFF,
		(s.AccessibleUniqueIDs >> 20) & 0xFFFFF,
		(s.AccessibleUniqueIDs >> 40) & 0xFFFFF,
	}
}

// ExHeader is the extended header: the system control info followed by the
// ARM11 access control info.
type ExHeader struct {
	Name            string
	RemasterVersion uint16

	Text      CodeSegmentInfo
	StackSize uint32
	RO        CodeSegmentInfo
	Data      CodeSegmentInfo
	BSSSize   uint32

	SaveDataSize uint64
	JumpID       uint64

	ProgramID             uint64
	CoreVersion           uint32
	SystemMode            uint8
	Priority              uint8
	ResourceLimitCategory uint8

	Storage StorageInfo
}

func decodeCodeSegmentInfo(data []byte) CodeSegmentInfo {
	return CodeSegmentInfo{
		Address:  binary.LittleEndian.Uint32(data),
		NumPages: binary.LittleEndian.Uint32(data[0x4:]),
		Size:     binary.LittleEndian.Uint32(data[0x8:]),
	}
}

// DecodeExHeader decodes ExHeaderSize bytes of (already decrypted) extended
// header.
func DecodeExHeader(data []byte) (*ExHeader, error) {
	if len(data) < ExHeaderSize {
		return nil, fmt.Errorf("ncch: extended header must be %d bytes, got %d", ExHeaderSize, len(data))
	}

	exheader := &ExHeader{
		Name:            string(bytes.TrimRight(data[:0x8], "\x00")),
		RemasterVersion: binary.LittleEndian.Uint16(data[0xe:]),

		Text:      decodeCodeSegmentInfo(data[0x10:]),
		StackSize: binary.LittleEndian.Uint32(data[0x1c:]),
		RO:        decodeCodeSegmentInfo(data[0x20:]),
		Data:      decodeCodeSegmentInfo(data[0x30:]),
		BSSSize:   binary.LittleEndian.Uint32(data[0x3c:]),

		SaveDataSize: binary.LittleEndian.Uint64(data[0x1c0:]),
		JumpID:       binary.LittleEndian.Uint64(data[0x1c8:]),

		ProgramID:             binary.LittleEndian.Uint64(data[0x200:]),
		CoreVersion:           binary.LittleEndian.Uint32(data[0x208:]),
		SystemMode:            data[0x20e] >> 4,
		Priority:              data[0x20f],
		ResourceLimitCategory: data[0x36f],

		Storage: StorageInfo{
			ExtSaveDataID:       binary.LittleEndian.Uint64(data[0x230:]),
			SystemSaveDataIDs:   binary.LittleEndian.Uint64(data[0x238:]),
			AccessibleUniqueIDs: binary.LittleEndian.Uint64(data[0x240:]),
			OtherAttributes:     data[0x24f],
		},
	}
	copy(exheader.Storage.AccessInfo[:], data[0x248:0x24f])

	return exheader, nil
}

// SectionInfo describes one named ExeFS section. Offset is relative to the
// end of the ExeFS header.
type SectionInfo struct {
	Name   string
	Offset uint32
	Size   uint32
}

// ExeFSHeader is the section directory at the start of the ExeFS region.
type ExeFSHeader struct {
	Sections [MaxSections]SectionInfo
}

// DecodeExeFSHeader decodes ExeFSHeaderSize bytes of (already decrypted)
// ExeFS directory.
func DecodeExeFSHeader(data []byte) (*ExeFSHeader, error) {
	if len(data) < ExeFSHeaderSize {
		return nil, fmt.Errorf("ncch: ExeFS header must be %d bytes, got %d", ExeFSHeaderSize, len(data))
	}

	header := &ExeFSHeader{}
	for i := range header.Sections {
		entry := data[i*0x10 : (i+1)*0x10]
		header.Sections[i] = SectionInfo{
			Name:   string(bytes.TrimRight(entry[:0x8], "\x00")),
			Offset: binary.LittleEndian.Uint32(entry[0x8:]),
			Size:   binary.LittleEndian.Uint32(entry[0xc:]),
		}
	}

	return header, nil
}
