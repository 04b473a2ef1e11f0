package ctrextract

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/connesc/ctrextract/ctrutil"
	"github.com/connesc/ctrextract/keys"
)

const ncchMagic = "NCCH"

// exheaderOffset is the fixed start of the extended header, right after the
// NCCH header.
const exheaderOffset = 0x200

// Container decrypts and extracts one NCCH container over a seekable input.
//
// A Container owns its input's read cursor and is not safe for concurrent
// use; independent Containers over independent inputs are.
type Container struct {
	input io.ReadSeeker
	keyDB *keys.Database

	loaded    bool
	encrypted bool

	// pendingErr records a key or version resolution failure that only
	// becomes fatal if an encrypted extended header must be decrypted.
	pendingErr error

	header   *NCCHHeader
	exheader *ExHeader
	sections *ExeFSHeader

	primaryKey  [16]byte
	exheaderCTR [16]byte
	exefsCTR    [16]byte
	exefsOffset int64
}

// NewContainer binds a decoder to the given input. The key database may be
// nil when only plaintext or fixed-key containers are expected.
func NewContainer(input io.ReadSeeker, keyDB *keys.Database) *Container {
	if keyDB == nil {
		keyDB = keys.NewDatabase()
	}

	return &Container{
		input: input,
		keyDB: keyDB,
	}
}

// deriveCTRs builds the extended-header and ExeFS counters for the given
// NCCH version.
//
// Versions 0 and 2 prefix a per-region magic number with the partition ID in
// reverse byte order. Version 1 instead counts from the region's byte offset,
// as if the whole image were a single CTR stream prefixed by the partition ID
// in storage order.
func deriveCTRs(version uint16, partitionID uint64, exefsOffset int64) (exheaderCTR, exefsCTR [16]byte, err error) {
	switch version {
	case 0, 2:
		binary.BigEndian.PutUint64(exheaderCTR[:], partitionID)
		exefsCTR = exheaderCTR
		exheaderCTR[8] = 1
		exefsCTR[8] = 2
	case 1:
		binary.LittleEndian.PutUint64(exheaderCTR[:], partitionID)
		exefsCTR = exheaderCTR
		binary.BigEndian.PutUint32(exheaderCTR[12:], exheaderOffset)
		binary.BigEndian.PutUint32(exefsCTR[12:], uint32(exefsOffset))
	default:
		err = fmt.Errorf("ncch: version %d: %w", version, ErrUnsupportedVersion)
	}
	return
}

// Load parses the container headers and prepares decryption state. It is
// idempotent: once it has succeeded, it returns nil forever.
func (c *Container) Load() error {
	if c.loaded {
		return nil
	}
	c.pendingErr = nil

	if _, err := c.input.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("ncch: failed to seek to header: %w: %w", ErrReadFailed, err)
	}

	buf := make([]byte, NCCHHeaderSize)
	if _, err := io.ReadFull(c.input, buf); err != nil {
		return fmt.Errorf("ncch: failed to read header: %w: %w", ErrReadFailed, err)
	}

	header, err := DecodeNCCHHeader(buf)
	if err != nil {
		return err
	}

	if string(header.Magic[:]) != ncchMagic {
		return fmt.Errorf("ncch: magic not found: %w", ErrInvalidFormat)
	}
	c.header = header

	if header.NoCrypto() {
		c.encrypted = false
	} else {
		c.encrypted = true

		if header.FixedKey() {
			c.primaryKey = [16]byte{}
		} else {
			// The primary KeyY is the first half of the header signature.
			var keyY [16]byte
			copy(keyY[:], header.Signature[:16])
			c.keyDB.SetKeyY(keys.Secure1, keyY)

			if c.keyDB.IsKeyAvailable(keys.Secure1) {
				c.primaryKey = c.keyDB.GetKey(keys.Secure1)
			} else {
				c.pendingErr = fmt.Errorf("ncch: Secure1 KeyX missing: %w", ErrEncryptedButNoKey)
			}
		}

		exheaderCTR, exefsCTR, err := deriveCTRs(header.Version, header.PartitionID, int64(header.ExeFSOffset)*MediaUnit)
		if err != nil && c.pendingErr == nil {
			c.pendingErr = err
		}
		c.exheaderCTR = exheaderCTR
		c.exefsCTR = exefsCTR
	}

	// System archives and DLC have no extended header but may have a RomFS.
	if header.ExHeaderSize != 0 {
		buf := make([]byte, ExHeaderSize)
		if _, err := io.ReadFull(c.input, buf); err != nil {
			return fmt.Errorf("ncch: failed to read extended header: %w: %w", ErrReadFailed, err)
		}

		if c.encrypted {
			// A plaintext extended header shows through even when the
			// header claims encryption: its jump ID then matches the
			// program ID. Low 32 bits only, to tolerate ROMs merged from
			// a game and its updates.
			jumpID := binary.LittleEndian.Uint64(buf[0x1c8:])
			if uint32(jumpID) == uint32(header.ProgramID) {
				c.encrypted = false
			} else if c.pendingErr != nil {
				return c.pendingErr
			} else {
				cipher, err := ctrutil.NewCipher(c.primaryKey[:], c.exheaderCTR)
				if err != nil {
					return err
				}
				cipher.DecryptAt(buf, 0)
			}
		}

		exheader, err := DecodeExHeader(buf)
		if err != nil {
			return err
		}
		c.exheader = exheader
	}

	// DLC can have an ExeFS and a RomFS but no extended header.
	if header.ExeFSSize != 0 {
		c.exefsOffset = int64(header.ExeFSOffset) * MediaUnit

		if _, err := c.input.Seek(c.exefsOffset, io.SeekStart); err != nil {
			return fmt.Errorf("ncch: failed to seek to ExeFS: %w: %w", ErrReadFailed, err)
		}

		buf := make([]byte, ExeFSHeaderSize)
		if _, err := io.ReadFull(c.input, buf); err != nil {
			return fmt.Errorf("ncch: failed to read ExeFS header: %w: %w", ErrReadFailed, err)
		}

		if c.encrypted {
			cipher, err := ctrutil.NewCipher(c.primaryKey[:], c.exefsCTR)
			if err != nil {
				return err
			}
			cipher.DecryptAt(buf, 0)
		}

		sections, err := DecodeExeFSHeader(buf)
		if err != nil {
			return err
		}
		c.sections = sections
	}

	c.loaded = true
	return nil
}

// LoadSectionExeFS reads and decrypts the named ExeFS section. The first
// directory entry with a matching name wins.
func (c *Container) LoadSectionExeFS(name string) ([]byte, error) {
	if err := c.Load(); err != nil {
		return nil, err
	}

	if c.sections == nil {
		return nil, fmt.Errorf("ncch: no ExeFS: %w", ErrReadFailed)
	}

	for i := range c.sections.Sections {
		section := &c.sections.Sections[i]
		if section.Name != name {
			continue
		}

		offset := c.exefsOffset + ExeFSHeaderSize + int64(section.Offset)
		if _, err := c.input.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("ncch: failed to seek to section %q: %w: %w", name, ErrReadFailed, err)
		}

		buf := make([]byte, section.Size)
		if _, err := io.ReadFull(c.input, buf); err != nil {
			return nil, fmt.Errorf("ncch: failed to read section %q: %w: %w", name, ErrReadFailed, err)
		}

		if c.encrypted {
			cipher, err := ctrutil.NewCipher(c.primaryKey[:], c.exefsCTR)
			if err != nil {
				return nil, err
			}
			// The section shares the ExeFS keystream, so seek it to the
			// section's position within the region.
			cipher.DecryptAt(buf, int64(section.Offset)+ExeFSHeaderSize)
		}

		return buf, nil
	}

	return nil, fmt.Errorf("ncch: section %q: %w", name, ErrNotFound)
}

// ReadProgramID returns the 64-bit program ID from the NCCH header.
func (c *Container) ReadProgramID() (uint64, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}

	if c.header == nil {
		return 0, fmt.Errorf("ncch: no header: %w", ErrNotFound)
	}

	return c.header.ProgramID, nil
}

// ReadExtdataID returns the extdata ID the application stores its extended
// savedata under.
//
// With extended savedata access there are up to six candidate IDs and no way
// to tell which one holds the main save; the first non-zero one is assumed.
func (c *Container) ReadExtdataID() (uint64, error) {
	if err := c.Load(); err != nil {
		return 0, err
	}

	if c.exheader == nil {
		return 0, fmt.Errorf("ncch: no extended header: %w", ErrNotFound)
	}

	storage := &c.exheader.Storage
	if storage.UsesExtendedSaveData() {
		for _, id := range storage.ExtdataIDs() {
			if id != 0 {
				return id, nil
			}
		}
		return 0, fmt.Errorf("ncch: no non-zero extdata ID: %w", ErrNotFound)
	}

	return storage.ExtSaveDataID, nil
}

// HasExeFS reports whether the container has an ExeFS region. It returns
// false on any load failure.
func (c *Container) HasExeFS() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.sections != nil
}

// HasExHeader reports whether the container has an extended header. It
// returns false on any load failure.
func (c *Container) HasExHeader() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.exheader != nil
}

// HasRomFS reports whether the container has a RomFS region. It returns
// false on any load failure.
func (c *Container) HasRomFS() bool {
	if err := c.Load(); err != nil {
		return false
	}
	return c.header.RomFSSize != 0
}

// Encrypted reports the container's effective encryption state after Load,
// including the plaintext-exheader correction.
func (c *Container) Encrypted() bool {
	return c.encrypted
}

// Header returns the parsed NCCH header, or nil before a successful Load.
func (c *Container) Header() *NCCHHeader {
	return c.header
}

// ExHeader returns the parsed extended header, or nil if absent or before a
// successful Load.
func (c *Container) ExHeader() *ExHeader {
	return c.exheader
}
