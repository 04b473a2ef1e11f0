// Package keys resolves the AES keys used by NCCH containers.
//
// The console combines a console-held KeyX with a content-held KeyY through
// its hardware keyscrambler to obtain the normal key loaded into a key slot.
// KeyX values are not distributed with this package; they can be loaded from
// a Citra-style aes_keys.txt file with LoadFile.
package keys

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"math/bits"
	"os"
	"strings"
)

// SlotID identifies an AES key slot.
type SlotID int

// Key slots used by NCCH crypto.
const (
	Secure1 SlotID = 0x2C
	Secure2 SlotID = 0x25
	Secure3 SlotID = 0x18
	Secure4 SlotID = 0x1B
)

type keySlot struct {
	keyX   *[16]byte
	keyY   *[16]byte
	normal *[16]byte
}

// Database holds per-slot key material and derives normal keys on demand.
//
// The zero value is not usable; call NewDatabase. A Database is safe to
// query repeatedly but not to mutate concurrently.
type Database struct {
	slots map[SlotID]*keySlot
}

// NewDatabase returns an empty key database.
func NewDatabase() *Database {
	return &Database{
		slots: make(map[SlotID]*keySlot),
	}
}

func (db *Database) slot(id SlotID) *keySlot {
	s, ok := db.slots[id]
	if !ok {
		s = &keySlot{}
		db.slots[id] = s
	}
	return s
}

// SetKeyX stores the KeyX component of a slot and invalidates any derived
// normal key.
func (db *Database) SetKeyX(id SlotID, keyX [16]byte) {
	s := db.slot(id)
	s.keyX = &keyX
	s.normal = nil
}

// SetKeyY stores the KeyY component of a slot and invalidates any derived
// normal key. Setting the same KeyY twice is a no-op.
func (db *Database) SetKeyY(id SlotID, keyY [16]byte) {
	s := db.slot(id)
	if s.keyY != nil && *s.keyY == keyY {
		return
	}
	s.keyY = &keyY
	s.normal = nil
}

// SetNormalKey stores a normal key directly, bypassing the scrambler.
func (db *Database) SetNormalKey(id SlotID, key [16]byte) {
	s := db.slot(id)
	s.normal = &key
}

// IsKeyAvailable reports whether GetKey can produce a normal key for the
// slot. Availability must be checked before use; a zero key is a valid key.
func (db *Database) IsKeyAvailable(id SlotID) bool {
	s, ok := db.slots[id]
	if !ok {
		return false
	}
	return s.normal != nil || (s.keyX != nil && s.keyY != nil)
}

// GetKey returns the normal key of the slot, deriving it from KeyX and KeyY
// if needed. It returns the zero key when the slot is unavailable.
func (db *Database) GetKey(id SlotID) [16]byte {
	s, ok := db.slots[id]
	if !ok {
		return [16]byte{}
	}
	if s.normal == nil {
		if s.keyX == nil || s.keyY == nil {
			return [16]byte{}
		}
		normal := scramble(*s.keyX, *s.keyY)
		s.normal = &normal
	}
	return *s.normal
}

// u128 is a 128-bit unsigned integer, most significant half first.
type u128 struct {
	hi, lo uint64
}

// scramblerC is the hardware keyscrambler addition constant.
var scramblerC = u128{0x1FF9E9AAC5FE0408, 0x024591DC5D52768A}

// scramble implements the AES engine key generator:
// normal = rotl(rotl(KeyX, 2) ^ KeyY + C, 87), all mod 2^128.
func scramble(keyX, keyY [16]byte) [16]byte {
	x := load128(keyX)
	y := load128(keyY)

	n := add128(xor128(rotl128(x, 2), y), scramblerC)
	return store128(rotl128(n, 87))
}

func load128(b [16]byte) u128 {
	var v u128
	for i := 0; i < 8; i++ {
		v.hi = v.hi<<8 | uint64(b[i])
		v.lo = v.lo<<8 | uint64(b[i+8])
	}
	return v
}

func store128(v u128) [16]byte {
	var b [16]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v.hi)
		b[i+8] = byte(v.lo)
		v.hi >>= 8
		v.lo >>= 8
	}
	return b
}

func xor128(a, b u128) u128 {
	return u128{a.hi ^ b.hi, a.lo ^ b.lo}
}

func add128(a, b u128) u128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, _ := bits.Add64(a.hi, b.hi, carry)
	return u128{hi, lo}
}

func rotl128(v u128, n uint) u128 {
	if n >= 64 {
		v = u128{v.lo, v.hi}
		n -= 64
	}
	if n == 0 {
		return v
	}
	return u128{
		v.hi<<n | v.lo>>(64-n),
		v.lo<<n | v.hi>>(64-n),
	}
}

// LoadFrom reads key material in the aes_keys.txt line format:
// "slot0xNNKeyX=hex", with KeyY and KeyN variants. Blank lines and lines
// starting with '#' are skipped.
func (db *Database) LoadFrom(input io.Reader) error {
	scanner := bufio.NewScanner(input)
	line := 0

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		name, value, found := strings.Cut(text, "=")
		if !found {
			return fmt.Errorf("keys: line %d: missing '='", line)
		}

		var slot uint64
		var component string
		if _, err := fmt.Sscanf(name, "slot0x%2XKey%s", &slot, &component); err != nil {
			return fmt.Errorf("keys: line %d: unrecognized key name %q", line, name)
		}

		raw, err := hex.DecodeString(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("keys: line %d: %w", line, err)
		}
		if len(raw) != 16 {
			return fmt.Errorf("keys: line %d: key must be 16 bytes, got %d", line, len(raw))
		}

		var key [16]byte
		copy(key[:], raw)

		switch component {
		case "X":
			db.SetKeyX(SlotID(slot), key)
		case "Y":
			db.SetKeyY(SlotID(slot), key)
		case "N":
			db.SetNormalKey(SlotID(slot), key)
		default:
			return fmt.Errorf("keys: line %d: unrecognized key component %q", line, component)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("keys: failed to read input: %w", err)
	}

	return nil
}

// LoadFile builds a database from an aes_keys.txt file.
func LoadFile(path string) (*Database, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	defer file.Close()

	db := NewDatabase()
	if err := db.LoadFrom(file); err != nil {
		return nil, err
	}
	return db, nil
}
