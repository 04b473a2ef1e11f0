package keys

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T, s string) [16]byte {
	t.Helper()

	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, 16)

	var key [16]byte
	copy(key[:], raw)
	return key
}

func TestScramble(t *testing.T) {
	// With both components zero, the scrambler reduces to rotl(C, 87).
	assert.Equal(t,
		mustKey(t, "EE2EA93B450FFCF4D562FF02040122C8"),
		scramble([16]byte{}, [16]byte{}))

	assert.Equal(t,
		mustKey(t, "C3AED410C30FD21F56387E822F2BA348"),
		scramble(
			mustKey(t, "00112233445566778899AABBCCDDEEFF"),
			mustKey(t, "FFEEDDCCBBAA99887766554433221100")))
}

func TestAvailability(t *testing.T) {
	db := NewDatabase()
	assert.False(t, db.IsKeyAvailable(Secure1))

	db.SetKeyY(Secure1, mustKey(t, "FFEEDDCCBBAA99887766554433221100"))
	assert.False(t, db.IsKeyAvailable(Secure1), "KeyY alone must not be enough")

	db.SetKeyX(Secure1, mustKey(t, "00112233445566778899AABBCCDDEEFF"))
	require.True(t, db.IsKeyAvailable(Secure1))

	assert.Equal(t, mustKey(t, "C3AED410C30FD21F56387E822F2BA348"), db.GetKey(Secure1))
	assert.Equal(t, db.GetKey(Secure1), db.GetKey(Secure1), "derivation must be idempotent")

	assert.False(t, db.IsKeyAvailable(Secure2), "slots are independent")
}

func TestSetKeyYInvalidates(t *testing.T) {
	db := NewDatabase()
	db.SetKeyX(Secure1, [16]byte{})
	db.SetKeyY(Secure1, [16]byte{})
	first := db.GetKey(Secure1)

	db.SetKeyY(Secure1, mustKey(t, "FFEEDDCCBBAA99887766554433221100"))
	second := db.GetKey(Secure1)
	assert.NotEqual(t, first, second)

	// Setting the same KeyY again must not recompute anything.
	db.SetKeyY(Secure1, mustKey(t, "FFEEDDCCBBAA99887766554433221100"))
	assert.Equal(t, second, db.GetKey(Secure1))
}

func TestSetNormalKey(t *testing.T) {
	db := NewDatabase()
	db.SetNormalKey(Secure2, mustKey(t, "000102030405060708090A0B0C0D0E0F"))

	require.True(t, db.IsKeyAvailable(Secure2))
	assert.Equal(t, mustKey(t, "000102030405060708090A0B0C0D0E0F"), db.GetKey(Secure2))
}

func TestLoadFrom(t *testing.T) {
	input := strings.NewReader(strings.Join([]string{
		"# console-unique keys omitted",
		"",
		"slot0x2CKeyX=00112233445566778899AABBCCDDEEFF",
		"slot0x25KeyN=000102030405060708090A0B0C0D0E0F",
	}, "\n"))

	db := NewDatabase()
	require.NoError(t, db.LoadFrom(input))

	assert.False(t, db.IsKeyAvailable(Secure1), "KeyY comes from the content, not the file")

	db.SetKeyY(Secure1, mustKey(t, "FFEEDDCCBBAA99887766554433221100"))
	require.True(t, db.IsKeyAvailable(Secure1))
	assert.Equal(t, mustKey(t, "C3AED410C30FD21F56387E822F2BA348"), db.GetKey(Secure1))

	require.True(t, db.IsKeyAvailable(Secure2))
	assert.Equal(t, mustKey(t, "000102030405060708090A0B0C0D0E0F"), db.GetKey(Secure2))
}

func TestLoadFromErrors(t *testing.T) {
	for name, input := range map[string]string{
		"missing separator": "slot0x2CKeyX",
		"bad name":          "bogus=00112233445566778899AABBCCDDEEFF",
		"bad hex":           "slot0x2CKeyX=zz112233445566778899AABBCCDDEEFF",
		"short key":         "slot0x2CKeyX=0011",
		"bad component":     "slot0x2CKeyZ=00112233445566778899AABBCCDDEEFF",
	} {
		t.Run(name, func(t *testing.T) {
			db := NewDatabase()
			assert.Error(t, db.LoadFrom(strings.NewReader(input)))
		})
	}
}
