package ctrextract

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putUTF16(dst []byte, s string) {
	for i, r := range s {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(r))
	}
}

func encodeSMDH(short, long, publisher string, regionFlags uint32) []byte {
	data := make([]byte, SMDHSize)
	copy(data, "SMDH")

	// English title block.
	title := data[0x208:0x408]
	putUTF16(title, short)
	putUTF16(title[0x80:], long)
	putUTF16(title[0x180:], publisher)

	binary.LittleEndian.PutUint32(data[0x2018:], regionFlags)
	return data
}

func TestParseSMDH(t *testing.T) {
	data := encodeSMDH("Test", "Test Application", "Tester", 0x03)

	smdh, err := ParseSMDH(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, "Test", smdh.Title.ShortDescription)
	assert.Equal(t, "Test Application", smdh.Title.LongDescription)
	assert.Equal(t, "Tester", smdh.Title.Publisher)
	assert.Equal(t, []string{"Japan", "North America"}, smdh.Regions)
}

func TestParseSMDHRegionFree(t *testing.T) {
	data := encodeSMDH("Test", "Test", "Test", 0x7fffffff)

	smdh, err := ParseSMDH(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"World"}, smdh.Regions)
}

func TestParseSMDHBadMagic(t *testing.T) {
	data := encodeSMDH("Test", "Test", "Test", 0x01)
	copy(data, "NOPE")

	_, err := ParseSMDH(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestSMDHIcons(t *testing.T) {
	data := encodeSMDH("Test", "Test", "Test", 0x01)

	smdh, err := ParseSMDH(bytes.NewReader(data))
	require.NoError(t, err)

	small, err := smdh.SmallIcon()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 24, 24), small.Bounds())

	large, err := smdh.LargeIcon()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 48, 48), large.Bounds())
}
