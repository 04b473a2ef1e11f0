package ctrextract

import (
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/connesc/ctrextract/ctrutil"
)

// SMDHSize is the fixed size of an SMDH icon section.
const SMDHSize = 0x36c0

// SMDH is the icon section of an application: localized titles, region
// lockout and icon images.
type SMDH struct {
	Title   SMDHTitle
	Regions []string

	smallIcon []byte
	largeIcon []byte
}

// SMDHTitle is the English title block.
type SMDHTitle struct {
	ShortDescription string
	LongDescription  string
	Publisher        string
}

// ParseSMDH decodes an SMDH icon section, typically the payload of the
// "icon" ExeFS section.
func ParseSMDH(input io.Reader) (*SMDH, error) {
	reader := ctrutil.NewReader(input)

	data := make([]byte, SMDHSize)
	_, err := io.ReadFull(reader, data)
	if err != nil {
		return nil, fmt.Errorf("smdh: failed to read data: %w", err)
	}

	if string(data[:0x4]) != "SMDH" {
		return nil, fmt.Errorf("smdh: magic not found")
	}

	title := data[0x208:0x408]
	shortDescription := strings.TrimRight(ctrutil.DecodeUTF16(title[:0x80], binary.LittleEndian), "\x00")
	longDescription := strings.TrimRight(ctrutil.DecodeUTF16(title[0x80:0x180], binary.LittleEndian), "\x00")
	publisher := strings.TrimRight(ctrutil.DecodeUTF16(title[0x180:0x200], binary.LittleEndian), "\x00")

	regionFlags := binary.LittleEndian.Uint32(data[0x2018:])
	regions := make([]string, 0, 1)
	if regionFlags == 0x7fffffff {
		regions = append(regions, "World")
	} else {
		if regionFlags > 0x7f {
			return nil, fmt.Errorf("smdh: unexpected region flags: %s", Hex32(regionFlags))
		} else if (regionFlags&0x04)<<1 != regionFlags&0x08 {
			return nil, fmt.Errorf("smdh: region flags must be the same for Europe and Australia: %s", Hex32(regionFlags))
		}
		if regionFlags&0x01 != 0 {
			regions = append(regions, "Japan")
		}
		if regionFlags&0x02 != 0 {
			regions = append(regions, "North America")
		}
		if regionFlags&0x04 != 0 {
			regions = append(regions, "Europe")
		}
		if regionFlags&0x10 != 0 {
			regions = append(regions, "China")
		}
		if regionFlags&0x20 != 0 {
			regions = append(regions, "Korea")
		}
		if regionFlags&0x40 != 0 {
			regions = append(regions, "Taiwan")
		}
	}

	smallIcon := make([]byte, 0x480)
	copy(smallIcon, data[0x2040:])
	largeIcon := make([]byte, 0x1200)
	copy(largeIcon, data[0x24c0:])

	return &SMDH{
		Title: SMDHTitle{
			ShortDescription: shortDescription,
			LongDescription:  longDescription,
			Publisher:        publisher,
		},
		Regions: regions,

		smallIcon: smallIcon,
		largeIcon: largeIcon,
	}, nil
}

// SmallIcon decodes the 24x24 icon image.
func (s *SMDH) SmallIcon() (image.Image, error) {
	return DecodeIconImage(s.smallIcon, 24)
}

// LargeIcon decodes the 48x48 icon image.
func (s *SMDH) LargeIcon() (image.Image, error) {
	return DecodeIconImage(s.largeIcon, 48)
}
