package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Decompose(t *testing.T) {
	testCases := []struct {
		name   string
		id     uint32
		expect Header
	}{
		{
			name: "EEC1 from engine",
			id:   0x0CF00400,
			expect: Header{
				Priority:      3,
				DataPage:      0,
				PDUFormat:     0xF0,
				PDUSpecific:   0x04,
				SourceAddress: 0x00,
				PGN:           0xF004,
			},
		},
		{
			name: "ET1 with data page",
			id:   0x19FEEE17,
			expect: Header{
				Priority:      6,
				DataPage:      1,
				PDUFormat:     0xFE,
				PDUSpecific:   0xEE,
				SourceAddress: 0x17,
				PGN:           0xFEEE,
			},
		},
		{
			name: "top bits ignored",
			id:   0xE0000000 | 0x18FEF100,
			expect: Header{
				Priority:      6,
				PDUFormat:     0xFE,
				PDUSpecific:   0xF1,
				SourceAddress: 0x00,
				PGN:           0xFEF1,
			},
		},
		{
			name:   "zero",
			id:     0,
			expect: Header{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Decompose(tc.id))
		})
	}
}

func Test_ComposeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for prio := range uint8(8) {
		for dp := range uint8(2) {
			for _, pf := range []uint8{0x00, 0x01, 0xEA, 0xEF, 0xF0, 0xFE, 0xFF} {
				for _, ps := range []uint8{0x00, 0x04, 0x7F, 0xEE, 0xFF} {
					for _, sa := range []uint8{0x00, 0x17, 0xFE, 0xFF} {
						h := Header{
							Priority:      prio,
							DataPage:      dp,
							PDUFormat:     pf,
							PDUSpecific:   ps,
							SourceAddress: sa,
							PGN:           PGN(pf, ps),
						}

						assert.Equal(h, Decompose(Compose(h)))
					}
				}
			}
		}
	}
}

func Test_FormatPGN(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("0xF004", FormatPGN(61444))
	assert.Equal("0x0000", FormatPGN(0))
	assert.Equal("0xFEEE", FormatPGN(0xFEEE))
}
