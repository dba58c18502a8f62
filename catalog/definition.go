package catalog

import (
	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
)

// SPN describes a suspect parameter carried by a parameter group.
type SPN struct {
	ID       uint32
	Name     string
	Position protocol.Position

	// Resolution is the scale applied to the raw value.
	// A zero resolution is replaced by 1 when the catalog is built.
	Resolution float64
	Offset     float64
}

// PGN describes a parameter group and the ordered list of its SPNs.
// A PGN without SPNs is valid.
type PGN struct {
	PGN  uint32
	Name string
	SPNs []SPN
}

// Hex returns the PGN formatted as 0xXXXX.
func (p *PGN) Hex() string {
	return protocol.FormatPGN(p.PGN)
}

func (s SPN) validate() error {
	if err := s.Position.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidDefinition, "spn %d (%s): %v", s.ID, s.Name, err)
	}
	return nil
}

func (s SPN) normalized() SPN {
	if s.Resolution == 0 {
		s.Resolution = 1
	}
	return s
}

// helpers used to keep the bundled tables compact

func bitSPN(id uint32, name string, start, length uint16) SPN {
	return SPN{ID: id, Name: name, Position: protocol.Bits(start, length), Resolution: 1}
}

func byteSPN(id uint32, name string, start, length uint16) SPN {
	return SPN{ID: id, Name: name, Position: protocol.Bytes(start, length), Resolution: 1}
}

func scaled(s SPN, resolution, offset float64) SPN {
	s.Resolution = resolution
	s.Offset = offset
	return s
}
