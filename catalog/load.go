package catalog

import (
	"io"
	"io/fs"

	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type fileSPN struct {
	SPN        uint32   `yaml:"spn"`
	Name       string   `yaml:"name"`
	StartBit   *uint16  `yaml:"start_bit"`
	StartByte  *uint16  `yaml:"start_byte"`
	Length     uint16   `yaml:"length"`
	Resolution *float64 `yaml:"resolution"`
	Offset     float64  `yaml:"offset"`
}

type filePGN struct {
	PGN  uint32    `yaml:"pgn"`
	Name string    `yaml:"name"`
	SPNs []fileSPN `yaml:"spns"`
}

type file struct {
	PGNs []filePGN `yaml:"pgns"`
}

// LoadFile reads a catalog from a YAML or JSON file inside fsys.
//
// The file has a top level "pgns" list, each SPN states either
// start_bit or start_byte, resolution defaults to 1 and offset to 0.
func LoadFile(fsys fs.FS, path string, policy DuplicatePolicy) (*Catalog, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer f.Close()

	c, err := Load(f, policy)
	if err != nil {
		return nil, errors.Wrapf(err, "load catalog file %s", path)
	}

	return c, nil
}

// Load reads a catalog from r. JSON documents are accepted
// because they are valid YAML.
func Load(r io.Reader, policy DuplicatePolicy) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	b := NewBuilder(policy)
	for _, fp := range doc.PGNs {
		def := PGN{
			PGN:  fp.PGN,
			Name: fp.Name,
			SPNs: make([]SPN, 0, len(fp.SPNs)),
		}

		for _, s := range fp.SPNs {
			spn, err := s.toSPN()
			if err != nil {
				return nil, errors.Wrapf(err, "pgn %d", fp.PGN)
			}
			def.SPNs = append(def.SPNs, spn)
		}

		b.Add(def)
	}

	return b.Build()
}

func (s fileSPN) toSPN() (SPN, error) {
	spn := SPN{
		ID:         s.SPN,
		Name:       s.Name,
		Resolution: 1,
		Offset:     s.Offset,
	}

	if s.Resolution != nil {
		spn.Resolution = *s.Resolution
	}

	switch {
	case s.StartBit != nil && s.StartByte != nil:
		return SPN{}, errors.Wrapf(ErrInvalidDefinition, "spn %d: both start_bit and start_byte set", s.SPN)
	case s.StartBit != nil:
		spn.Position = protocol.Bits(*s.StartBit, s.Length)
	case s.StartByte != nil:
		spn.Position = protocol.Bytes(*s.StartByte, s.Length)
	default:
		return SPN{}, errors.Wrapf(ErrInvalidDefinition, "spn %d: missing start_bit or start_byte", s.SPN)
	}

	return spn, nil
}
