package catalog

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Default(t *testing.T) {
	assert := assert.New(t)

	c := Default()
	assert.Same(c, Default())
	assert.Equal(28, c.Len())

	eec1, ok := c.Lookup(61444)
	require.True(t, ok)
	assert.Equal("Electronic Engine Controller 1 - EEC1", eec1.Name)
	assert.Equal("0xF004", eec1.Hex())
	require.Len(t, eec1.SPNs, 7)

	// the later definition replaces the earlier one
	assert.Equal(protocol.Bits(1, 4), eec1.SPNs[0].Position)
	assert.Equal(uint32(190), eec1.SPNs[3].ID)
	assert.Equal(0.125, eec1.SPNs[3].Resolution)
	assert.Equal(uint32(2432), eec1.SPNs[6].ID)

	et1, ok := c.Lookup(65262)
	require.True(t, ok)
	assert.Len(et1.SPNs, 3)

	vep, ok := c.Lookup(65271)
	require.True(t, ok)
	assert.Len(vep.SPNs, 3)

	empty, ok := c.Lookup(65280)
	require.True(t, ok)
	assert.Empty(empty.SPNs)

	tsc1, ok := c.Lookup(0)
	require.True(t, ok)
	assert.Equal("Torque/Speed Control 1 - TSC1", tsc1.Name)

	_, ok = c.Lookup(0xFFFF)
	assert.False(ok)

	assert.ElementsMatch([]uint32{65271, 61441, 61444, 65262, 65263, 65270}, c.Replaced())
}

func Test_Default_Deterministic(t *testing.T) {
	assert := assert.New(t)

	a := NewBuilder(LastWins).Add(DefaultDefinitions()...).MustBuild()
	b := NewBuilder(LastWins).Add(DefaultDefinitions()...).MustBuild()

	assert.Equal(a.PGNs(), b.PGNs())
	for _, pgn := range a.PGNs() {
		defA, _ := a.Lookup(pgn)
		defB, _ := b.Lookup(pgn)
		assert.Equal(defA, defB)
	}
}

func Test_Builder_Reject(t *testing.T) {
	assert := assert.New(t)

	_, err := NewBuilder(Reject).Add(DefaultDefinitions()...).Build()
	assert.ErrorIs(err, ErrDuplicatePGN)

	c, err := NewBuilder(Reject).Add(
		PGN{PGN: 1, Name: "one"},
		PGN{PGN: 2, Name: "two"},
	).Build()
	assert.NoError(err)
	assert.Equal([]uint32{1, 2}, c.PGNs())
	assert.Empty(c.Replaced())
}

func Test_Builder_NoMerge(t *testing.T) {
	assert := assert.New(t)

	c := NewBuilder(LastWins).Add(
		PGN{PGN: 10, Name: "first", SPNs: []SPN{byteSPN(1, "a", 1, 1), byteSPN(2, "b", 2, 1)}},
		PGN{PGN: 10, Name: "second", SPNs: []SPN{byteSPN(3, "c", 3, 1)}},
	).MustBuild()

	def, ok := c.Lookup(10)
	assert.True(ok)
	assert.Equal("second", def.Name)
	assert.Len(def.SPNs, 1)
	assert.Equal([]uint32{10}, c.Replaced())
}

func Test_Builder_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		spn  SPN
	}{
		{name: "zero length", spn: byteSPN(1, "a", 1, 0)},
		{name: "zero start", spn: bitSPN(1, "a", 0, 2)},
		{name: "too wide", spn: bitSPN(1, "a", 1, 65)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBuilder(LastWins).Add(PGN{PGN: 1, SPNs: []SPN{tc.spn}}).Build()
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func Test_Builder_DefaultResolution(t *testing.T) {
	c := NewBuilder(LastWins).Add(PGN{PGN: 1, SPNs: []SPN{{ID: 5, Position: protocol.Bytes(1, 1)}}}).MustBuild()

	def, _ := c.Lookup(1)
	assert.Equal(t, 1.0, def.SPNs[0].Resolution)
}

const testCatalogYAML = `
pgns:
  - pgn: 61444
    name: EEC1
    spns:
      - spn: 899
        name: Engine Torque Mode
        start_bit: 1
        length: 4
      - spn: 190
        name: Engine Speed
        start_byte: 4
        length: 2
        resolution: 0.125
  - pgn: 65128
    name: VF
    spns:
      - spn: 1638
        name: Hydraulic Temperature
        start_byte: 1
        length: 1
        offset: -40
  - pgn: 65280
    name: empty
`

const testCatalogJSON = `{"pgns": [{"pgn": 65262, "name": "ET1", "spns": [
	{"spn": 110, "name": "Engine Coolant Temperature", "start_byte": 1, "length": 1, "offset": -40}
]}]}`

func Test_LoadFile(t *testing.T) {
	assert := assert.New(t)

	fsys := fstest.MapFS{
		"catalog.yaml": {Data: []byte(testCatalogYAML)},
		"catalog.json": {Data: []byte(testCatalogJSON)},
	}

	c, err := LoadFile(fsys, "catalog.yaml", Reject)
	require.NoError(t, err)
	assert.Equal([]uint32{61444, 65128, 65280}, c.PGNs())

	eec1, _ := c.Lookup(61444)
	assert.Equal(protocol.Bits(1, 4), eec1.SPNs[0].Position)
	assert.Equal(1.0, eec1.SPNs[0].Resolution)
	assert.Equal(0.125, eec1.SPNs[1].Resolution)

	vf, _ := c.Lookup(65128)
	assert.Equal(-40.0, vf.SPNs[0].Offset)

	c, err = LoadFile(fsys, "catalog.json", LastWins)
	require.NoError(t, err)
	et1, ok := c.Lookup(65262)
	assert.True(ok)
	assert.Equal("Engine Coolant Temperature", et1.SPNs[0].Name)

	_, err = LoadFile(fsys, "missing.yaml", LastWins)
	assert.Error(err)
}

func Test_Load_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{name: "both starts", doc: "pgns: [{pgn: 1, spns: [{spn: 1, start_bit: 1, start_byte: 1, length: 1}]}]"},
		{name: "no start", doc: "pgns: [{pgn: 1, spns: [{spn: 1, length: 1}]}]"},
		{name: "unknown field", doc: "pgns: [{pgn: 1, colour: red}]"},
		{name: "duplicate", doc: "pgns: [{pgn: 1}, {pgn: 1}]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc), Reject)
			assert.Error(t, err)
		})
	}
}

func Test_ParseDuplicatePolicy(t *testing.T) {
	assert := assert.New(t)

	p, err := ParseDuplicatePolicy("")
	assert.NoError(err)
	assert.Equal(LastWins, p)

	p, err = ParseDuplicatePolicy("reject")
	assert.NoError(err)
	assert.Equal(Reject, p)

	_, err = ParseDuplicatePolicy("merge")
	assert.Error(err)
}
