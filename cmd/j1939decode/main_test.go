package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLog = `Vehicle: BD-155
VIN: 13869
Make: BEML LTD
Logger: CAN-1
Bitrate: 250k
Started: 2024-01-10 08:00:00
Comment:
"ID","Time","Type","Priority","Data Page","PDU-F","PDU-S","Source Address","PGN","PID","Byte 0","Byte 1","Byte 2","Byte 3","Byte 4","Byte 5","Byte 6","Byte 7"
"0CF00400","1704873600.25","Rx","3","0","0xF0","0x04","0x00","61444","-","0x03","0x7D","0x82","0xE8","0x03","0x00","0x01","0x7D"
"18ABCD00","1704873600.5","Rx","6","0","AB","CD","00","","-","0","0","0","0","0","0","0","0"
"bad","x","Rx","6","0","FE","EE","00","","-","0","0","0","0","0","0","0","0"
"18FEEE00","1704873601","Rx","6","0","FE","EE","00","65262","-","120","90","32","35","255","255","255","255"
`

func testOptions(t *testing.T) *options {
	t.Helper()

	dir := t.TempDir()

	input := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(input, []byte(testLog), 0o644))

	return &options{
		input:  input,
		output: filepath.Join(dir, "decoded_output.txt"),

		csvPath:  filepath.Join(dir, "decoded.csv"),
		flatPath: filepath.Join(dir, "flat.json"),
		cborPath: filepath.Join(dir, "decoded.cbor"),

		vehicle: report.DefaultVehicleInfo(),

		alerts:    true,
		anomalies: true,
	}
}

func Test_decodeLog(t *testing.T) {
	assert := assert.New(t)

	opts := testOptions(t)
	engine, err := newEngine(opts)
	require.NoError(t, err)

	in, err := os.Open(opts.input)
	require.NoError(t, err)
	defer in.Close()

	records, err := decodeLog(in, engine, internal.NewLogger("cmd", "test"))
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(decode.StatusSuccess, records[0].Status)
	assert.Equal("0CF00400", records[0].Label())
	assert.Equal(decode.StatusUnknownPGN, records[1].Status)
	assert.Equal(decode.StatusError, records[2].Status)
	assert.Equal("line 11", records[2].Source)
	assert.Equal("0xFEEE", records[3].PGNHex)

	stats := engine.Stats()
	assert.Equal(uint64(4), stats.Total)
	assert.Equal(uint64(2), stats.Decoded)
	assert.Equal(uint64(1), stats.Unknown)
	assert.Equal(uint64(1), stats.Errors)
}

func Test_run(t *testing.T) {
	assert := assert.New(t)

	opts := testOptions(t)
	require.NoError(t, run(opts, internal.NewLogger("cmd", "test")))

	text, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	assert.True(strings.HasPrefix(string(text), "BEML BD-155 CAN Message Decoder Output"))
	assert.Contains(string(text), "Total Messages: 4")

	_, err = os.Stat(strings.TrimSuffix(opts.output, ".txt") + ".json")
	assert.NoError(err)

	csvData, err := os.ReadFile(opts.csvPath)
	require.NoError(t, err)
	// header plus the two decoded rows
	assert.Len(strings.Split(strings.TrimSpace(string(csvData)), "\n"), 3)

	_, err = os.Stat(opts.flatPath)
	assert.NoError(err)

	cborFile, err := os.Open(opts.cborPath)
	require.NoError(t, err)
	defer cborFile.Close()

	archived, err := report.ReadCBOR(cborFile)
	require.NoError(t, err)
	assert.Len(archived, 4)
}

func Test_options_jsonPath(t *testing.T) {
	testCases := []struct {
		output string
		expect string
	}{
		{output: "out.txt", expect: "out.json"},
		{output: "out", expect: "out.json"},
		{output: "out.json", expect: "out_report.json"},
	}

	for _, tc := range testCases {
		t.Run(tc.output, func(t *testing.T) {
			opts := &options{output: tc.output}
			assert.Equal(t, tc.expect, opts.jsonPath())
		})
	}
}

func Test_run_MissingInput(t *testing.T) {
	opts := testOptions(t)
	opts.input = filepath.Join(t.TempDir(), "missing.csv")

	assert.Error(t, run(opts, internal.NewLogger("cmd", "test")))
}

func Test_run_DuplicatePolicy(t *testing.T) {
	testCases := []struct {
		name   string
		policy string
	}{
		{name: "reject on the built-in catalog", policy: "reject"},
		{name: "unknown policy", policy: "merge"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions(t)
			opts.duplicatePolicy = tc.policy

			assert.Error(t, run(opts, internal.NewLogger("cmd", "test")))
		})
	}
}
