package questdb

import (
	"testing"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/catalog"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTables = tables{spn: "spns", unknownPGN: "unknown"}

func testMessage() *j1939.Message {
	ts := time.Unix(1700000000, 0)
	e := decode.NewEngine(catalog.Default(), decode.WithAlertEvaluator(alert.NewDefaultEvaluator()))

	msg := &j1939.Message{}
	for _, f := range []frame.CANFrame{
		{ID: 0x0CF00400, Data: [8]byte{0x03, 0x7D, 0x82, 0xE8, 0x03, 0x00, 0x01, 0x7D}, Timestamp: ts},
		{ID: 0x18ABCD21, Timestamp: ts},
		{ID: 0x18FF0000, Timestamp: ts},
	} {
		msg.Frames = append(msg.Frames, f)
		msg.Messages = append(msg.Messages, e.DecodeFrame(f))
	}

	msg.Messages = append(msg.Messages, e.RecordFailure("x", ts, assert.AnError))

	return msg
}

func Test_rowsOf(t *testing.T) {
	assert := assert.New(t)

	rows := []row{}
	for r := range rowsOf(testMessage(), testTables) {
		rows = append(rows, r)
	}

	// seven EEC1 SPNs and one unknown PGN
	require.Len(t, rows, 8)

	speed := rows[3]
	assert.Equal("spns", speed.table)
	assert.Equal(time.Unix(1700000000, 0), speed.timestamp)
	assert.Equal([]symbol{
		{name: "pgn", value: "0xF004"},
		{name: "pgn_name", value: "Electronic Engine Controller 1 - EEC1"},
		{name: "spn_name", value: "Engine Speed"},
	}, speed.symbols)
	assert.Equal([]column{
		{name: "spn", typ: columnTypeInt, value: int64(190)},
		{name: "source_address", typ: columnTypeInt, value: int64(0)},
		{name: "raw_value", typ: columnTypeInt, value: int64(1000)},
		{name: "value", typ: columnTypeFloat, value: 125.0},
		{name: "truncated", typ: columnTypeBool, value: false},
		{name: "alert_color", typ: columnTypeString, value: "GREEN"},
	}, speed.columns)

	// unmonitored SPNs have no alert column
	assert.Len(rows[0].columns, 5)

	unknown := rows[7]
	assert.Equal("unknown", unknown.table)
	assert.Equal([]symbol{{name: "pgn", value: "0xABCD"}}, unknown.symbols)
	assert.Equal([]column{{name: "source_address", typ: columnTypeInt, value: int64(0x21)}}, unknown.columns)
}

func Test_rowsOf_StopEarly(t *testing.T) {
	count := 0
	for range rowsOf(testMessage(), testTables) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}
