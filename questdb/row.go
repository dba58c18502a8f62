package questdb

import (
	"iter"
	"time"

	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/j1939"
)

type columnType int

const (
	columnTypeBool columnType = iota
	columnTypeInt
	columnTypeFloat
	columnTypeString
)

type column struct {
	name  string
	typ   columnType
	value any
}

type symbol struct {
	name  string
	value string
}

type row struct {
	table     string
	timestamp time.Time
	symbols   []symbol
	columns   []column
}

type tables struct {
	spn        string
	unknownPGN string
}

// rowsOf maps the decoded messages of a batch to table rows.
// Every extracted SPN is a row of the SPN table and every unknown PGN
// a row of the unknown PGN table. SPNs that failed and messages
// with an error status are skipped.
func rowsOf(msg *j1939.Message, t tables) iter.Seq[row] {
	return func(yield func(row) bool) {
		for _, decoded := range msg.Messages {
			switch decoded.Status {
			case decode.StatusSuccess:
				for _, spn := range decoded.SPNs {
					if spn.Err != nil {
						continue
					}

					if !yield(spnRow(t.spn, &decoded, &spn)) {
						return
					}
				}

			case decode.StatusUnknownPGN:
				if !yield(unknownPGNRow(t.unknownPGN, &decoded)) {
					return
				}
			}
		}
	}
}

func spnRow(table string, msg *decode.Message, spn *decode.SPNValue) row {
	r := row{
		table:     table,
		timestamp: msg.Timestamp,
		symbols: []symbol{
			{name: "pgn", value: msg.PGNHex},
			{name: "pgn_name", value: msg.PGNName},
			{name: "spn_name", value: spn.Name},
		},
		columns: []column{
			{name: "spn", typ: columnTypeInt, value: int64(spn.ID)},
			{name: "source_address", typ: columnTypeInt, value: int64(msg.SourceAddress)},
			{name: "raw_value", typ: columnTypeInt, value: int64(spn.Raw)},
			{name: "value", typ: columnTypeFloat, value: spn.Value},
			{name: "truncated", typ: columnTypeBool, value: spn.Truncated},
		},
	}

	if spn.Alert != nil {
		r.columns = append(r.columns, column{name: "alert_color", typ: columnTypeString, value: string(spn.Alert.Color)})
	}

	return r
}

func unknownPGNRow(table string, msg *decode.Message) row {
	return row{
		table:     table,
		timestamp: msg.Timestamp,
		symbols: []symbol{
			{name: "pgn", value: msg.PGNHex},
		},
		columns: []column{
			{name: "source_address", typ: columnTypeInt, value: int64(msg.SourceAddress)},
		},
	}
}
