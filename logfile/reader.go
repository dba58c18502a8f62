// Package logfile reads the tabular CAN logs exported by the machine's
// data logger: a fixed preamble followed by a CSV table with one frame per row.
package logfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/anand2532/SAE-J1939-parser/frame"
	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
)

// PreambleLines is the number of lines before the CSV header.
const PreambleLines = 7

const (
	colID            = "ID"
	colTime          = "Time"
	colType          = "Type"
	colPriority      = "Priority"
	colDataPage      = "Data Page"
	colPDUFormat     = "PDU-F"
	colPDUSpecific   = "PDU-S"
	colSourceAddress = "Source Address"
)

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrPreamble is returned when the input ends inside the preamble.
	ErrPreamble = errors.New("truncated preamble")
)

func byteColumn(i int) string {
	return fmt.Sprintf("Byte %d", i)
}

// RowError reports a row that could not be parsed.
// Reading can continue after a RowError.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Row is a parsed log row.
type Row struct {
	Line int

	ID        string
	Timestamp time.Time
	Type      string

	Priority      uint8
	DataPage      uint8
	PDUFormat     uint8
	PDUSpecific   uint8
	SourceAddress uint8

	Data [protocol.DataLength]byte
}

// Header returns the J1939 header described by the row columns.
func (r Row) Header() protocol.Header {
	return protocol.Header{
		Priority:      r.Priority,
		DataPage:      r.DataPage,
		PDUFormat:     r.PDUFormat,
		PDUSpecific:   r.PDUSpecific,
		SourceAddress: r.SourceAddress,
		PGN:           protocol.PGN(r.PDUFormat, r.PDUSpecific),
	}
}

// Frame returns the frame of the row. Its identifier is composed from the
// header columns, so the PGN always matches the PDU-F and PDU-S columns.
func (r Row) Frame() frame.CANFrame {
	return frame.CANFrame{
		ID:        protocol.Compose(r.Header()),
		Data:      r.Data,
		Timestamp: r.Timestamp,
	}
}

// Reader reads rows from a log.
type Reader struct {
	csv     *csv.Reader
	columns map[string]int
}

// NewReader skips the preamble of r and reads the CSV header.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)

	for i := range PreambleLines {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.Wrapf(ErrPreamble, "ended at line %d", i+1)
			}
			return nil, errors.Wrap(err, "read preamble")
		}
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.TrimSpace(strings.Trim(name, `"`))] = idx
	}

	required := []string{colID, colTime, colPDUFormat, colPDUSpecific}
	for i := range protocol.DataLength {
		required = append(required, byteColumn(i))
	}

	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return nil, errors.Wrapf(ErrMissingColumn, "%q", col)
		}
	}

	return &Reader{
		csv:     cr,
		columns: columns,
	}, nil
}

// Next returns the next row. It returns [io.EOF] at the end of the log
// and a [*RowError] for a row that cannot be parsed.
func (r *Reader) Next() (Row, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Row{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return Row{}, &RowError{Line: parseErr.Line + PreambleLines, Err: parseErr.Err}
		}

		return Row{}, errors.Wrap(err, "read row")
	}

	line, _ := r.csv.FieldPos(0)
	line += PreambleLines

	row, err := r.parse(record)
	if err != nil {
		return Row{}, &RowError{Line: line, Err: err}
	}
	row.Line = line

	return row, nil
}

// All iterates over the rows of the log. A [*RowError] is yielded
// and iteration continues, any other error ends the iteration.
func (r *Reader) All() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for {
			row, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}

			if !yield(row, err) {
				return
			}

			var rowErr *RowError
			if err != nil && !errors.As(err, &rowErr) {
				return
			}
		}
	}
}

func (r *Reader) field(record []string, col string) (string, bool) {
	idx, ok := r.columns[col]
	if !ok || idx >= len(record) {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(record[idx], `"`)), true
}

func (r *Reader) required(record []string, col string) (string, error) {
	val, ok := r.field(record, col)
	if !ok {
		return "", errors.Wrapf(ErrMissingColumn, "%q", col)
	}
	return val, nil
}

func (r *Reader) parse(record []string) (Row, error) {
	row := Row{}

	id, err := r.required(record, colID)
	if err != nil {
		return row, err
	}
	row.ID = id

	rawTime, err := r.required(record, colTime)
	if err != nil {
		return row, err
	}
	ts, err := parseTime(rawTime)
	if err != nil {
		return row, errors.Wrapf(err, "column %q", colTime)
	}
	row.Timestamp = ts

	if typ, ok := r.field(record, colType); ok {
		row.Type = typ
	}

	if row.Priority, err = r.optionalDecimal(record, colPriority, 7); err != nil {
		return row, err
	}
	if row.DataPage, err = r.optionalDecimal(record, colDataPage, 1); err != nil {
		return row, err
	}

	if row.PDUFormat, err = r.requiredHex(record, colPDUFormat); err != nil {
		return row, err
	}
	if row.PDUSpecific, err = r.requiredHex(record, colPDUSpecific); err != nil {
		return row, err
	}

	if sa, ok := r.field(record, colSourceAddress); ok && sa != "" {
		if row.SourceAddress, err = parseHexByte(sa); err != nil {
			return row, errors.Wrapf(err, "column %q", colSourceAddress)
		}
	}

	for i := range protocol.DataLength {
		col := byteColumn(i)
		val, err := r.required(record, col)
		if err != nil {
			return row, err
		}

		if row.Data[i], err = parseDataByte(val); err != nil {
			return row, errors.Wrapf(err, "column %q", col)
		}
	}

	return row, nil
}

func (r *Reader) requiredHex(record []string, col string) (uint8, error) {
	val, err := r.required(record, col)
	if err != nil {
		return 0, err
	}

	b, err := parseHexByte(val)
	if err != nil {
		return 0, errors.Wrapf(err, "column %q", col)
	}
	return b, nil
}

func (r *Reader) optionalDecimal(record []string, col string, maxVal uint64) (uint8, error) {
	val, ok := r.field(record, col)
	if !ok || val == "" {
		return 0, nil
	}

	n, err := strconv.ParseUint(val, 10, 8)
	if err != nil {
		return 0, errors.Wrapf(err, "column %q", col)
	}
	if n > maxVal {
		return 0, errors.Newf("column %q: %d exceeds %d", col, n, maxVal)
	}

	return uint8(n), nil
}

// parseHexByte parses a hexadecimal byte with or without the 0x prefix.
func parseHexByte(s string) (uint8, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// parseDataByte parses a data byte, hexadecimal when prefixed by 0x, decimal otherwise.
func parseDataByte(s string) (uint8, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return parseHexByte(s)
	}

	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

// parseTime parses Unix seconds with an optional fractional part.
func parseTime(s string) (time.Time, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, errors.Newf("invalid time %q", s)
	}

	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
}
