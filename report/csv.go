package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/cockroachdb/errors"
)

// NoSPNsDefined is written in place of the SPN names for a PGN
// whose definition carries no SPNs.
const NoSPNsDefined = "No SPNs defined"

var csvHeader = []string{"ID", "Timestamp", "PGN (Hex)", "PGN Definition", "SPN Definitions", "SPN Values"}

// CSVWriter writes one row per decoded message, listing the names
// and the values of its SPNs in two comma separated columns.
// Messages that are not decoded and SPNs that failed are left out.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter writes the header to w and returns the writer.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return nil, errors.Wrap(err, "write csv header")
	}

	return &CSVWriter{w: cw}, nil
}

// Write appends the row of a record. It reports whether a row was written.
func (w *CSVWriter) Write(rec Record) (bool, error) {
	if rec.Status != decode.StatusSuccess {
		return false, nil
	}

	names, values := csvValues(rec)
	if names == "" {
		return false, nil
	}

	err := w.w.Write([]string{
		rec.Label(),
		rec.Timestamp.Format(TimeLayout),
		rec.PGNHex,
		rec.PGNName,
		names,
		values,
	})
	if err != nil {
		return false, errors.Wrap(err, "write csv row")
	}

	return true, nil
}

// Flush writes the buffered rows.
func (w *CSVWriter) Flush() error {
	w.w.Flush()
	return errors.Wrap(w.w.Error(), "flush csv")
}

func csvValues(rec Record) (string, string) {
	if len(rec.SPNs) == 0 {
		return NoSPNsDefined, "-"
	}

	names := make([]string, 0, len(rec.SPNs))
	values := make([]string, 0, len(rec.SPNs))
	for _, spn := range rec.SPNs {
		if spn.Value == nil {
			continue
		}
		names = append(names, spn.Name)
		values = append(values, fmt.Sprintf("%.2f", *spn.Value))
	}

	return strings.Join(names, ", "), strings.Join(values, ", ")
}
