package report

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

type jsonReport struct {
	VehicleInfo VehicleInfo `json:"vehicle_info"`
	Statistics  Summary     `json:"statistics"`
	UnknownPGNs []string    `json:"unknown_pgns"`
	Messages    []Record    `json:"messages"`
}

// WriteJSON writes the machine readable counterpart of [WriteText].
func WriteJSON(w io.Writer, info VehicleInfo, summary Summary, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	unknown := summary.UnknownPGNs
	if unknown == nil {
		unknown = []string{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(jsonReport{
		VehicleInfo: info,
		Statistics:  summary,
		UnknownPGNs: unknown,
		Messages:    records,
	}), "write json report")
}

// WriteSummary writes the statistics of a run as a JSON document.
func WriteSummary(w io.Writer, summary Summary) error {
	if summary.UnknownPGNs == nil {
		summary.UnknownPGNs = []string{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(summary), "write summary")
}

// JSONLinesWriter writes one JSON record per line.
type JSONLinesWriter struct {
	enc *json.Encoder
}

// NewJSONLinesWriter returns a writer appending records to w.
func NewJSONLinesWriter(w io.Writer) *JSONLinesWriter {
	return &JSONLinesWriter{
		enc: json.NewEncoder(w),
	}
}

// Write appends a record.
func (w *JSONLinesWriter) Write(rec Record) error {
	return errors.Wrap(w.enc.Encode(rec), "write json line")
}
