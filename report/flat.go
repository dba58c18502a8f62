package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/cockroachdb/errors"
)

// FlatAnomaly is the anomaly part of a [FlatEntry].
type FlatAnomaly struct {
	Detected   bool                `json:"detected"`
	Confidence *float64            `json:"confidence"`
	Methods    []string            `json:"methods"`
	Severity   *anomaly.Severity   `json:"severity"`
	Trend      *anomaly.Trend      `json:"trend"`
	Statistics *anomaly.Statistics `json:"statistics"`
}

// FlatEntry is a single SPN of a decoded message, numbered in output order.
type FlatEntry struct {
	ID            string       `json:"ID"`
	SerialNumber  int          `json:"serial_number"`
	Timestamp     string       `json:"timestamp"`
	PGNHex        string       `json:"pgn_hex"`
	PGNDefinition string       `json:"pgn_definition"`
	SPNDefinition string       `json:"spn_definition"`
	SPNValue      string       `json:"spn_value"`
	Alert         *string      `json:"alert"`
	AlertColor    *alert.Color `json:"alert_color"`
	HasBuzzer     bool         `json:"has_buzzer"`
	Anomaly       FlatAnomaly  `json:"anomaly"`
}

// Flattener turns records into one entry per SPN.
// Serial numbers start at 1 and keep increasing across records.
type Flattener struct {
	serial  int
	entries []FlatEntry
}

// NewFlattener returns an empty flattener.
func NewFlattener() *Flattener {
	return &Flattener{serial: 1}
}

// Add flattens a record. Only decoded messages produce entries, a PGN
// without SPNs produces a single [NoSPNsDefined] entry.
func (f *Flattener) Add(rec Record) []FlatEntry {
	if rec.Status != decode.StatusSuccess {
		return nil
	}

	start := len(f.entries)

	if len(rec.SPNs) == 0 {
		f.append(rec, NoSPNsDefined, "-", nil)
	}

	for _, spn := range rec.SPNs {
		if spn.Value == nil {
			continue
		}
		f.append(rec, spn.Name, fmt.Sprintf("%.2f", *spn.Value), &spn)
	}

	return f.entries[start:]
}

func (f *Flattener) append(rec Record, name, value string, spn *SPNRecord) {
	entry := FlatEntry{
		ID:            rec.Label(),
		SerialNumber:  f.serial,
		Timestamp:     rec.Timestamp.Format(TimeLayout),
		PGNHex:        rec.PGNHex,
		PGNDefinition: rec.PGNName,
		SPNDefinition: name,
		SPNValue:      value,
		Anomaly: FlatAnomaly{
			Methods: []string{},
		},
	}

	if spn != nil && spn.Alert != nil {
		color := spn.Alert.Color
		entry.AlertColor = &color
		if text := spn.Alert.Alert; text != "" {
			entry.Alert = &text
		}
		entry.HasBuzzer = spn.Alert.HasBuzzer
	}

	if spn != nil && spn.Anomaly != nil {
		a := spn.Anomaly
		confidence := a.Confidence
		severity := a.Severity
		trend := a.Trend
		stats := a.Statistics

		entry.Anomaly = FlatAnomaly{
			Detected:   a.IsAnomaly,
			Confidence: &confidence,
			Methods:    append([]string{}, a.DetectionMethods...),
			Severity:   &severity,
			Trend:      &trend,
			Statistics: &stats,
		}
	}

	f.entries = append(f.entries, entry)
	f.serial++
}

// Entries returns the entries added so far.
func (f *Flattener) Entries() []FlatEntry {
	return f.entries
}

// WriteFlat writes the entries as a JSON document.
func WriteFlat(w io.Writer, entries []FlatEntry) error {
	if entries == nil {
		entries = []FlatEntry{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(struct {
		Messages []FlatEntry `json:"messages"`
	}{entries}), "write flat report")
}
