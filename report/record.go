// Package report renders decoded messages and run statistics
// in the output formats of the decoder.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/protocol"
	"github.com/cockroachdb/errors"
)

// VehicleInfo identifies the machine the log was recorded on.
type VehicleInfo struct {
	VIN   string `json:"vin" yaml:"vin" cbor:"vin"`
	Make  string `json:"make" yaml:"make" cbor:"make"`
	Model string `json:"model" yaml:"model" cbor:"model"`
}

// DefaultVehicleInfo returns the machine the default catalog was written for.
func DefaultVehicleInfo() VehicleInfo {
	return VehicleInfo{
		VIN:   "13869",
		Make:  "BEML LTD",
		Model: "BD-155",
	}
}

// SPNRecord is the output form of a decoded SPN.
// Either RawValue and Value or Error are set.
type SPNRecord struct {
	SPN       uint32          `json:"spn" cbor:"spn"`
	Name      string          `json:"name" cbor:"name"`
	RawValue  *uint64         `json:"raw_value,omitempty" cbor:"raw_value,omitempty"`
	Value     *float64        `json:"value,omitempty" cbor:"value,omitempty"`
	Truncated bool            `json:"truncated,omitempty" cbor:"truncated,omitempty"`
	Error     string          `json:"error,omitempty" cbor:"error,omitempty"`
	Alert     *alert.Result   `json:"alert,omitempty" cbor:"alert,omitempty"`
	Anomaly   *anomaly.Result `json:"anomaly,omitempty" cbor:"anomaly,omitempty"`
}

// SPNRecords are the SPNs of a record in catalog order.
// In JSON they are an object keyed by SPN name that keeps the same order.
// A name repeated inside a message is keyed as "<name> (spn <id>)".
// CBOR keeps them as an array.
type SPNRecords []SPNRecord

func (s SPNRecords) MarshalJSON() ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('{')

	seen := make(map[string]struct{}, len(s))
	for i, spn := range s {
		key := spn.Name
		if _, ok := seen[key]; ok {
			key = fmt.Sprintf("%s (spn %d)", spn.Name, spn.SPN)
		}
		seen[key] = struct{}{}

		rawKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		rawValue, err := json.Marshal(spn)
		if err != nil {
			return nil, errors.Wrapf(err, "encode spn %d", spn.SPN)
		}

		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(rawKey)
		buf.WriteByte(':')
		buf.Write(rawValue)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *SPNRecords) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Newf("spns: expected an object, got %v", tok)
	}

	out := SPNRecords{}
	for dec.More() {
		// the key repeats the name carried by the value
		if _, err := dec.Token(); err != nil {
			return err
		}

		spn := SPNRecord{}
		if err := dec.Decode(&spn); err != nil {
			return err
		}
		out = append(out, spn)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// Record is the output form of a decoded message.
type Record struct {
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
	Source    string    `json:"source,omitempty" cbor:"source,omitempty"`
	ID        string    `json:"id,omitempty" cbor:"id,omitempty"`

	PGNHex  string        `json:"pgn_hex,omitempty" cbor:"pgn_hex,omitempty"`
	PGNName string        `json:"pgn_name,omitempty" cbor:"pgn_name,omitempty"`
	Status  decode.Status `json:"status" cbor:"status"`

	Priority      uint8 `json:"priority" cbor:"priority"`
	DataPage      uint8 `json:"data_page" cbor:"data_page"`
	PDUFormat     uint8 `json:"pdu_format" cbor:"pdu_format"`
	PDUSpecific   uint8 `json:"pdu_specific" cbor:"pdu_specific"`
	SourceAddress uint8 `json:"source_address" cbor:"source_address"`

	SPNs      SPNRecords `json:"spns,omitempty" cbor:"spns,omitempty"`
	DataBytes []string   `json:"data_bytes" cbor:"data_bytes"`

	Error string `json:"error,omitempty" cbor:"error,omitempty"`
}

// NewRecord converts a decoded message to its output form.
func NewRecord(msg decode.Message) Record {
	rec := Record{
		Timestamp: msg.Timestamp,
		Source:    msg.Source,
		ID:        fmt.Sprintf("0x%08X", protocol.Compose(msg.Header)),

		PGNHex:  msg.PGNHex,
		PGNName: msg.PGNName,
		Status:  msg.Status,

		Priority:      msg.Priority,
		DataPage:      msg.DataPage,
		PDUFormat:     msg.PDUFormat,
		PDUSpecific:   msg.PDUSpecific,
		SourceAddress: msg.SourceAddress,

		DataBytes: formatData(msg.Data),
	}

	if msg.Err != nil {
		rec.Error = msg.Err.Error()
	}

	// inputs that never became a frame have no identifier
	var fdErr *decode.FrameDecodeError
	if errors.As(msg.Err, &fdErr) && fdErr.PGN == nil {
		rec.ID = ""
		rec.PGNHex = ""
		return rec
	}

	if rec.PGNHex == "" {
		rec.PGNHex = protocol.FormatPGN(msg.PGN)
	}

	if len(msg.SPNs) > 0 {
		rec.SPNs = make(SPNRecords, 0, len(msg.SPNs))
	}

	for _, spn := range msg.SPNs {
		spnRec := SPNRecord{
			SPN:  spn.ID,
			Name: spn.Name,
		}

		if spn.Err != nil {
			spnRec.Error = spn.Err.Error()
			rec.SPNs = append(rec.SPNs, spnRec)
			continue
		}

		raw := spn.Raw
		value := spn.Value
		spnRec.RawValue = &raw
		spnRec.Value = &value
		spnRec.Truncated = spn.Truncated
		spnRec.Alert = spn.Alert
		spnRec.Anomaly = spn.Anomaly

		rec.SPNs = append(rec.SPNs, spnRec)
	}

	return rec
}

// Label returns the identifier shown to the reader:
// the source of the message when known, the frame identifier otherwise.
func (r Record) Label() string {
	if r.Source != "" {
		return r.Source
	}
	return r.ID
}

func formatData(data [protocol.DataLength]byte) []string {
	out := make([]string, len(data))
	for i, b := range data {
		out[i] = fmt.Sprintf("0x%02X", b)
	}
	return out
}

// Summary is the output form of the statistics of a run.
type Summary struct {
	Total       uint64   `json:"total" cbor:"total"`
	Decoded     uint64   `json:"decoded" cbor:"decoded"`
	Unknown     uint64   `json:"unknown" cbor:"unknown"`
	Error       uint64   `json:"error" cbor:"error"`
	UnknownPGNs []string `json:"unknown_pgns" cbor:"unknown_pgns"`
}

// NewSummary converts run statistics to their output form.
func NewSummary(stats decode.Statistics) Summary {
	return Summary{
		Total:       stats.Total,
		Decoded:     stats.Decoded,
		Unknown:     stats.Unknown,
		Error:       stats.Errors,
		UnknownPGNs: stats.UnknownPGNsHex(),
	}
}
