package report

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
)

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// CBORWriter writes records as a CBOR sequence, one data item per record.
type CBORWriter struct {
	enc *cbor.Encoder
}

// NewCBORWriter returns a writer appending records to w.
func NewCBORWriter(w io.Writer) *CBORWriter {
	return &CBORWriter{
		enc: cborEncMode.NewEncoder(w),
	}
}

// Write appends a record.
func (w *CBORWriter) Write(rec Record) error {
	return errors.Wrap(w.enc.Encode(rec), "write cbor record")
}

// ReadCBOR reads every record of a CBOR sequence.
func ReadCBOR(r io.Reader) ([]Record, error) {
	dec := cbor.NewDecoder(r)

	records := []Record{}
	for {
		rec := Record{}
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, errors.Wrap(err, "read cbor record")
		}
		records = append(records, rec)
	}
}
