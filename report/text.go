package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/cockroachdb/errors"
)

// TimeLayout is the layout of the timestamps written in the text and tabular reports.
const TimeLayout = "2006-01-02 15:04:05.000000"

var (
	titleRule   = strings.Repeat("=", 50)
	sectionRule = strings.Repeat("-", 20)
	messageRule = strings.Repeat("-", 50)
)

// WriteText writes the human readable report: the vehicle info,
// the statistics, the unknown PGNs and one block per record.
func WriteText(w io.Writer, info VehicleInfo, summary Summary, records []Record) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s %s CAN Message Decoder Output\n", firstWord(info.Make), info.Model)
	fmt.Fprintln(bw, titleRule)
	fmt.Fprintf(bw, "VIN: %s\n", info.VIN)
	fmt.Fprintf(bw, "Make: %s\n", info.Make)
	fmt.Fprintf(bw, "Model: %s\n\n", info.Model)

	fmt.Fprintln(bw, "Statistics:")
	fmt.Fprintln(bw, sectionRule)
	fmt.Fprintf(bw, "Total Messages: %d\n", summary.Total)
	fmt.Fprintf(bw, "Decoded Messages: %d\n", summary.Decoded)
	fmt.Fprintf(bw, "Unknown Pgns: %d\n", summary.Unknown)
	fmt.Fprintf(bw, "Error Messages: %d\n\n", summary.Error)

	if len(summary.UnknownPGNs) > 0 {
		fmt.Fprintln(bw, "Unknown PGNs:")
		fmt.Fprintln(bw, sectionRule)
		for _, pgn := range summary.UnknownPGNs {
			fmt.Fprintln(bw, pgn)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, "Decoded Messages:")
	fmt.Fprintln(bw, sectionRule)

	for _, rec := range records {
		writeTextRecord(bw, rec)
	}

	return errors.Wrap(bw.Flush(), "write text report")
}

func writeTextRecord(bw *bufio.Writer, rec Record) {
	if rec.Status == decode.StatusError && len(rec.SPNs) == 0 && rec.PGNName == "" {
		fmt.Fprintf(bw, "\nError: %s\n", rec.Error)
		return
	}

	fmt.Fprintf(bw, "\nTimestamp: %s\n", rec.Timestamp.Format(TimeLayout))
	fmt.Fprintf(bw, "ID: %s\n", rec.Label())
	fmt.Fprintf(bw, "PGN: %s\n", rec.PGNHex)

	if rec.PGNName != "" {
		fmt.Fprintf(bw, "PGN Name: %s\n", rec.PGNName)

		if len(rec.SPNs) > 0 {
			fmt.Fprintln(bw, "Decoded Values:")
			for _, spn := range rec.SPNs {
				if spn.Error != "" {
					fmt.Fprintf(bw, "  %s: Error - %s\n", spn.Name, spn.Error)
					continue
				}
				fmt.Fprintf(bw, "  %s: %s (raw: %d)\n", spn.Name, formatValue(*spn.Value), *spn.RawValue)
			}
		}
	}

	fmt.Fprintf(bw, "Raw Data: %s\n", strings.Join(rec.DataBytes, ", "))
	fmt.Fprintln(bw, messageRule)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstWord(s string) string {
	if before, _, ok := strings.Cut(s, " "); ok {
		return before
	}
	return s
}
