// Command j1939decode decodes a CAN log exported by the data logger
// and writes the decoding reports.
//
// Usage:
//
//	j1939decode -input log.csv [-output decoded_output.txt] [-csv out.csv] [-flat out.json] [-cbor out.cbor] [-catalog pgns.yaml]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anand2532/SAE-J1939-parser/alert"
	"github.com/anand2532/SAE-J1939-parser/anomaly"
	"github.com/anand2532/SAE-J1939-parser/decode"
	"github.com/anand2532/SAE-J1939-parser/internal"
	"github.com/anand2532/SAE-J1939-parser/j1939"
	"github.com/anand2532/SAE-J1939-parser/logfile"
	"github.com/anand2532/SAE-J1939-parser/report"
	"github.com/cockroachdb/errors"
)

// progressInterval is the number of rows between two progress lines.
const progressInterval = 1000

type options struct {
	input  string
	output string

	csvPath  string
	flatPath string
	cborPath string

	catalogPath     string
	duplicatePolicy string

	vehicle report.VehicleInfo

	alerts    bool
	anomalies bool
}

func (o *options) jsonPath() string {
	ext := filepath.Ext(o.output)
	if ext == ".json" {
		return strings.TrimSuffix(o.output, ext) + "_report.json"
	}
	return strings.TrimSuffix(o.output, ext) + ".json"
}

func main() {
	vehicle := report.DefaultVehicleInfo()

	opts := &options{}
	flag.StringVar(&opts.input, "input", "", "CAN log to decode")
	flag.StringVar(&opts.output, "output", "decoded_output.txt", "text report, the JSON report is written next to it")
	flag.StringVar(&opts.csvPath, "csv", "", "optional CSV report")
	flag.StringVar(&opts.flatPath, "flat", "", "optional flattened JSON report, one entry per SPN")
	flag.StringVar(&opts.cborPath, "cbor", "", "optional CBOR archive of the decoded records")
	flag.StringVar(&opts.catalogPath, "catalog", "", "YAML or JSON PGN catalog, the built-in one when empty")
	flag.StringVar(&opts.duplicatePolicy, "duplicate-policy", "last_wins", "handling of PGNs defined twice in the catalog: last_wins or reject")
	flag.StringVar(&opts.vehicle.VIN, "vin", vehicle.VIN, "VIN written in the reports")
	flag.StringVar(&opts.vehicle.Make, "make", vehicle.Make, "make written in the reports")
	flag.StringVar(&opts.vehicle.Model, "model", vehicle.Model, "model written in the reports")
	flag.BoolVar(&opts.alerts, "alerts", true, "evaluate the alert thresholds")
	flag.BoolVar(&opts.anomalies, "anomalies", true, "run the anomaly detector")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	logger := internal.NewLogger("cmd", "j1939decode")

	level, err := internal.ParseLogLevel(*logLevel)
	if err != nil {
		logger.Error("invalid log level", err)
		os.Exit(2)
	}
	internal.SetLogLevel(level)

	if opts.input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Error("failed to decode log", err, "input", opts.input)
		os.Exit(1)
	}
}

func newEngine(opts *options) (*decode.Engine, error) {
	cat, err := j1939.LoadCatalog(&j1939.Config{
		CatalogFile:     opts.catalogPath,
		DuplicatePolicy: opts.duplicatePolicy,
	})
	if err != nil {
		return nil, err
	}

	engineOpts := []decode.Option{}
	if opts.alerts {
		engineOpts = append(engineOpts, decode.WithAlertEvaluator(alert.NewDefaultEvaluator()))
	}
	if opts.anomalies {
		engineOpts = append(engineOpts, decode.WithAnomalyDetector(anomaly.NewDefaultDetector()))
	}

	return decode.NewEngine(cat, engineOpts...), nil
}

// decodeLog decodes every row of the log. Rows that cannot be parsed
// become error records, any other read failure stops the decoding.
func decodeLog(r io.Reader, engine *decode.Engine, logger *internal.Logger) ([]report.Record, error) {
	lr, err := logfile.NewReader(r)
	if err != nil {
		return nil, err
	}

	records := []report.Record{}
	rowCount := 0

	for row, err := range lr.All() {
		rowCount++

		var msg decode.Message
		if err != nil {
			var rowErr *logfile.RowError
			if !errors.As(err, &rowErr) {
				return nil, err
			}

			logger.Warn("skipping row", "line", rowErr.Line, "cause", rowErr.Err)
			msg = engine.RecordFailure(fmt.Sprintf("line %d", rowErr.Line), time.Time{}, rowErr)
		} else {
			msg = engine.DecodeFrame(row.Frame())
			msg.Source = row.ID
		}

		records = append(records, report.NewRecord(msg))

		if rowCount%progressInterval == 0 {
			logger.Info("progress", "rows", rowCount)
		}
	}

	return records, nil
}

func run(opts *options, logger *internal.Logger) error {
	engine, err := newEngine(opts)
	if err != nil {
		return err
	}

	in, err := os.Open(opts.input)
	if err != nil {
		return errors.Wrap(err, "open input")
	}
	defer in.Close()

	start := time.Now()

	records, err := decodeLog(in, engine, logger)
	if err != nil {
		return err
	}

	summary := report.NewSummary(engine.Stats())

	logger.Info("decoded log",
		"rows", len(records),
		"decoded", summary.Decoded,
		"unknown", summary.Unknown,
		"errors", summary.Error,
		"elapsed", time.Since(start),
	)

	if err := writeFile(opts.output, func(w io.Writer) error {
		return report.WriteText(w, opts.vehicle, summary, records)
	}); err != nil {
		return err
	}

	if err := writeFile(opts.jsonPath(), func(w io.Writer) error {
		return report.WriteJSON(w, opts.vehicle, summary, records)
	}); err != nil {
		return err
	}

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error {
			return writeCSV(w, records)
		}); err != nil {
			return err
		}
	}

	if opts.flatPath != "" {
		if err := writeFile(opts.flatPath, func(w io.Writer) error {
			return writeFlat(w, records)
		}); err != nil {
			return err
		}
	}

	if opts.cborPath != "" {
		if err := writeFile(opts.cborPath, func(w io.Writer) error {
			return writeCBOR(w, records)
		}); err != nil {
			return err
		}
	}

	logger.Info("reports written", "text", opts.output, "json", opts.jsonPath(),
		"csv", opts.csvPath, "flat", opts.flatPath, "cbor", opts.cborPath)

	return nil
}

func writeCSV(w io.Writer, records []report.Record) error {
	cw, err := report.NewCSVWriter(w)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if _, err := cw.Write(rec); err != nil {
			return err
		}
	}

	return cw.Flush()
}

func writeFlat(w io.Writer, records []report.Record) error {
	flattener := report.NewFlattener()
	for _, rec := range records {
		flattener.Add(rec)
	}

	return report.WriteFlat(w, flattener.Entries())
}

func writeCBOR(w io.Writer, records []report.Record) error {
	cw := report.NewCBORWriter(w)
	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}

	return errors.Wrapf(f.Close(), "close %s", path)
}
