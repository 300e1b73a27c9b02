package builtin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// csvOptions are the reserved named arguments of csv; every other named
// argument declares a column.
var csvOptions = []string{"file", "sep", "skip", "trim"}

type csvConfig struct {
	files  []string
	schema value.Schema
	sep    rune
	skip   int64
	trim   string
}

// csvCommand parses delimited files into typed rows:
//
//	csv file=people.csv sep=";" skip=1 name=text age=integer
//
// A malformed record, a record with the wrong number of fields, or a field
// that does not parse as its column type is reported and skipped. A file
// that cannot be opened or read fails the job.
func csvCommand() *command.Command {
	return &command.Command{
		Name:    "csv",
		Short:   "parse delimited files",
		Exec:    command.ExecRun,
		Prepare: prepareCSV,
		Run:     runCSV,
	}
}

func prepareCSV(ctx *command.PrepareContext) (command.Binding, error) {
	args := ctx.Arguments
	cfg := csvConfig{}

	var paths []command.Argument
	paths = append(paths, args.Positional()...)
	if a, ok := args.Named("file"); ok {
		paths = append(paths, a)
	}
	if len(paths) == 0 {
		return command.Binding{}, errs.Argument("csv: no input file")
	}
	for _, a := range paths {
		p, err := pathArg(a)
		if err != nil {
			return command.Binding{}, err
		}
		abs, err := resolvePath(ctx.Scope, p)
		if err != nil {
			return command.Binding{}, err
		}
		cfg.files = append(cfg.files, abs)
	}

	var err error
	if cfg.sep, err = singleChar(args, "sep", ','); err != nil {
		return command.Binding{}, err
	}
	if cfg.skip, err = args.Integer("skip", 0); err != nil {
		return command.Binding{}, err
	}
	if cfg.skip < 0 {
		return command.Binding{}, errs.Argument("argument \"skip\": must not be negative")
	}
	if _, ok := args.Named("trim"); ok {
		t, err := singleChar(args, "trim", 0)
		if err != nil {
			return command.Binding{}, err
		}
		cfg.trim = string(t)
	}
	if cfg.schema, err = columnSpec(args, csvOptions...); err != nil {
		return command.Binding{}, err
	}

	return command.Binding{Output: cfg.schema, Config: cfg}, nil
}

func runCSV(ctx *command.RunContext) error {
	cfg, ok := ctx.Config.(csvConfig)
	if !ok {
		return errs.Generic("csv: missing configuration")
	}
	out, err := ctx.Output.Initialize(cfg.schema)
	if err != nil {
		return err
	}

	for _, path := range cfg.files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}

		r := csv.NewReader(f)
		r.Comma = cfg.sep
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		var skipped int64
		for {
			record, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				report(ctx, fmt.Errorf("csv: %s: %w", path, err))
				continue
			}
			if err != nil {
				// Read errors from the file repeat on every call.
				f.Close()
				return fmt.Errorf("csv: %s: %w", path, err)
			}
			if skipped < cfg.skip {
				skipped++
				continue
			}

			row, err := csvRow(cfg, record)
			if err != nil {
				line, _ := r.FieldPos(0)
				report(ctx, fmt.Errorf("csv: %s:%d: %w", path, line, err))
				continue
			}
			if stop, err := sendRow(out, row); stop {
				f.Close()
				return err
			}
		}
		f.Close()
	}
	return nil
}

func csvRow(cfg csvConfig, record []string) (value.Row, error) {
	if len(record) != len(cfg.schema) {
		return value.Row{}, errs.Type("wrong number of columns: got %d, expected %d", len(record), len(cfg.schema))
	}
	cells := make([]value.Value, len(record))
	for i, field := range record {
		if cfg.trim != "" {
			field = strings.Trim(field, cfg.trim)
		}
		v, err := value.Parse(cfg.schema[i].Type, field)
		if err != nil {
			return value.Row{}, fmt.Errorf("column %q: %w", cfg.schema[i].Name, err)
		}
		cells[i] = v
	}
	return value.Row{Cells: cells}, nil
}
