package builtin

import (
	"context"
	"errors"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/store"
	"github.com/roach88/crush/internal/value"
)

var sqliteOptions = []string{"file", "query"}

type sqliteConfig struct {
	path   string
	query  string
	schema value.Schema
}

// errStopScan ends a scan once the consumer has gone away.
var errStopScan = errors.New("stop scan")

// sqliteCommand runs a read-only query against a SQLite file:
//
//	sqlite file=data.db query="SELECT name, size FROM files" name=text size=integer
//
// Result columns map to the declared columns by position. A row that does not
// convert is reported and skipped.
func sqliteCommand() *command.Command {
	return &command.Command{
		Name:  "sqlite",
		Short: "query a SQLite database",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			args := ctx.Arguments
			if err := args.NoPositional(); err != nil {
				return command.Binding{}, err
			}

			file, err := args.String("file", "")
			if err != nil {
				return command.Binding{}, err
			}
			if file == "" {
				return command.Binding{}, errs.Argument("sqlite: file= is required")
			}
			path, err := resolvePath(ctx.Scope, file)
			if err != nil {
				return command.Binding{}, err
			}

			query, err := args.String("query", "")
			if err != nil {
				return command.Binding{}, err
			}
			if query == "" {
				return command.Binding{}, errs.Argument("sqlite: query= is required")
			}

			schema, err := columnSpec(args, sqliteOptions...)
			if err != nil {
				return command.Binding{}, err
			}

			return command.Binding{
				Output: schema,
				Config: sqliteConfig{path: path, query: query, schema: schema},
			}, nil
		},
		Run: func(ctx *command.RunContext) error {
			cfg, ok := ctx.Config.(sqliteConfig)
			if !ok {
				return errs.Generic("sqlite: missing configuration")
			}
			out, err := ctx.Output.Initialize(cfg.schema)
			if err != nil {
				return err
			}

			db, err := store.OpenReadOnly(cfg.path)
			if err != nil {
				return err
			}
			defer db.Close()

			err = db.Scan(context.Background(), cfg.schema, cfg.query, nil,
				func(row value.Row, rowErr error) error {
					if rowErr != nil {
						report(ctx, rowErr)
						return nil
					}
					stop, err := sendRow(out, row)
					if stop && err == nil {
						return errStopScan
					}
					return err
				})
			if errors.Is(err, errStopScan) {
				return nil
			}
			return err
		},
	}
}

// historyCommand lists recorded pipelines, oldest first.
func historyCommand(history *store.Store) *command.Command {
	return &command.Command{
		Name:  "history",
		Short: "list executed pipelines",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if history == nil {
				return command.Binding{}, errs.Argument("history is disabled")
			}
			if err := ctx.Arguments.Only("limit"); err != nil {
				return command.Binding{}, err
			}
			if err := ctx.Arguments.NoPositional(); err != nil {
				return command.Binding{}, err
			}
			limit, err := ctx.Arguments.Integer("limit", 0)
			if err != nil {
				return command.Binding{}, err
			}
			return command.Binding{Output: store.HistorySchema, Config: int(limit)}, nil
		},
		Run: func(ctx *command.RunContext) error {
			limit, _ := ctx.Config.(int)
			out, err := ctx.Output.Initialize(store.HistorySchema)
			if err != nil {
				return err
			}
			entries, err := history.History(context.Background(), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if stop, err := sendRow(out, e.Row()); stop {
					return err
				}
			}
			return nil
		},
	}
}
