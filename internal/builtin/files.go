package builtin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/roach88/crush/internal/command"
	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

var lsSchema = value.Schema{
	value.Column("file", value.TypeFile),
	value.Column("size", value.TypeInteger),
	value.Column("type", value.TypeText),
}

// lsCommand lists a directory, sorted by name. Paths are relative to the
// working directory at compile time.
func lsCommand() *command.Command {
	return &command.Command{
		Name:  "ls",
		Short: "list directory entries",
		Exec:  command.ExecRun,
		Prepare: func(ctx *command.PrepareContext) (command.Binding, error) {
			if err := ctx.Arguments.Only(); err != nil {
				return command.Binding{}, err
			}
			pos := ctx.Arguments.Positional()
			if len(pos) > 1 {
				return command.Binding{}, errs.Argument("ls takes at most one directory")
			}
			dir := "."
			if len(pos) == 1 {
				p, err := pathArg(pos[0])
				if err != nil {
					return command.Binding{}, err
				}
				dir = p
			}
			abs, err := resolvePath(ctx.Scope, dir)
			if err != nil {
				return command.Binding{}, err
			}
			return command.Binding{Output: lsSchema, Config: abs}, nil
		},
		Run: func(ctx *command.RunContext) error {
			dir, _ := ctx.Config.(string)
			out, err := ctx.Output.Initialize(lsSchema)
			if err != nil {
				return err
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("ls: %w", err)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

			for _, e := range entries {
				info, err := e.Info()
				if err != nil {
					report(ctx, fmt.Errorf("ls: %w", err))
					continue
				}
				row := value.NewRow(
					value.File(filepath.Join(dir, e.Name())),
					value.Integer(info.Size()),
					value.Text(entryType(info.Mode())),
				)
				if stop, err := sendRow(out, row); stop {
					return err
				}
			}
			return nil
		},
	}
}

func entryType(mode os.FileMode) string {
	switch {
	case mode.IsDir():
		return "directory"
	case mode&os.ModeSymlink != 0:
		return "symlink"
	case mode.IsRegular():
		return "file"
	default:
		return "other"
	}
}
