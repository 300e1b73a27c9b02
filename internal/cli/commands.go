package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/crush/internal/builtin"
)

// CommandInfo describes one builtin in the commands listing.
type CommandInfo struct {
	Name  string `json:"name"`
	Exec  string `json:"exec"`
	Short string `json:"short"`
}

// NewCommandsCommand creates the commands command.
func NewCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List builtin pipeline commands",
		Long: `List every builtin pipeline command with its execution kind.

"run" commands transform streams on their own goroutine; "mutate"
commands change variables or the working directory and run inline.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := builtin.NewRegistry(builtin.Options{})
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to build registry", err)
			}

			infos := make([]CommandInfo, 0, len(reg.Commands()))
			for _, c := range reg.Commands() {
				infos = append(infos, CommandInfo{Name: c.Name, Exec: c.Exec.String(), Short: c.Short})
			}

			if rootOpts.Format == "json" {
				f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				return f.Success(infos)
			}

			w := cmd.OutOrStdout()
			for _, info := range infos {
				fmt.Fprintf(w, "%-8s %-6s  %s\n", info.Name, info.Exec, info.Short)
			}
			return nil
		},
	}
}
