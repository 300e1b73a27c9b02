package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <pipeline>...",
		Short: "Run one pipeline",
		Long: `Run one pipeline and print its rows.

The arguments are joined with spaces, so the pipeline may be passed as a
single quoted argument or as separate words.

Rows that fail inside a stage are reported on stderr and skipped; the
pipeline keeps going. A pipeline that fails to compile, or a stage that
fails, exits with code 1.

Examples:
  crush exec 'echo 1 2 3 | where value > 1'
  crush exec 'ls | where file =~ *.go | count'
  crush exec --format json 'csv people.csv name=text age=integer'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer closeSession(sess)

			if err := sess.Exec(cmd.Context(), strings.Join(args, " ")); err != nil {
				return WrapExitError(ExitFailure, "pipeline failed", err)
			}
			return nil
		},
	}
}
