package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

// SourceResult is the JSON payload of the source command.
type SourceResult struct {
	Function string `json:"function"`
	Source   string `json:"source"`
	Hash     string `json:"hash"`
}

// NewSourceCommand creates the source command.
func NewSourceCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "source <manifest-dir> <function>",
		Short: "Print the assembled compile source of a function",
		Long: `Print the source text that would be sent to the backend compiler:
the function's includes resolved against the manifest symbols, followed
by the function source.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSource(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runSource(opts *RootOptions, dir, name string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, fn, err := loadFunction(f, dir, name)
	if err != nil {
		return err
	}

	source, err := include.Assemble(m.Registry, fn, include.RefsOf(fn))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	if f.Format == "json" {
		return f.Success(SourceResult{
			Function: fn.Name,
			Source:   source,
			Hash:     ir.BlockHash(ir.DomainSource, source),
		})
	}
	fmt.Fprintln(f.Writer, source)
	return nil
}
