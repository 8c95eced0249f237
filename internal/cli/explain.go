package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fakedb/internal/fakedb"
	"github.com/roach88/fakedb/internal/problem"
)

// ExplainEntry pairs an error code with its problem template.
type ExplainEntry struct {
	Code    fakedb.ErrorCode `json:"code"`
	Problem problem.Details  `json:"problem"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain [code]",
		Short: "Show the problem document for a store error code",
		Long: `Print the RFC 7807 problem template a store error code renders to.

Without an argument every known code is listed.

Examples:
  fakedb explain
  fakedb explain CONFLICT
  fakedb explain locking --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runExplain(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	codes := problem.Codes()
	if len(args) == 1 {
		code := fakedb.ErrorCode(strings.ToUpper(args[0]))
		if _, ok := problem.ForCode(code); !ok {
			msg := fmt.Sprintf("unknown error code %q", args[0])
			if err := formatter.Error(ErrCodeUnknownProblem, msg, codes); err != nil {
				return err
			}
			return NewExitError(ExitCommandError, msg)
		}
		codes = []fakedb.ErrorCode{code}
	}

	entries := make([]ExplainEntry, 0, len(codes))
	for _, code := range codes {
		d, _ := problem.ForCode(code)
		entries = append(entries, ExplainEntry{Code: code, Problem: d})
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%-14s %s\n", e.Code, e.Problem)
	}
	return nil
}
