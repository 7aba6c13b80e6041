package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lorenzorota/zkpytoolkit/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Open      bool   // list only sessions never cleaned up
	Hash      string // find calls by input hash across sessions
	ShowInput bool   // print call inputs in text output
}

// SessionHistory is the JSON payload for a single session.
type SessionHistory struct {
	Session store.Session `json:"session"`
	Calls   []store.Call  `json:"calls"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <journal-db> [session-id]",
		Short: "Show recorded proof sessions",
		Long: `Show the sessions recorded in a journal database.

Without a session id, lists every session. With one, shows the backend
calls of that session in sequence order.

Examples:
  zkpy history zkpy.db
  zkpy history zkpy.db --open
  zkpy history zkpy.db 0190b3c2-... --show-input
  zkpy history zkpy.db --hash 3f2a...`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID := ""
			if len(args) == 2 {
				sessionID = args[1]
			}
			return runHistory(opts, args[0], sessionID, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Open, "open", false, "only sessions that were never cleaned up")
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "find calls whose input has this hash")
	cmd.Flags().BoolVar(&opts.ShowInput, "show-input", false, "print call inputs")

	return cmd
}

func runHistory(opts *HistoryOptions, dbPath, sessionID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := store.OpenReadOnly(dbPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err)
	}
	defer st.Close()

	switch {
	case opts.Hash != "":
		calls, err := st.FindCallsByInputHash(ctx, opts.Hash)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeJournal, err)
		}
		if f.Format == "json" {
			return f.Success(calls)
		}
		printCalls(f.Writer, calls, true, opts.ShowInput)
		return nil
	case sessionID != "":
		return showSession(ctx, f, st, sessionID, opts.ShowInput)
	default:
		return listSessions(ctx, f, st, opts.Open)
	}
}

func listSessions(ctx context.Context, f *OutputFormatter, st *store.Store, open bool) error {
	list := st.ListSessions
	if open {
		list = st.FindOpenSessions
	}
	sessions, err := list(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err)
	}

	if f.Format == "json" {
		if sessions == nil {
			sessions = []store.Session{}
		}
		return f.Success(sessions)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(f.Writer, "No sessions recorded.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(f.Writer, "%s  %-6s  modulus %s\n", s.ID, s.State, abbreviate(s.Modulus, 20))
	}
	return nil
}

func showSession(ctx context.Context, f *OutputFormatter, st *store.Store, id string, showInput bool) error {
	sess, err := st.ReadSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitCommandError, ErrCodeJournal, fmt.Errorf("session %s not found", id))
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err)
	}
	calls, err := st.ReadCalls(ctx, id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, err)
	}

	if f.Format == "json" {
		if calls == nil {
			calls = []store.Call{}
		}
		return f.Success(SessionHistory{Session: sess, Calls: calls})
	}

	fmt.Fprintf(f.Writer, "Session %s (%s)\n", sess.ID, sess.State)
	fmt.Fprintf(f.Writer, "  modulus: %s\n", sess.Modulus)
	fmt.Fprintf(f.Writer, "  toolkit %s, term format %s\n\n", sess.ToolkitVersion, sess.TermFormat)
	printCalls(f.Writer, calls, false, showInput)
	return nil
}

func printCalls(w io.Writer, calls []store.Call, withSession, showInput bool) {
	for _, c := range calls {
		prefix := fmt.Sprintf("[%d]", c.Seq)
		if withSession {
			prefix = c.SessionID + " " + prefix
		}
		line := fmt.Sprintf("%s %-7s %s", prefix, c.Op, c.Function)
		if c.InputHash != "" {
			line += "  " + abbreviate(c.InputHash, 12)
		}
		switch {
		case c.Error != "":
			line += "  error: " + c.Error
		case c.Output != "":
			line += "  -> " + c.Output
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
		if showInput && c.Input != "" {
			for _, l := range strings.Split(c.Input, "\n") {
				fmt.Fprintf(w, "    | %s\n", l)
			}
		}
	}
}

// abbreviate shortens s to n runes followed by an ellipsis.
func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
