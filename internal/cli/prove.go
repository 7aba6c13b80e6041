package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lorenzorota/zkpytoolkit/internal/backend"
	"github.com/lorenzorota/zkpytoolkit/internal/encode"
	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/session"
	"github.com/lorenzorota/zkpytoolkit/internal/store"
)

// SessionOptions holds flags shared by prove and verify.
type SessionOptions struct {
	*RootOptions
	Inputs     string
	BackendBin string
	Workdir    string
	Journal    string
	Strict     bool
	Proof      string // prove: output path; verify: proof to check
}

// ProveResult is the JSON payload of the prove command.
type ProveResult struct {
	Function    string `json:"function"`
	Constraints int    `json:"constraints"`
	ProofFile   string `json:"proof_file"`
	ProofBytes  int    `json:"proof_bytes"`
}

// VerifyResult is the JSON payload of the verify command.
type VerifyResult struct {
	Function    string `json:"function"`
	Constraints int    `json:"constraints"`
	Valid       bool   `json:"valid"`
}

// NewProveCommand creates the prove command.
func NewProveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prove <manifest-dir> <function>",
		Short: "Compile a function and set up its proof",
		Long: `Run a proof session: compile the function with its includes, encode
every argument (private ones included) and run proof setup.

Examples:
  zkpy prove ./circuits sum_squares --inputs in.yaml
  zkpy prove ./circuits affine --inputs in.yaml --modulus bn254 --journal zkpy.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, ModeProve, args[0], args[1], cmd)
		},
	}
	addSessionFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Proof, "out", "", "proof output file (default <function>.proof)")
	return cmd
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <manifest-dir> <function>",
		Short: "Compile a function and verify a claimed result",
		Long: `Run a verification session: compile the function, encode the public
arguments and the claimed return value and run verification setup.

Exit codes:
  0 - Verification accepted
  1 - Verification rejected
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, ModeVerify, args[0], args[1], cmd)
		},
	}
	addSessionFlags(cmd, opts)
	cmd.Flags().StringVar(&opts.Proof, "proof", "", "proof file written by prove (required)")
	_ = cmd.MarkFlagRequired("proof")
	return cmd
}

func addSessionFlags(cmd *cobra.Command, opts *SessionOptions) {
	cmd.Flags().StringVar(&opts.Inputs, "inputs", "", "YAML inputs file (required)")
	cmd.Flags().StringVar(&opts.BackendBin, "backend-bin", "zkpy-backend", "backend compiler executable")
	cmd.Flags().StringVar(&opts.Workdir, "workdir", ".zkpy", "backend working directory")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite journal to record the session in")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "reject arguments that would not encode exactly")
	_ = cmd.MarkFlagRequired("inputs")
}

func runSession(opts *SessionOptions, mode, dir, name string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := opts.logger(cmd.ErrOrStderr())

	m, err := opts.resolveModulus()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	man, fn, err := loadFunction(f, dir, name)
	if err != nil {
		return err
	}
	in, err := LoadInputs(opts.Inputs)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInputs, err)
	}
	values, err := in.Values(fn)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInputs, err)
	}
	ret, err := in.ReturnValue(fn)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInputs, err)
	}

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithResolver(man.Registry),
		session.WithStrictArguments(opts.Strict),
	}
	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeJournal, err)
		}
		defer st.Close()
		sessOpts = append(sessOpts, session.WithJournal(st))
	}

	b := backend.NewExec(opts.BackendBin, opts.Workdir, backend.WithExecLogger(logger))
	sess, err := session.New(ctx, b, m, sessOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeSession, err)
	}
	defer func() {
		if err := sess.Cleanup(ctx); err != nil {
			logger.Warn().Err(err).Msg("cleanup")
		}
	}()
	f.VerboseLog("Session %s (modulus %s)", sess.ID(), sess.Modulus())

	art, err := sess.Compile(ctx, fn, include.RefsOf(fn))
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeSession, err)
	}

	if mode == ModeProve {
		proof, err := sess.PrepareProof(ctx, fn, values)
		if err != nil {
			return sessionFailure(f, err)
		}
		out := opts.Proof
		if out == "" {
			out = fn.Name + ".proof"
		}
		if err := os.WriteFile(out, proof.Data, 0o644); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("write proof: %w", err))
		}
		return outputSession(f, sess.ID(), ProveResult{
			Function:    fn.Name,
			Constraints: art.Constraints,
			ProofFile:   out,
			ProofBytes:  len(proof.Data),
		}, fmt.Sprintf("✓ proof prepared for %s (%d constraints): %s", fn.Name, art.Constraints, out))
	}

	data, err := os.ReadFile(opts.Proof)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("read proof: %w", err))
	}
	if err := b.ImportProof(fn.Name, data); err != nil {
		return f.Fail(ExitCommandError, ErrCodeSession, err)
	}

	ok, err := sess.PrepareVerification(ctx, fn, values, ret)
	if err != nil {
		return sessionFailure(f, err)
	}
	result := VerifyResult{Function: fn.Name, Constraints: art.Constraints, Valid: ok}
	if !ok {
		if f.Format == "json" {
			_ = writeJSON(f.Writer, CLIResponse{
				Status:    "error",
				Data:      result,
				Error:     &CLIError{Code: ErrCodeRejected, Message: "verification rejected"},
				SessionID: sess.ID(),
			})
		} else {
			fmt.Fprintf(f.Writer, "✗ verification rejected for %s\n", fn.Name)
		}
		return NewExitError(ExitFailure, "verification rejected")
	}
	return outputSession(f, sess.ID(), result, fmt.Sprintf("✓ verification accepted for %s", fn.Name))
}

// sessionFailure maps argument and encoding problems to ExitFailure and
// backend errors to ExitCommandError.
func sessionFailure(f *OutputFormatter, err error) error {
	var argErr *session.ArgumentError
	if errors.As(err, &argErr) || errors.Is(err, encode.ErrMissingReturnValue) {
		return f.Fail(ExitFailure, ErrCodeEncode, err)
	}
	return f.Fail(ExitCommandError, ErrCodeSession, err)
}

func outputSession(f *OutputFormatter, sessionID string, data any, text string) error {
	if f.Format == "json" {
		return writeJSON(f.Writer, CLIResponse{Status: "ok", Data: data, SessionID: sessionID})
	}
	fmt.Fprintln(f.Writer, text)
	return nil
}
