package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorenzorota/zkpytoolkit/internal/encode"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

// Encode modes.
const (
	ModeProve  = "prove"
	ModeVerify = "verify"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Inputs string
	Mode   string
	Strict bool
}

// EncodeResult is the JSON payload of the encode command.
type EncodeResult struct {
	Function string   `json:"function"`
	Mode     string   `json:"mode"`
	Modulus  string   `json:"modulus"`
	Block    string   `json:"block"`
	Hash     string   `json:"hash"`
	Problems []string `json:"problems,omitempty"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <manifest-dir> <function>",
		Short: "Print the prover or verifier input block",
		Long: `Encode the arguments in an inputs file into the prover or verifier
input block for a manifest function, without calling the backend.

The inputs file is YAML:

  args: [[1, 2, 3, 4], 30]
  return: true

Examples:
  zkpy encode ./circuits sum_squares --inputs in.yaml
  zkpy encode ./circuits affine --inputs in.yaml --mode verify --modulus 97`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Inputs, "inputs", "", "YAML inputs file (required)")
	cmd.Flags().StringVar(&opts.Mode, "mode", ModeProve, "block to build (prove|verify)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if any argument would not encode exactly")
	_ = cmd.MarkFlagRequired("inputs")

	return cmd
}

func runEncode(opts *EncodeOptions, dir, name string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.Mode != ModeProve && opts.Mode != ModeVerify {
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("invalid mode %q: must be prove or verify", opts.Mode))
	}

	m, err := opts.resolveModulus()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}
	mod, err := modulus.New(m)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err)
	}

	_, fn, err := loadFunction(f, dir, name)
	if err != nil {
		return err
	}
	args, ret, err := readArguments(opts.Inputs, fn)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInputs, err)
	}

	checked := args
	if opts.Mode == ModeVerify && ret != nil {
		checked = append(args[:len(args):len(args)], ir.Argument{Name: encode.ReturnPath, Value: ret, Type: fn.Return})
	}
	var problems []string
	for _, p := range encode.Check(checked, mod) {
		problems = append(problems, p.Error())
	}
	if opts.Strict && len(problems) > 0 {
		_ = f.Error(ErrCodeEncode, fmt.Sprintf("%d argument(s) would not encode exactly", len(problems)), problems)
		if f.Format != "json" {
			for _, p := range problems {
				fmt.Fprintf(f.Writer, "  %s\n", p)
			}
		}
		return NewExitError(ExitFailure, "strict argument check failed")
	}

	var block, domain string
	if opts.Mode == ModeProve {
		block, err = encode.ProverBlock(args, mod)
		domain = ir.DomainProverTerms
	} else {
		block, err = encode.VerifierBlock(args, ret, fn.Return, mod)
		domain = ir.DomainVerifierTerm
	}
	if err != nil {
		code := ExitCommandError
		if errors.Is(err, encode.ErrMissingReturnValue) {
			code = ExitFailure
		}
		return f.Fail(code, ErrCodeEncode, err)
	}

	if f.Format == "json" {
		return f.Success(EncodeResult{
			Function: fn.Name,
			Mode:     opts.Mode,
			Modulus:  mod.String(),
			Block:    block,
			Hash:     ir.BlockHash(domain, block),
			Problems: problems,
		})
	}
	for _, p := range problems {
		f.VerboseLog("warning: %s", p)
	}
	fmt.Fprintln(f.Writer, block)
	return nil
}

// readArguments loads an inputs file and binds it to fn.
func readArguments(path string, fn *ir.Function) ([]ir.Argument, ir.Value, error) {
	in, err := LoadInputs(path)
	if err != nil {
		return nil, nil, err
	}
	values, err := in.Values(fn)
	if err != nil {
		return nil, nil, err
	}
	ret, err := in.ReturnValue(fn)
	if err != nil {
		return nil, nil, err
	}
	return ir.Bind(fn.Params, values), ret, nil
}
