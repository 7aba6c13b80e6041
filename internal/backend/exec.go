package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/juju/fslock"
	"github.com/rs/zerolog"

	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

const lockName = ".zkpy.lock"

// Exec drives an external compiler binary, one process per call:
//
//	<bin> compile --modulus <m> <name> <source-file>            prints the constraint count
//	<bin> prove   --modulus <m> <name> <terms-file> <proof-file>
//	<bin> verify  --modulus <m> <name> <terms-file> <proof-file> exit 0 valid, 1 invalid
//
// Every process runs in the work directory. Compile sources are written to
// .__def_<name>.py there and removed once the compiler exits. Proofs are
// kept as <name>.proof until Cleanup so verification can find them.
type Exec struct {
	bin     string
	workdir string
	logger  zerolog.Logger

	lock    *fslock.Lock
	modulus *modulus.Context
	proofs  []string
}

// ExecOption configures an Exec backend.
type ExecOption func(*Exec)

// WithExecLogger sets the logger for subprocess activity.
func WithExecLogger(l zerolog.Logger) ExecOption {
	return func(e *Exec) { e.logger = l }
}

// NewExec creates a backend for the compiler at bin working in workdir.
func NewExec(bin, workdir string, opts ...ExecOption) *Exec {
	e := &Exec{
		bin:     bin,
		workdir: workdir,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Init claims the work directory and records the modulus.
// The work directory lock is held until Cleanup.
func (e *Exec) Init(ctx context.Context, mod *modulus.Context) error {
	if e.lock != nil {
		return errors.New("backend already initialized")
	}
	if _, err := exec.LookPath(e.bin); err != nil {
		return fmt.Errorf("compiler binary: %w", err)
	}
	if err := os.MkdirAll(e.workdir, 0o755); err != nil {
		return fmt.Errorf("create work directory: %w", err)
	}

	lock := fslock.New(filepath.Join(e.workdir, lockName))
	if err := lock.TryLock(); err != nil {
		if errors.Is(err, fslock.ErrLocked) {
			return fmt.Errorf("%w: %s", ErrWorkdirLocked, e.workdir)
		}
		return fmt.Errorf("lock work directory: %w", err)
	}

	e.lock = lock
	e.modulus = mod
	e.logger.Debug().Str("workdir", e.workdir).Str("modulus", mod.String()).Msg("backend initialized")
	return nil
}

// Compile writes source to a temporary definition file and compiles name.
func (e *Exec) Compile(ctx context.Context, name, source string) (Artifact, error) {
	if e.modulus == nil {
		return Artifact{}, ErrNotInitialized
	}
	if !modulus.Supported(e.modulus.Value()) {
		return Artifact{}, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedModulus, e.modulus, strings.Join(modulus.Names(), ", "))
	}

	defFile := filepath.Join(e.workdir, ".__def_"+name+".py")
	if err := os.WriteFile(defFile, []byte(source), 0o644); err != nil {
		return Artifact{}, fmt.Errorf("write definition: %w", err)
	}
	defer os.Remove(defFile)

	out, err := e.run(ctx, "compile", name, defFile)
	if err != nil {
		return Artifact{}, err
	}

	count, err := lastInt(out)
	if err != nil {
		return Artifact{}, fmt.Errorf("compile %s: parse constraint count: %w", name, err)
	}
	return Artifact{Name: name, Constraints: count}, nil
}

// SetupProof generates a proof for name from the prover terms.
func (e *Exec) SetupProof(ctx context.Context, name, terms string) (Proof, error) {
	if e.modulus == nil {
		return Proof{}, ErrNotInitialized
	}

	termsFile, err := e.writeTemp("prover-*.lisp", terms)
	if err != nil {
		return Proof{}, err
	}
	defer os.Remove(termsFile)

	proofFile := e.proofPath(name)
	if _, err := e.run(ctx, "prove", name, termsFile, proofFile); err != nil {
		return Proof{}, err
	}
	e.proofs = append(e.proofs, proofFile)

	data, err := os.ReadFile(proofFile)
	if err != nil {
		return Proof{}, fmt.Errorf("read proof: %w", err)
	}
	return Proof{Name: name, Data: data}, nil
}

// ImportProof places a proof produced by an earlier session where
// SetupVerification looks for it. Like generated proofs it is removed at
// Cleanup.
func (e *Exec) ImportProof(name string, data []byte) error {
	if e.modulus == nil {
		return ErrNotInitialized
	}
	path := e.proofPath(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("import proof: %w", err)
	}
	e.proofs = append(e.proofs, path)
	return nil
}

// SetupVerification checks the last proof for name against the verifier
// terms. Exit status 1 means the proof was rejected.
func (e *Exec) SetupVerification(ctx context.Context, name, terms string) (bool, error) {
	if e.modulus == nil {
		return false, ErrNotInitialized
	}

	termsFile, err := e.writeTemp("verifier-*.lisp", terms)
	if err != nil {
		return false, err
	}
	defer os.Remove(termsFile)

	_, err = e.run(ctx, "verify", name, termsFile, e.proofPath(name))
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return true, nil
	case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
		return false, nil
	default:
		return false, err
	}
}

// Cleanup removes proofs and releases the work directory.
// It is safe to call more than once.
func (e *Exec) Cleanup(ctx context.Context) error {
	for _, p := range e.proofs {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			e.logger.Warn().Err(err).Str("path", p).Msg("remove proof")
		}
	}
	e.proofs = nil
	e.modulus = nil

	if e.lock == nil {
		return nil
	}
	err := e.lock.Unlock()
	e.lock = nil
	if err != nil {
		return fmt.Errorf("unlock work directory: %w", err)
	}
	e.logger.Debug().Str("workdir", e.workdir).Msg("backend released")
	return nil
}

func (e *Exec) proofPath(name string) string {
	return filepath.Join(e.workdir, name+".proof")
}

func (e *Exec) writeTemp(pattern, content string) (string, error) {
	f, err := os.CreateTemp(e.workdir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// run executes one compiler subcommand and returns its stdout.
// A non-zero exit is returned as an error wrapping *exec.ExitError.
func (e *Exec) run(ctx context.Context, op, name string, files ...string) (string, error) {
	args := append([]string{op, "--modulus", e.modulus.String(), name}, files...)
	cmd := exec.CommandContext(ctx, e.bin, args...)
	cmd.Dir = e.workdir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug().Str("op", op).Str("function", name).Msg("running compiler")
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("%s %s: %w", op, name, err)
		}
		return "", fmt.Errorf("%s %s: %w: %s", op, name, err, msg)
	}
	return stdout.String(), nil
}

// lastInt parses the last non-empty line of out as an integer.
func lastInt(out string) (int, error) {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strconv.Atoi(strings.TrimSpace(lines[len(lines)-1]))
}
