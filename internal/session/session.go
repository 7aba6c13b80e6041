// Package session sequences a proof session against a backend:
// compile, proof setup, verification setup and cleanup.
//
// A session moves through Uninitialized, Active and Closed. Only one
// session may ever be constructed per process, since the backend compiler
// keeps global state keyed on the modulus.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/lorenzorota/zkpytoolkit/internal/backend"
	"github.com/lorenzorota/zkpytoolkit/internal/encode"
	"github.com/lorenzorota/zkpytoolkit/internal/include"
	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
	"github.com/lorenzorota/zkpytoolkit/internal/store"
)

var (
	// ErrAlreadyConstructed is returned by New when a session was already
	// constructed in this process.
	ErrAlreadyConstructed = errors.New("only one proof session may be constructed per process")

	// ErrClosed is returned by every operation after Cleanup.
	ErrClosed = errors.New("session closed")
)

// constructed guards the one-session-per-process rule. It is only released
// when construction itself fails.
var constructed atomic.Bool

// State is the lifecycle state of a session.
type State int

const (
	Uninitialized State = iota
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Journal records sessions and their backend calls.
// Implemented by *store.Store.
type Journal interface {
	WriteSession(ctx context.Context, sess store.Session) error
	CloseSession(ctx context.Context, id string) error
	WriteCall(ctx context.Context, c store.Call) error
}

// ArgumentError lists the arguments rejected in strict mode.
type ArgumentError struct {
	Function string
	Problems []encode.Problem
}

func (e *ArgumentError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Function, strings.Join(msgs, "; "))
}

// Session is one proof session. It owns the modulus context and passes it
// to every encoding call.
//
// A Session is not safe for concurrent use.
type Session struct {
	id       string
	backend  backend.Backend
	slot     modulus.Slot
	mod      *modulus.Context
	state    State
	clock    clock
	logger   zerolog.Logger
	journal  Journal
	resolver include.Resolver
	idGen    IDGenerator
	strict   bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithJournal records the session and every backend call.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithResolver sets the symbol table Compile resolves includes against.
func WithResolver(r include.Resolver) Option {
	return func(s *Session) { s.resolver = r }
}

// WithIDGenerator replaces the UUIDv7 session id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) { s.idGen = g }
}

// WithStrictArguments rejects argument lists that would not encode exactly
// (wrong count, wrong kind, out-of-range values) before calling the backend.
// Without it, mismatches are encoded through the textual fallback.
func WithStrictArguments(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// New constructs the process's proof session: it fixes the modulus and
// initializes the backend with it.
//
// A second call returns ErrAlreadyConstructed, even after Cleanup. If
// construction fails the process may try again.
func New(ctx context.Context, b backend.Backend, m *big.Int, opts ...Option) (*Session, error) {
	if !constructed.CompareAndSwap(false, true) {
		return nil, ErrAlreadyConstructed
	}

	s := &Session{
		backend:  b,
		logger:   zerolog.Nop(),
		resolver: include.NewRegistry(),
		idGen:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.id = s.idGen.Generate()
	s.logger = s.logger.With().Str("session", s.id).Logger()

	mod, err := s.slot.Initialize(m)
	if err != nil {
		constructed.Store(false)
		return nil, fmt.Errorf("initialize modulus: %w", err)
	}

	if err := b.Init(ctx, mod); err != nil {
		s.slot.Discard()
		constructed.Store(false)
		return nil, fmt.Errorf("initialize backend: %w", err)
	}
	s.mod = mod
	s.state = Active

	if s.journal != nil {
		err := s.journal.WriteSession(ctx, store.Session{
			ID:             s.id,
			Modulus:        mod.String(),
			ToolkitVersion: ir.ToolkitVersion,
			TermFormat:     ir.TermFormatVersion,
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("journal session")
		}
	}
	s.record(ctx, store.OpInit, "", "", mod.String(), "", nil)

	s.logger.Info().Str("modulus", mod.String()).Msg("session started")
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Modulus returns the session's modulus context.
func (s *Session) Modulus() *modulus.Context { return s.mod }

// Compile assembles fn's source with the requested includes and compiles it.
func (s *Session) Compile(ctx context.Context, fn *ir.Function, refs []include.Ref) (backend.Artifact, error) {
	if err := s.checkActive(); err != nil {
		return backend.Artifact{}, err
	}
	log := s.logger.With().Str("op", "compile").Str("function", fn.Name).Logger()

	source, err := include.Assemble(s.resolver, fn, refs)
	if err != nil {
		return backend.Artifact{}, err
	}

	art, err := s.backend.Compile(ctx, fn.Name, source)
	s.record(ctx, store.OpCompile, fn.Name, ir.DomainSource, source, strconv.Itoa(art.Constraints), err)
	if err != nil {
		log.Error().Err(err).Msg("compile failed")
		return backend.Artifact{}, fmt.Errorf("compile %s: %w", fn.Name, err)
	}

	log.Info().Int("constraints", art.Constraints).Msg("compiled")
	return art, nil
}

// PrepareProof binds values to fn's parameters, encodes every argument,
// private ones included, and runs proof setup.
func (s *Session) PrepareProof(ctx context.Context, fn *ir.Function, values []ir.Value) (backend.Proof, error) {
	if err := s.checkActive(); err != nil {
		return backend.Proof{}, err
	}
	log := s.logger.With().Str("op", "prove").Str("function", fn.Name).Logger()

	args := ir.Bind(fn.Params, values)
	if s.strict {
		if err := s.checkArguments(fn, values, args); err != nil {
			return backend.Proof{}, err
		}
	}

	terms, err := encode.ProverBlock(args, s.mod)
	if err != nil {
		return backend.Proof{}, err
	}

	proof, err := s.backend.SetupProof(ctx, fn.Name, terms)
	s.record(ctx, store.OpProve, fn.Name, ir.DomainProverTerms, terms, strconv.Itoa(len(proof.Data)), err)
	if err != nil {
		log.Error().Err(err).Msg("proof setup failed")
		return backend.Proof{}, fmt.Errorf("prepare proof for %s: %w", fn.Name, err)
	}

	log.Info().Int("arguments", len(args)).Msg("proof prepared")
	return proof, nil
}

// PrepareVerification encodes the public arguments and the claimed return
// value and asks the backend whether the proof accepts them.
// A nil ret fails with encode.ErrMissingReturnValue before the backend is
// called.
func (s *Session) PrepareVerification(ctx context.Context, fn *ir.Function, values []ir.Value, ret ir.Value) (bool, error) {
	if err := s.checkActive(); err != nil {
		return false, err
	}
	if ret == nil {
		return false, encode.ErrMissingReturnValue
	}
	log := s.logger.With().Str("op", "verify").Str("function", fn.Name).Logger()

	args := ir.Bind(fn.Params, values)
	if s.strict {
		withReturn := append(args[:len(args):len(args)], ir.Argument{Name: encode.ReturnPath, Value: ret, Type: fn.Return})
		if err := s.checkArguments(fn, values, withReturn); err != nil {
			return false, err
		}
	}

	terms, err := encode.VerifierBlock(args, ret, fn.Return, s.mod)
	if err != nil {
		return false, err
	}

	ok, err := s.backend.SetupVerification(ctx, fn.Name, terms)
	s.record(ctx, store.OpVerify, fn.Name, ir.DomainVerifierTerm, terms, strconv.FormatBool(ok), err)
	if err != nil {
		log.Error().Err(err).Msg("verification setup failed")
		return false, fmt.Errorf("prepare verification for %s: %w", fn.Name, err)
	}

	log.Info().Bool("valid", ok).Msg("verification prepared")
	return ok, nil
}

// Cleanup releases the backend and discards the modulus. The session is
// closed even if the backend reports an error.
func (s *Session) Cleanup(ctx context.Context) error {
	if err := s.checkActive(); err != nil {
		return err
	}

	err := s.backend.Cleanup(ctx)
	s.record(ctx, store.OpCleanup, "", "", "", "", err)
	s.slot.Discard()
	s.mod = nil
	s.state = Closed

	if s.journal != nil {
		if jerr := s.journal.CloseSession(ctx, s.id); jerr != nil {
			s.logger.Error().Err(jerr).Msg("journal close")
		}
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("cleanup failed")
		return fmt.Errorf("cleanup: %w", err)
	}
	s.logger.Info().Msg("session closed")
	return nil
}

func (s *Session) checkActive() error {
	switch s.state {
	case Active:
		return nil
	case Closed:
		return ErrClosed
	default:
		return fmt.Errorf("session is %s", s.state)
	}
}

// checkArguments applies encode.Check plus the argument count rule.
func (s *Session) checkArguments(fn *ir.Function, values []ir.Value, args []ir.Argument) error {
	problems := encode.Check(args, s.mod)
	if len(values) != len(fn.Params) {
		problems = append(problems, encode.Problem{
			Path:    fn.Name,
			Message: fmt.Sprintf("expected %d arguments, got %d", len(fn.Params), len(values)),
		})
	}
	if len(problems) == 0 {
		return nil
	}
	return &ArgumentError{Function: fn.Name, Problems: problems}
}

// record writes one journal call. Journal failures are logged and never
// fail the operation.
func (s *Session) record(ctx context.Context, op store.Op, function, domain, input, output string, callErr error) {
	if s.journal == nil {
		return
	}
	c := store.Call{
		SessionID: s.id,
		Seq:       s.clock.next(),
		Op:        op,
		Function:  function,
		Input:     input,
	}
	if domain != "" {
		c.InputHash = ir.BlockHash(domain, input)
	}
	if callErr != nil {
		c.Error = callErr.Error()
	} else {
		c.Output = output
	}
	if err := s.journal.WriteCall(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("op", string(op)).Msg("journal call")
	}
}
