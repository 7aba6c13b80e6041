// Package testutil provides deterministic test doubles shared across
// package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/lorenzorota/zkpytoolkit/internal/backend"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

// BackendCall is one recorded call to a FakeBackend.
type BackendCall struct {
	Op    string // init, compile, prove, verify or cleanup
	Name  string
	Input string // modulus, source or terms
}

// FakeBackend records every call and returns canned results.
// Set the *Err fields to make the matching call fail.
//
// Thread-safety: FakeBackend is safe for concurrent use via internal mutex.
type FakeBackend struct {
	mu    sync.Mutex
	calls []BackendCall

	Constraints int  // returned by Compile
	Verdict     bool // returned by SetupVerification

	InitErr    error
	CompileErr error
	ProveErr   error
	VerifyErr  error
	CleanupErr error
}

// NewFakeBackend creates a fake that accepts every verification.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{Constraints: 1, Verdict: true}
}

var _ backend.Backend = (*FakeBackend)(nil)

func (f *FakeBackend) record(op, name, input string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, BackendCall{Op: op, Name: name, Input: input})
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeBackend) Calls() []BackendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BackendCall(nil), f.calls...)
}

// Ops returns the recorded operation names in order.
func (f *FakeBackend) Ops() []string {
	calls := f.Calls()
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

func (f *FakeBackend) Init(_ context.Context, mod *modulus.Context) error {
	f.record("init", "", mod.String())
	return f.InitErr
}

func (f *FakeBackend) Compile(_ context.Context, name, source string) (backend.Artifact, error) {
	f.record("compile", name, source)
	if f.CompileErr != nil {
		return backend.Artifact{}, f.CompileErr
	}
	return backend.Artifact{Name: name, Constraints: f.Constraints}, nil
}

func (f *FakeBackend) SetupProof(_ context.Context, name, terms string) (backend.Proof, error) {
	f.record("prove", name, terms)
	if f.ProveErr != nil {
		return backend.Proof{}, f.ProveErr
	}
	return backend.Proof{Name: name, Data: []byte(terms)}, nil
}

func (f *FakeBackend) SetupVerification(_ context.Context, name, terms string) (bool, error) {
	f.record("verify", name, terms)
	if f.VerifyErr != nil {
		return false, f.VerifyErr
	}
	return f.Verdict, nil
}

func (f *FakeBackend) Cleanup(_ context.Context) error {
	f.record("cleanup", "", "")
	return f.CleanupErr
}
