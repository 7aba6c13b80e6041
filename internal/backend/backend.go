// Package backend defines the proof backend a session drives and provides
// a backend that runs an external compiler binary.
//
// The backend is opaque: every call blocks until the compiler finishes and
// either succeeds or fails outright. A backend serves exactly one session
// between Init and Cleanup.
package backend

import (
	"context"
	"errors"

	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

var (
	// ErrNotInitialized is returned when a call precedes Init.
	ErrNotInitialized = errors.New("backend not initialized")

	// ErrUnsupportedModulus is returned by Compile when the backend cannot
	// emit constraints over the session's scalar field.
	ErrUnsupportedModulus = errors.New("prime field modulus not supported")

	// ErrWorkdirLocked is returned by Init when another session holds the
	// work directory.
	ErrWorkdirLocked = errors.New("work directory is in use by another session")
)

// Artifact describes a compiled circuit.
type Artifact struct {
	Name        string `json:"name"`
	Constraints int    `json:"constraints"`
}

// Proof is the output of proof setup for one circuit invocation.
type Proof struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Backend is the compiler and proof system collaborator.
//
// Terms passed to SetupProof and SetupVerification are the blocks built by
// package encode. SetupVerification reports whether the claimed return
// value is accepted; an error means the check could not be performed.
type Backend interface {
	Init(ctx context.Context, mod *modulus.Context) error
	Compile(ctx context.Context, name, source string) (Artifact, error)
	SetupProof(ctx context.Context, name, terms string) (Proof, error)
	SetupVerification(ctx context.Context, name, terms string) (bool, error)
	Cleanup(ctx context.Context) error
}
