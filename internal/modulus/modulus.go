// Package modulus holds the prime modulus of a proof session.
//
// A Context is immutable once created. A Slot is the write-once holder a
// session keeps for the lifetime of its backend: it is initialized exactly
// once and discarded at cleanup.
package modulus

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
)

var (
	// ErrAlreadyInitialized is returned when a Slot is initialized twice.
	ErrAlreadyInitialized = errors.New("modulus already initialized for this session")

	// ErrNotInitialized is returned when a Slot is read before initialization.
	ErrNotInitialized = errors.New("modulus not initialized")
)

// Names of the moduli accepted by the backend compiler.
const (
	BLS12_381  = "bls12_381"
	BN254      = "bn254"
	Curve25519 = "curve25519"
)

// DefaultName is the modulus used when none is configured.
const DefaultName = BLS12_381

// curve25519Order is the order of the ristretto255 / ed25519 prime subgroup,
// 2^252 + 27742317777372353535851937790883648493.
var curve25519Order, _ = new(big.Int).SetString(
	"7237005577332262213973186563042994240857116359379907606001950938285454250989", 10)

// Named returns the scalar field order for a known curve name.
func Named(name string) (*big.Int, bool) {
	switch strings.ToLower(name) {
	case BLS12_381, "bls12-381":
		return ecc.BLS12_381.ScalarField(), true
	case BN254, "bn256":
		return ecc.BN254.ScalarField(), true
	case Curve25519, "ristretto255":
		return new(big.Int).Set(curve25519Order), true
	default:
		return nil, false
	}
}

// Names lists the known curve names in a stable order.
func Names() []string {
	return []string{BLS12_381, BN254, Curve25519}
}

// Parse resolves either a known curve name or a decimal modulus.
func Parse(s string) (*big.Int, error) {
	if m, ok := Named(s); ok {
		return m, nil
	}
	m, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, fmt.Errorf("modulus %q is neither a known curve (%s) nor a decimal integer",
			s, strings.Join(Names(), ", "))
	}
	return m, nil
}

// Supported reports whether m is one of the scalar fields the backend
// compiler can emit constraints for.
func Supported(m *big.Int) bool {
	for _, name := range Names() {
		known, _ := Named(name)
		if known.Cmp(m) == 0 {
			return true
		}
	}
	return false
}

// Context is the immutable modulus of one proof session.
type Context struct {
	value *big.Int
}

// New creates a Context for m. The modulus must be at least 2.
// m is copied; later changes to it do not affect the Context.
func New(m *big.Int) (*Context, error) {
	if m == nil || m.Cmp(big.NewInt(2)) < 0 {
		return nil, fmt.Errorf("invalid modulus %v: must be an integer >= 2", m)
	}
	return &Context{value: new(big.Int).Set(m)}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or with constant moduli.
func MustNew(m *big.Int) *Context {
	c, err := New(m)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns a copy of the modulus.
func (c *Context) Value() *big.Int {
	return new(big.Int).Set(c.value)
}

// String returns the decimal form used in term text and backend calls.
func (c *Context) String() string {
	return c.value.String()
}

// Contains reports whether 0 <= n < modulus.
func (c *Context) Contains(n *big.Int) bool {
	return n.Sign() >= 0 && n.Cmp(c.value) < 0
}

// Slot is a write-once holder for a session's Context.
// The zero value is ready to use.
type Slot struct {
	mu        sync.Mutex
	ctx       *Context
	discarded bool
}

// Initialize creates the Context for m and stores it.
// Returns ErrAlreadyInitialized if the slot already holds a Context or has
// been discarded.
func (s *Slot) Initialize(m *big.Int) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil || s.discarded {
		return nil, ErrAlreadyInitialized
	}
	c, err := New(m)
	if err != nil {
		return nil, err
	}
	s.ctx = c
	return c, nil
}

// Get returns the stored Context or ErrNotInitialized.
func (s *Slot) Get() (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return nil, ErrNotInitialized
	}
	return s.ctx, nil
}

// Discard drops the stored Context. The slot cannot be initialized again.
func (s *Slot) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = nil
	s.discarded = true
}
