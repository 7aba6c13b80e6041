package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainSource       = "zkpy/source/v1"
	DomainProverTerms  = "zkpy/prover-terms/v1"
	DomainVerifierTerm = "zkpy/verifier-terms/v1"
)

// BlockHash computes a SHA-256 hash of text with domain separation.
// Format: SHA256(domain + 0x00 + text)
// The null byte separator prevents domain/data boundary ambiguity.
func BlockHash(domain, text string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
