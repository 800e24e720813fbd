// Package encoding defines the incomparable encoding abstraction: a
// message, under a per-epoch randomizer, is mapped to a vector of
// base-B digits such that no two distinct messages' digit vectors are
// componentwise comparable.
package encoding

import (
	"errors"

	"github.com/aerius-labs/hash-sig-go/th"
)

// ErrEncodingFailed indicates encoding failed and needs retry with a
// freshly derived randomizer.
var ErrEncodingFailed = errors.New("encoding failed, retry needed")

// Codeword represents an encoded message as a vector of base-B digits.
type Codeword []uint8

// IncomparableEncoding defines the interface for incomparable encoding
// schemes (Target-Sum is the only one this module implements).
type IncomparableEncoding interface {
	// Encode attempts to encode a message into a codeword under the
	// given randomizer. Returns ErrEncodingFailed if the sum/final-layer
	// constraint isn't met, signaling the caller to retry with a new
	// rho derived from the next rho_nonce.
	Encode(P th.Params, msg []byte, rho []byte, epoch uint32) (Codeword, error)

	// Dimension returns the number of chunks in a codeword (v)
	Dimension() int
	
	// Base returns the base of the encoding (2^w)
	Base() int
	
	// ChunkSize returns w (bits per chunk)
	ChunkSize() int

	// RandLen returns the randomizer length in bytes expected by Encode.
	RandLen() int

	// MaxTries returns the maximum number of encoding attempts
	MaxTries() int
	
	// NeedsRetry indicates if this encoding may fail and need retries
	// (true for Target-Sum, false for Winternitz)
	NeedsRetry() bool
}