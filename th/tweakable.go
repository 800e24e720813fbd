// Package th defines the tweakable-hash abstraction (Construction 1)
// shared by the Merkle tree, the W-OTS chain walk, and the top-level
// message hash: parameter + tweak prefixed hashing over domain
// elements, plus the chain-walk helper built on top of it.
package th

import (
	"github.com/aerius-labs/hash-sig-go/internal/rng"
)

// Params represents the public parameters fed to every tweakable-hash
// call, serialized as ParameterLen() bytes (4 bytes per field element,
// little-endian).
type Params []byte

// Domain represents a hash output / chain value, serialized as
// OutputLen() bytes (4 bytes per field element, little-endian).
type Domain []byte

// TweakKind distinguishes the two tweak shapes the scheme uses.
type TweakKind uint8

const (
	TweakKindChain TweakKind = iota
	TweakKindTree
)

// Tweak is a 128-bit domain separator, decomposed base-p into
// TWEAK_LEN_FE field elements by the concrete TweakableHash
// implementation. Only one of the (ChainIndex,PosInChain) or
// (Level,PosInLevel) pairs is meaningful, selected by Kind.
type Tweak struct {
	Kind       TweakKind
	Epoch      uint32
	ChainIndex uint8
	PosInChain uint8
	Level      uint8
	PosInLevel uint32
}

// ChainTweak builds the chain tweak
// (epoch<<24) | (chainIndex<<16) | (posInChain<<8) | 0x00, with
// posInChain in [1, B-1].
func ChainTweak(epoch uint32, chainIndex uint8, posInChain uint8) Tweak {
	return Tweak{Kind: TweakKindChain, Epoch: epoch, ChainIndex: chainIndex, PosInChain: posInChain}
}

// TreeTweak builds the tree tweak ((level+1)<<40) | (posInLevel<<8) | 0x01.
func TreeTweak(level uint8, posInLevel uint32) Tweak {
	return Tweak{Kind: TweakKindTree, Level: level, PosInLevel: posInLevel}
}

// Value returns the packed 64-bit integer the tweak represents (it
// never exceeds ~56 bits for any lifetime this scheme supports, so a
// uint64 carries it before base-p decomposition).
func (t Tweak) Value() uint64 {
	switch t.Kind {
	case TweakKindChain:
		return uint64(t.Epoch)<<24 | uint64(t.ChainIndex)<<16 | uint64(t.PosInChain)<<8 | 0x00
	case TweakKindTree:
		return (uint64(t.Level)+1)<<40 | uint64(t.PosInLevel)<<8 | 0x01
	default:
		panic("unknown tweak kind")
	}
}

// TweakableHash defines the interface for a tweakable hash function
// (Construction 1): parameter + tweak prefixed hashing over one or
// more domain elements.
type TweakableHash interface {
	// RandParameter draws a random public parameter from the shared
	// key-generation RNG.
	RandParameter(r *rng.ChaCha12) Params

	// RandDomain draws a random domain element from the shared RNG
	// (used for Merkle-layer padding).
	RandDomain(r *rng.ChaCha12) Domain

	// Apply computes the tweakable hash H(P, T, M).
	Apply(parameter Params, tweak Tweak, message []Domain) Domain

	// OutputLen returns the output length in bytes.
	OutputLen() int

	// ParameterLen returns the parameter length in bytes.
	ParameterLen() int

	// HashLenFE returns the output length in field elements.
	HashLenFE() int
}

// Chain implements the hash-chain walk (Construction 2): starting at
// domain element `start`, which sits at position `startPosInChain`,
// walk `steps` further positions. Position indexing is 1-based: the
// first hash step past the PRF-derived chain start has posInChain=1.
func Chain(h TweakableHash, parameter Params, epoch uint32, chainIndex uint8,
	startPosInChain uint8, steps int, start Domain) Domain {

	current := make(Domain, len(start))
	copy(current, start)

	for j := 0; j < steps; j++ {
		tweak := ChainTweak(epoch, chainIndex, startPosInChain+uint8(j)+1)
		current = h.Apply(parameter, tweak, []Domain{current})
	}

	return current
}
