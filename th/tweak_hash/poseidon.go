// Package tweak_hash implements the Poseidon2-backed tweakable hash:
// parameter+tweak prefixed hashing, dispatched across three modes by
// message length (single width-16 permutation, single width-24
// permutation, or a width-24 sponge for long inputs).
package tweak_hash

import (
	"github.com/aerius-labs/hash-sig-go/field"
	"github.com/aerius-labs/hash-sig-go/internal/rng"
	"github.com/aerius-labs/hash-sig-go/poseidon"
	"github.com/aerius-labs/hash-sig-go/th"
)

const (
	chainCompressionWidth = 16
	mergeCompressionWidth = 24
)

// PoseidonTweakHash implements th.TweakableHash over KoalaBear Poseidon2.
type PoseidonTweakHash struct {
	parameterLenFE int
	hashLenFE      int
	tweakLenFE     int
	capacity       int

	perm16 *poseidon.Poseidon2
	perm24 *poseidon.Poseidon2
}

// NewPoseidonTweakHash creates a Poseidon2 tweakable hash for the given
// parameter length, output length, tweak length, and sponge capacity
// (all in field elements).
func NewPoseidonTweakHash(parameterLenFE, hashLenFE, tweakLenFE, capacity int) *PoseidonTweakHash {
	return &PoseidonTweakHash{
		parameterLenFE: parameterLenFE,
		hashLenFE:      hashLenFE,
		tweakLenFE:     tweakLenFE,
		capacity:       capacity,
		perm16:         poseidon.NewPoseidon2_16(),
		perm24:         poseidon.NewPoseidon2_24(),
	}
}

// RandParameter draws a random public parameter from the shared
// key-generation RNG.
func (p *PoseidonTweakHash) RandParameter(r *rng.ChaCha12) th.Params {
	return th.Params(fieldElementsToBytes(r.FillFieldElements(p.parameterLenFE)))
}

// RandDomain draws a random domain element from the shared RNG (used
// for Merkle-layer padding).
func (p *PoseidonTweakHash) RandDomain(r *rng.ChaCha12) th.Domain {
	return th.Domain(fieldElementsToBytes(r.FillFieldElements(p.hashLenFE)))
}

// Apply computes the tweakable hash over parameter, tweak, and
// message, dispatching by total message length in field elements.
func (p *PoseidonTweakHash) Apply(parameter th.Params, tweak th.Tweak, message []th.Domain) th.Domain {
	paramFields := bytesToFieldElements(parameter, p.parameterLenFE)
	tweakFields := p.tweakToFieldElements(tweak)

	msgFields := make([]field.Element, 0, p.hashLenFE*len(message))
	for _, m := range message {
		msgFields = append(msgFields, bytesToFieldElements(m, len(m)/4)...)
	}

	switch len(msgFields) {
	case p.hashLenFE:
		return p.singlePermute(p.perm16, chainCompressionWidth, paramFields, tweakFields, msgFields)
	case 2 * p.hashLenFE:
		return p.singlePermute(p.perm24, mergeCompressionWidth, paramFields, tweakFields, msgFields)
	default:
		return p.sponge(paramFields, tweakFields, msgFields)
	}
}

// singlePermute concatenates parameter || tweak || message into a
// single permutation call and returns the first HASH_LEN_FE lanes.
func (p *PoseidonTweakHash) singlePermute(perm *poseidon.Poseidon2, width int,
	paramFields, tweakFields, msgFields []field.Element) th.Domain {

	state := make([]field.Element, width)
	copy(state, paramFields)
	copy(state[len(paramFields):], tweakFields)
	copy(state[len(paramFields)+len(tweakFields):], msgFields)

	perm.Permute(state)

	return fieldElementsToBytes(state[:p.hashLenFE])
}

// sponge absorbs parameter || tweak || message through the rate lanes
// of a width-24 sponge whose capacity lanes are seeded with a
// domain-separator digest derived from (width, message length,
// HASH_LEN_FE), never touched directly by absorption.
func (p *PoseidonTweakHash) sponge(paramFields, tweakFields, msgFields []field.Element) th.Domain {
	rate := mergeCompressionWidth - p.capacity

	input := make([]field.Element, 0, len(paramFields)+len(tweakFields)+len(msgFields))
	input = append(input, paramFields...)
	input = append(input, tweakFields...)
	input = append(input, msgFields...)

	state := make([]field.Element, mergeCompressionWidth)
	copy(state[rate:], p.capacityDigest(len(msgFields)))

	for i := 0; i < len(input); i += rate {
		end := i + rate
		if end > len(input) {
			end = len(input)
		}
		for j := 0; j < end-i; j++ {
			state[j] = field.Add(state[j], input[i+j])
		}
		p.perm24.Permute(state)
	}

	return fieldElementsToBytes(state[:p.hashLenFE])
}

// capacityDigest derives the capacity lanes' initial value from
// (width, message length, HASH_LEN_FE), decomposed base-p
// least-significant-digit-first across the capacity field elements.
func (p *PoseidonTweakHash) capacityDigest(msgLen int) []field.Element {
	val := uint64(mergeCompressionWidth)<<32 | uint64(msgLen)<<16 | uint64(p.hashLenFE)

	out := make([]field.Element, p.capacity)
	for i := 0; i < p.capacity; i++ {
		out[i] = field.FromU32(uint32(val % field.P))
		val /= field.P
	}
	return out
}

// tweakToFieldElements decomposes the tweak's packed integer base-p,
// least-significant digit first, into exactly TWEAK_LEN_FE elements.
func (p *PoseidonTweakHash) tweakToFieldElements(tweak th.Tweak) []field.Element {
	val := tweak.Value()

	out := make([]field.Element, p.tweakLenFE)
	for i := 0; i < p.tweakLenFE; i++ {
		out[i] = field.FromU32(uint32(val % field.P))
		val /= field.P
	}
	return out
}

// OutputLen returns the output length in bytes.
func (p *PoseidonTweakHash) OutputLen() int {
	return p.hashLenFE * 4
}

// ParameterLen returns the parameter length in bytes.
func (p *PoseidonTweakHash) ParameterLen() int {
	return p.parameterLenFE * 4
}

// HashLenFE returns the output length in field elements.
func (p *PoseidonTweakHash) HashLenFE() int {
	return p.hashLenFE
}

// bytesToFieldElements decodes numElements little-endian u32 words.
func bytesToFieldElements(data []byte, numElements int) []field.Element {
	out := make([]field.Element, numElements)
	for i := 0; i < numElements; i++ {
		offset := i * 4
		if offset >= len(data) {
			break
		}
		end := offset + 4
		if end > len(data) {
			end = len(data)
		}
		out[i] = field.FromBytes(data[offset:end])
	}
	return out
}

// fieldElementsToBytes encodes each element as its canonical
// little-endian u32.
func fieldElementsToBytes(elements []field.Element) []byte {
	out := make([]byte, 0, len(elements)*4)
	for _, e := range elements {
		out = append(out, field.ToBytes(e)...)
	}
	return out
}
