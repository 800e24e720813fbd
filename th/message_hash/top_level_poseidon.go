// Package message_hash implements the top-level message digest used by
// the incomparable target-sum encoder: several Poseidon2 compressions
// over (parameter, epoch, randomness, message), concatenated and
// mapped onto a single canonical hypercube vertex.
package message_hash

import (
	"math/big"

	"github.com/aerius-labs/hash-sig-go/field"
	"github.com/aerius-labs/hash-sig-go/hypercube"
	"github.com/aerius-labs/hash-sig-go/poseidon"
	"github.com/aerius-labs/hash-sig-go/th"
)

const messageHashSeparator = 0x02

// TopLevelPoseidonMessageHash maps a user message, under a per-epoch
// randomizer, onto a vertex of the dimension-D hypercube at or below
// the final layer.
type TopLevelPoseidonMessageHash struct {
	posOutputLenPerInvFE int
	posInvocations       int
	posOutputLenFE       int
	dimension            int
	base                 int
	finalLayer           int
	tweakLenFE           int
	msgLenFE             int
	parameterLenFE       int
	randLenFE            int

	perm24 *poseidon.Poseidon2
}

// NewTopLevelPoseidonMessageHash creates a top-level Poseidon message
// hash with the given invocation shape and encoding parameters (all
// lengths in field elements).
func NewTopLevelPoseidonMessageHash(
	posOutputLenPerInvFE, posInvocations, posOutputLenFE,
	dimension, base, finalLayer,
	tweakLenFE, msgLenFE, parameterLenFE, randLenFE int,
) *TopLevelPoseidonMessageHash {
	if posOutputLenFE != posInvocations*posOutputLenPerInvFE {
		panic("posOutputLenFE must equal posInvocations * posOutputLenPerInvFE")
	}
	if posOutputLenPerInvFE > 15 {
		panic("posOutputLenPerInvFE must be at most 15")
	}
	if posInvocations > 256 {
		panic("posInvocations must be at most 256")
	}
	if base > 256 {
		panic("base must be at most 256")
	}

	return &TopLevelPoseidonMessageHash{
		posOutputLenPerInvFE: posOutputLenPerInvFE,
		posInvocations:       posInvocations,
		posOutputLenFE:       posOutputLenFE,
		dimension:            dimension,
		base:                 base,
		finalLayer:           finalLayer,
		tweakLenFE:           tweakLenFE,
		msgLenFE:             msgLenFE,
		parameterLenFE:       parameterLenFE,
		randLenFE:            randLenFE,
		perm24:               poseidon.NewPoseidon2_24(),
	}
}

// Hash digests a message under a parameter, per-epoch randomizer, and
// epoch, producing a dimension-length base-B digit vector whose
// coordinates sum within [0, FINAL_LAYER]'s target range.
func (h *TopLevelPoseidonMessageHash) Hash(params th.Params, msg []byte, rand []byte, epoch uint32) []byte {
	paramFields := bytesToFieldElements(params, h.parameterLenFE)
	msgFields := bytesToFieldElements(msg, h.msgLenFE)
	randFields := bytesToFieldElements(rand, h.randLenFE)
	epochFields := h.encodeEpoch(epoch)

	allOutputs := make([]field.Element, 0, h.posOutputLenFE)

	for inv := 0; inv < h.posInvocations; inv++ {
		input := make([]field.Element, 0, 1+h.parameterLenFE+h.tweakLenFE+h.randLenFE+h.msgLenFE)
		input = append(input, field.FromU32(uint32(inv)))
		input = append(input, paramFields...)
		input = append(input, epochFields...)
		input = append(input, randFields...)
		input = append(input, msgFields...)

		allOutputs = append(allOutputs, h.poseidonCompress(input, h.posOutputLenPerInvFE)...)
	}

	return h.mapIntoHypercubePart(allOutputs)
}

// OutputLen returns the hypercube vertex dimension.
func (h *TopLevelPoseidonMessageHash) OutputLen() int { return h.dimension }

// RandLen returns the randomizer length in bytes.
func (h *TopLevelPoseidonMessageHash) RandLen() int { return h.randLenFE * 4 }

// Dimension returns the number of digit chunks (D).
func (h *TopLevelPoseidonMessageHash) Dimension() int { return h.dimension }

// Base returns the digit base (B).
func (h *TopLevelPoseidonMessageHash) Base() int { return h.base }

// ChunkSize returns the bit width of one digit, log2(base).
func (h *TopLevelPoseidonMessageHash) ChunkSize() int {
	chunkSize := 0
	for base := h.base; base > 1; base >>= 1 {
		chunkSize++
	}
	return chunkSize
}

// encodeEpoch packs (epoch << 8) | MESSAGE_HASH_SEPARATOR and
// decomposes it base-p into tweakLenFE field elements.
func (h *TopLevelPoseidonMessageHash) encodeEpoch(epoch uint32) []field.Element {
	val := uint64(epoch)<<8 | messageHashSeparator

	out := make([]field.Element, h.tweakLenFE)
	for i := 0; i < h.tweakLenFE; i++ {
		out[i] = field.FromU32(uint32(val % field.P))
		val /= field.P
	}
	return out
}

// poseidonCompress applies the permutation with a feed-forward
// add-back (Davies-Meyer style), returning the first outputLen lanes.
func (h *TopLevelPoseidonMessageHash) poseidonCompress(input []field.Element, outputLen int) []field.Element {
	const width = 24

	padded := make([]field.Element, width)
	copy(padded, input)

	state := make([]field.Element, width)
	copy(state, padded)
	h.perm24.Permute(state)

	for i := 0; i < width; i++ {
		state[i] = field.Add(state[i], padded[i])
	}

	return state[:outputLen]
}

// mapIntoHypercubePart folds the Poseidon outputs into a single big
// integer, reduces it modulo the size of layers [0, finalLayer], and
// maps the result onto the corresponding hypercube vertex.
func (h *TopLevelPoseidonMessageHash) mapIntoHypercubePart(fieldElements []field.Element) []byte {
	acc := new(big.Int)
	order := new(big.Int).SetUint64(field.P)

	for _, fe := range fieldElements {
		acc.Mul(acc, order)
		acc.Add(acc, field.ToBigInt(fe))
	}

	domSize := hypercube.HypercubePartSize(h.base, h.dimension, h.finalLayer)
	acc.Mod(acc, domSize)

	layer, offset := hypercube.HypercubeFindLayer(h.base, h.dimension, acc)

	return hypercube.MapToVertex(h.base, h.dimension, layer, offset)
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
