package xmss

import (
	"github.com/aerius-labs/hash-sig-go/encoding/targetsum"
	"github.com/aerius-labs/hash-sig-go/internal/prf"
	"github.com/aerius-labs/hash-sig-go/th/message_hash"
	"github.com/aerius-labs/hash-sig-go/th/tweak_hash"
)

// Shared lifetime-parameter-set constants (the "Poseidon profile"
// every lifetime below instantiates): dimension, base, final layer,
// and target sum are fixed across all three supported lifetimes.
const (
	dimension      = 64
	base           = 8
	finalLayer     = 77
	targetSum      = 375
	msgLenFE       = 9
	parameterLenFE = 5
	tweakLenFE     = 2
	capacity       = 9
	prfKeyLen      = 32

	// Invocation shape for the top-level message hash: 6 width-24
	// Poseidon compressions of 8 lanes each give 48 field elements of
	// entropy to fold into the hypercube vertex selection.
	posOutputLenPerInvFE = 8
	posInvocations       = 6
	posOutputLenFE       = posOutputLenPerInvFE * posInvocations
)

func newScheme(hashLenFE, randLenFE, logLifetime int) *GeneralizedXMSS {
	messageHash := message_hash.NewTopLevelPoseidonMessageHash(
		posOutputLenPerInvFE, posInvocations, posOutputLenFE,
		dimension, base, finalLayer,
		tweakLenFE, msgLenFE, parameterLenFE, randLenFE,
	)

	enc := targetsum.NewTargetSumEncoding(messageHash, targetSum)

	thash := tweak_hash.NewPoseidonTweakHash(parameterLenFE, hashLenFE, tweakLenFE, capacity)

	chainPRF := prf.NewShakePRFtoField(prfKeyLen, hashLenFE)
	rhoPRF := prf.NewShakePRFtoField(prfKeyLen, randLenFE)

	return NewGeneralizedXMSS(chainPRF, rhoPRF, enc, thash, logLifetime)
}

// NewPoseidonLifetime8 builds the lifetime-2^8 instantiation
// (hash_len_fe=8, rand_len_fe=7).
func NewPoseidonLifetime8() *GeneralizedXMSS {
	return newScheme(8, 7, 8)
}

// NewPoseidonLifetime18 builds the lifetime-2^18 instantiation
// (hash_len_fe=7, rand_len_fe=6).
func NewPoseidonLifetime18() *GeneralizedXMSS {
	return newScheme(7, 6, 18)
}

// NewPoseidonLifetime32 builds the lifetime-2^32 instantiation
// (hash_len_fe=8, rand_len_fe=7).
func NewPoseidonLifetime32() *GeneralizedXMSS {
	return newScheme(8, 7, 32)
}
