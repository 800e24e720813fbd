// Package xmss implements the generalized XMSS signature scheme
// (Construction 3): a two-level Merkle tree over per-epoch W-OTS
// leaves, with an activation window and a sliding prepared window of
// two adjacent bottom trees cached on the secret key.
package xmss

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aerius-labs/hash-sig-go/encoding"
	"github.com/aerius-labs/hash-sig-go/internal/prf"
	"github.com/aerius-labs/hash-sig-go/internal/rng"
	"github.com/aerius-labs/hash-sig-go/merkle"
	"github.com/aerius-labs/hash-sig-go/th"
)

// Sentinel errors for the scheme's named failure kinds. Verification
// failures are reported uniformly to the caller (see Verify); the
// distinction between ErrEncodingFailure and ErrPathMismatch is a
// debug-only concern.
var (
	ErrInvalidSeedLength           = errors.New("xmss: seed must be exactly 32 bytes")
	ErrInvalidActivationParameters = errors.New("xmss: activation window invalid for this lifetime")
	ErrInsufficientBottomTrees     = errors.New("xmss: expanded activation window spans fewer than two bottom trees")
	ErrKeyNotActive                = errors.New("xmss: epoch outside the key's activation window")
	ErrEpochNotPrepared            = errors.New("xmss: epoch outside the two cached bottom trees")
	ErrEpochTooLarge               = errors.New("xmss: epoch at or beyond the key's lifetime")
	ErrEncodingFailure             = errors.New("xmss: message encoding did not satisfy the target-sum constraint")
	ErrPathMismatch                = errors.New("xmss: authentication path did not reconstruct the public root")
	ErrDeserializationFailure      = errors.New("xmss: malformed serialized key or signature")
)

// PublicKey is the pair (root, parameter).
type PublicKey struct {
	Root      th.Domain
	Parameter th.Params
}

// SecretKey holds the PRF key, the parameter, the activation window,
// the top tree, and the prepared window of two adjacent bottom trees.
// It additionally retains, in memory only, the full roster of bottom
// trees built during KeyGen so AdvancePreparation can slide the window
// without re-deriving RNG state; a secret key hydrated from the wire
// form of §6 only ever carries its current two trees and cannot be
// advanced past them (see DESIGN.md).
type SecretKey struct {
	PRFKey          []byte
	Parameter       th.Params
	ActivationEpoch int
	NumActiveEpochs int
	TopTree         *merkle.HashTree

	bottomTrees    []*merkle.HashTree
	bottomTreeBase int
	preparedLeft   int
}

// LeftBottomTreeIndex returns the bottom-tree index of the current
// left tree of the prepared window.
func (sk *SecretKey) LeftBottomTreeIndex() int { return sk.bottomTreeBase + sk.preparedLeft }

// LeftBottomTree returns the prepared window's left bottom tree.
func (sk *SecretKey) LeftBottomTree() *merkle.HashTree { return sk.bottomTrees[sk.preparedLeft] }

// RightBottomTree returns the prepared window's right bottom tree. If
// the window has only one tree left in the roster (end of the
// activation window), it returns the same tree as LeftBottomTree.
func (sk *SecretKey) RightBottomTree() *merkle.HashTree {
	if sk.preparedLeft+1 >= len(sk.bottomTrees) {
		return sk.bottomTrees[sk.preparedLeft]
	}
	return sk.bottomTrees[sk.preparedLeft+1]
}

// NewSecretKeyFromTrees reconstructs a secret key from a deserialized
// top tree and the two bottom trees of its current prepared window.
func NewSecretKeyFromTrees(prfKey []byte, parameter th.Params, activationEpoch, numActiveEpochs int,
	topTree *merkle.HashTree, leftBottomTreeIndex int, leftBottomTree, rightBottomTree *merkle.HashTree) *SecretKey {

	return &SecretKey{
		PRFKey:          prfKey,
		Parameter:       parameter,
		ActivationEpoch: activationEpoch,
		NumActiveEpochs: numActiveEpochs,
		TopTree:         topTree,
		bottomTrees:     []*merkle.HashTree{leftBottomTree, rightBottomTree},
		bottomTreeBase:  leftBottomTreeIndex,
		preparedLeft:    0,
	}
}

// Signature is the triple (authentication path, ρ, chain hashes).
type Signature struct {
	Path   merkle.HashTreeOpening
	Rho    []byte
	Hashes []th.Domain
}

// GeneralizedXMSS ties one PRF, one incomparable encoding, and one
// tweakable hash together for a fixed lifetime. chainPRF derives
// W-OTS chain starts; rhoPRF derives the encoding randomizer ρ from a
// nonce counter offset past the chain-index range, so both draws come
// from the same keyed PRF formula under disjoint inputs.
type GeneralizedXMSS struct {
	chainPRF    *prf.ShakePRFtoField
	rhoPRF      *prf.ShakePRFtoField
	encoding    encoding.IncomparableEncoding
	th          th.TweakableHash
	logLifetime int
}

// NewGeneralizedXMSS creates a scheme instance for the given lifetime
// (L = 2^logLifetime epochs).
func NewGeneralizedXMSS(chainPRF, rhoPRF *prf.ShakePRFtoField, enc encoding.IncomparableEncoding, thash th.TweakableHash, logLifetime int) *GeneralizedXMSS {
	if logLifetime > 32 {
		panic("xmss: lifetime beyond 2^32 not supported")
	}
	if enc.Base() > 256 {
		panic("xmss: encoding base too large, must be at most 256")
	}
	if enc.Dimension() > 256 {
		panic("xmss: encoding dimension too large, must be at most 256")
	}
	return &GeneralizedXMSS{
		chainPRF:    chainPRF,
		rhoPRF:      rhoPRF,
		encoding:    enc,
		th:          thash,
		logLifetime: logLifetime,
	}
}

// Lifetime returns 2^L, the maximum number of epochs.
func (g *GeneralizedXMSS) Lifetime() uint64 { return 1 << g.logLifetime }

// LogLifetime returns L, such that the scheme supports 2^L epochs.
func (g *GeneralizedXMSS) LogLifetime() int { return g.logLifetime }

// HashLenFE returns HASH_LEN_FE, the tweakable hash's output length in
// field elements — the per-node width of every serialized tree layer.
func (g *GeneralizedXMSS) HashLenFE() int { return g.th.HashLenFE() }

// Dimension returns D, the number of W-OTS chains in a signature.
func (g *GeneralizedXMSS) Dimension() int { return g.encoding.Dimension() }

// RandLen returns the byte length of the encoding randomizer ρ.
func (g *GeneralizedXMSS) RandLen() int { return g.encoding.RandLen() }

// BottomTreeDepth returns L/2, the absolute level at which bottom trees
// are truncated and the top tree begins.
func (g *GeneralizedXMSS) BottomTreeDepth() int { return g.bottomTreeDepth() }

// TweakableHash exposes the scheme's tweakable hash, needed to
// reconstruct a tree from its serialized layers.
func (g *GeneralizedXMSS) TweakableHash() th.TweakableHash { return g.th }

// bottomTreeDepth returns L/2, the absolute level at which bottom
// trees are truncated and the top tree begins.
func (g *GeneralizedXMSS) bottomTreeDepth() int { return g.logLifetime / 2 }

// bottomTreeSize returns C = 2^(L/2), the number of epochs one bottom
// tree covers.
func (g *GeneralizedXMSS) bottomTreeSize() int { return 1 << g.bottomTreeDepth() }

// expandActivationTime aligns [activationEpoch, activationEpoch+numActiveEpochs)
// to bottom-tree boundaries and enforces a floor of two bottom trees,
// returning the bottom-tree index range [btStart, btEnd).
func (g *GeneralizedXMSS) expandActivationTime(activationEpoch, numActiveEpochs int) (int, int, error) {
	if activationEpoch < 0 || numActiveEpochs <= 0 {
		return 0, 0, ErrInvalidActivationParameters
	}

	lifetime := int(g.Lifetime())
	c := g.bottomTreeSize()
	cMask := c - 1

	rawEnd := activationEpoch + numActiveEpochs
	if rawEnd > lifetime {
		return 0, 0, ErrInvalidActivationParameters
	}

	start := activationEpoch &^ cMask
	end := rawEnd
	if end&cMask != 0 {
		end = (end &^ cMask) + c
	}

	if end-start < 2*c {
		end = start + 2*c
	}
	if end > lifetime {
		shift := end - lifetime
		end -= shift
		start -= shift
	}
	if start < 0 || end-start < 2*c {
		return 0, 0, ErrInsufficientBottomTrees
	}

	return start / c, end / c, nil
}

// computeLeaves derives the OTS leaf hashes for the count epochs
// starting at epochStart: per epoch, walk each of the encoding's
// chains from its PRF-derived start to its final position, then hash
// the chain ends under the epoch's leaf tweak.
func (g *GeneralizedXMSS) computeLeaves(parameter th.Params, prfKey []byte, epochStart, count int) []th.Domain {
	numChains := g.encoding.Dimension()
	chainLength := g.encoding.Base()
	leaves := make([]th.Domain, count)

	compute := func(offset int) {
		epoch := epochStart + offset
		chainEnds := make([]th.Domain, numChains)
		for chainIndex := 0; chainIndex < numChains; chainIndex++ {
			start := g.chainPRF.Apply(prfKey, uint32(epoch), uint64(chainIndex))
			chainEnds[chainIndex] = th.Chain(g.th, parameter, uint32(epoch), uint8(chainIndex), 0, chainLength-1, start)
		}
		leafTweak := th.TreeTweak(0, uint32(epoch))
		leaves[offset] = g.th.Apply(parameter, leafTweak, chainEnds)
	}

	if count > 10 {
		var wg sync.WaitGroup
		wg.Add(count)
		for i := 0; i < count; i++ {
			go func(offset int) {
				defer wg.Done()
				compute(offset)
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < count; i++ {
			compute(i)
		}
	}

	return leaves
}

// KeyGen derives a key pair from a 32-byte seed. Every bottom tree in
// the expanded activation window is built (in tree-index order, so
// RNG padding draws stay in the order the wire format requires), and
// every one of those trees is kept whole in the secret key's in-memory
// roster so AdvancePreparation can slide through it later.
func (g *GeneralizedXMSS) KeyGen(seed []byte, activationEpoch, numActiveEpochs int) (*PublicKey, *SecretKey, error) {
	if len(seed) != 32 {
		return nil, nil, ErrInvalidSeedLength
	}
	var seedArr [32]byte
	copy(seedArr[:], seed)
	r := rng.New(seedArr)

	parameter := g.th.RandParameter(r)
	prfKey := g.chainPRF.KeyGen(r)

	btStart, btEnd, err := g.expandActivationTime(activationEpoch, numActiveEpochs)
	if err != nil {
		return nil, nil, err
	}

	c := g.bottomTreeSize()
	bottomDepth := g.bottomTreeDepth()
	numBottomTrees := btEnd - btStart

	bottomTrees := make([]*merkle.HashTree, numBottomTrees)
	bottomRoots := make([]th.Domain, numBottomTrees)
	for i := 0; i < numBottomTrees; i++ {
		epochStart := (btStart + i) * c
		leafHashes := g.computeLeaves(parameter, prfKey, epochStart, c)
		bottomTrees[i] = merkle.NewHashTree(r, g.th, 0, bottomDepth, epochStart, parameter, leafHashes)
		bottomRoots[i] = bottomTrees[i].Root()
	}

	topTree := merkle.NewHashTree(r, g.th, bottomDepth, g.logLifetime, btStart, parameter, bottomRoots)

	pk := &PublicKey{Root: topTree.Root(), Parameter: parameter}
	sk := &SecretKey{
		PRFKey:          prfKey,
		Parameter:       parameter,
		ActivationEpoch: activationEpoch,
		NumActiveEpochs: numActiveEpochs,
		TopTree:         topTree,
		bottomTrees:     bottomTrees,
		bottomTreeBase:  btStart,
		preparedLeft:    0,
	}

	return pk, sk, nil
}

// AdvancePreparation slides the prepared window one bottom tree to the
// right: the previous right tree becomes the new left tree. A call at
// the end of the activation window is a no-op (idempotent).
func (g *GeneralizedXMSS) AdvancePreparation(sk *SecretKey) {
	c := g.bottomTreeSize()
	lastEpoch := sk.ActivationEpoch + sk.NumActiveEpochs - 1
	lastBottomTreeIndex := lastEpoch / c

	if sk.LeftBottomTreeIndex()+1 >= lastBottomTreeIndex {
		return
	}
	if sk.preparedLeft+2 >= len(sk.bottomTrees) {
		panic("xmss: advance_preparation needs a bottom tree that was not retained in the secret key's roster")
	}
	sk.preparedLeft++
}

// encodeWithRetry derives ρ from a nonce counter offset past the
// chain-index range (so it never collides with a real chain start)
// and retries until the encoding's sum/final-layer constraint is met.
func (g *GeneralizedXMSS) encodeWithRetry(parameter th.Params, prfKey []byte, message []byte, epoch uint32) ([]byte, encoding.Codeword, error) {
	maxTries := g.encoding.MaxTries()
	nonceBase := uint64(g.encoding.Dimension())

	for attempt := 0; attempt < maxTries; attempt++ {
		rho := g.rhoPRF.Apply(prfKey, epoch, nonceBase+uint64(attempt))
		codeword, err := g.encoding.Encode(parameter, message, rho, epoch)
		if err == nil {
			return rho, codeword, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: no valid encoding found after %d attempts", ErrEncodingFailure, maxTries)
}

// Sign produces a signature for message at epoch, which must lie
// within both the activation window and the two-tree prepared window.
func (g *GeneralizedXMSS) Sign(sk *SecretKey, epoch uint32, message []byte) (*Signature, error) {
	if int(epoch) < sk.ActivationEpoch || int(epoch) >= sk.ActivationEpoch+sk.NumActiveEpochs {
		return nil, ErrKeyNotActive
	}

	c := g.bottomTreeSize()
	bottomTreeIndex := int(epoch) / c

	var bottomTree *merkle.HashTree
	switch bottomTreeIndex {
	case sk.LeftBottomTreeIndex():
		bottomTree = sk.LeftBottomTree()
	case sk.LeftBottomTreeIndex() + 1:
		bottomTree = sk.RightBottomTree()
	default:
		return nil, ErrEpochNotPrepared
	}

	bottomPath := bottomTree.Path(int(epoch))
	topPath := sk.TopTree.Path(bottomTreeIndex)

	authPath := merkle.HashTreeOpening{
		CoPath: append(append([]th.Domain{}, bottomPath.CoPath...), topPath.CoPath...),
	}

	rho, codeword, err := g.encodeWithRetry(sk.Parameter, sk.PRFKey, message, epoch)
	if err != nil {
		return nil, err
	}

	numChains := g.encoding.Dimension()
	hashes := make([]th.Domain, numChains)

	computeChain := func(chainIndex int) {
		start := g.chainPRF.Apply(sk.PRFKey, epoch, uint64(chainIndex))
		steps := int(codeword[chainIndex])
		hashes[chainIndex] = th.Chain(g.th, sk.Parameter, epoch, uint8(chainIndex), 0, steps, start)
	}

	if numChains > 20 {
		var wg sync.WaitGroup
		wg.Add(numChains)
		for i := 0; i < numChains; i++ {
			go func(idx int) {
				defer wg.Done()
				computeChain(idx)
			}(i)
		}
		wg.Wait()
	} else {
		for i := 0; i < numChains; i++ {
			computeChain(i)
		}
	}

	return &Signature{Path: authPath, Rho: rho, Hashes: hashes}, nil
}

// Verify checks a signature against a public key. It returns an error
// describing which constraint failed; callers that need the uniform
// "invalid" verdict of §7 should simply check err != nil.
func (g *GeneralizedXMSS) Verify(pk *PublicKey, epoch uint32, message []byte, sig *Signature) error {
	if uint64(epoch) >= g.Lifetime() {
		return ErrEpochTooLarge
	}

	codeword, err := g.encoding.Encode(pk.Parameter, message, sig.Rho, epoch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncodingFailure, err)
	}

	numChains := g.encoding.Dimension()
	chainLength := g.encoding.Base()
	if len(codeword) != numChains || len(sig.Hashes) != numChains {
		return ErrEncodingFailure
	}

	chainEnds := make([]th.Domain, numChains)
	for chainIndex := 0; chainIndex < numChains; chainIndex++ {
		xi := codeword[chainIndex]
		steps := chainLength - 1 - int(xi)
		chainEnds[chainIndex] = th.Chain(g.th, pk.Parameter, epoch, uint8(chainIndex), uint8(xi), steps, sig.Hashes[chainIndex])
	}

	leafTweak := th.TreeTweak(0, epoch)
	leaf := g.th.Apply(pk.Parameter, leafTweak, chainEnds)

	bottomDepth := g.bottomTreeDepth()
	c := g.bottomTreeSize()
	bottomTreeIndex := int(epoch) / c

	if len(sig.Path.CoPath) < bottomDepth {
		return ErrPathMismatch
	}
	bottomPath := merkle.HashTreeOpening{CoPath: sig.Path.CoPath[:bottomDepth]}
	topPath := merkle.HashTreeOpening{CoPath: sig.Path.CoPath[bottomDepth:]}

	bottomRoot := merkle.ReplayPath(g.th, pk.Parameter, 0, int(epoch), leaf, bottomPath)

	if !merkle.VerifyPath(g.th, pk.Parameter, pk.Root, bottomDepth, bottomTreeIndex, bottomRoot, topPath) {
		return ErrPathMismatch
	}

	return nil
}
