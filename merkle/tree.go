// Package merkle implements the padded, truncated Merkle subtree
// construction shared by the bottom trees and the top tree: a subtree
// is built bottom-up from a lowest layer up to a target depth, with
// every intermediate layer padded front/back so parent pairing is
// always exact.
package merkle

import (
	"sync"

	"github.com/aerius-labs/hash-sig-go/internal/rng"
	"github.com/aerius-labs/hash-sig-go/th"
)

// HashTreeLayer is one layer of a subtree: a contiguous run of domain
// elements starting at a global index within that layer's level.
type HashTreeLayer struct {
	startIndex int
	nodes      []th.Domain
}

// GetStartIndex returns the layer's global start index.
func (l *HashTreeLayer) GetStartIndex() int { return l.startIndex }

// GetNodes returns the layer's domain elements.
func (l *HashTreeLayer) GetNodes() []th.Domain { return l.nodes }

// NewHashTreeLayer creates a HashTreeLayer from already-padded nodes.
func NewHashTreeLayer(startIndex int, nodes []th.Domain) HashTreeLayer {
	return HashTreeLayer{startIndex: startIndex, nodes: nodes}
}

// padded pads nodes so the layer's start index is even and its end
// index is odd, drawing front padding before back padding — the order
// in which these RNG draws occur is part of the wire contract.
func padded(r *rng.ChaCha12, thash th.TweakableHash, nodes []th.Domain, startIndex int) HashTreeLayer {
	endIndex := startIndex + len(nodes) - 1

	needsFront := (startIndex & 1) == 1
	needsBack := (endIndex & 1) == 0

	actualStart := startIndex
	if needsFront {
		actualStart--
	}

	paddedNodes := make([]th.Domain, 0, len(nodes)+2)
	if needsFront {
		paddedNodes = append(paddedNodes, thash.RandDomain(r))
	}
	paddedNodes = append(paddedNodes, nodes...)
	if needsBack {
		paddedNodes = append(paddedNodes, thash.RandDomain(r))
	}

	return HashTreeLayer{startIndex: actualStart, nodes: paddedNodes}
}

// HashTree is a padded subtree spanning absolute levels
// [lowestLayer, depth].
type HashTree struct {
	lowestLayer int
	depth       int
	layers      []HashTreeLayer
	th          th.TweakableHash
	params      th.Params
}

// GetDepth returns the subtree's top absolute level.
func (t *HashTree) GetDepth() int { return t.depth }

// GetLowestLayer returns the subtree's bottom absolute level.
func (t *HashTree) GetLowestLayer() int { return t.lowestLayer }

// GetLayers returns the subtree's layers, index 0 being the leaf layer.
func (t *HashTree) GetLayers() []HashTreeLayer { return t.layers }

// NewHashTreeFromLayers reconstructs a HashTree from deserialized layers.
func NewHashTreeFromLayers(lowestLayer, depth int, layers []HashTreeLayer, params th.Params, thash th.TweakableHash) *HashTree {
	if thash == nil {
		panic("TweakableHash cannot be nil - required for tree operations")
	}
	return &HashTree{lowestLayer: lowestLayer, depth: depth, layers: layers, params: params, th: thash}
}

// HashTreeOpening is a Merkle authentication path: one sibling per
// level, from the leaf layer up to (but excluding) the root.
type HashTreeOpening struct {
	CoPath []th.Domain
}

// NewHashTree builds a padded subtree spanning absolute levels
// [lowestLayer, depth] from a leaf layer starting at startIndex within
// level lowestLayer. Pairwise hashing within a layer may run
// concurrently; the RNG-backed padding draws always happen in layer
// order on the calling goroutine, preserving the draw-order contract.
func NewHashTree(r *rng.ChaCha12, thash th.TweakableHash, lowestLayer, depth, startIndex int,
	parameter th.Params, leafHashes []th.Domain) *HashTree {

	if len(leafHashes) > (1 << (depth - lowestLayer)) {
		panic("not enough space for leaves")
	}

	numLevels := depth - lowestLayer
	layers := make([]HashTreeLayer, 0, numLevels+1)

	layer := padded(r, thash, leafHashes, startIndex)
	layers = append(layers, layer)

	for rel := 0; rel < numLevels; rel++ {
		prev := &layers[rel]
		parentStart := prev.startIndex >> 1
		absoluteParentLevel := uint8(lowestLayer + rel + 1)

		numParents := len(prev.nodes) / 2
		parents := make([]th.Domain, numParents)

		if numParents > 100 {
			var wg sync.WaitGroup
			wg.Add(numParents)
			for i := 0; i < numParents; i++ {
				go func(idx int) {
					defer wg.Done()
					tweak := th.TreeTweak(absoluteParentLevel, uint32(parentStart+idx))
					children := []th.Domain{prev.nodes[2*idx], prev.nodes[2*idx+1]}
					parents[idx] = thash.Apply(parameter, tweak, children)
				}(i)
			}
			wg.Wait()
		} else {
			for i := 0; i < numParents; i++ {
				tweak := th.TreeTweak(absoluteParentLevel, uint32(parentStart+i))
				children := []th.Domain{prev.nodes[2*i], prev.nodes[2*i+1]}
				parents[i] = thash.Apply(parameter, tweak, children)
			}
		}

		parentLayer := padded(r, thash, parents, parentStart)
		layers = append(layers, parentLayer)
	}

	return &HashTree{lowestLayer: lowestLayer, depth: depth, layers: layers, th: thash, params: parameter}
}

// Root returns the subtree's root domain element at absolute level depth.
func (t *HashTree) Root() th.Domain {
	if len(t.layers) == 0 {
		return nil
	}
	rootLayer := &t.layers[len(t.layers)-1]
	if len(rootLayer.nodes) == 0 {
		return nil
	}
	return rootLayer.nodes[0]
}

// Path returns the authentication path for the given index within
// this subtree's lowest layer (an epoch for a bottom tree, a
// bottom-tree index for the top tree).
func (t *HashTree) Path(index int) HashTreeOpening {
	coPath := make([]th.Domain, 0, t.depth-t.lowestLayer)
	currentIndex := index

	for level := 0; level < t.depth-t.lowestLayer; level++ {
		layer := &t.layers[level]
		relIndex := currentIndex - layer.startIndex
		siblingRelIndex := relIndex ^ 1

		coPath = append(coPath, layer.nodes[siblingRelIndex])
		currentIndex >>= 1
	}

	return HashTreeOpening{CoPath: coPath}
}

// ReplayPath recomputes the node obtained by walking from a leaf
// domain element at absolute level lowestLayer and index up through
// path, applying each sibling under an increasing tree tweak. Used
// directly wherever an intermediate node (not just a final root
// comparison) is needed, e.g. composing a bottom-tree path with a
// top-tree path across the two-level split.
func ReplayPath(thash th.TweakableHash, parameter th.Params,
	lowestLayer int, index int, leaf th.Domain, path HashTreeOpening) th.Domain {

	current := leaf
	idx := index

	for level := 0; level < len(path.CoPath); level++ {
		var children []th.Domain
		if (idx & 1) == 0 {
			children = []th.Domain{current, path.CoPath[level]}
		} else {
			children = []th.Domain{path.CoPath[level], current}
		}

		parentIndex := idx >> 1
		tweak := th.TreeTweak(uint8(lowestLayer+level+1), uint32(parentIndex))
		current = thash.Apply(parameter, tweak, children)

		idx = parentIndex
	}

	return current
}

// VerifyPath recomputes the tree-tweaked path from a leaf domain
// element at absolute level lowestLayer and index, and reports whether
// it reconstructs the given root.
func VerifyPath(thash th.TweakableHash, parameter th.Params, root th.Domain,
	lowestLayer int, index int, leaf th.Domain, path HashTreeOpening) bool {

	current := ReplayPath(thash, parameter, lowestLayer, index, leaf, path)

	if len(current) != len(root) {
		return false
	}
	for i := range current {
		if current[i] != root[i] {
			return false
		}
	}
	return true
}
