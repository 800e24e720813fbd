// Package wire implements the two byte-exact serializations the scheme
// requires: a bincode-style form (public key, secret key) and an SSZ
// form (signature). Both encode field elements as canonical
// little-endian u32, matching the field package's own Domain/Params
// byte layout, so most of what this package does is concatenate
// already-encoded slices in a fixed order rather than re-encode them.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/aerius-labs/hash-sig-go/merkle"
	"github.com/aerius-labs/hash-sig-go/th"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func takeU64(data []byte, offset int) (uint64, int, error) {
	if offset+8 > len(data) {
		return 0, 0, fmt.Errorf("%w: truncated u64 field", xmss.ErrDeserializationFailure)
	}
	return binary.LittleEndian.Uint64(data[offset : offset+8]), offset + 8, nil
}

// serializeTree writes a subtree layer-by-layer, leaf layer first: each
// layer is start_index (u64 LE) || length (u64 LE) || nodes. The
// subtree's lowestLayer/depth aren't themselves written — the caller
// already knows them from the scheme's lifetime profile.
func serializeTree(t *merkle.HashTree) []byte {
	var buf []byte
	for _, layer := range t.GetLayers() {
		nodes := layer.GetNodes()
		buf = putU64(buf, uint64(layer.GetStartIndex()))
		buf = putU64(buf, uint64(len(nodes)))
		for _, n := range nodes {
			buf = append(buf, n...)
		}
	}
	return buf
}

// deserializeTree reads numLayers layers back from data starting at
// offset, returning the reconstructed subtree and the offset just past
// its encoding.
func deserializeTree(data []byte, offset, numLayers, lowestLayer, depth int,
	parameter th.Params, thash th.TweakableHash) (*merkle.HashTree, int, error) {

	nodeLen := thash.OutputLen()
	layers := make([]merkle.HashTreeLayer, numLayers)

	for i := 0; i < numLayers; i++ {
		startIndex, next, err := takeU64(data, offset)
		if err != nil {
			return nil, 0, err
		}
		length, next2, err := takeU64(data, next)
		if err != nil {
			return nil, 0, err
		}
		offset = next2

		nodes := make([]th.Domain, length)
		for j := range nodes {
			if offset+nodeLen > len(data) {
				return nil, 0, fmt.Errorf("%w: truncated tree node", xmss.ErrDeserializationFailure)
			}
			node := make(th.Domain, nodeLen)
			copy(node, data[offset:offset+nodeLen])
			nodes[j] = node
			offset += nodeLen
		}

		layers[i] = merkle.NewHashTreeLayer(int(startIndex), nodes)
	}

	return merkle.NewHashTreeFromLayers(lowestLayer, depth, layers, parameter, thash), offset, nil
}
