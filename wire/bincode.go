package wire

import (
	"fmt"

	"github.com/aerius-labs/hash-sig-go/th"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

// MarshalPublicKeyBincode writes root (HASH_LEN_FE words) followed by
// parameter (5 words), each word a 4-byte little-endian u32 — no
// length prefix, since both are fixed-length for a given scheme.
func MarshalPublicKeyBincode(pk *xmss.PublicKey) []byte {
	buf := make([]byte, 0, len(pk.Root)+len(pk.Parameter))
	buf = append(buf, pk.Root...)
	buf = append(buf, pk.Parameter...)
	return buf
}

// UnmarshalPublicKeyBincode reconstructs a public key, using scheme to
// learn the root length (HASH_LEN_FE words) and the parameter length.
func UnmarshalPublicKeyBincode(scheme *xmss.GeneralizedXMSS, data []byte) (*xmss.PublicKey, error) {
	rootLen := scheme.HashLenFE() * 4
	paramLen := scheme.TweakableHash().ParameterLen()

	if len(data) != rootLen+paramLen {
		return nil, fmt.Errorf("%w: public key has unexpected length %d, want %d",
			xmss.ErrDeserializationFailure, len(data), rootLen+paramLen)
	}

	root := make(th.Domain, rootLen)
	copy(root, data[:rootLen])
	parameter := make(th.Params, paramLen)
	copy(parameter, data[rootLen:])

	return &xmss.PublicKey{Root: root, Parameter: parameter}, nil
}

// MarshalSecretKeyBincode writes prf_key || parameter ||
// activation_epoch (u64 LE) || num_active_epochs (u64 LE) ||
// top tree || left_bottom_tree_index (u64 LE) || left bottom tree ||
// right bottom tree. Only the prepared window's two bottom trees are
// written — a secret key round-tripped through this form loses the
// rest of the in-memory roster AdvancePreparation would otherwise
// slide through (see SecretKey's doc comment).
func MarshalSecretKeyBincode(sk *xmss.SecretKey) []byte {
	var buf []byte
	buf = append(buf, sk.PRFKey...)
	buf = append(buf, sk.Parameter...)
	buf = putU64(buf, uint64(sk.ActivationEpoch))
	buf = putU64(buf, uint64(sk.NumActiveEpochs))
	buf = append(buf, serializeTree(sk.TopTree)...)
	buf = putU64(buf, uint64(sk.LeftBottomTreeIndex()))
	buf = append(buf, serializeTree(sk.LeftBottomTree())...)
	buf = append(buf, serializeTree(sk.RightBottomTree())...)
	return buf
}

// UnmarshalSecretKeyBincode reconstructs a secret key. scheme supplies
// the lifetime profile (bottom-tree depth, top-tree depth, hash
// length) needed to know how many layers each serialized tree has,
// since the wire form itself doesn't repeat that information per tree.
func UnmarshalSecretKeyBincode(scheme *xmss.GeneralizedXMSS, data []byte) (*xmss.SecretKey, error) {
	thash := scheme.TweakableHash()
	prfKeyLen := 32
	paramLen := thash.ParameterLen()

	if len(data) < prfKeyLen+paramLen+16 {
		return nil, fmt.Errorf("%w: secret key shorter than its fixed-size prefix", xmss.ErrDeserializationFailure)
	}

	offset := 0
	prfKey := make([]byte, prfKeyLen)
	copy(prfKey, data[offset:offset+prfKeyLen])
	offset += prfKeyLen

	parameter := make(th.Params, paramLen)
	copy(parameter, data[offset:offset+paramLen])
	offset += paramLen

	activationEpoch, offset, err := takeU64(data, offset)
	if err != nil {
		return nil, err
	}
	numActiveEpochs, offset, err := takeU64(data, offset)
	if err != nil {
		return nil, err
	}

	bottomDepth := scheme.BottomTreeDepth()
	logLifetime := scheme.LogLifetime()
	topNumLayers := logLifetime - bottomDepth + 1
	bottomNumLayers := bottomDepth + 1

	topTree, offset, err := deserializeTree(data, offset, topNumLayers, bottomDepth, logLifetime, parameter, thash)
	if err != nil {
		return nil, err
	}

	leftBottomTreeIndex, offset, err := takeU64(data, offset)
	if err != nil {
		return nil, err
	}

	leftBottomTree, offset, err := deserializeTree(data, offset, bottomNumLayers, 0, bottomDepth, parameter, thash)
	if err != nil {
		return nil, err
	}

	rightBottomTree, _, err := deserializeTree(data, offset, bottomNumLayers, 0, bottomDepth, parameter, thash)
	if err != nil {
		return nil, err
	}

	return xmss.NewSecretKeyFromTrees(prfKey, parameter, int(activationEpoch), int(numActiveEpochs),
		topTree, int(leftBottomTreeIndex), leftBottomTree, rightBottomTree), nil
}
