package wire

import (
	"fmt"

	"github.com/aerius-labs/hash-sig-go/merkle"
	"github.com/aerius-labs/hash-sig-go/th"
	"github.com/aerius-labs/hash-sig-go/xmss"
)

// SignatureSSZLenLifetime8 is the exact byte length the lifetime-2^8
// profile's signature must occupy on the wire, independent of how many
// bytes its auth_path/rho/hashes fields actually need.
const SignatureSSZLenLifetime8 = 3116

// MarshalSignatureSSZ writes auth_path || ρ || hashes, each field a
// concatenation of 4-byte little-endian words (the container has no
// variable-length member once a lifetime profile is fixed, so there is
// no offset table — fixed-length SSZ containers are concatenated).
// paddedLen, if nonzero, is the target total length (3116 for lifetime
// 2^8); the result is zero-padded to it. A paddedLen of 0 leaves the
// signature at its natural length.
func MarshalSignatureSSZ(scheme *xmss.GeneralizedXMSS, sig *xmss.Signature, paddedLen int) ([]byte, error) {
	nodeLen := scheme.HashLenFE() * 4

	var buf []byte
	for _, node := range sig.Path.CoPath {
		if len(node) != nodeLen {
			return nil, fmt.Errorf("%w: auth path node has unexpected length", xmss.ErrDeserializationFailure)
		}
		buf = append(buf, node...)
	}

	if len(sig.Rho) != scheme.RandLen() {
		return nil, fmt.Errorf("%w: rho has unexpected length", xmss.ErrDeserializationFailure)
	}
	buf = append(buf, sig.Rho...)

	for _, h := range sig.Hashes {
		if len(h) != nodeLen {
			return nil, fmt.Errorf("%w: chain hash has unexpected length", xmss.ErrDeserializationFailure)
		}
		buf = append(buf, h...)
	}

	if paddedLen > 0 {
		if len(buf) > paddedLen {
			return nil, fmt.Errorf("%w: signature longer than its target SSZ length", xmss.ErrDeserializationFailure)
		}
		buf = append(buf, make([]byte, paddedLen-len(buf))...)
	}

	return buf, nil
}

// UnmarshalSignatureSSZ reads auth_path || ρ || hashes back, sizing
// each field from scheme (auth_path has scheme.LogLifetime() nodes —
// the bottom and top paths concatenated span the whole lifetime depth).
// Trailing padding bytes, if any, are ignored.
func UnmarshalSignatureSSZ(scheme *xmss.GeneralizedXMSS, data []byte) (*xmss.Signature, error) {
	nodeLen := scheme.HashLenFE() * 4
	depth := scheme.LogLifetime()
	randLen := scheme.RandLen()
	dimension := scheme.Dimension()

	need := depth*nodeLen + randLen + dimension*nodeLen
	if len(data) < need {
		return nil, fmt.Errorf("%w: signature shorter than this lifetime profile requires (%d < %d)",
			xmss.ErrDeserializationFailure, len(data), need)
	}

	offset := 0
	coPath := make([]th.Domain, depth)
	for i := range coPath {
		node := make(th.Domain, nodeLen)
		copy(node, data[offset:offset+nodeLen])
		coPath[i] = node
		offset += nodeLen
	}

	rho := make([]byte, randLen)
	copy(rho, data[offset:offset+randLen])
	offset += randLen

	hashes := make([]th.Domain, dimension)
	for i := range hashes {
		h := make(th.Domain, nodeLen)
		copy(h, data[offset:offset+nodeLen])
		hashes[i] = h
		offset += nodeLen
	}

	return &xmss.Signature{
		Path:   merkle.HashTreeOpening{CoPath: coPath},
		Rho:    rho,
		Hashes: hashes,
	}, nil
}
