// Package prf implements the SHAKE128-keyed pseudorandom function used
// to derive W-OTS chain starts and the per-epoch encoding randomizer
// rho, both as sequences of KoalaBear field elements.
package prf

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/aerius-labs/hash-sig-go/field"
	"github.com/aerius-labs/hash-sig-go/internal/rng"
	"github.com/aerius-labs/hash-sig-go/th"
)

// ShakePRFtoField is a SHAKE128-keyed PRF whose output is a sequence of
// field elements, produced by rejection sampling rather than modular
// reduction: each candidate 4-byte little-endian word is read from the
// SHAKE stream and kept only if it falls below the field modulus,
// discarded and redrawn otherwise. Reduction mod p would bias the
// element distribution; rejection sampling keeps it uniform at the
// cost of an unbounded (but near-certainly small) number of draws.
type ShakePRFtoField struct {
	keyLen      int
	outputLenFE int
}

// NewShakePRFtoField creates a SHAKE-based field-element PRF with the
// given key length (bytes) and output length (field elements).
func NewShakePRFtoField(keyLen int, outputLenFE int) *ShakePRFtoField {
	return &ShakePRFtoField{keyLen: keyLen, outputLenFE: outputLenFE}
}

// domainSep tags the SHAKE input so this PRF's outputs never collide
// with another absorbed-prefix use of SHAKE128 elsewhere in the scheme.
var domainSep = []byte{
	0xae, 0xae, 0x22, 0xff, 0x00, 0x01, 0xfa, 0xff,
	0x21, 0xaf, 0x12, 0x00, 0x01, 0x11, 0xff, 0x00,
}

// KeyGen draws a fresh PRF key from the shared key-generation RNG.
func (p *ShakePRFtoField) KeyGen(r *rng.ChaCha12) []byte {
	return r.FillBytes(p.keyLen)
}

// Apply computes PRF(key, epoch, chainIndex) and returns outputLenFE
// field elements.
func (p *ShakePRFtoField) Apply(key []byte, epoch uint32, chainIndex uint64) th.Domain {
	shake := sha3.NewShake128()
	shake.Write(domainSep)
	shake.Write(key)

	var epochBytes [4]byte
	binary.BigEndian.PutUint32(epochBytes[:], epoch)
	shake.Write(epochBytes[:])

	var chainBytes [8]byte
	binary.BigEndian.PutUint64(chainBytes[:], chainIndex)
	shake.Write(chainBytes[:])

	result := make([]byte, 0, p.outputLenFE*4)
	var word [4]byte
	for i := 0; i < p.outputLenFE; i++ {
		for {
			if _, err := shake.Read(word[:]); err != nil {
				panic("shake128 read failed: " + err.Error())
			}
			v := binary.LittleEndian.Uint32(word[:])
			if uint64(v) < field.P {
				result = append(result, word[:]...)
				break
			}
		}
	}

	return result
}

// OutputLen returns the output length in bytes (4 bytes per element).
func (p *ShakePRFtoField) OutputLen() int {
	return p.outputLenFE * 4
}

// OutputLenFE returns the output length in field elements.
func (p *ShakePRFtoField) OutputLenFE() int {
	return p.outputLenFE
}
