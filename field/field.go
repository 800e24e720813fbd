// Package field implements the KoalaBear prime field using gnark-crypto.
package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/field/koalabear"
)

// KoalaBear prime: 2^31 - 2^24 + 1
const P uint64 = 2130706433

// Element represents a field element in KoalaBear, stored internally in
// Montgomery form by gnark-crypto.
type Element = koalabear.Element

// twoInv is the Montgomery-form value of (P+1)/2, used by Halve.
var twoInv = NewElement((P + 1) / 2)

// NewElement creates a new field element from a canonical residue.
func NewElement(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// Zero returns the zero element.
func Zero() Element {
	var e Element
	return e
}

// One returns the one element.
func One() Element {
	return NewElement(1)
}

// FromU32 reduces x modulo P and returns the corresponding element.
func FromU32(x uint32) Element {
	return NewElement(uint64(x))
}

// ToU32 returns the canonical residue in [0, P) as a u32.
func ToU32(e Element) uint32 {
	return uint32(ToBigInt(e).Uint64())
}

// FromBytes decodes a canonical little-endian u32 into an element.
func FromBytes(b []byte) Element {
	var v uint32
	n := len(b)
	if n > 4 {
		n = 4
	}
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint32(b[i])
	}
	return FromU32(v)
}

// ToBytes encodes an element as its canonical little-endian u32.
func ToBytes(e Element) []byte {
	v := ToU32(e)
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

// ToBigInt converts to a canonical-residue big.Int.
func ToBigInt(e Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// Add returns a+b.
func Add(a, b Element) Element {
	var r Element
	r.Add(&a, &b)
	return r
}

// Sub returns a-b.
func Sub(a, b Element) Element {
	var r Element
	r.Sub(&a, &b)
	return r
}

// Mul returns a*b.
func Mul(a, b Element) Element {
	var r Element
	r.Mul(&a, &b)
	return r
}

// Double returns 2*a.
func Double(a Element) Element {
	var r Element
	r.Double(&a)
	return r
}

// Halve returns a/2, computed as multiplication by the Montgomery
// constant (P+1)/2 rather than a bit-shift, since a lives in Montgomery
// form throughout.
func Halve(a Element) Element {
	return Mul(a, twoInv)
}

// DivTwoExp returns a / 2^k via repeated Halve.
func DivTwoExp(a Element, k int) Element {
	r := a
	for i := 0; i < k; i++ {
		r = Halve(r)
	}
	return r
}

// Inverse returns a^-1.
func Inverse(a Element) Element {
	var r Element
	r.Inverse(&a)
	return r
}

// Equal reports whether a and b represent the same residue class.
func Equal(a, b Element) bool {
	return a.Equal(&b)
}
