package message_hash

import (
	"crypto/rand"
	"testing"

	"github.com/aerius-labs/hash-sig-go/field"
	"github.com/aerius-labs/hash-sig-go/th"
)

func TestTopLevelPoseidonApply(t *testing.T) {
	const (
		base       = 12
		dimension  = 40
		finalLayer = 175
	)

	mh := NewTopLevelPoseidonMessageHash(
		8, 6, 48,
		dimension,
		base,
		finalLayer,
		3, 9, 4, 4,
	)

	params := make(th.Params, 16)
	rand.Read(params)

	message := make([]byte, 32)
	rand.Read(message)

	randomness := make([]byte, 16)
	rand.Read(randomness)

	epoch := uint32(42)

	result := mh.Hash(params, message, randomness, epoch)

	if len(result) != dimension {
		t.Errorf("expected output length %d, got %d", dimension, len(result))
	}

	for i, val := range result {
		if int(val) >= base {
			t.Errorf("output[%d] = %d exceeds base %d", i, val, base)
		}
	}

	result2 := mh.Hash(params, message, randomness, epoch)
	for i := range result {
		if result[i] != result2[i] {
			t.Error("same inputs produced different results")
			break
		}
	}
}

func TestMapIntoHypercubePart(t *testing.T) {
	const (
		base       = 4
		dimension  = 8
		finalLayer = 10
	)

	mh := NewTopLevelPoseidonMessageHash(
		2, 2, 4,
		dimension,
		base,
		finalLayer,
		2, 9, 4, 4,
	)

	for trial := 0; trial < 100; trial++ {
		fieldElems := make([]field.Element, 4)
		for i := range fieldElems {
			var b [4]byte
			rand.Read(b[:])
			val := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
			fieldElems[i] = field.FromU32(val % 1000000)
		}

		vertex := mh.mapIntoHypercubePart(fieldElems)

		if len(vertex) != dimension {
			t.Errorf("vertex has wrong dimension: %d", len(vertex))
		}

		for i, coord := range vertex {
			if int(coord) >= base {
				t.Errorf("vertex[%d] = %d >= base %d", i, coord, base)
			}
		}

		sum := 0
		for _, coord := range vertex {
			sum += int(coord)
		}

		maxSum := (base - 1) * dimension
		if sum > maxSum {
			t.Errorf("vertex sum %d exceeds max %d", sum, maxSum)
		}
	}
}

func TestTopLevelPoseidonProperties(t *testing.T) {
	const (
		base       = 12
		dimension  = 40
		finalLayer = 175
	)

	mh := NewTopLevelPoseidonMessageHash(
		8, 6, 48,
		dimension,
		base,
		finalLayer,
		3, 9, 4, 4,
	)

	params := make(th.Params, 16)
	rand.Read(params)

	randomness := make([]byte, 16)
	rand.Read(randomness)

	for epoch := uint32(0); epoch < 1000; epoch += 100 {
		message := make([]byte, 32)
		rand.Read(message)

		result := mh.Hash(params, message, randomness, epoch)

		if len(result) != dimension {
			t.Fatalf("wrong output dimension for epoch %d", epoch)
		}

		for i, val := range result {
			if int(val) >= base {
				t.Errorf("invalid value at epoch %d, index %d: %d", epoch, i, val)
			}
		}
	}
}
