package targetsum

import (
	"errors"
	"testing"

	"github.com/aerius-labs/hash-sig-go/encoding"
	"github.com/aerius-labs/hash-sig-go/th"
)

// fixedMessageHash returns a pre-determined digit vector regardless of
// its inputs, letting the encoding's sum check be exercised in
// isolation from Poseidon2.
type fixedMessageHash struct {
	chunks    []byte
	dimension int
	base      int
	randLen   int
}

func (m *fixedMessageHash) Hash(params th.Params, msg []byte, rand []byte, epoch uint32) []byte {
	return m.chunks
}
func (m *fixedMessageHash) OutputLen() int  { return m.dimension }
func (m *fixedMessageHash) RandLen() int    { return m.randLen }
func (m *fixedMessageHash) Dimension() int  { return m.dimension }
func (m *fixedMessageHash) Base() int       { return m.base }
func (m *fixedMessageHash) ChunkSize() int  { return 3 }

func TestTargetSumEncodeAccepts(t *testing.T) {
	mh := &fixedMessageHash{chunks: []byte{1, 2, 3, 4}, dimension: 4, base: 8, randLen: 16}
	enc := NewTargetSumEncoding(mh, 10)

	codeword, err := enc.Encode(nil, nil, nil, 0)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(codeword) != 4 {
		t.Fatalf("expected codeword length 4, got %d", len(codeword))
	}
}

func TestTargetSumEncodeRejects(t *testing.T) {
	mh := &fixedMessageHash{chunks: []byte{1, 2, 3, 4}, dimension: 4, base: 8, randLen: 16}
	enc := NewTargetSumEncoding(mh, 11)

	_, err := enc.Encode(nil, nil, nil, 0)
	if !errors.Is(err, encoding.ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}
}

func TestNewTargetSumEncodingRejectsOutOfRangeTarget(t *testing.T) {
	mh := &fixedMessageHash{dimension: 4, base: 8, randLen: 16}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range target sum")
		}
	}()
	NewTargetSumEncoding(mh, 1000)
}

func TestTargetSumMetadataPassthrough(t *testing.T) {
	mh := &fixedMessageHash{dimension: 64, base: 8, randLen: 28}
	enc := NewTargetSumEncoding(mh, 375)

	if enc.Dimension() != 64 {
		t.Errorf("Dimension() = %d, want 64", enc.Dimension())
	}
	if enc.Base() != 8 {
		t.Errorf("Base() = %d, want 8", enc.Base())
	}
	if enc.RandLen() != 28 {
		t.Errorf("RandLen() = %d, want 28", enc.RandLen())
	}
	if !enc.NeedsRetry() {
		t.Error("NeedsRetry() should be true for target-sum encoding")
	}
	if enc.MaxTries() <= 0 {
		t.Error("MaxTries() should be positive")
	}
}

func TestComputeOptimalTarget(t *testing.T) {
	target := ComputeOptimalTarget(64, 3, 1.1)
	if target <= 0 || target > 64*7 {
		t.Fatalf("optimal target %d out of plausible range", target)
	}
}
