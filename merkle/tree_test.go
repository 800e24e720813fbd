package merkle

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/aerius-labs/hash-sig-go/internal/rng"
	"github.com/aerius-labs/hash-sig-go/th"
	"github.com/aerius-labs/hash-sig-go/th/tweak_hash"
)

func testRNG(seed byte) *rng.ChaCha12 {
	var s [32]byte
	for i := range s {
		s[i] = seed
	}
	return rng.New(s)
}

func leafHashesOf(thash th.TweakableHash, r *rng.ChaCha12, param th.Params, n int, startIndex int) ([][]th.Domain, []th.Domain) {
	leafData := make([][]th.Domain, n)
	leafHashes := make([]th.Domain, n)
	for i := 0; i < n; i++ {
		leafData[i] = []th.Domain{thash.RandDomain(r)}
		leafTweak := th.TreeTweak(0, uint32(startIndex+i))
		leafHashes[i] = thash.Apply(param, leafTweak, leafData[i])
	}
	return leafData, leafHashes
}

func TestMerkleTreeConstruction(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)
	r := testRNG(1)
	param := thash.RandParameter(r)

	numLeaves := 8
	leafData, leafHashes := leafHashesOf(thash, r, param, numLeaves, 0)

	tree := NewHashTree(r, thash, 0, 3, 0, param, leafHashes)

	root := tree.Root()
	if len(root) != thash.OutputLen() {
		t.Fatalf("root should be %d bytes, got %d", thash.OutputLen(), len(root))
	}

	for i := 0; i < numLeaves; i++ {
		path := tree.Path(i)
		if len(path.CoPath) != 3 {
			t.Fatalf("path should have depth 3, got %d", len(path.CoPath))
		}

		if !VerifyPath(thash, param, root, 0, i, leafHashes[i], path) {
			t.Fatalf("path verification failed for leaf %d", i)
		}
	}
}

func TestSparseTree(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)
	r := testRNG(2)
	param := thash.RandParameter(r)

	startIndex := 10
	numLeaves := 5
	_, leafHashes := leafHashesOf(thash, r, param, numLeaves, startIndex)

	tree := NewHashTree(r, thash, 0, 5, startIndex, param, leafHashes)
	root := tree.Root()

	for i := 0; i < numLeaves; i++ {
		epoch := startIndex + i
		path := tree.Path(epoch)
		if !VerifyPath(thash, param, root, 0, epoch, leafHashes[i], path) {
			t.Fatalf("path verification failed for sparse leaf at epoch %d", epoch)
		}
	}
}

func TestPowerOfTwoLeaves(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)

	for _, numLeaves := range []int{1, 2, 4, 8, 16} {
		t.Run(fmt.Sprintf("%d_leaves", numLeaves), func(t *testing.T) {
			r := testRNG(byte(numLeaves))
			param := thash.RandParameter(r)
			_, leafHashes := leafHashesOf(thash, r, param, numLeaves, 0)

			depth := 0
			for (1 << depth) < numLeaves {
				depth++
			}

			tree := NewHashTree(r, thash, 0, depth, 0, param, leafHashes)
			root := tree.Root()

			for i := 0; i < numLeaves; i++ {
				path := tree.Path(i)
				if !VerifyPath(thash, param, root, 0, i, leafHashes[i], path) {
					t.Fatalf("verification failed for leaf %d with %d total leaves", i, numLeaves)
				}
			}
		})
	}
}

func TestOddNumberOfLeaves(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)

	for _, numLeaves := range []int{3, 5, 7, 9, 11} {
		t.Run(fmt.Sprintf("%d_leaves", numLeaves), func(t *testing.T) {
			r := testRNG(byte(numLeaves))
			param := thash.RandParameter(r)
			_, leafHashes := leafHashesOf(thash, r, param, numLeaves, 0)

			depth := 0
			for (1 << depth) < numLeaves {
				depth++
			}

			tree := NewHashTree(r, thash, 0, depth, 0, param, leafHashes)
			root := tree.Root()

			for i := 0; i < numLeaves; i++ {
				path := tree.Path(i)
				if !VerifyPath(thash, param, root, 0, i, leafHashes[i], path) {
					t.Fatalf("verification failed for leaf %d with %d total leaves", i, numLeaves)
				}
			}
		})
	}
}

func TestTreeUniqueness(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)

	numTrees := 10
	roots := make([]th.Domain, numTrees)

	for i := 0; i < numTrees; i++ {
		r := testRNG(byte(10 + i))
		param := thash.RandParameter(r)
		_, leafHashes := leafHashesOf(thash, r, param, 4, 0)

		tree := NewHashTree(r, thash, 0, 2, 0, param, leafHashes)
		roots[i] = tree.Root()
	}

	for i := 0; i < numTrees; i++ {
		for j := i + 1; j < numTrees; j++ {
			if bytes.Equal(roots[i], roots[j]) {
				t.Fatalf("trees %d and %d have identical roots", i, j)
			}
		}
	}
}

func TestIncorrectPathFails(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)
	r := testRNG(3)
	param := thash.RandParameter(r)

	_, leafHashes := leafHashesOf(thash, r, param, 4, 0)

	tree := NewHashTree(r, thash, 0, 2, 0, param, leafHashes)
	root := tree.Root()

	path0 := tree.Path(0)

	if VerifyPath(thash, param, root, 0, 0, leafHashes[1], path0) {
		t.Fatal("verification should fail with wrong leaf")
	}

	if VerifyPath(thash, param, root, 0, 1, leafHashes[0], path0) {
		t.Fatal("verification should fail with wrong epoch")
	}

	corruptedPath := HashTreeOpening{CoPath: make([]th.Domain, len(path0.CoPath))}
	for i := range corruptedPath.CoPath {
		corruptedPath.CoPath[i] = thash.RandDomain(r)
	}
	if VerifyPath(thash, param, root, 0, 0, leafHashes[0], corruptedPath) {
		t.Fatal("verification should fail with corrupted path")
	}
}

func TestTwoLevelTopTreePathVerifies(t *testing.T) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)
	r := testRNG(7)
	param := thash.RandParameter(r)

	// Two bottom trees of depth 2 (4 leaves each) feed a top tree of
	// depth 1 over their roots, mirroring the two-level subtree split.
	const bottomDepth = 2
	const numBottom = 2

	bottomRoots := make([]th.Domain, numBottom)
	for bt := 0; bt < numBottom; bt++ {
		_, leafHashes := leafHashesOf(thash, r, param, 1<<bottomDepth, bt*(1<<bottomDepth))
		bottomTree := NewHashTree(r, thash, 0, bottomDepth, bt*(1<<bottomDepth), param, leafHashes)
		bottomRoots[bt] = bottomTree.Root()
	}

	topTree := NewHashTree(r, thash, bottomDepth, bottomDepth+1, 0, param, bottomRoots)
	root := topTree.Root()
	if len(root) != thash.OutputLen() {
		t.Fatalf("top root should be %d bytes, got %d", thash.OutputLen(), len(root))
	}

	path := topTree.Path(0)
	if !VerifyPath(thash, param, root, bottomDepth, 0, bottomRoots[0], path) {
		t.Fatal("top-tree path verification failed")
	}
}

func BenchmarkTreeConstruction(b *testing.B) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)

	sizes := []int{16, 64, 256}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Size%d", size), func(b *testing.B) {
			r := testRNG(9)
			param := thash.RandParameter(r)
			_, leafHashes := leafHashesOf(thash, r, param, size, 0)

			depth := 0
			for (1 << depth) < size {
				depth++
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				NewHashTree(testRNG(9), thash, 0, depth, 0, param, leafHashes)
			}
		})
	}
}

func BenchmarkPathVerification(b *testing.B) {
	thash := tweak_hash.NewPoseidonTweakHash(5, 8, 2, 9)
	r := testRNG(11)
	param := thash.RandParameter(r)

	_, leafHashes := leafHashesOf(thash, r, param, 256, 0)

	tree := NewHashTree(r, thash, 0, 8, 0, param, leafHashes)
	root := tree.Root()
	path := tree.Path(128)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyPath(thash, param, root, 0, 128, leafHashes[128], path)
	}
}
