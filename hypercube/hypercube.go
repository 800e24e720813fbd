// Package hypercube implements the combinatorial layer/ranking machinery
// behind the incomparable target-sum encoding: vertices of
// {0,...,w-1}^v are grouped into layers by coordinate sum, and each
// layer is given a dense integer ranking so that a field-derived
// accumulator can be mapped onto a single canonical vertex.
package hypercube

import (
	"math/big"
	"sync"
)

// LayerInfo holds, for a fixed base w and dimension v, the size of
// every layer 0..(w-1)*v and the running cumulative sum of those
// sizes.
type LayerInfo struct {
	Sizes      []*big.Int // Sizes[d] = number of vertices in layer d
	PrefixSums []*big.Int // PrefixSums[d] = sum of Sizes[0..d]
}

// NewLayerInfo computes layer sizes for a hypercube {0,...,w-1}^v.
// Layer d is the set of vertices whose coordinates sum to
// (w-1)*v - d, so layer 0 holds the single all-(w-1) vertex and layer
// (w-1)*v holds the single all-zero vertex.
func NewLayerInfo(w, v int) *LayerInfo {
	maxLayer := v * (w - 1)
	info := &LayerInfo{
		Sizes:      make([]*big.Int, maxLayer+1),
		PrefixSums: make([]*big.Int, maxLayer+1),
	}

	for layer := 0; layer <= maxLayer; layer++ {
		targetSum := (w-1)*v - layer
		info.Sizes[layer] = countVerticesWithSum(w, v, targetSum)

		if layer == 0 {
			info.PrefixSums[layer] = new(big.Int).Set(info.Sizes[layer])
		} else {
			info.PrefixSums[layer] = new(big.Int).Add(info.PrefixSums[layer-1], info.Sizes[layer])
		}
	}

	return info
}

// countVerticesWithSum counts the vertices of {0,...,w-1}^v whose
// coordinates sum to s, via inclusion-exclusion over the stars-and-bars
// count of non-negative integer solutions bounded above by w-1.
func countVerticesWithSum(w, v, s int) *big.Int {
	if v == 0 {
		if s == 0 {
			return big.NewInt(1)
		}
		return big.NewInt(0)
	}
	if s < 0 || s > (w-1)*v {
		return big.NewInt(0)
	}

	result := big.NewInt(0)
	for k := 0; k <= v; k++ {
		if s-k*w < 0 {
			break
		}

		term := binomial(v, k)
		term.Mul(term, binomial(s-k*w+v-1, v-1))

		if k%2 == 0 {
			result.Add(result, term)
		} else {
			result.Sub(result, term)
		}
	}

	return result
}

// SizesSumInRange returns the sum of layer sizes in the inclusive range
// [start, end].
func (info *LayerInfo) SizesSumInRange(start, end int) *big.Int {
	if start == 0 {
		return new(big.Int).Set(info.PrefixSums[end])
	}
	return new(big.Int).Sub(info.PrefixSums[end], info.PrefixSums[start-1])
}

var layerCache = struct {
	sync.RWMutex
	data map[int]map[int]*LayerInfo
}{
	data: make(map[int]map[int]*LayerInfo),
}

// GetLayerInfo returns cached LayerInfo for the given base and
// dimension, computing and caching it on first use.
func GetLayerInfo(w, v int) *LayerInfo {
	layerCache.RLock()
	if baseMap, ok := layerCache.data[w]; ok {
		if info, ok := baseMap[v]; ok {
			layerCache.RUnlock()
			return info
		}
	}
	layerCache.RUnlock()

	layerCache.Lock()
	defer layerCache.Unlock()

	if baseMap, ok := layerCache.data[w]; ok {
		if info, ok := baseMap[v]; ok {
			return info
		}
	}

	info := NewLayerInfo(w, v)
	if layerCache.data[w] == nil {
		layerCache.data[w] = make(map[int]*LayerInfo)
	}
	layerCache.data[w][v] = info

	return info
}

// HypercubePartSize returns the total number of vertices in layers
// 0..d inclusive — the size of the address space a final-layer
// constraint of d opens up for MapToVertex/MapToInteger ranking.
func HypercubePartSize(w, v, d int) *big.Int {
	return new(big.Int).Set(GetLayerInfo(w, v).PrefixSums[d])
}

// HypercubeFindLayer locates which layer the dense index x falls into
// and the offset of x within that layer: the smallest d with
// PrefixSums[d] > x, and rem = x - PrefixSums[d-1].
func HypercubeFindLayer(w, v int, x *big.Int) (int, *big.Int) {
	info := GetLayerInfo(w, v)

	for d := 0; d < len(info.PrefixSums); d++ {
		if x.Cmp(info.PrefixSums[d]) < 0 {
			if d == 0 {
				return d, new(big.Int).Set(x)
			}
			return d, new(big.Int).Sub(x, info.PrefixSums[d-1])
		}
	}

	panic("hypercube: index out of range for given base and dimension")
}

// MapToVertex maps a dense rank x (0 <= x < layer size) to the x-th
// vertex of layer d in lexicographic coordinate order, each coordinate
// in [0, w).
func MapToVertex(w, v, d int, x *big.Int) []byte {
	sum := (w-1)*v - d
	remaining := new(big.Int).Set(x)
	vertex := make([]byte, v)

	for i := 0; i < v; i++ {
		remainingDims := v - i - 1
		for val := 0; val < w; val++ {
			count := countVerticesWithSum(w, remainingDims, sum-val)
			if remaining.Cmp(count) < 0 {
				vertex[i] = byte(val)
				sum -= val
				break
			}
			remaining.Sub(remaining, count)
		}
	}

	return vertex
}

// MapToInteger is the inverse of MapToVertex: it ranks a vertex of
// layer d back to its dense index within that layer.
func MapToInteger(w, v, d int, vertex []byte) *big.Int {
	sum := (w-1)*v - d
	x := new(big.Int)

	for i, coord := range vertex {
		remainingDims := v - i - 1
		for val := 0; val < int(coord); val++ {
			x.Add(x, countVerticesWithSum(w, remainingDims, sum-val))
		}
		sum -= int(coord)
	}

	return x
}

// CountVerticesTargetSum counts vertices with coordinate sum s whose
// layer falls within [minLayer, maxLayer].
func CountVerticesTargetSum(w, v, s, minLayer, maxLayer int) *big.Int {
	if s < 0 || minLayer > maxLayer || minLayer < 0 || maxLayer > v {
		return big.NewInt(0)
	}

	dp := make(map[int]map[int]*big.Int)
	dp[0] = make(map[int]*big.Int)
	dp[0][0] = big.NewInt(1)

	for layer := 1; layer <= maxLayer; layer++ {
		dp[layer] = make(map[int]*big.Int)

		for prevSum := range dp[layer-1] {
			if prevSum > s {
				continue
			}

			for val := 1; val < w; val++ {
				newSum := prevSum + val
				if newSum <= s {
					if dp[layer][newSum] == nil {
						dp[layer][newSum] = new(big.Int)
					}

					ways := new(big.Int).Set(dp[layer-1][prevSum])
					unusedPos := v - layer + 1
					ways.Mul(ways, big.NewInt(int64(unusedPos)))

					dp[layer][newSum].Add(dp[layer][newSum], ways)
				}
			}
		}
	}

	result := new(big.Int)
	for layer := minLayer; layer <= maxLayer; layer++ {
		if count, ok := dp[layer][s]; ok {
			result.Add(result, count)
		}
	}

	return result
}

// binomial computes n choose k.
func binomial(n, k int) *big.Int {
	if k > n || k < 0 {
		return big.NewInt(0)
	}
	if k == 0 || k == n {
		return big.NewInt(1)
	}

	result := big.NewInt(1)
	for i := 0; i < k; i++ {
		result.Mul(result, big.NewInt(int64(n-i)))
		result.Div(result, big.NewInt(int64(i+1)))
	}

	return result
}

// ComputeIndexBounds computes the lower and upper dense-index bounds
// spanned by layers [minLayer, maxLayer].
func ComputeIndexBounds(w, v, s, minLayer, maxLayer int) (*big.Int, *big.Int) {
	info := GetLayerInfo(w, v)

	lowerBound := new(big.Int)
	if minLayer > 0 {
		lowerBound = info.SizesSumInRange(0, minLayer-1)
	}

	upperBound := info.SizesSumInRange(0, maxLayer)

	return lowerBound, upperBound
}
