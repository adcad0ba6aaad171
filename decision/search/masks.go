package search

// SelectionMask flags, per menu line, whether the line is included in a
// candidate purchase. Values are 0 or 1.
type SelectionMask []uint8

// Masks enumerates every selection over n menu lines with at least one line
// chosen: 2^n − 1 masks in total, no duplicates. Masks are produced in
// deterministic order, by ascending number of selected lines and then by
// position, so results and tests are reproducible.
func Masks(n int) []SelectionMask {
	if n <= 0 {
		return nil
	}
	masks := make([]SelectionMask, 0, (1<<uint(n))-1)
	for k := 1; k <= n; k++ {
		masks = appendCombinations(masks, n, k)
	}
	return masks
}

// appendCombinations appends one mask per way of choosing k positions out
// of n, in lexicographic position order.
func appendCombinations(masks []SelectionMask, n, k int) []SelectionMask {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		mask := make(SelectionMask, n)
		for _, i := range idx {
			mask[i] = 1
		}
		masks = append(masks, mask)

		// Advance to the next k-combination of {0..n-1}.
		j := k - 1
		for j >= 0 && idx[j] == n-k+j {
			j--
		}
		if j < 0 {
			return masks
		}
		idx[j]++
		for i := j + 1; i < k; i++ {
			idx[i] = idx[i-1] + 1
		}
	}
}
