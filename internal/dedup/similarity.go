package dedup

// similarityRatio is the classic character-sequence ratio: twice the total
// length of the longest matching blocks over the combined length. 1.0 means
// identical, 0.0 means nothing in common.
func similarityRatio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}
	matched := matchLen(ar, br)
	return 2 * float64(matched) / float64(len(ar)+len(br))
}

// matchLen sums matching blocks by recursing around the longest match,
// mirroring how difference engines align sequences.
func matchLen(a, b []rune) int {
	ai, bi, n := longestMatch(a, b)
	if n == 0 {
		return 0
	}
	return matchLen(a[:ai], b[:bi]) + n + matchLen(a[ai+n:], b[bi+n:])
}

func longestMatch(a, b []rune) (ai, bi, size int) {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	j2len := map[int]int{}
	for i, r := range a {
		next := map[int]int{}
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			next[j] = k
			if k > size {
				ai, bi, size = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return ai, bi, size
}

// jaccard is intersection over union of two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
