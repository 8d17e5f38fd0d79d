package runner

import "github.com/lcalzada-xor/fast/internal/core/domain"

// partitionBatches splits attacks per the session's batching discipline
// (§4.3 step 5, §8 invariant 6). BatchNone returns a single batch holding
// every attack.
func partitionBatches(attacks []domain.Attack, cfg *domain.BatchConfig) [][]domain.Attack {
	n := len(attacks)
	if n == 0 {
		return nil
	}

	switch cfg.Mode() {
	case domain.BatchByCount:
		return partitionByCount(attacks, cfg.Count)
	case domain.BatchBySize:
		return partitionBySize(attacks, cfg.Size)
	default:
		return [][]domain.Attack{attacks}
	}
}

// partitionByCount splits into k near-equal batches, distributing the
// remainder into the first few; k > n collapses to n single-attack
// batches (§4.3 "Edge policies").
func partitionByCount(attacks []domain.Attack, k int) [][]domain.Attack {
	n := len(attacks)
	if k > n {
		k = n
	}
	if k <= 0 {
		return [][]domain.Attack{attacks}
	}

	base := n / k
	remainder := n % k
	batches := make([][]domain.Attack, 0, k)
	offset := 0
	for i := 0; i < k; i++ {
		size := base
		if i < remainder {
			size++
		}
		if size == 0 {
			continue
		}
		batches = append(batches, attacks[offset:offset+size])
		offset += size
	}
	return batches
}

// partitionBySize groups consecutive targets into fixed-size batches of
// size, the last one possibly shorter.
func partitionBySize(attacks []domain.Attack, size int) [][]domain.Attack {
	if size <= 0 {
		return [][]domain.Attack{attacks}
	}
	n := len(attacks)
	batches := make([][]domain.Attack, 0, (n+size-1)/size)
	for offset := 0; offset < n; offset += size {
		end := offset + size
		if end > n {
			end = n
		}
		batches = append(batches, attacks[offset:end])
	}
	return batches
}
