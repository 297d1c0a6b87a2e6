package peers

import "math"

// QuorumFunc returns the number of members required to act for a set of n
// members. Implementations must return a value in [1, n] for every n >= 1.
type QuorumFunc func(n int) int

// SuperMajority is the default quorum: more than two thirds of the set.
func SuperMajority(n int) int {
	if n <= 0 {
		return 0
	}
	return clampQuorum(2*n/3+1, n)
}

// TrustCount is the number of members needed to be sure at least one of them
// is honest when up to a third of the set may be faulty.
func TrustCount(n int) int {
	if n <= 0 {
		return 0
	}
	return clampQuorum(int(math.Ceil(float64(n)/float64(3))), n)
}

func clampQuorum(q, n int) int {
	if q < 1 {
		return 1
	}
	if q > n {
		return n
	}
	return q
}
