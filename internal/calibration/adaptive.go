package calibration

import (
	"runtime"

	"github.com/agbru/primecount/internal/config"
)

// GenerateJobCandidates returns the job counts a full calibration measures,
// based on the number of available CPU cores. It always starts with 1
// (sequential) and stays sorted.
func GenerateJobCandidates() []int {
	numCPU := runtime.NumCPU()
	if numCPU == 1 {
		return []int{1}
	}

	candidates := []int{1}
	for _, factor := range []int{1, 2, 4, 8} {
		jobs := numCPU * factor
		if jobs > maxCandidateJobs {
			break
		}
		if jobs > candidates[len(candidates)-1] {
			candidates = append(candidates, jobs)
		}
	}
	if numCPU > 2 && numCPU/2 > 1 {
		candidates = insertSorted(candidates, numCPU/2)
	}
	return candidates
}

// GenerateQuickJobCandidates returns a reduced set around the core count.
func GenerateQuickJobCandidates() []int {
	numCPU := runtime.NumCPU()
	if numCPU == 1 {
		return []int{1}
	}
	return []int{1, numCPU, min(numCPU*4, maxCandidateJobs)}
}

// EstimateOptimalJobs delegates to config.EstimateOptimalJobs.
func EstimateOptimalJobs() int { return config.EstimateOptimalJobs() }

const maxCandidateJobs = 512

func insertSorted(s []int, v int) []int {
	for i, x := range s {
		if x == v {
			return s
		}
		if x > v {
			return append(s[:i], append([]int{v}, s[i:]...)...)
		}
	}
	return append(s, v)
}
