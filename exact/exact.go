// Package exact enumerates every operation ordering of an instance and
// keeps the schedule with the smallest makespan. It is an optimality oracle
// for small inputs; (2n)! orderings make it useless beyond a handful of
// tasks.
package exact

import (
	"slices"

	"github.com/sirupsen/logrus"

	"flowshop_go/fsp"
)

// Search sweeps permutations of the operation list in lexicographic order,
// starting from the (machine, task) sorted ordering, and returns the best
// schedule the precedence-respecting builder produces.
func Search(settings *fsp.ProblemInstance) (*fsp.Solution, uint, error) {
	if err := settings.Validate(); err != nil {
		return nil, 0, err
	}
	order := settings.Operations()
	slices.SortFunc(order, compareBlocks)

	var best *fsp.Solution
	bestCmax := uint(0)
	permutations := 0
	for {
		permutations++
		solution, err := fsp.OrderedSolution(settings, order)
		if err != nil {
			return nil, 0, err
		}
		cmax, err := solution.Cmax()
		if err != nil {
			return nil, 0, err
		}
		if best == nil || cmax < bestCmax {
			best = solution
			bestCmax = cmax
		}
		if !nextPermutation(order) {
			break
		}
	}
	logrus.Infof("examined %d permutations, optimum %d", permutations, bestCmax)
	return best, bestCmax, nil
}

func compareBlocks(a, b fsp.MachineBlock) int {
	if a.Less(b) {
		return -1
	}
	if b.Less(a) {
		return 1
	}
	return 0
}

// nextPermutation rearranges blocks into the lexicographic successor under
// the (machine, task) order and reports false once the sequence wraps back
// to the first permutation.
func nextPermutation(blocks []fsp.MachineBlock) bool {
	i := len(blocks) - 2
	for i >= 0 && !blocks[i].Less(blocks[i+1]) {
		i--
	}
	if i < 0 {
		slices.Reverse(blocks)
		return false
	}
	j := len(blocks) - 1
	for !blocks[i].Less(blocks[j]) {
		j--
	}
	blocks[i], blocks[j] = blocks[j], blocks[i]
	slices.Reverse(blocks[i+1:])
	return true
}
