// Package tabu runs multi-restart tabu search over operation orderings of a
// two-machine flow-shop with periodic maintenance. Moves are same-machine
// swaps; a bounded FIFO of recent swaps is forbidden unless the aspiration
// criterion (improving on the best solution found so far) overrides it.
package tabu

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/constraints"

	"flowshop_go/fsp"
)

var (
	ErrNoAdmissibleNeighbour = errors.New("tabu filter left no admissible neighbour")
	ErrNoSwapCandidates      = errors.New("not enough distinct same-machine swap pairs")
)

// historyFloor is how many iteration makespans must accumulate before the
// standard-deviation stopping rule may fire.
const historyFloor = 300

const sdThreshold = 1.0

// SwapPair is an unordered pair of operation blocks on the same machine,
// normalized so that set equality is plain struct equality.
type SwapPair struct {
	First  fsp.MachineBlock
	Second fsp.MachineBlock
}

func NewSwapPair(a, b fsp.MachineBlock) SwapPair {
	if b.Less(a) {
		a, b = b, a
	}
	return SwapPair{First: a, Second: b}
}

type Search struct {
	settings *fsp.ProblemInstance
	rng      *rand.Rand

	best     *fsp.Solution
	bestCmax uint
}

func NewSearch(settings *fsp.ProblemInstance, rng *rand.Rand) (*Search, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("rng is nil")
	}
	return &Search{settings: settings, rng: rng}, nil
}

// Run performs AlgorithmRetries+1 independent restarts and returns the best
// solution seen across all of them.
func (s *Search) Run() (*fsp.Solution, uint, error) {
	restarts := s.settings.AlgorithmRetries + 1
	for restart := uint(0); restart < restarts; restart++ {
		order := s.CreateRandomOrder()
		current, err := fsp.RandomSolution(s.settings, order)
		if errors.Is(err, fsp.ErrInfeasiblePlacement) {
			// The append-only policy dead-ends when the last queued
			// operation collides with its placed sibling; the ordered
			// policy always finds a slot for the same random order.
			logrus.Warnf("restart %d/%d: %v; using ordered construction", restart+1, restarts, err)
			current, err = fsp.OrderedSolution(s.settings, order)
		}
		if err != nil {
			logrus.Warnf("restart %d/%d: %v", restart+1, restarts, err)
			continue
		}
		cmax, err := current.Cmax()
		if err != nil {
			return nil, 0, err
		}
		s.consider(current, cmax)
		if err := s.optimizeLocally(current); err != nil {
			if errors.Is(err, ErrNoAdmissibleNeighbour) || errors.Is(err, ErrNoSwapCandidates) {
				logrus.Infof("restart %d/%d ended: %v", restart+1, restarts, err)
				continue
			}
			if errors.Is(err, fsp.ErrInfeasiblePlacement) {
				logrus.Warnf("restart %d/%d: %v", restart+1, restarts, err)
				continue
			}
			return nil, 0, err
		}
	}
	if s.best == nil {
		return nil, 0, fmt.Errorf("every restart failed: %w", fsp.ErrInfeasiblePlacement)
	}
	return s.best, s.bestCmax, nil
}

// CreateRandomOrder shuffles the flat list of both operations of every task.
func (s *Search) CreateRandomOrder() []fsp.MachineBlock {
	order := s.settings.Operations()
	s.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

func (s *Search) consider(candidate *fsp.Solution, cmax uint) {
	if s.best == nil || cmax < s.bestCmax {
		if s.best != nil {
			logrus.Infof("new best solution: %d -> %d", s.bestCmax, cmax)
		}
		s.best = candidate.Clone()
		s.bestCmax = cmax
	}
}

type neighbour struct {
	pair     SwapPair
	solution *fsp.Solution
	cmax     uint
}

func (s *Search) optimizeLocally(current *fsp.Solution) error {
	tabuList := make([]SwapPair, 0, s.settings.TabuListSize)
	var history []uint
	for {
		order := current.Order()
		candidates, err := s.generateSwapCandidates(order)
		if err != nil {
			return err
		}
		chosen, err := s.selectNeighbour(order, candidates, tabuList)
		if err != nil {
			return err
		}

		current = chosen.solution
		tabuList = append(tabuList, chosen.pair)
		if uint(len(tabuList)) > s.settings.TabuListSize {
			tabuList = tabuList[1:]
		}
		s.consider(current, chosen.cmax)

		history = append(history, chosen.cmax)
		if len(history) > historyFloor {
			history = history[1:]
		}
		if stddev(history) <= sdThreshold {
			return nil
		}
	}
}

// selectNeighbour evaluates every candidate swap against the current order
// and picks the admissible one with the smallest makespan. A tabu pair is
// admissible only under the aspiration criterion: it must beat the best
// solution found so far. Ties break toward the earliest candidate.
func (s *Search) selectNeighbour(order []fsp.MachineBlock, candidates []SwapPair, tabuList []SwapPair) (*neighbour, error) {
	var chosen *neighbour
	for _, pair := range candidates {
		solution, err := fsp.OrderedSolution(s.settings, swapBlocks(order, pair))
		if err != nil {
			return nil, err
		}
		cmax, err := solution.Cmax()
		if err != nil {
			return nil, err
		}
		if slices.Contains(tabuList, pair) && cmax >= s.bestCmax {
			continue
		}
		if chosen == nil || cmax < chosen.cmax {
			chosen = &neighbour{pair: pair, solution: solution, cmax: cmax}
		}
	}
	if chosen == nil {
		return nil, ErrNoAdmissibleNeighbour
	}
	return chosen, nil
}

// generateSwapCandidates samples NeighbourSearchCount distinct swap pairs
// by rejection, deduplicating under set equality.
func (s *Search) generateSwapCandidates(order []fsp.MachineBlock) ([]SwapPair, error) {
	count := int(s.settings.NeighbourSearchCount)
	seen := mapset.NewThreadUnsafeSet[SwapPair]()
	pairs := make([]SwapPair, 0, count)
	limit := count*64 + len(order)*len(order)
	for attempts := 0; len(pairs) < count; attempts++ {
		if attempts > limit {
			return pairs, fmt.Errorf("%d of %d pairs after %d samples: %w", len(pairs), count, attempts, ErrNoSwapCandidates)
		}
		pair, ok := s.randomSwap(order)
		if !ok {
			return pairs, ErrNoSwapCandidates
		}
		if seen.Contains(pair) {
			continue
		}
		seen.Add(pair)
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// randomSwap shuffles a copy of the order, takes the last element and pairs
// it with the nearest element from the front that shares its machine.
func (s *Search) randomSwap(order []fsp.MachineBlock) (SwapPair, bool) {
	shuffled := slices.Clone(order)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	first := shuffled[len(shuffled)-1]
	for _, second := range shuffled[:len(shuffled)-1] {
		if second.MachineNumber == first.MachineNumber {
			return NewSwapPair(first, second), true
		}
	}
	return SwapPair{}, false
}

func swapBlocks(order []fsp.MachineBlock, pair SwapPair) []fsp.MachineBlock {
	swapped := slices.Clone(order)
	i := slices.Index(swapped, pair.First)
	j := slices.Index(swapped, pair.Second)
	swapped[i], swapped[j] = swapped[j], swapped[i]
	return swapped
}

func mean[T constraints.Integer | constraints.Float](values []T) float64 {
	sum := 0.0
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation of the makespan history. The
// sentinel keeps the stopping rule from firing before historyFloor samples.
func stddev[T constraints.Integer | constraints.Float](values []T) float64 {
	if len(values) < historyFloor {
		return 999
	}
	m := mean(values)
	acc := 0.0
	for _, v := range values {
		d := float64(v) - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(values)))
}
