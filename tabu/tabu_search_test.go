package tabu

import (
	"errors"
	"math/rand"
	"slices"
	"testing"

	"flowshop_go/fsp"
)

func testInstance(neighbourSearchCount uint, tasks ...fsp.Task) *fsp.ProblemInstance {
	return &fsp.ProblemInstance{
		MaintenanceLength:              5,
		MaintenancePeriod:              100,
		NeighbourSearchCount:           neighbourSearchCount,
		AlgorithmRetries:               1,
		TabuListSize:                   fsp.DefaultTabuListSize,
		CandidateListSize:              fsp.DefaultCandidateListSize,
		OperationRenewPunishmentFactor: 0.5,
		Tasks:                          tasks,
	}
}

func threeTasks() []fsp.Task {
	return []fsp.Task{
		{TaskNumber: 1, Machine1Length: 4, Machine2Length: 4},
		{TaskNumber: 2, Machine1Length: 4, Machine2Length: 4},
		{TaskNumber: 3, Machine1Length: 4, Machine2Length: 4},
	}
}

func TestSwapPairSetEquality(t *testing.T) {
	a := fsp.MachineBlock{Length: 3, TaskNumber: 1, MachineNumber: fsp.Machine1, BlockType: fsp.Operation}
	b := fsp.MachineBlock{Length: 7, TaskNumber: 2, MachineNumber: fsp.Machine1, BlockType: fsp.Operation}
	if NewSwapPair(a, b) != NewSwapPair(b, a) {
		t.Fatal("{a,b} and {b,a} must be the same pair")
	}
	c := fsp.MachineBlock{Length: 7, TaskNumber: 3, MachineNumber: fsp.Machine1, BlockType: fsp.Operation}
	if NewSwapPair(a, b) == NewSwapPair(a, c) {
		t.Fatal("pairs over different blocks must differ")
	}
}

func TestCreateRandomOrderDeterministic(t *testing.T) {
	inst := testInstance(4, threeTasks()...)
	first, err := NewSearch(inst, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewSearch(inst, rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}
	orderA := first.CreateRandomOrder()
	orderB := second.CreateRandomOrder()
	if !slices.Equal(orderA, orderB) {
		t.Fatalf("same seed produced different orders:\n%v\n%v", orderA, orderB)
	}
	if len(orderA) != 2*len(inst.Tasks) {
		t.Fatalf("order has %d blocks, want %d", len(orderA), 2*len(inst.Tasks))
	}
}

func TestGenerateSwapCandidates(t *testing.T) {
	inst := testInstance(4, threeTasks()...)
	search, err := NewSearch(inst, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatal(err)
	}
	order := inst.Operations()
	pairs, err := search.generateSwapCandidates(order)
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 4 {
		t.Fatalf("got %d pairs, want 4", len(pairs))
	}
	for i, pair := range pairs {
		if pair.First.MachineNumber != pair.Second.MachineNumber {
			t.Fatalf("pair %d spans machines: %+v", i, pair)
		}
		if pair.First == pair.Second {
			t.Fatalf("pair %d is degenerate: %+v", i, pair)
		}
		for _, other := range pairs[i+1:] {
			if pair == other {
				t.Fatalf("duplicate pair %+v", pair)
			}
		}
	}
}

func TestGenerateSwapCandidatesExhausted(t *testing.T) {
	// A single task has no same-machine pair at all.
	single := testInstance(1, fsp.Task{TaskNumber: 1, Machine1Length: 3, Machine2Length: 4})
	search, err := NewSearch(single, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := search.generateSwapCandidates(single.Operations()); !errors.Is(err, ErrNoSwapCandidates) {
		t.Fatalf("expected ErrNoSwapCandidates, got %v", err)
	}

	// Three tasks give six distinct pairs; seven are unreachable.
	sparse := testInstance(7, threeTasks()...)
	search, err = NewSearch(sparse, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := search.generateSwapCandidates(sparse.Operations()); !errors.Is(err, ErrNoSwapCandidates) {
		t.Fatalf("expected ErrNoSwapCandidates, got %v", err)
	}
}

// A tabu pair that would improve on the best solution so far must be
// admitted, and must be rejected once it no longer improves.
func TestSelectNeighbourAspiration(t *testing.T) {
	inst := testInstance(4,
		fsp.Task{TaskNumber: 1, Machine1Length: 10, Machine2Length: 1},
		fsp.Task{TaskNumber: 2, Machine1Length: 1, Machine2Length: 10},
	)
	search, err := NewSearch(inst, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	ops := inst.Operations()
	task1m1, task1m2, task2m1, task2m2 := ops[0], ops[1], ops[2], ops[3]
	// This order builds to Cmax 21; swapping the machine 1 operations
	// builds to Cmax 11.
	order := []fsp.MachineBlock{task2m2, task2m1, task1m1, task1m2}
	improving := NewSwapPair(task2m1, task1m1)
	tabuList := []SwapPair{improving}

	search.bestCmax = 21
	chosen, err := search.selectNeighbour(order, []SwapPair{improving}, tabuList)
	if err != nil {
		t.Fatal(err)
	}
	if chosen.pair != improving || chosen.cmax != 11 {
		t.Fatalf("aspiration should admit the improving tabu pair, got %+v", chosen)
	}

	search.bestCmax = 11
	if _, err := search.selectNeighbour(order, []SwapPair{improving}, tabuList); !errors.Is(err, ErrNoAdmissibleNeighbour) {
		t.Fatalf("non-improving tabu pair must be filtered, got %v", err)
	}
}

func TestSelectNeighbourTieBreaksByInsertionOrder(t *testing.T) {
	inst := testInstance(4, threeTasks()...)
	search, err := NewSearch(inst, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	search.bestCmax = 1
	order := inst.Operations()
	// Identical tasks: every swap yields the same makespan, so the first
	// candidate must win.
	candidates := []SwapPair{
		NewSwapPair(order[0], order[2]),
		NewSwapPair(order[0], order[4]),
		NewSwapPair(order[2], order[4]),
	}
	chosen, err := search.selectNeighbour(order, candidates, nil)
	if err != nil {
		t.Fatal(err)
	}
	if chosen.pair != candidates[0] {
		t.Fatalf("tie must break toward the first candidate, got %+v", chosen.pair)
	}
}

func TestRunDeterministic(t *testing.T) {
	run := func(seed int64) (string, uint) {
		search, err := NewSearch(testInstance(4, threeTasks()...), rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatal(err)
		}
		solution, cmax, err := search.Run()
		if err != nil {
			t.Fatal(err)
		}
		verify, err := solution.Cmax()
		if err != nil {
			t.Fatal(err)
		}
		if verify != cmax {
			t.Fatalf("reported Cmax %d does not match solution %d", cmax, verify)
		}
		return solution.String(), cmax
	}
	renderedA, cmaxA := run(42)
	renderedB, cmaxB := run(42)
	if renderedA != renderedB || cmaxA != cmaxB {
		t.Fatalf("same seed diverged: %d vs %d\n%s\n%s", cmaxA, cmaxB, renderedA, renderedB)
	}
}

// A single task defeats both the append-only policy (its second operation
// always collides with the placed sibling) and the swap neighbourhood (no
// same-machine pair exists); the driver must still deliver the trivial
// schedule.
func TestRunSingleTask(t *testing.T) {
	inst := testInstance(1, fsp.Task{TaskNumber: 1, Machine1Length: 3, Machine2Length: 4})
	search, err := NewSearch(inst, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatal(err)
	}
	_, cmax, err := search.Run()
	if err != nil {
		t.Fatal(err)
	}
	if cmax != 7 {
		t.Fatalf("Cmax %d != 7", cmax)
	}
}

func TestStddev(t *testing.T) {
	short := make([]uint, historyFloor-1)
	if got := stddev(short); got != 999 {
		t.Fatalf("short history must report the sentinel, got %v", got)
	}
	flat := make([]uint, historyFloor)
	for i := range flat {
		flat[i] = 17
	}
	if got := stddev(flat); got != 0 {
		t.Fatalf("constant history has deviation 0, got %v", got)
	}
	split := make([]uint, historyFloor)
	for i := range split {
		split[i] = 10 + uint(i%2)*2 // half 10s, half 12s
	}
	if got := stddev(split); got != 1 {
		t.Fatalf("alternating 10/12 history has deviation 1, got %v", got)
	}
}
