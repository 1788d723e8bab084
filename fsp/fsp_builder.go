package fsp

import (
	"errors"
	"fmt"

	"github.com/oleiade/lane/v2"
)

var ErrInfeasiblePlacement = errors.New("no feasible placement for operation")

// placementRetryLimit bounds the maintenance-insertion loop. Stacked
// maintenance blocks advance the timeline by MaintenanceLength each round,
// so a longer chain means the placement cannot make progress (a zero
// MaintenanceLength against a far-off sibling).
const placementRetryLimit = 4096

// drainSlack pads the append-only drain bound of len(blocks)^2.
const drainSlack = 16

func newMaintenance(inst *ProblemInstance, m MachineNumber, start uint) MachineBlock {
	return MachineBlock{
		Start:         start,
		Length:        inst.MaintenanceLength,
		End:           start + inst.MaintenanceLength,
		MachineNumber: m,
		BlockType:     Maintenance,
	}
}

// RandomSolution builds a schedule with the append-only policy: operations
// are taken from the front of the queue and requeued at the back whenever
// their tentative slot would overlap the sibling operation on the other
// machine. The order of blocks partially randomizes the outcome.
func RandomSolution(inst *ProblemInstance, blocks []MachineBlock) (*Solution, error) {
	solution := &Solution{}
	queue := lane.NewDeque[MachineBlock](blocks...)
	limit := len(blocks)*len(blocks) + drainSlack
	for iterations := 0; ; iterations++ {
		candidate, ok := queue.Shift()
		if !ok {
			break
		}
		if iterations > limit {
			return nil, fmt.Errorf("append-only placement did not drain after %d iterations: %w", iterations, ErrInfeasiblePlacement)
		}
		if solution.blockValidToPut(candidate) {
			if err := solution.placeBlock(inst, candidate); err != nil {
				return nil, err
			}
		} else {
			queue.Append(candidate)
		}
	}
	return solution, nil
}

// OrderedSolution builds a schedule that preserves the given operation
// order. An operation colliding with its sibling waits until the sibling
// ends, leaving a deliberate idle gap on its machine.
func OrderedSolution(inst *ProblemInstance, blocks []MachineBlock) (*Solution, error) {
	solution := &Solution{}
	queue := lane.NewDeque[MachineBlock](blocks...)
	for {
		candidate, ok := queue.Shift()
		if !ok {
			break
		}
		if err := solution.placeOrderedBlock(inst, candidate); err != nil {
			return nil, err
		}
	}
	return solution, nil
}

// blockValidToPut checks sibling disjointness at the tentative start time,
// before any maintenance insertion shifts it.
func (s *Solution) blockValidToPut(candidate MachineBlock) bool {
	sibling, ok := s.CorrespondingOperation(candidate)
	if !ok {
		return true
	}
	start := s.nextStart(candidate.MachineNumber)
	return !blocksColliding(start, candidate.Length, sibling)
}

// placeBlock is the placement primitive: append at the timeline end,
// inserting a maintenance block first whenever the operation would not fit
// inside the remaining productive budget.
func (s *Solution) placeBlock(inst *ProblemInstance, candidate MachineBlock) error {
	m := candidate.MachineNumber
	for attempts := 0; attempts < placementRetryLimit; attempts++ {
		start := s.nextStart(m)
		if candidate.Length > s.timeToNextMaintenance(inst, m, start) {
			s.appendBlock(newMaintenance(inst, m, start))
			continue
		}
		candidate.Start = start
		candidate.End = start + candidate.Length
		s.appendBlock(candidate)
		return nil
	}
	return fmt.Errorf("task %d on machine %d: %w", candidate.TaskNumber, m+1, ErrInfeasiblePlacement)
}

func (s *Solution) placeOrderedBlock(inst *ProblemInstance, candidate MachineBlock) error {
	m := candidate.MachineNumber
	for attempts := 0; attempts < placementRetryLimit; attempts++ {
		start := s.nextStart(m)
		if candidate.Length > s.timeToNextMaintenance(inst, m, start) {
			s.appendBlock(newMaintenance(inst, m, start))
			continue
		}
		sibling, ok := s.CorrespondingOperation(candidate)
		if !ok || !blocksColliding(start, candidate.Length, sibling) {
			candidate.Start = start
			candidate.End = start + candidate.Length
			s.appendBlock(candidate)
			return nil
		}
		// Wait for the sibling; the budget is measured from the delayed
		// start, the idle gap holds no operation work.
		tryStart := sibling.End
		if candidate.Length <= s.timeToNextMaintenance(inst, m, tryStart) {
			candidate.Start = tryStart
			candidate.End = tryStart + candidate.Length
			s.appendBlock(candidate)
			return nil
		}
		s.appendBlock(newMaintenance(inst, m, start))
	}
	return fmt.Errorf("task %d on machine %d: %w", candidate.TaskNumber, m+1, ErrInfeasiblePlacement)
}
