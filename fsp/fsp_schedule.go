package fsp

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrEmptySchedule = errors.New("schedule has a machine with no operations")

// Solution is a pair of machine timelines. Blocks are kept in placement
// order, which coincides with non-decreasing start times.
type Solution struct {
	Machine1 []MachineBlock
	Machine2 []MachineBlock
}

func (s *Solution) Machine(m MachineNumber) []MachineBlock {
	if m == Machine1 {
		return s.Machine1
	}
	return s.Machine2
}

func (s *Solution) appendBlock(block MachineBlock) {
	if block.MachineNumber == Machine1 {
		s.Machine1 = append(s.Machine1, block)
	} else {
		s.Machine2 = append(s.Machine2, block)
	}
}

func (s *Solution) Clone() *Solution {
	return &Solution{
		Machine1: slices.Clone(s.Machine1),
		Machine2: slices.Clone(s.Machine2),
	}
}

// LastBlock returns a copy of the newest block of the given kind on the
// machine, or ok=false if there is none.
func (s *Solution) LastBlock(m MachineNumber, kind BlockType) (MachineBlock, bool) {
	timeline := s.Machine(m)
	for i := len(timeline) - 1; i >= 0; i-- {
		if timeline[i].BlockType == kind {
			return timeline[i], true
		}
	}
	return MachineBlock{}, false
}

// CorrespondingOperation finds the operation of the same task on the other
// machine, if it has been placed already.
func (s *Solution) CorrespondingOperation(operation MachineBlock) (MachineBlock, bool) {
	for _, block := range s.Machine(operation.MachineNumber.Other()) {
		if block.BlockType == Operation && block.TaskNumber == operation.TaskNumber {
			return block, true
		}
	}
	return MachineBlock{}, false
}

// nextStart is where the next block on the machine would begin.
func (s *Solution) nextStart(m MachineNumber) uint {
	timeline := s.Machine(m)
	if len(timeline) == 0 {
		return 0
	}
	return timeline[len(timeline)-1].End
}

// blocksColliding reports whether [start, start+length) intersects the
// placed block's interval.
func blocksColliding(start, length uint, placed MachineBlock) bool {
	return start < placed.End && placed.Start < start+length
}

// timeToNextMaintenance is the productive budget left on the machine before
// a maintenance must be inserted, measured at the given tentative start.
func (s *Solution) timeToNextMaintenance(inst *ProblemInstance, m MachineNumber, start uint) uint {
	lastMaintenanceEnd := uint(0)
	if maintenance, ok := s.LastBlock(m, Maintenance); ok {
		lastMaintenanceEnd = maintenance.End
	}
	elapsed := start - lastMaintenanceEnd
	if elapsed >= inst.MaintenancePeriod {
		return 0
	}
	return inst.MaintenancePeriod - elapsed
}

// Cmax is the end time of the last operation across both machines.
func (s *Solution) Cmax() (uint, error) {
	lastOp1, ok1 := s.LastBlock(Machine1, Operation)
	lastOp2, ok2 := s.LastBlock(Machine2, Operation)
	if !ok1 || !ok2 {
		return 0, ErrEmptySchedule
	}
	return max(lastOp1.End, lastOp2.End), nil
}

// Order flattens the solution back to an operation sequence: maintenance
// stripped, operations in start-time order across both machines, timings
// zeroed. The temporal interleaving makes the ordered builder a fixpoint on
// its own output, which the neighbourhood swaps rely on.
func (s *Solution) Order() []MachineBlock {
	order := make([]MachineBlock, 0, len(s.Machine1)+len(s.Machine2))
	for _, timeline := range [][]MachineBlock{s.Machine1, s.Machine2} {
		for _, block := range timeline {
			if block.BlockType == Operation {
				order = append(order, block)
			}
		}
	}
	slices.SortFunc(order, func(a, b MachineBlock) int {
		if a.Start != b.Start {
			if a.Start < b.Start {
				return -1
			}
			return 1
		}
		if a.MachineNumber != b.MachineNumber {
			return int(a.MachineNumber) - int(b.MachineNumber)
		}
		return 0
	})
	for i := range order {
		order[i].Start = 0
		order[i].End = 0
	}
	return order
}

// String renders one line per machine, entries "<start> <label> <end>|"
// where the label is the task number or M for maintenance.
func (s *Solution) String() string {
	var output strings.Builder
	for _, timeline := range [][]MachineBlock{s.Machine1, s.Machine2} {
		for _, block := range timeline {
			label := "M"
			if block.BlockType == Operation {
				label = fmt.Sprintf("%d", block.TaskNumber)
			}
			fmt.Fprintf(&output, "%d %s %d|", block.Start, label, block.End)
		}
		output.WriteByte('\n')
	}
	return output.String()
}
