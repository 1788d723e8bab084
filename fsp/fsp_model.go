package fsp

import "fmt"

type MachineNumber int

const (
	Machine1 MachineNumber = iota
	Machine2
)

func (m MachineNumber) Other() MachineNumber {
	if m == Machine1 {
		return Machine2
	}
	return Machine1
}

type BlockType int

const (
	Operation BlockType = iota
	Maintenance
)

// MachineBlock is one placed interval on a machine timeline. TaskNumber is
// only meaningful for Operation blocks. The struct is comparable; equality
// over all fields is what the neighbourhood and swap code rely on.
type MachineBlock struct {
	Start         uint
	Length        uint
	End           uint
	TaskNumber    uint
	MachineNumber MachineNumber
	BlockType     BlockType
}

// Less orders blocks by (machine, task); the exact branch uses this as the
// canonical starting order for the permutation sweep.
func (b MachineBlock) Less(other MachineBlock) bool {
	if b.MachineNumber != other.MachineNumber {
		return b.MachineNumber < other.MachineNumber
	}
	return b.TaskNumber < other.TaskNumber
}

type Task struct {
	TaskNumber     uint
	Machine1Length uint
	Machine2Length uint
}

func (t Task) OperationLength(m MachineNumber) uint {
	if m == Machine1 {
		return t.Machine1Length
	}
	return t.Machine2Length
}

const (
	DefaultTabuListSize      = 4
	DefaultCandidateListSize = 5
)

type ProblemInstance struct {
	MaintenanceLength    uint
	MaintenancePeriod    uint
	NeighbourSearchCount uint
	AlgorithmRetries     uint
	TabuListSize         uint
	CandidateListSize    uint
	// OperationRenewPunishmentFactor is accepted and range-checked at load
	// but not read by any placement or scoring path.
	OperationRenewPunishmentFactor float64
	Tasks                          []Task
}

func (p *ProblemInstance) Validate() error {
	if p.MaintenancePeriod == 0 {
		return fmt.Errorf("maintenancePeriod must be > 0")
	}
	if p.NeighbourSearchCount == 0 {
		return fmt.Errorf("neighbourSearchCount must be > 0")
	}
	if p.TabuListSize == 0 {
		return fmt.Errorf("tabuListSize must be > 0")
	}
	if p.CandidateListSize == 0 {
		return fmt.Errorf("candidateListSize must be > 0")
	}
	if !(0 < p.OperationRenewPunishmentFactor && p.OperationRenewPunishmentFactor < 1) {
		return fmt.Errorf("operationRenewPunishmentFactor %v not between 0 < x < 1", p.OperationRenewPunishmentFactor)
	}
	if len(p.Tasks) == 0 {
		return fmt.Errorf("no tasks")
	}
	seen := make(map[uint]bool, len(p.Tasks))
	for _, task := range p.Tasks {
		if task.TaskNumber == 0 {
			return fmt.Errorf("task number must be a positive integer")
		}
		if seen[task.TaskNumber] {
			return fmt.Errorf("duplicate task number %d", task.TaskNumber)
		}
		seen[task.TaskNumber] = true
		for _, m := range []MachineNumber{Machine1, Machine2} {
			length := task.OperationLength(m)
			if length == 0 {
				return fmt.Errorf("task %d: operation length on machine %d must be > 0", task.TaskNumber, m+1)
			}
			// An operation longer than the period can never sit between two
			// maintenance blocks.
			if length > p.MaintenancePeriod {
				return fmt.Errorf("task %d: operation length %d exceeds maintenancePeriod %d", task.TaskNumber, length, p.MaintenancePeriod)
			}
		}
	}
	return nil
}

// Operations returns both operation blocks of every task, timing unset.
func (p *ProblemInstance) Operations() []MachineBlock {
	blocks := make([]MachineBlock, 0, len(p.Tasks)*2)
	for _, task := range p.Tasks {
		blocks = append(blocks, MachineBlock{
			Length:        task.Machine1Length,
			TaskNumber:    task.TaskNumber,
			MachineNumber: Machine1,
			BlockType:     Operation,
		})
		blocks = append(blocks, MachineBlock{
			Length:        task.Machine2Length,
			TaskNumber:    task.TaskNumber,
			MachineNumber: Machine2,
			BlockType:     Operation,
		})
	}
	return blocks
}
