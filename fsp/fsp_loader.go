package fsp

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

type instanceFile struct {
	MaintenanceLength              *uint                      `json:"maintenanceLength"`
	MaintenancePeriod              *uint                      `json:"maintenancePeriod"`
	NeighbourSearchCount           *uint                      `json:"neighbourSearchCount"`
	AlgorithmRetries               *uint                      `json:"algorithmRetries"`
	OperationRenewPunishmentFactor *float64                   `json:"operationRenewPunishmentFactor"`
	TabuListSize                   *uint                      `json:"tabuListSize"`
	CandidateListSize              *uint                      `json:"candidateListSize"`
	Tasks                          map[string]map[string]uint `json:"tasks"`
}

// LoadProblemInstance parses and validates the JSON instance document.
// Tasks come back sorted by task number so that a seeded run is reproducible
// regardless of map iteration order.
func LoadProblemInstance(filepath string) (*ProblemInstance, error) {
	fileBytes, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	var parsed instanceFile
	if err := json.Unmarshal(fileBytes, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath, err)
	}

	switch {
	case parsed.MaintenanceLength == nil:
		return nil, fmt.Errorf("%s: missing maintenanceLength", filepath)
	case parsed.MaintenancePeriod == nil:
		return nil, fmt.Errorf("%s: missing maintenancePeriod", filepath)
	case parsed.NeighbourSearchCount == nil:
		return nil, fmt.Errorf("%s: missing neighbourSearchCount", filepath)
	case parsed.AlgorithmRetries == nil:
		return nil, fmt.Errorf("%s: missing algorithmRetries", filepath)
	case parsed.OperationRenewPunishmentFactor == nil:
		return nil, fmt.Errorf("%s: missing operationRenewPunishmentFactor", filepath)
	case parsed.Tasks == nil:
		return nil, fmt.Errorf("%s: missing tasks", filepath)
	}

	instance := &ProblemInstance{
		MaintenanceLength:              *parsed.MaintenanceLength,
		MaintenancePeriod:              *parsed.MaintenancePeriod,
		NeighbourSearchCount:           *parsed.NeighbourSearchCount,
		AlgorithmRetries:               *parsed.AlgorithmRetries,
		TabuListSize:                   DefaultTabuListSize,
		CandidateListSize:              DefaultCandidateListSize,
		OperationRenewPunishmentFactor: *parsed.OperationRenewPunishmentFactor,
	}
	if parsed.TabuListSize != nil {
		instance.TabuListSize = *parsed.TabuListSize
	}
	if parsed.CandidateListSize != nil {
		instance.CandidateListSize = *parsed.CandidateListSize
	}

	for key, operations := range parsed.Tasks {
		number, err := strconv.ParseUint(key, 10, 64)
		if err != nil || number == 0 {
			return nil, fmt.Errorf("%s: task key %q is not a positive integer", filepath, key)
		}
		length1, ok1 := operations["1"]
		length2, ok2 := operations["2"]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s: task %q needs operation lengths under keys \"1\" and \"2\"", filepath, key)
		}
		instance.Tasks = append(instance.Tasks, Task{
			TaskNumber:     uint(number),
			Machine1Length: length1,
			Machine2Length: length2,
		})
	}
	sort.Slice(instance.Tasks, func(i, j int) bool {
		return instance.Tasks[i].TaskNumber < instance.Tasks[j].TaskNumber
	})

	if err := instance.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath, err)
	}
	return instance, nil
}
