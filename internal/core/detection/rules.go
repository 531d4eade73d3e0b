package detection

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CreationSpikeRules configures the creation spike detector.
type CreationSpikeRules struct {
	Window       time.Duration `yaml:"window"`
	MediumFactor float64       `yaml:"medium_factor"`
	HighFactor   float64       `yaml:"high_factor"`
}

// AssignmentRules configures the assignment imbalance detector.
type AssignmentRules struct {
	Window           time.Duration `yaml:"window"`
	OverloadFactor   float64       `yaml:"overload_factor"`
	HighFactor       float64       `yaml:"high_factor"`
	UnassignedFloor  float64       `yaml:"unassigned_floor"`
	UnassignedFactor float64       `yaml:"unassigned_factor"`
}

// StalledRules configures the stalled ticket detector. Durations are hours.
type StalledRules struct {
	DefaultStatusHours float64 `yaml:"default_status_hours"`
	Factor             float64 `yaml:"factor"`
	HighFactor         float64 `yaml:"high_factor"`
	FloorHours         float64 `yaml:"floor_hours"`
}

// IssueTypeSpikeRules configures the issue-type spike detector.
type IssueTypeSpikeRules struct {
	Window   time.Duration `yaml:"window"`
	Factor   float64       `yaml:"factor"`
	MinCount int           `yaml:"min_count"`
}

// Rules holds every threshold used by the detectors.
type Rules struct {
	TerminalStatuses []string            `yaml:"terminal_statuses"`
	SampleSize       int                 `yaml:"sample_size"`
	CreationSpike    CreationSpikeRules  `yaml:"creation_spike"`
	Assignment       AssignmentRules     `yaml:"assignment"`
	Stalled          StalledRules        `yaml:"stalled"`
	IssueTypeSpike   IssueTypeSpikeRules `yaml:"issue_type_spike"`
}

// DefaultRules returns the stock detection thresholds.
func DefaultRules() Rules {
	return Rules{
		TerminalStatuses: []string{"Done", "Resolved", "Closed", "Cerrado", "Resuelto"},
		SampleSize:       10,
		CreationSpike: CreationSpikeRules{
			Window:       24 * time.Hour,
			MediumFactor: 3,
			HighFactor:   5,
		},
		Assignment: AssignmentRules{
			Window:           30 * 24 * time.Hour,
			OverloadFactor:   2,
			HighFactor:       3,
			UnassignedFloor:  50,
			UnassignedFactor: 3,
		},
		Stalled: StalledRules{
			DefaultStatusHours: 24,
			Factor:             2,
			HighFactor:         4,
			FloorHours:         48,
		},
		IssueTypeSpike: IssueTypeSpikeRules{
			Window:   7 * 24 * time.Hour,
			Factor:   2,
			MinCount: 5,
		},
	}
}

// LoadRules reads YAML overrides from path on top of DefaultRules. An empty
// path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}

	return rules, nil
}

// Validate validates the rules
func (r Rules) Validate() error {
	var errs []string

	if len(r.TerminalStatuses) == 0 {
		errs = append(errs, "terminal_statuses must not be empty")
	}
	if r.SampleSize <= 0 {
		errs = append(errs, "sample_size must be positive")
	}
	if r.CreationSpike.Window < time.Hour {
		errs = append(errs, "creation_spike.window must be at least 1h")
	}
	if r.CreationSpike.MediumFactor <= 0 || r.CreationSpike.HighFactor <= r.CreationSpike.MediumFactor {
		errs = append(errs, "creation_spike factors must be positive and high_factor must exceed medium_factor")
	}
	if r.Assignment.Window <= 0 {
		errs = append(errs, "assignment.window must be positive")
	}
	if r.Assignment.OverloadFactor <= 0 || r.Assignment.HighFactor <= r.Assignment.OverloadFactor {
		errs = append(errs, "assignment factors must be positive and high_factor must exceed overload_factor")
	}
	if r.Assignment.UnassignedFloor < 0 || r.Assignment.UnassignedFactor <= 0 {
		errs = append(errs, "assignment unassigned thresholds must be positive")
	}
	if r.Stalled.DefaultStatusHours <= 0 || r.Stalled.FloorHours < 0 {
		errs = append(errs, "stalled default_status_hours must be positive and floor_hours non-negative")
	}
	if r.Stalled.Factor <= 0 || r.Stalled.HighFactor <= r.Stalled.Factor {
		errs = append(errs, "stalled factors must be positive and high_factor must exceed factor")
	}
	if r.IssueTypeSpike.Window <= 0 || r.IssueTypeSpike.Factor <= 0 || r.IssueTypeSpike.MinCount < 0 {
		errs = append(errs, "issue_type_spike window and factor must be positive")
	}

	if len(errs) > 0 {
		return errors.New("invalid detection rules:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsTerminal reports whether status is one of the terminal statuses. The
// match is exact and case-sensitive.
func (r Rules) IsTerminal(status string) bool {
	for _, s := range r.TerminalStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// creationBuckets is the number of whole hours in the creation spike window.
func (r Rules) creationBuckets() int {
	return int(r.CreationSpike.Window / time.Hour)
}
