package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/prodsys/internal/action"
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
)

// Scenario defines a conformance scenario for one resource slice.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Resource is the slice under test and the default for every step.
	Resource string `yaml:"resource"`

	// Seed holds records present before the first step, keyed by id.
	Seed map[string]map[string]any `yaml:"seed,omitempty"`

	// Steps are applied in order.
	Steps []action.Step `yaml:"steps"`

	// Expect is evaluated against the final store.
	Expect Expect `yaml:"expect"`

	// Derived checks DeriveView on the final store.
	Derived []DerivedCheck `yaml:"derived,omitempty"`
}

// Expect describes the final store.
type Expect struct {
	// IDs is the exact id set, when given.
	IDs []entity.ID `yaml:"ids,omitempty"`

	// Fetching ids must be present with fetching=true.
	Fetching []entity.ID `yaml:"fetching,omitempty"`

	// Settled ids must be present and not fetching.
	Settled []entity.ID `yaml:"settled,omitempty"`

	// Absent ids must not be present.
	Absent []entity.ID `yaml:"absent,omitempty"`

	// Entities maps ids to a subset of expected fields.
	Entities map[string]map[string]any `yaml:"entities,omitempty"`

	// Missing maps ids to fields that must not be set.
	Missing map[string][]string `yaml:"missing,omitempty"`
}

// DerivedCheck verifies the derived view of one id.
type DerivedCheck struct {
	ID    entity.ID `yaml:"id"`
	Ready bool      `yaml:"ready"`
	Found *bool     `yaml:"found,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	var errs *multierror.Error

	if s.Name == "" {
		errs = multierror.Append(errs, errors.New("name is required"))
	}

	if s.Description == "" {
		errs = multierror.Append(errs, errors.New("description is required"))
	}

	if _, err := action.ParseResource(s.Resource); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("resource: %w", err))
	}

	if len(s.Steps) == 0 {
		errs = multierror.Append(errs, errors.New("steps list is required and must be non-empty"))
	}

	for i, step := range s.Steps {
		if _, err := step.Action(action.Resource(s.Resource)); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("steps[%d]: %w", i, err))
		}
	}

	for i, d := range s.Derived {
		if d.ID == "" {
			errs = multierror.Append(errs, fmt.Errorf("derived[%d]: id is required", i))
		}
	}

	return errs.ErrorOrNil()
}

// seedStore builds the initial store from the seed section.
func (s *Scenario) seedStore() (cache.Store, error) {
	records := make(map[entity.ID]entity.Record, len(s.Seed))
	for id, fields := range s.Seed {
		r, err := entity.RecordFromMap(fields)
		if err != nil {
			return cache.Store{}, fmt.Errorf("seed %s: %w", id, err)
		}
		if r == nil {
			r = entity.Record{}
		}
		records[entity.ID(id)] = r
	}
	return cache.FromRecords(records), nil
}

// actions converts every step.
func (s *Scenario) actions() ([]action.Action, error) {
	f := action.File{Resource: s.Resource, Steps: s.Steps}
	return f.Actions()
}
