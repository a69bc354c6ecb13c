package action

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/prodsys/internal/entity"
)

// Wire names of the four kinds in event files and scenarios.
const (
	StepRequestOne  = "request_one"
	StepRequestMany = "request_many"
	StepFetchedMany = "fetched_many"
	StepFetchedOne  = "fetched_one"
)

var stepKinds = map[string]Kind{
	StepRequestOne:  KindRequestOne,
	StepRequestMany: KindRequestMany,
	StepFetchedMany: KindFetchedMany,
	StepFetchedOne:  KindFetchedOne,
}

// Step is the human-authored form of an action.
type Step struct {
	// Kind is one of request_one, request_many, fetched_many, fetched_one.
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty"`

	// Type sets the raw type string instead of Kind. Used to feed actions
	// outside the vocabulary.
	Type string `yaml:"type,omitempty" json:"type,omitempty"`

	// Resource overrides the file-level resource for this step.
	Resource string `yaml:"resource,omitempty" json:"resource,omitempty"`

	ID       entity.ID        `yaml:"id,omitempty" json:"id,omitempty"`
	IDs      []entity.ID      `yaml:"ids,omitempty" json:"ids,omitempty"`
	Prefetch bool             `yaml:"prefetch,omitempty" json:"prefetch,omitempty"`
	Results  []map[string]any `yaml:"results,omitempty" json:"results,omitempty"`
	Payload  map[string]any   `yaml:"payload,omitempty" json:"payload,omitempty"`
}

// File is an event file: a default resource and an ordered list of steps.
type File struct {
	Resource string `yaml:"resource" json:"resource"`
	Steps    []Step `yaml:"steps" json:"steps"`
}

// Action converts the step into an action. def is used when the step
// names no resource of its own.
func (s Step) Action(def Resource) (Action, error) {
	res := def
	if s.Resource != "" {
		res = Resource(s.Resource)
	}

	if s.Type != "" {
		if s.Kind != "" {
			return Action{}, fmt.Errorf("step: kind and type are mutually exclusive")
		}
		return Action{Type: s.Type}, nil
	}

	kind, ok := stepKinds[s.Kind]
	if !ok {
		return Action{}, fmt.Errorf("step: unknown kind %q", s.Kind)
	}

	switch kind {
	case KindRequestOne:
		return NewRequestOne(res, s.ID, s.Prefetch), nil
	case KindRequestMany:
		ids := s.IDs
		if ids == nil {
			ids = []entity.ID{}
		}
		return NewRequestMany(res, ids), nil
	case KindFetchedMany:
		results := make([]entity.Record, len(s.Results))
		for i, m := range s.Results {
			r, err := entity.RecordFromMap(m)
			if err != nil {
				return Action{}, fmt.Errorf("step results[%d]: %w", i, err)
			}
			if r == nil {
				r = entity.Record{}
			}
			results[i] = r
		}
		return NewFetchedMany(res, results), nil
	default:
		fields, err := entity.RecordFromMap(s.Payload)
		if err != nil {
			return Action{}, fmt.Errorf("step payload: %w", err)
		}
		if fields == nil {
			fields = entity.Record{}
		}
		return NewFetchedOne(res, s.ID, fields), nil
	}
}

// StepOf renders an action in its wire form.
func StepOf(a Action) Step {
	s := Step{Resource: string(a.Resource())}
	switch a.Kind() {
	case KindRequestOne:
		s.Kind = StepRequestOne
		s.ID = a.Payload.ID
		s.Prefetch = a.Payload.Prefetch
	case KindRequestMany:
		s.Kind = StepRequestMany
		s.IDs = append([]entity.ID(nil), a.Payload.IDs...)
	case KindFetchedMany:
		s.Kind = StepFetchedMany
		s.Results = make([]map[string]any, len(a.Payload.Results))
		for i, r := range a.Payload.Results {
			s.Results[i] = entity.ToAny(r.Object()).(map[string]any)
		}
	case KindFetchedOne:
		s.Kind = StepFetchedOne
		s.ID = a.Payload.ID
		s.Payload = entity.ToAny(a.Payload.Fields.Object()).(map[string]any)
	default:
		s.Type = a.Type
		s.Resource = ""
	}
	return s
}

// Actions converts every step in the file, stopping at the first error.
func (f *File) Actions() ([]Action, error) {
	def := Resource(f.Resource)
	actions := make([]Action, 0, len(f.Steps))
	for i, s := range f.Steps {
		a, err := s.Action(def)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// LoadFile reads an event file. Files ending in .json are parsed as JSON,
// everything else as YAML. Unknown fields are rejected in both formats.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read event file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// ParseYAML decodes an event file from YAML.
func ParseYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse event file: %w", err)
	}
	return &f, nil
}

// ParseJSON decodes an event file from JSON, keeping integer precision.
func ParseJSON(data []byte) (*File, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse event file: %w", err)
	}
	return &f, nil
}
