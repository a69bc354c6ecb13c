package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/prodsys/internal/entity"
)

// snapshot is the canonical form compared against golden files. Hashes
// are left out so that a change in hashing does not churn every file.
func snapshot(name string, result *Result) entity.Object {
	trace := make(entity.Array, len(result.Trace))
	for i, ev := range result.Trace {
		targets := make(entity.Array, len(ev.Targets))
		for j, id := range ev.Targets {
			targets[j] = entity.String(id)
		}
		fetching := make(entity.Array, len(ev.Fetching))
		for j, id := range ev.Fetching {
			fetching[j] = entity.String(id)
		}
		trace[i] = entity.Object{
			"seq":      entity.Int(ev.Seq),
			"type":     entity.String(ev.Type),
			"targets":  targets,
			"fetching": fetching,
			"entities": entity.Int(int64(ev.Entities)),
		}
	}

	return entity.Object{
		"scenario": entity.String(name),
		"trace":    trace,
		"final":    result.Final.Object(),
	}
}

// GoldenBytes renders the canonical golden form of a result.
func GoldenBytes(name string, result *Result) ([]byte, error) {
	return entity.MarshalCanonical(snapshot(name, result))
}

// RunWithGolden runs scenario, fails t when an expectation does not hold
// and compares the trace with testdata/golden/{scenario.Name}.golden.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(name, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
