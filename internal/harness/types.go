package harness

import (
	"github.com/roach88/prodsys/internal/cache"
	"github.com/roach88/prodsys/internal/entity"
)

// TraceEvent records the store after one step.
type TraceEvent struct {
	Seq      int64       `json:"seq"`
	Type     string      `json:"type"`
	Targets  []entity.ID `json:"targets,omitempty"`
	Fetching []entity.ID `json:"fetching"`
	Entities int         `json:"entities"`
	Hash     string      `json:"hash"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	// Trace has one entry per step.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the store after the last step.
	Final cache.Store `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
