package action

import (
	"fmt"
)

// ValidationError describes one contract violation in an action.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the caller contract for an action and returns every
// violation found, not just the first.
//
// The reducer never calls Validate; malformed actions reaching it have
// unspecified results. Callers that accept actions from outside the
// process (event files, the CLI) validate first.
func (a Action) Validate() []ValidationError {
	var errs []ValidationError

	if _, err := ParseResource(string(a.Resource())); err != nil {
		errs = append(errs, ValidationError{Field: "type", Message: err.Error()})
	}

	switch a.Kind() {
	case KindRequestOne, KindFetchedOne:
		if a.Payload.ID == "" {
			errs = append(errs, ValidationError{Field: "payload.id", Message: "id is required"})
		}
	case KindRequestMany:
		for i, id := range a.Payload.IDs {
			if id == "" {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("payload.ids[%d]", i),
					Message: "id must not be empty",
				})
			}
		}
	case KindFetchedMany:
		for i, r := range a.Payload.Results {
			if !r.HasID() {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("payload.results[%d].id", i),
					Message: "every batch result must carry a string or integer id",
				})
			}
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown kind %q", a.Kind()),
		})
	}

	return errs
}
