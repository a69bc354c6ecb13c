package action

import (
	"fmt"
	"slices"
)

// Resource names one slice of the application state.
type Resource string

// Resources served by the publishing API.
const (
	Stories      Resource = "stories"
	Photos       Resource = "photos"
	Contributors Resource = "contributors"
	StoryTypes   Resource = "storytypes"
	Issues       Resource = "issues"
)

// KnownResources lists every resource in a stable order.
var KnownResources = []Resource{Stories, Photos, Contributors, StoryTypes, Issues}

// ParseResource validates a resource name.
func ParseResource(s string) (Resource, error) {
	r := Resource(s)
	if !slices.Contains(KnownResources, r) {
		return "", fmt.Errorf("unknown resource %q: must be one of %v", s, KnownResources)
	}
	return r, nil
}

func (r Resource) String() string {
	return string(r)
}
