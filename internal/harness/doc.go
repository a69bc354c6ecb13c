// Package harness runs conformance scenarios against the cache reducer.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: fetch_many_isolation
//	description: "Ids left out of a batch stay fetching"
//	resource: stories
//	seed:
//	  "1": { id: 1, title: "Old" }
//	steps:
//	  - kind: request_many
//	    ids: [1, 2]
//	  - kind: fetched_many
//	    results:
//	      - { id: 1, title: "New" }
//	expect:
//	  ids: [1, 2]
//	  fetching: [2]
//	  settled: [1]
//	  absent: [3]
//	  entities:
//	    "1": { title: "New", httpStatus: 200 }
//	derived:
//	  - id: 1
//	    ready: true
//
// Steps use the event file wire form (action.Step). Entity expectations
// are subset matches: only listed fields are compared.
//
// # Execution
//
// Run reduces the steps one at a time, recording a trace entry per step
// and checking that no step mutated the store it was given. The same
// steps then go through an engine backed by an in-memory action log, and
// the log is replayed from a snapshot of the seed. All three final stores
// must be equal before expectations are evaluated.
//
// # Golden Files
//
// RunWithGolden compares the canonical JSON of the trace and final store
// with testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
