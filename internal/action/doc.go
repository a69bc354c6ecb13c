// Package action defines the event vocabulary the fetch-state cache reacts to.
//
// Every action is scoped to one resource slice and carries a type string of
// the form "<resource>/<KIND>", e.g. "stories/ENTITY_REQUESTED". Four kinds
// exist:
//
//   - RequestOne:  intent to load one entity (advisory prefetch flag)
//   - RequestMany: intent to load a batch of entities
//   - FetchedMany: batch load completed, results keyed by their own id
//   - FetchedOne:  single load completed, payload merged onto the record
//
// Actions are immutable values. Constructors copy their inputs and
// accessors hand out copies, so a dispatched action can be shared between
// the reducer, the transport collaborator and the action log.
//
// Step is the human-authored wire form used by event files and scenarios.
package action
