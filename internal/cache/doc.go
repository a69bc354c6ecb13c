// Package cache implements the normalized fetch-state store of one
// resource type and the pure reducer that maintains it.
//
// A Store maps entity ids to records. Absence of an id means it was never
// requested; a record holding only {fetching: true} was requested and has
// not returned; anything else is a snapshot, possibly stale.
//
// Reduce is a total function (Store, Action) -> Store. It never mutates
// its input, and records untouched by an action are shared between the
// old and new snapshot. Entries are created on first touch and never
// removed. Given the same store and action the result is always
// structurally equal: there is no randomness and no wall clock.
//
// Merge policy:
//
//	RequestOne   record (or empty) merged with {fetching: true}
//	RequestMany  the same, for every listed id
//	FetchedMany  every result merged onto its record by its own id,
//	             plus {httpStatus: 200, fetching: false}; duplicates in
//	             one batch resolve last-write-wins
//	FetchedOne   payload merged onto the record, then {fetching: false}
//	otherwise    identity
//
// Racing completions for the same id also resolve last-write-wins: there
// are no sequence numbers, de-duplication is the transport's job.
package cache
