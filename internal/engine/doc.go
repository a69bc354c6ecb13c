// Package engine hosts the fetch-state cache: it owns the state tree,
// applies dispatched actions one at a time and hands request actions to
// the transport collaborator.
//
// Single-writer loop:
//
//  1. Any goroutine calls Dispatch; the action joins a FIFO queue.
//  2. Run dequeues one action, stamps it with the next logical seq and
//     appends it to the action log, if one is configured.
//  3. The reducer produces the next state tree, which is published
//     atomically. Readers on other goroutines see whole snapshots only.
//  4. Request actions are forwarded to the collaborator on a fresh
//     goroutine. Its fetched actions come back through Dispatch.
//
// The state after action n is a pure function of the state after n-1 and
// action n. Interleaving between different ids' requests and completions
// is unconstrained; for one id the last applied completion wins. Nothing
// here cancels or times out a request: an id whose completion never
// arrives stays fetching.
package engine
