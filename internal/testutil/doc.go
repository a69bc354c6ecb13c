// Package testutil provides deterministic collaborators for tests that
// drive the engine without a network or a database.
package testutil
