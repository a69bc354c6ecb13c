// Package entity provides the data model of the fetch-state cache.
//
// A Record is a flat mapping from field name to Value, exactly as the
// publishing API returns it, plus two reserved cache-management fields:
//
//   - fetching:   Bool, true while a load is outstanding for the record
//   - httpStatus: Int, last transport status observed for the record
//
// Values form a sealed set (Null, String, Int, Float, Bool, Array, Object)
// so that records can be compared, hashed and persisted deterministically.
// Record methods never mutate the receiver: every update returns a new
// Record, which is what lets the reducer share untouched records between
// snapshots.
//
// This package imports nothing internal.
package entity
