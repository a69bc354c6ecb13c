package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/prodsys/internal/action"
)

// ErrLogFull is returned by a MemoryLog set to fail.
var ErrLogFull = errors.New("action log full")

// MemoryLog is an in-memory action log. It records the seq of every
// append and can be switched to fail every append.
type MemoryLog struct {
	mu      sync.Mutex
	seqs    []int64
	actions []action.Action
	failing bool
}

// AppendAction implements engine.ActionLog.
func (l *MemoryLog) AppendAction(_ context.Context, seq int64, a action.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return ErrLogFull
	}
	l.seqs = append(l.seqs, seq)
	l.actions = append(l.actions, a)
	return nil
}

// Fail makes every later append return ErrLogFull.
func (l *MemoryLog) Fail() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = true
}

// Seqs returns the seqs appended so far.
func (l *MemoryLog) Seqs() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.seqs...)
}

// Actions returns the actions appended so far.
func (l *MemoryLog) Actions() []action.Action {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]action.Action(nil), l.actions...)
}
