package library

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by a Persister that has never been saved to.
var ErrNotFound = errors.New("library state not found")

// Persister mirrors the library state to a durable medium.
// Save replaces the whole stored state atomically; there are no partial writes.
type Persister interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// MemoryPersister keeps the state in process. Used by tests and by the
// "memory" backend, where the library lives only as long as the process.
type MemoryPersister struct {
	mu    sync.Mutex
	state *State
	saves int

	// LoadErr and SaveErr, when set, are returned by Load and Save.
	LoadErr error
	SaveErr error
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (p *MemoryPersister) Load(ctx context.Context) (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.LoadErr != nil {
		return State{}, p.LoadErr
	}
	if p.state == nil {
		return State{}, ErrNotFound
	}
	return p.state.Clone(), nil
}

func (p *MemoryPersister) Save(ctx context.Context, state State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SaveErr != nil {
		return p.SaveErr
	}
	s := state.Clone()
	p.state = &s
	p.saves++
	return nil
}

// Saves returns how many successful saves happened.
func (p *MemoryPersister) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
