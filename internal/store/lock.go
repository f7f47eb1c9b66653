// internal/store/lock.go
package store

import (
	"sync"

	"github.com/google/uuid"
)

// KeyedMutex provides mutual exclusion scoped to a single item. Bids,
// finalization and handshake confirmation for one item contend on the
// same mutex while unrelated items proceed independently.
type KeyedMutex struct {
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the mutex for key and returns the matching unlock.
func (m *KeyedMutex) Lock(key uuid.UUID) func() {
	v, _ := m.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
