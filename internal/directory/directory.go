package directory

import (
	"fmt"
	"sync"

	"auction-engine/internal/auctionerrors"
	model "auction-engine/internal/models"
)

// UserDirectory resolves a user id to a minimal profile for notification
// payloads. A missing id is tolerated by callers (skip, not fatal).
type UserDirectory interface {
	GetUser(userID string) (model.User, error)
}

// MemoryDirectory is a concurrency-safe in-memory UserDirectory
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]model.User
}

// NewMemoryDirectory creates a new in-memory directory instance
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]model.User)}
}

// AddUser registers a user profile
func (d *MemoryDirectory) AddUser(user model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.UserID] = user
}

// GetUser returns the profile for a user id
func (d *MemoryDirectory) GetUser(userID string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrMissingReferencedUser)
	}
	return user, nil
}
