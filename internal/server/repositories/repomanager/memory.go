package repomanager

import (
	"context"

	"github.com/dmitrijs2005/accountability/internal/server/repositories/accomplishments"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/memory"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/users"
)

// MemoryRepositoryManager serves repositories from a memory.Store. InTx gives
// no isolation or rollback; each repository call is atomic on its own.
type MemoryRepositoryManager struct {
	store *memory.Store
}

func NewMemoryRepositoryManager(store *memory.Store) *MemoryRepositoryManager {
	if store == nil {
		store = memory.NewStore()
	}
	return &MemoryRepositoryManager{store: store}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository {
	return m.store.Users()
}

func (m *MemoryRepositoryManager) Accomplishments() accomplishments.Repository {
	return m.store.Accomplishments()
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
