// Package repomanager bundles the user and accomplishment repositories behind
// one handle that also owns schema migrations and transactions.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/accountability/internal/server/repositories/accomplishments"
	"github.com/dmitrijs2005/accountability/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Accomplishments() accomplishments.Repository
	// InTx runs fn with a manager whose repositories share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, m RepositoryManager) error) error
	Close() error
}
