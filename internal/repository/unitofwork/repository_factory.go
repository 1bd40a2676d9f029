package unitofwork

import "context"

// RepositoryFactory hands out one UnitOfWork per operation. Both the GORM
// factory and memory.Store implement it.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
