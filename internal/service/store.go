package service

import (
	"context"

	"github.com/harborworks/drydock/internal/repository"
)

// Store is the persistence surface the services need: the full query set
// plus transactional execution. *repository.Store satisfies it; tests use
// an in-memory fake whose ExecTx just invokes fn against itself.
type Store interface {
	repository.Querier

	// ExecTx runs fn inside a single database transaction. Queries issued
	// through the passed Querier all observe the same snapshot and row
	// locks taken with GetOrderForUpdate hold until commit or rollback.
	ExecTx(ctx context.Context, fn func(repository.Querier) error) error
}
