package store

import (
	"context"

	"github.com/nhle/epaper/internal/model"
)

// DispatchFilter controls filtering and pagination for dispatch history
// queries. Results are always newest first.
type DispatchFilter struct {
	FileID  *string
	Outcome *string // "success", "failure", or nil (all)
	Limit   int
	Offset  int
}

// Store defines the persistence interface for local client state.
type Store interface {
	RecordDispatch(ctx context.Context, d model.Dispatch) error
	GetDispatches(ctx context.Context, filter DispatchFilter) ([]model.Dispatch, error)
	GetDispatchByID(ctx context.Context, id string) (*model.Dispatch, error)
	PruneDispatches(ctx context.Context, keep int) (int64, error)
}
