// Package storage defines the sinks the populate job writes registry rows to.
package storage

import (
	"context"

	"lpScope/internal/model"
)

// Storage is a sink for pool registry rows.
type Storage interface {
	PutPoolBatch(ctx context.Context, pools []model.Pool) error
}
