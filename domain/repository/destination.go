package repository

import (
	"context"

	"postqueue/domain/model"
)

type IDestination interface {
	// Upsert keys on (user_id, platform, destination_id): an existing row
	// gets use_count+1 and refreshed metadata, a new row starts at 1.
	Upsert(ctx context.Context, dest *model.RecentDestination) error
	GetRecent(ctx context.Context, userID string, platform model.Platform, limit int) ([]*model.RecentDestination, error)
}
