package repository

import (
	"context"

	"postqueue/domain/model"
)

type IIntegration interface {
	// Upsert keys on (user_id, platform, external_id); reconnecting the
	// same account refreshes its tokens instead of duplicating it.
	Upsert(ctx context.Context, integration *model.Integration) (*model.Integration, error)
	GetByID(ctx context.Context, id int64) (*model.Integration, error)
	GetByUser(ctx context.Context, userID string) ([]*model.Integration, error)
	Delete(ctx context.Context, id int64, userID string) error
}
