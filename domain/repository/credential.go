package repository

import (
	"context"

	"postqueue/domain/model"
)

type ICredential interface {
	Upsert(ctx context.Context, cred *model.AppCredential) error
	// Get returns nil without error when no row exists.
	Get(ctx context.Context, userID string, platform model.Platform) (*model.AppCredential, error)
	Delete(ctx context.Context, userID string, platform model.Platform) error
}
