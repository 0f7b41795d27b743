package repository

import (
	"context"

	"postqueue/domain/model"
)

// IMediaStore keeps post media blobs outside the relational store; posts
// carry only the returned reference.
type IMediaStore interface {
	Save(ctx context.Context, media *model.Media) (string, error)
	Get(ctx context.Context, ref string) (*model.Media, error)
	Delete(ctx context.Context, ref string) error
}
