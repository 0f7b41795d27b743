package repository

import (
	"context"
	"time"

	"postqueue/domain/model"
)

// IPost persists posts. Status transitions go through the conditional
// methods so two dispatchers can never publish the same post twice.
type IPost interface {
	Create(ctx context.Context, post *model.Post) (*model.Post, error)
	GetByID(ctx context.Context, id int64) (*model.Post, error)
	GetByUser(ctx context.Context, userID string, limit int) ([]*model.Post, error)
	Delete(ctx context.Context, id int64, userID string) error

	// ClaimForPublish atomically moves a draft/scheduled/failed post into
	// the publishing state. Returns false when the row was not claimable
	// (already posted, or another dispatcher holds it).
	ClaimForPublish(ctx context.Context, id int64) (bool, error)
	MarkPosted(ctx context.Context, id int64, postURL string, postedAt time.Time) error
	// MarkFailed records the failure reason; countFailure increments
	// fail_count and is reserved for the scheduler's retry accounting.
	MarkFailed(ctx context.Context, id int64, reason string, countFailure bool) error

	// FetchDue returns scheduled (or retryable failed) posts whose time has
	// passed and whose fail_count is below the cap, oldest first.
	FetchDue(ctx context.Context, now time.Time, failCap, limit int) ([]*model.Post, error)

	HasPostedContent(ctx context.Context, integrationID int64, content string) (bool, error)
	HasPostedURL(ctx context.Context, integrationID int64, url string) (bool, error)
}
