package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/clients/social"
	"postqueue/infrastructure/logger"
)

// IPostEvents publishes post lifecycle events to a message bus.
type IPostEvents interface {
	PublishPostEvent(ctx context.Context, evt *model.PostEvent) error
}

// IPostBroadcaster fans post status changes out to live subscribers.
type IPostBroadcaster interface {
	BroadcastPostStatus(post *model.Post)
}

// CreatePostRequest carries everything a new post needs. A nil ScheduledAt
// means "publish now".
type CreatePostRequest struct {
	IntegrationID    int64
	Content          string
	ScheduledAt      *time.Time
	Destination      *model.Destination
	AdditionalFields map[string]string
	Media            *model.Media
}

type IPostUsecase interface {
	CreatePost(ctx context.Context, userID string, req *CreatePostRequest) (*model.Post, error)
	GetPost(ctx context.Context, userID string, id int64) (*model.Post, error)
	GetPosts(ctx context.Context, userID string, limit int) ([]*model.Post, error)
	DeletePost(ctx context.Context, userID string, id int64) error

	// Publish is the manual/immediate path; it never touches fail_count.
	Publish(ctx context.Context, userID string, id int64) (*model.Post, error)
	// PublishScheduled is the scheduler's path; failures count toward the
	// retry cap.
	PublishScheduled(ctx context.Context, id int64) error
}

type PostUsecase struct {
	posts        repository.IPost
	integrations repository.IIntegration
	media        repository.IMediaStore
	registry     IPlatformRegistry
	resolver     ICredentialResolver
	events       []IPostEvents
	broadcaster  IPostBroadcaster
}

func NewPostUsecase(posts repository.IPost, integrations repository.IIntegration, media repository.IMediaStore, registry IPlatformRegistry, resolver ICredentialResolver) *PostUsecase {
	return &PostUsecase{
		posts:        posts,
		integrations: integrations,
		media:        media,
		registry:     registry,
		resolver:     resolver,
	}
}

// WithEvents attaches bus publishers; all are best-effort.
func (u *PostUsecase) WithEvents(events ...IPostEvents) *PostUsecase {
	for _, e := range events {
		if e != nil {
			u.events = append(u.events, e)
		}
	}
	return u
}

func (u *PostUsecase) WithBroadcaster(b IPostBroadcaster) *PostUsecase {
	u.broadcaster = b
	return u
}

func (u *PostUsecase) CreatePost(ctx context.Context, userID string, req *CreatePostRequest) (*model.Post, error) {
	integration, err := u.ownedIntegration(ctx, userID, req.IntegrationID)
	if err != nil {
		return nil, err
	}
	adapter, err := u.registry.Get(integration.Platform)
	if err != nil {
		return nil, err
	}
	if err := validateAgainstAdapter(adapter, req); err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:           userID,
		IntegrationID:    integration.ID,
		Content:          req.Content,
		Status:           model.PostStatusDraft,
		ScheduledAt:      req.ScheduledAt,
		Destination:      req.Destination,
		AdditionalFields: req.AdditionalFields,
		Source:           model.PostSourceNative,
	}
	if req.ScheduledAt != nil {
		post.Status = model.PostStatusScheduled
	}
	if req.Media != nil {
		if u.media == nil {
			return nil, fmt.Errorf("media storage is not available")
		}
		ref, err := u.media.Save(ctx, req.Media)
		if err != nil {
			return nil, fmt.Errorf("save media: %w", err)
		}
		post.MediaRef = &ref
	}

	created, err := u.posts.Create(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if req.ScheduledAt == nil {
		return u.Publish(ctx, userID, created.ID)
	}
	return created, nil
}

func validateAgainstAdapter(adapter repository.ISocialPlatform, req *CreatePostRequest) error {
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("post content must not be empty")
	}
	if limit := adapter.MaxCharacterLimit(); limit > 0 && utf8.RuneCountInString(req.Content) > limit {
		return fmt.Errorf("content exceeds the %d character limit for %s", limit, adapter.Platform())
	}
	if adapter.RequiresDestination() && (req.Destination == nil || req.Destination.ID == "") {
		return fmt.Errorf("%s posts require a destination", adapter.Platform())
	}
	if req.Destination != nil && !adapter.SupportsDestinations() {
		return fmt.Errorf("%s does not support destinations", adapter.Platform())
	}
	for _, field := range adapter.RequiredFields() {
		if strings.TrimSpace(req.AdditionalFields[field]) == "" {
			return fmt.Errorf("%s posts require the %q field", adapter.Platform(), field)
		}
	}
	return nil
}

func (u *PostUsecase) GetPost(ctx context.Context, userID string, id int64) (*model.Post, error) {
	return u.ownedPost(ctx, userID, id)
}

func (u *PostUsecase) GetPosts(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	return u.posts.GetByUser(ctx, userID, limit)
}

// DeletePost removes the local record only; an already-published post stays
// live on the platform.
func (u *PostUsecase) DeletePost(ctx context.Context, userID string, id int64) error {
	post, err := u.ownedPost(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := u.posts.Delete(ctx, id, userID); err != nil {
		return err
	}
	if post.MediaRef != nil && u.media != nil {
		if err := u.media.Delete(ctx, *post.MediaRef); err != nil {
			logger.GetLogger().WithField("post_id", id).WithField("error", err).Warn("Orphaned media blob left behind")
		}
	}
	return nil
}

func (u *PostUsecase) Publish(ctx context.Context, userID string, id int64) (*model.Post, error) {
	post, err := u.ownedPost(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	// Publishing an already-posted post is a no-op, not an error.
	if post.Status == model.PostStatusPosted {
		return post, nil
	}
	claimed, err := u.posts.ClaimForPublish(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("claim post: %w", err)
	}
	if !claimed {
		// Another dispatcher holds or has finished this post.
		return u.posts.GetByID(ctx, id)
	}
	post.Status = model.PostStatusPublishing
	return u.dispatch(ctx, post, false)
}

func (u *PostUsecase) PublishScheduled(ctx context.Context, id int64) error {
	post, err := u.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil || post.Status == model.PostStatusPosted {
		return nil
	}
	claimed, err := u.posts.ClaimForPublish(ctx, id)
	if err != nil {
		return fmt.Errorf("claim post: %w", err)
	}
	if !claimed {
		return nil
	}
	post.Status = model.PostStatusPublishing
	_, err = u.dispatch(ctx, post, true)
	return err
}

// dispatch runs the publish pipeline for a post that is already claimed.
// Every failure is persisted before being reported; countFailure routes the
// scheduler's retry accounting.
func (u *PostUsecase) dispatch(ctx context.Context, post *model.Post, countFailure bool) (*model.Post, error) {
	integration, err := u.integrations.GetByID(ctx, post.IntegrationID)
	if err != nil || integration == nil {
		return u.fail(ctx, post, "", countFailure, "integration is no longer connected")
	}
	platform := integration.Platform
	adapter, err := u.registry.Get(platform)
	if err != nil {
		return u.fail(ctx, post, platform, countFailure, err.Error())
	}
	if adapter.RequiresDestination() && (post.Destination == nil || post.Destination.ID == "") {
		return u.fail(ctx, post, platform, countFailure, fmt.Sprintf("%s posts require a destination", platform))
	}

	creds, err := u.resolver.Resolve(ctx, post.UserID, platform)
	if err != nil {
		return u.fail(ctx, post, platform, countFailure, fmt.Sprintf("credential resolution failed: %v", err))
	}

	content := &model.PostContent{
		PostID:           post.ID,
		Text:             post.Content,
		Destination:      post.Destination,
		AdditionalFields: post.AdditionalFields,
	}
	if post.MediaRef != nil {
		if u.media == nil {
			return u.fail(ctx, post, platform, countFailure, "media storage is not available")
		}
		media, err := u.media.Get(ctx, *post.MediaRef)
		if err != nil {
			return u.fail(ctx, post, platform, countFailure, fmt.Sprintf("load media: %v", err))
		}
		content.Media = media
	}

	result := social.Publish(ctx, adapter, content, integration.AccessToken, creds)
	if !result.Success {
		return u.fail(ctx, post, platform, countFailure, result.Error)
	}

	postedAt := time.Now().UTC()
	if err := u.posts.MarkPosted(ctx, post.ID, result.PostURL, postedAt); err != nil {
		return nil, fmt.Errorf("mark posted: %w", err)
	}
	post.Status = model.PostStatusPosted
	post.PostURL = &result.PostURL
	post.PostedAt = &postedAt
	post.FailReason = nil
	u.notify(ctx, post, platform, "post_posted", nil)
	logger.GetLogger().WithField("post_id", post.ID).WithField("platform", platform).Info("Post published")
	return post, nil
}

func (u *PostUsecase) fail(ctx context.Context, post *model.Post, platform model.Platform, countFailure bool, reason string) (*model.Post, error) {
	if err := u.posts.MarkFailed(ctx, post.ID, reason, countFailure); err != nil {
		return nil, fmt.Errorf("mark failed: %w", err)
	}
	post.Status = model.PostStatusFailed
	post.FailReason = &reason
	if countFailure {
		post.FailCount++
	}
	u.notify(ctx, post, platform, "post_failed", &reason)
	logger.GetLogger().WithField("post_id", post.ID).WithField("reason", reason).Warn("Post publish failed")
	return post, fmt.Errorf("publish post %d: %s", post.ID, reason)
}

func (u *PostUsecase) notify(ctx context.Context, post *model.Post, platform model.Platform, eventType string, failReason *string) {
	if u.broadcaster != nil {
		u.broadcaster.BroadcastPostStatus(post)
	}
	if len(u.events) == 0 {
		return
	}
	evt := &model.PostEvent{
		Type:     eventType,
		PostID:   post.ID,
		UserID:   post.UserID,
		Platform: platform,
		Status:   post.Status,
		PostURL:  post.PostURL,
		Error:    failReason,
		At:       time.Now().UTC(),
	}
	for _, publisher := range u.events {
		if err := publisher.PublishPostEvent(ctx, evt); err != nil {
			logger.GetLogger().WithField("post_id", post.ID).WithField("error", err).Warn("Post event publish failed")
		}
	}
}

func (u *PostUsecase) ownedPost(ctx context.Context, userID string, id int64) (*model.Post, error) {
	post, err := u.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.UserID != userID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (u *PostUsecase) ownedIntegration(ctx context.Context, userID string, id int64) (*model.Integration, error) {
	integration, err := u.integrations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return nil, ErrNotFound
	}
	if integration.UserID != userID {
		return nil, ErrForbidden
	}
	return integration, nil
}
