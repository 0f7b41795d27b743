package usecase

import (
	"context"
	"fmt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/logger"
)

// ImportSummary reports a recent-post import run. Message is the
// human-readable outcome shown to the user.
type ImportSummary struct {
	Fetched  int           `json:"fetched"`
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Message  string        `json:"message"`
	Posts    []*model.Post `json:"posts"`
}

type IImportUsecase interface {
	FetchRecentSocialPosts(ctx context.Context, userID string, integrationID int64) (*ImportSummary, error)
}

// ImportUsecase pulls a user's recent posts back from a platform and
// reconciles them against the local store so the same post is never
// imported twice.
type ImportUsecase struct {
	posts        repository.IPost
	integrations repository.IIntegration
	registry     IPlatformRegistry
	resolver     ICredentialResolver
}

func NewImportUsecase(posts repository.IPost, integrations repository.IIntegration, registry IPlatformRegistry, resolver ICredentialResolver) *ImportUsecase {
	return &ImportUsecase{posts: posts, integrations: integrations, registry: registry, resolver: resolver}
}

func (u *ImportUsecase) FetchRecentSocialPosts(ctx context.Context, userID string, integrationID int64) (*ImportSummary, error) {
	integration, err := u.integrations.GetByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return nil, ErrNotFound
	}
	if integration.UserID != userID {
		return nil, ErrForbidden
	}
	adapter, err := u.registry.Get(integration.Platform)
	if err != nil {
		return nil, err
	}
	if !adapter.SupportsFetchingRecentPosts() {
		return nil, fmt.Errorf("%s does not support fetching recent posts", integration.Platform)
	}
	creds, err := u.resolver.Resolve(ctx, userID, integration.Platform)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, ErrCredentialsNotConfigured
	}

	remote, err := adapter.FetchRecentPosts(ctx, integration.AccessToken, creds)
	if err != nil {
		return nil, fmt.Errorf("fetch recent posts: %w", err)
	}

	summary := &ImportSummary{Fetched: len(remote), Posts: []*model.Post{}}
	for _, rp := range remote {
		duplicate, err := u.isDuplicate(ctx, integration.ID, rp)
		if err != nil {
			return nil, err
		}
		if duplicate {
			summary.Skipped++
			continue
		}
		post := &model.Post{
			UserID:        userID,
			IntegrationID: integration.ID,
			Content:       rp.Content,
			Status:        model.PostStatusPosted,
			PostedAt:      rp.PostedAt,
			Source:        model.PostSourceImported,
		}
		if rp.URL != "" {
			url := rp.URL
			post.PostURL = &url
		}
		created, err := u.posts.Create(ctx, post)
		if err != nil {
			return nil, fmt.Errorf("import post: %w", err)
		}
		summary.Imported++
		summary.Posts = append(summary.Posts, created)
	}
	summary.Message = importMessage(summary)
	logger.GetLogger().WithField("integration_id", integrationID).WithField("imported", summary.Imported).WithField("skipped", summary.Skipped).Info("Recent post import finished")
	return summary, nil
}

// isDuplicate matches on exact post URL first, then on exact content.
func (u *ImportUsecase) isDuplicate(ctx context.Context, integrationID int64, rp *model.RemotePost) (bool, error) {
	if rp.URL != "" {
		exists, err := u.posts.HasPostedURL(ctx, integrationID, rp.URL)
		if err != nil || exists {
			return exists, err
		}
	}
	return u.posts.HasPostedContent(ctx, integrationID, rp.Content)
}

func importMessage(s *ImportSummary) string {
	switch {
	case s.Fetched == 0:
		return "no recent posts found on the platform"
	case s.Imported == 0:
		return fmt.Sprintf("all %d fetched posts were already imported", s.Fetched)
	default:
		return fmt.Sprintf("imported %d of %d fetched posts (%d duplicates skipped)", s.Imported, s.Fetched, s.Skipped)
	}
}
