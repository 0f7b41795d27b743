package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"postqueue/domain/model"
	"postqueue/usecase"
)

func remotePost(id, content, url string) *model.RemotePost {
	ts := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return &model.RemotePost{ExternalID: id, Content: content, URL: url, PostedAt: &ts}
}

func TestFetchRecentSocialPosts_ImportsAndDeduplicates(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{
		platform:      model.PlatformTwitter,
		supportsFetch: true,
		recentPosts: []*model.RemotePost{
			remotePost("1", "brand new", "https://x.com/i/web/status/1"),
			remotePost("2", "dup by url", "https://x.com/i/web/status/2"),
			remotePost("3", "dup by content", "https://x.com/i/web/status/3"),
		},
	}

	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("HasPostedURL", mock.Anything, int64(7), "https://x.com/i/web/status/1").Return(false, nil)
	posts.On("HasPostedContent", mock.Anything, int64(7), "brand new").Return(false, nil)
	posts.On("HasPostedURL", mock.Anything, int64(7), "https://x.com/i/web/status/2").Return(true, nil)
	posts.On("HasPostedURL", mock.Anything, int64(7), "https://x.com/i/web/status/3").Return(false, nil)
	posts.On("HasPostedContent", mock.Anything, int64(7), "dup by content").Return(true, nil)
	posts.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Source == model.PostSourceImported && p.Status == model.PostStatusPosted && p.Content == "brand new"
	})).Return(&model.Post{ID: 100, Content: "brand new", Status: model.PostStatusPosted, Source: model.PostSourceImported}, nil)

	uc := usecase.NewImportUsecase(posts, integrations, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	summary, err := uc.FetchRecentSocialPosts(context.Background(), "user-1", 7)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, "imported 1 of 3 fetched posts (2 duplicates skipped)", summary.Message)
	posts.AssertExpectations(t)
}

func TestFetchRecentSocialPosts_AllDuplicates(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{
		platform:      model.PlatformTwitter,
		supportsFetch: true,
		recentPosts:   []*model.RemotePost{remotePost("1", "seen", "https://x.com/i/web/status/1")},
	}

	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("HasPostedURL", mock.Anything, int64(7), "https://x.com/i/web/status/1").Return(true, nil)

	uc := usecase.NewImportUsecase(posts, integrations, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	summary, err := uc.FetchRecentSocialPosts(context.Background(), "user-1", 7)

	require.NoError(t, err)
	assert.Equal(t, "all 1 fetched posts were already imported", summary.Message)
	posts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFetchRecentSocialPosts_NothingFetched(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter, supportsFetch: true}

	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)

	uc := usecase.NewImportUsecase(posts, integrations, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	summary, err := uc.FetchRecentSocialPosts(context.Background(), "user-1", 7)

	require.NoError(t, err)
	assert.Equal(t, "no recent posts found on the platform", summary.Message)
}

func TestFetchRecentSocialPosts_UnsupportedPlatform(t *testing.T) {
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter, supportsFetch: false}
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)

	uc := usecase.NewImportUsecase(new(MockPostRepository), integrations, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	_, err := uc.FetchRecentSocialPosts(context.Background(), "user-1", 7)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not support fetching recent posts")
}

func TestFetchRecentSocialPosts_ForeignIntegrationRejected(t *testing.T) {
	integrations := new(MockIntegrationRepository)
	other := twitterIntegration()
	other.UserID = "someone-else"
	integrations.On("GetByID", mock.Anything, int64(7)).Return(other, nil)

	uc := usecase.NewImportUsecase(new(MockPostRepository), integrations, newFakeRegistry(), &fakeResolver{creds: systemCreds()})
	_, err := uc.FetchRecentSocialPosts(context.Background(), "user-1", 7)

	assert.ErrorIs(t, err, usecase.ErrForbidden)
}
