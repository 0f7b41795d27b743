package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"postqueue/domain/model"
	"postqueue/usecase"
)

func twitterIntegration() *model.Integration {
	return &model.Integration{
		ID:          7,
		UserID:      "user-1",
		Platform:    model.PlatformTwitter,
		ExternalID:  "123",
		AccessToken: "token:secret",
	}
}

func TestCreatePost_ImmediatePublishEndToEnd(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{
		platform:   model.PlatformTwitter,
		charLimit:  280,
		validateOK: true,
		postResult: &model.PostResult{Success: true, PostURL: "https://x.com/i/web/status/42"},
	}

	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("Create", mock.Anything, mock.AnythingOfType("*model.Post")).
		Return(&model.Post{ID: 42, UserID: "user-1", IntegrationID: 7, Content: "hello", Status: model.PostStatusDraft, Source: model.PostSourceNative}, nil)
	posts.On("GetByID", mock.Anything, int64(42)).
		Return(&model.Post{ID: 42, UserID: "user-1", IntegrationID: 7, Content: "hello", Status: model.PostStatusDraft}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(42)).Return(true, nil)
	posts.On("MarkPosted", mock.Anything, int64(42), "https://x.com/i/web/status/42", mock.AnythingOfType("time.Time")).Return(nil)

	uc := usecase.NewPostUsecase(posts, integrations, nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	post, err := uc.CreatePost(context.Background(), "user-1", &usecase.CreatePostRequest{IntegrationID: 7, Content: "hello"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPosted, post.Status)
	require.NotNil(t, post.PostURL)
	assert.Equal(t, "https://x.com/i/web/status/42", *post.PostURL)
	assert.NotNil(t, post.PostedAt)
	assert.Equal(t, 1, adapter.postCalls)
	posts.AssertExpectations(t)
}

func TestCreatePost_FutureScheduleIsNotDispatched(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter, charLimit: 280}

	future := time.Now().Add(2 * time.Hour).UTC()
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("Create", mock.Anything, mock.MatchedBy(func(p *model.Post) bool {
		return p.Status == model.PostStatusScheduled && p.ScheduledAt != nil && p.ScheduledAt.Equal(future)
	})).Return(&model.Post{ID: 43, Status: model.PostStatusScheduled, ScheduledAt: &future}, nil)

	uc := usecase.NewPostUsecase(posts, integrations, nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	post, err := uc.CreatePost(context.Background(), "user-1", &usecase.CreatePostRequest{
		IntegrationID: 7, Content: "later", ScheduledAt: &future,
	})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, post.Status)
	assert.Equal(t, 0, adapter.postCalls)
	posts.AssertNotCalled(t, "ClaimForPublish", mock.Anything, mock.Anything)
}

func TestCreatePost_Validation(t *testing.T) {
	integrations := new(MockIntegrationRepository)
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)

	tests := []struct {
		name    string
		adapter *fakeAdapter
		req     *usecase.CreatePostRequest
		wantErr string
	}{
		{
			name:    "empty content",
			adapter: &fakeAdapter{platform: model.PlatformTwitter},
			req:     &usecase.CreatePostRequest{IntegrationID: 7, Content: "   "},
			wantErr: "must not be empty",
		},
		{
			name:    "over character limit",
			adapter: &fakeAdapter{platform: model.PlatformTwitter, charLimit: 280},
			req:     &usecase.CreatePostRequest{IntegrationID: 7, Content: strings.Repeat("a", 281)},
			wantErr: "280 character limit",
		},
		{
			name:    "destination required",
			adapter: &fakeAdapter{platform: model.PlatformTwitter, requiresDestination: true, supportsDest: true},
			req:     &usecase.CreatePostRequest{IntegrationID: 7, Content: "hi"},
			wantErr: "require a destination",
		},
		{
			name:    "destination on platform without destinations",
			adapter: &fakeAdapter{platform: model.PlatformTwitter},
			req: &usecase.CreatePostRequest{IntegrationID: 7, Content: "hi",
				Destination: &model.Destination{Type: "subreddit", ID: "golang"}},
			wantErr: "does not support destinations",
		},
		{
			name:    "missing required field",
			adapter: &fakeAdapter{platform: model.PlatformTwitter, requiredFields: []string{"title"}},
			req:     &usecase.CreatePostRequest{IntegrationID: 7, Content: "hi"},
			wantErr: `require the "title" field`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := usecase.NewPostUsecase(new(MockPostRepository), integrations, nil, newFakeRegistry(tt.adapter), &fakeResolver{creds: systemCreds()})
			_, err := uc.CreatePost(context.Background(), "user-1", tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPublish_PostedPostIsANoOp(t *testing.T) {
	posts := new(MockPostRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter, validateOK: true}
	url := "https://x.com/i/web/status/1"
	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", Status: model.PostStatusPosted, PostURL: &url}, nil)

	uc := usecase.NewPostUsecase(posts, new(MockIntegrationRepository), nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	post, err := uc.Publish(context.Background(), "user-1", 1)

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPosted, post.Status)
	assert.Equal(t, 0, adapter.postCalls)
	posts.AssertNotCalled(t, "ClaimForPublish", mock.Anything, mock.Anything)
	posts.AssertNotCalled(t, "MarkPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_LostClaimDoesNotCallAdapter(t *testing.T) {
	posts := new(MockPostRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter, validateOK: true}
	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", IntegrationID: 7, Status: model.PostStatusScheduled}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(1)).Return(false, nil)

	uc := usecase.NewPostUsecase(posts, new(MockIntegrationRepository), nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	_, err := uc.Publish(context.Background(), "user-1", 1)

	require.NoError(t, err)
	assert.Equal(t, 0, adapter.postCalls)
}

func TestPublish_MissingCredentialsFailsWithoutCountingFailure(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{platform: model.PlatformTwitter}

	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", IntegrationID: 7, Status: model.PostStatusDraft}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(1)).Return(true, nil)
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("MarkFailed", mock.Anything, int64(1), mock.MatchedBy(func(reason string) bool {
		return strings.Contains(reason, "no app credentials configured")
	}), false).Return(nil)

	uc := usecase.NewPostUsecase(posts, integrations, nil, newFakeRegistry(adapter), &fakeResolver{creds: nil})
	post, err := uc.Publish(context.Background(), "user-1", 1)

	require.Error(t, err)
	assert.Equal(t, model.PostStatusFailed, post.Status)
	assert.Equal(t, 0, post.FailCount)
	assert.Equal(t, 0, adapter.postCalls)
	posts.AssertExpectations(t)
}

func TestPublish_PlatformErrorPersistsReason(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{
		platform:   model.PlatformTwitter,
		validateOK: true,
		postResult: &model.PostResult{Success: false, Code: model.ResultCodePlatformError, Error: "twitter returned status 429: rate limit exceeded"},
	}

	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", IntegrationID: 7, Status: model.PostStatusDraft}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(1)).Return(true, nil)
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("MarkFailed", mock.Anything, int64(1), "twitter returned status 429: rate limit exceeded", false).Return(nil)

	uc := usecase.NewPostUsecase(posts, integrations, nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	post, err := uc.Publish(context.Background(), "user-1", 1)

	require.Error(t, err)
	assert.Equal(t, model.PostStatusFailed, post.Status)
	require.NotNil(t, post.FailReason)
	assert.Contains(t, *post.FailReason, "rate limit")
	posts.AssertExpectations(t)
}

func TestPublishScheduled_FailureCountsTowardCap(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	adapter := &fakeAdapter{
		platform:   model.PlatformTwitter,
		validateOK: true,
		postResult: &model.PostResult{Success: false, Code: model.ResultCodePlatformError, Error: "twitter returned status 429: rate limit exceeded"},
	}

	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", IntegrationID: 7, Status: model.PostStatusScheduled}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(1)).Return(true, nil)
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	posts.On("MarkFailed", mock.Anything, int64(1), mock.AnythingOfType("string"), true).Return(nil)

	uc := usecase.NewPostUsecase(posts, integrations, nil, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	err := uc.PublishScheduled(context.Background(), 1)

	require.Error(t, err)
	posts.AssertExpectations(t)
}

func TestPublish_OwnershipEnforced(t *testing.T) {
	posts := new(MockPostRepository)
	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "someone-else", Status: model.PostStatusDraft}, nil)

	uc := usecase.NewPostUsecase(posts, new(MockIntegrationRepository), nil, newFakeRegistry(), &fakeResolver{creds: systemCreds()})
	_, err := uc.Publish(context.Background(), "user-1", 1)

	assert.ErrorIs(t, err, usecase.ErrForbidden)
}

func TestPublish_MediaLoadedBeforeAdapterCall(t *testing.T) {
	posts := new(MockPostRepository)
	integrations := new(MockIntegrationRepository)
	media := new(MockMediaStore)
	var seenMedia *model.Media
	adapter := &fakeAdapter{
		platform:   model.PlatformTwitter,
		validateOK: true,
		postResult: &model.PostResult{Success: true, PostURL: "https://x.com/i/web/status/9"},
	}

	ref := "media-ref-1"
	posts.On("GetByID", mock.Anything, int64(1)).
		Return(&model.Post{ID: 1, UserID: "user-1", IntegrationID: 7, Status: model.PostStatusDraft, MediaRef: &ref}, nil)
	posts.On("ClaimForPublish", mock.Anything, int64(1)).Return(true, nil)
	integrations.On("GetByID", mock.Anything, int64(7)).Return(twitterIntegration(), nil)
	media.On("Get", mock.Anything, ref).Return(&model.Media{Data: []byte{1, 2, 3}, MimeType: "image/png"}, nil).
		Run(func(args mock.Arguments) { seenMedia = &model.Media{Data: []byte{1, 2, 3}, MimeType: "image/png"} })
	posts.On("MarkPosted", mock.Anything, int64(1), mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	uc := usecase.NewPostUsecase(posts, integrations, media, newFakeRegistry(adapter), &fakeResolver{creds: systemCreds()})
	post, err := uc.Publish(context.Background(), "user-1", 1)

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPosted, post.Status)
	assert.NotNil(t, seenMedia)
	media.AssertExpectations(t)
}
