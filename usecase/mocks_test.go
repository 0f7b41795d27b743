package usecase_test

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"

	"postqueue/domain/model"
	"postqueue/domain/repository"
)

// Mock implementations

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id int64, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *MockPostRepository) ClaimForPublish(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) MarkPosted(ctx context.Context, id int64, postURL string, postedAt time.Time) error {
	return m.Called(ctx, id, postURL, postedAt).Error(0)
}

func (m *MockPostRepository) MarkFailed(ctx context.Context, id int64, reason string, countFailure bool) error {
	return m.Called(ctx, id, reason, countFailure).Error(0)
}

func (m *MockPostRepository) FetchDue(ctx context.Context, now time.Time, failCap, limit int) ([]*model.Post, error) {
	args := m.Called(ctx, now, failCap, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Post), args.Error(1)
}

func (m *MockPostRepository) HasPostedContent(ctx context.Context, integrationID int64, content string) (bool, error) {
	args := m.Called(ctx, integrationID, content)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) HasPostedURL(ctx context.Context, integrationID int64, url string) (bool, error) {
	args := m.Called(ctx, integrationID, url)
	return args.Bool(0), args.Error(1)
}

type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) Upsert(ctx context.Context, integration *model.Integration) (*model.Integration, error) {
	args := m.Called(ctx, integration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) GetByID(ctx context.Context, id int64) (*model.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) GetByUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) Delete(ctx context.Context, id int64, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, cred *model.AppCredential) error {
	return m.Called(ctx, cred).Error(0)
}

func (m *MockCredentialRepository) Get(ctx context.Context, userID string, platform model.Platform) (*model.AppCredential, error) {
	args := m.Called(ctx, userID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AppCredential), args.Error(1)
}

func (m *MockCredentialRepository) Delete(ctx context.Context, userID string, platform model.Platform) error {
	return m.Called(ctx, userID, platform).Error(0)
}

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Save(ctx context.Context, media *model.Media) (string, error) {
	args := m.Called(ctx, media)
	return args.String(0), args.Error(1)
}

func (m *MockMediaStore) Get(ctx context.Context, ref string) (*model.Media, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Media), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

// fakeAdapter is a configurable ISocialPlatform. Only the behavior a test
// cares about needs to be set; zero values give a permissive no-destination
// platform.
type fakeAdapter struct {
	platform            model.Platform
	validateOK          bool
	postResult          *model.PostResult
	postCalls           int
	validateCalls       int
	panicOnPost         bool
	requiresDestination bool
	supportsDest        bool
	supportsFetch       bool
	requiredFields      []string
	charLimit           int
	recentPosts         []*model.RemotePost
	recentErr           error
	appCredErr          error
}

func (f *fakeAdapter) Platform() model.Platform { return f.platform }

func (f *fakeAdapter) ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool {
	f.validateCalls++
	return f.validateOK
}

func (f *fakeAdapter) PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult {
	f.postCalls++
	if f.panicOnPost {
		panic("adapter exploded")
	}
	return f.postResult
}

func (f *fakeAdapter) ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	return f.appCredErr
}

func (f *fakeAdapter) StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error) {
	return &model.AuthSession{URL: "https://example.com/auth", State: "state", Secret: "secret"}, nil
}

func (f *fakeAdapter) CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error) {
	return &model.Integration{Platform: f.platform, ExternalID: "ext-1", ExternalName: "account", AccessToken: "token"}, nil
}

func (f *fakeAdapter) SupportsDestinations() bool { return f.supportsDest }

func (f *fakeAdapter) RequiresDestination() bool { return f.requiresDestination }

func (f *fakeAdapter) SupportsFetchingRecentPosts() bool { return f.supportsFetch }

func (f *fakeAdapter) RequiredFields() []string { return f.requiredFields }

func (f *fakeAdapter) MaxCharacterLimit() int { return f.charLimit }

func (f *fakeAdapter) CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error) {
	return &model.Destination{Type: "subreddit", ID: rawInput, Name: "r/" + rawInput}, nil
}

func (f *fakeAdapter) SearchDestinations(ctx context.Context, query, accessToken string) ([]*model.Destination, error) {
	return nil, nil
}

func (f *fakeAdapter) FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error) {
	return f.recentPosts, f.recentErr
}

// fakeRegistry serves a fixed adapter set without network construction.
type fakeRegistry struct {
	adapters map[model.Platform]repository.ISocialPlatform
}

func newFakeRegistry(adapters ...repository.ISocialPlatform) *fakeRegistry {
	r := &fakeRegistry{adapters: make(map[model.Platform]repository.ISocialPlatform)}
	for _, a := range adapters {
		r.adapters[a.Platform()] = a
	}
	return r
}

func (r *fakeRegistry) Get(platform model.Platform) (repository.ISocialPlatform, error) {
	adapter, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	return adapter, nil
}

// fakeResolver answers a fixed credential (or nil).
type fakeResolver struct {
	creds *model.ResolvedCredential
	err   error
}

func (r *fakeResolver) Resolve(ctx context.Context, userID string, platform model.Platform) (*model.ResolvedCredential, error) {
	return r.creds, r.err
}

func systemCreds() *model.ResolvedCredential {
	return &model.ResolvedCredential{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://localhost/auth/callback",
		Source:       model.CredentialSourceSystem,
	}
}
